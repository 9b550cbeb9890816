package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/roomclimate/internal/catalog"
)

// Error is the body of every non-2xx response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned in Error.Code.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeTooLarge     = "payload_too_large"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // Client may have gone away; nothing useful to do
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeCatalogError maps a registry error to its HTTP status.
// Validation messages are passed through without the package prefix so the
// caller sees e.g. "missing required field: location".
func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, detail(err, catalog.ErrNotFound))
	case errors.Is(err, catalog.ErrInvalidDevice):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, detail(err, catalog.ErrInvalidDevice))
	case errors.Is(err, catalog.ErrInvalidService):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, detail(err, catalog.ErrInvalidService))
	case errors.Is(err, catalog.ErrInvalidFilter), errors.Is(err, catalog.ErrIDMismatch):
		writeBadRequest(w, detail(err, nil))
	default:
		s.logger.Error("registry operation failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID(r),
		)
		writeInternalError(w, "registry update could not be persisted")
	}
}

// detail strips the sentinel's text from err, leaving the specific reason.
func detail(err, sentinel error) string {
	msg := err.Error()
	if sentinel != nil {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	if _, rest, ok := strings.Cut(msg, ": "); ok && strings.HasPrefix(msg, "catalog") {
		return rest
	}
	return msg
}

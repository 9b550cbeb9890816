package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/roomclimate/internal/catalog"
)

// idResponse is returned by every successful mutation.
type idResponse struct {
	ID string `json:"id"`
}

// deletedResponse is returned by a filtered delete.
type deletedResponse struct {
	Deleted int `json:"deleted"`
}

// filterFromQuery reads ?id=&room=&type=.
func filterFromQuery(r *http.Request) catalog.DeviceFilter {
	q := r.URL.Query()
	return catalog.DeviceFilter{
		ID:   q.Get("id"),
		Room: q.Get("room"),
		Kind: q.Get("type"),
	}
}

// readBody reads the request body, reporting oversize bodies as 413.
// It returns false after writing an error response.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeBadRequest(w, "reading request body failed")
		return nil, false
	}
	return body, true
}

// upsertStatus is 201 for a new entry and 200 for a replaced one.
func upsertStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

// handleListDevices returns the devices matching the query filter.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.ListDevices(r.Context(), filterFromQuery(r))
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleGetDevice returns one device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.registry.GetDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleCreateDevice creates or replaces the device named by the body id.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	d, err := catalog.DecodeDevice(body)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.upsertDevice(w, r, d)
}

// handlePutDevice creates or replaces the device at the path id.
// The body id must match the path.
func (s *Server) handlePutDevice(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	d, err := catalog.DecodeDevice(body)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	if id := chi.URLParam(r, "id"); d.ID != id {
		s.writeCatalogError(w, r, fmt.Errorf("%w: path %q, body %q", catalog.ErrIDMismatch, id, d.ID))
		return
	}
	s.upsertDevice(w, r, d)
}

func (s *Server) upsertDevice(w http.ResponseWriter, r *http.Request, d *catalog.Device) {
	id, created, err := s.registry.UpsertDevice(r.Context(), d)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, upsertStatus(created), idResponse{ID: id})
}

// handleDeleteDevice removes one device.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.DeleteDevice(r.Context(), id); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

// handleDeleteDevices removes every device whose id matches the query filter.
func (s *Server) handleDeleteDevices(w http.ResponseWriter, r *http.Request) {
	n, err := s.registry.DeleteDevices(r.Context(), filterFromQuery(r))
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nerrad567/roomclimate/internal/auth"
)

// tokenRequest is the request body for POST {api_prefix}/auth/token.
type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// tokenResponse is the response body for POST {api_prefix}/auth/token.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// handleIssueToken exchanges a configured client's secret for a bearer token.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req tokenRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ClientID == "" || req.ClientSecret == "" {
		writeBadRequest(w, "client_id and client_secret are required")
		return
	}

	if err := s.clients.Authenticate(req.ClientID, req.ClientSecret); err != nil {
		s.logger.Warn("token request rejected",
			"client_id", req.ClientID,
			"request_id", requestID(r),
		)
		writeUnauthorized(w, "invalid credentials")
		return
	}

	ttl := time.Duration(s.secCfg.JWT.TokenTTL) * time.Minute
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}
	token, err := auth.IssueToken(s.secCfg.JWT.Secret, req.ClientID, ttl)
	if err != nil {
		s.logger.Error("failed to sign token", "error", err)
		writeInternalError(w, "failed to generate token")
		return
	}

	s.logger.Info("token issued", "client_id", req.ClientID)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
	})
}

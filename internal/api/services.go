package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/roomclimate/internal/catalog"
)

// handleListServices returns computed services followed by registered ones.
func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.registry.ListServices(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

// handleGetService returns one service.
func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	svc, err := s.registry.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// handleCreateService creates or replaces a registered service.
func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	svc, err := catalog.DecodeService(body)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}

	id, created, err := s.registry.UpsertService(r.Context(), svc)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, upsertStatus(created), idResponse{ID: id})
}

// handleDeleteService removes a registered service.
func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.DeleteService(r.Context(), id); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

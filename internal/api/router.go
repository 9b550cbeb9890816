package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/debug/metrics", s.handleMetrics)

	// Control loop read API
	if s.control != nil {
		r.Get("/", s.handleDashboard)
		r.Get("/debug/cache", s.handleDebugCache)
		r.Get("/debug/state", s.handleDebugState)
		r.Get(s.wsPath(), s.handleWebSocket)
	}

	// Registry gateway
	if s.registry != nil {
		if s.prefix == "" {
			r.Group(s.registryRoutes)
		} else {
			r.Route(s.prefix, s.registryRoutes)
		}
	}

	return r
}

// registryRoutes mounts the device and service directory.
// With a JWT secret configured every route except the token exchange
// requires a bearer token.
func (s *Server) registryRoutes(r chi.Router) {
	if s.authEnabled() {
		r.Post("/auth/token", s.handleIssueToken)
	}

	r.Group(func(r chi.Router) {
		if s.authEnabled() {
			r.Use(s.authMiddleware)
		}

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleCreateDevice)
			r.Delete("/", s.handleDeleteDevices)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Put("/", s.handlePutDevice)
				r.Delete("/", s.handleDeleteDevice)
			})
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", s.handleListServices)
			r.Post("/", s.handleCreateService)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetService)
				r.Delete("/", s.handleDeleteService)
			})
		})
	})
}

// authEnabled reports whether registry routes require a bearer token.
func (s *Server) authEnabled() bool {
	return s.secCfg.JWT.Secret != ""
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

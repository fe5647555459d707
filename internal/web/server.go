// Package web serves the card catalog admin: HTML pages rendered with templ
// and a JSON API under /api.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/JonMunkholm/cardadmin/internal/config"
	"github.com/JonMunkholm/cardadmin/internal/core"
	"github.com/JonMunkholm/cardadmin/internal/logging"
	mw "github.com/JonMunkholm/cardadmin/internal/web/middleware"
)

// Server is the HTTP server for the admin.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires routes and middleware for service.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	timeout := middleware.Timeout(s.cfg.Server.RequestTimeout)

	// Import creation is limited separately from general traffic.
	limitImports := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled && s.cfg.Rate.ImportLimit > 0 {
		limitImports = newRateLimiter(s.cfg.Rate.ImportLimit, time.Minute).middleware
	}

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(timeout)

		r.Get("/", s.handleOverview)

		r.Get("/sets", s.handleSetsPage)
		r.Post("/sets", s.handleCreateSetForm)
		r.Get("/sets/{setID}", s.handleSetPage)
		r.Post("/sets/{setID}", s.handleUpdateSetForm)
		r.Post("/sets/{setID}/delete", s.handleDeleteSetForm)

		r.Get("/cards", s.handleCardsPage)
		r.Post("/cards/{cardID}/delete", s.handleDeleteCardForm)

		r.Get("/import", s.handleImportPage)
		r.With(limitImports).Post("/import", s.handleCreateImportForm)
		r.Get("/import/{importID}", s.handleImportDetail)
		r.Post("/import/{importID}/file", s.handleImportFileForm)
		r.Post("/import/{importID}/set", s.handleImportSetForm)
		r.With(limitImports).Post("/import/{importID}/start", s.handleStartImportForm)

		r.Get("/analytics", s.placeholder("Analytics", "analytics", "Import and catalog analytics are not available yet."))
		r.Get("/users", s.placeholder("Users", "users", "User management is not available yet."))
		r.Get("/settings", s.placeholder("Settings", "settings", "Settings are not available yet."))
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		if len(s.cfg.Security.AllowedOrigins) > 0 {
			r.Use(cors.New(cors.Options{
				AllowedOrigins: s.cfg.Security.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
				AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
				MaxAge:         300,
			}).Handler)
		}

		// Progress streams outlive the request timeout.
		r.Get("/imports/{importID}/progress", s.handleImportProgress)

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Get("/stats", s.handleStats)

			r.Get("/sets", s.handleListSets)
			r.Post("/sets", s.handleCreateSet)
			r.Get("/sets/{setID}", s.handleGetSet)
			r.Put("/sets/{setID}", s.handleUpdateSet)
			r.Delete("/sets/{setID}", s.handleDeleteSet)

			r.Get("/cards", s.handleListCards)
			r.Post("/cards", s.handleCreateCard)
			r.Get("/cards/{cardID}", s.handleGetCard)
			r.Delete("/cards/{cardID}", s.handleDeleteCard)

			r.With(limitImports).Post("/imports", s.handleCreateImport)
			r.Get("/imports/{importID}", s.handleGetImport)
			r.Post("/imports/{importID}/file", s.handleImportFile)
			r.Put("/imports/{importID}/set", s.handleImportSet)
			r.With(limitImports).Post("/imports/{importID}/start", s.handleStartImport)
		})
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, errPageNotFound)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; connect-src 'self'"

func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "origin-when-cross-origin")
			if csp {
				h.Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v with the given status. Encoding errors are only
// logged since the header is already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

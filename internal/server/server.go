// Package server assembles the HTTP API: routing, middleware, and the
// lifecycle of the listener.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	cataloghandler "github.com/tesseramedia/tessera/internal/catalog/handler"
	reviewhandler "github.com/tesseramedia/tessera/internal/review/handler"
	userhandler "github.com/tesseramedia/tessera/internal/user/handler"
	"github.com/tesseramedia/tessera/pkg/auth"
	"github.com/tesseramedia/tessera/pkg/config"
	"github.com/tesseramedia/tessera/pkg/httpx"
	"github.com/tesseramedia/tessera/pkg/interfaces"
	"github.com/tesseramedia/tessera/pkg/metrics"
)

// Handlers groups the HTTP handlers mounted on the API router.
type Handlers struct {
	Auth       *userhandler.AuthHandler
	Users      *userhandler.UserHandler
	Categories *cataloghandler.CategoryHandler
	Genres     *cataloghandler.GenreHandler
	Titles     *cataloghandler.TitleHandler
	Reviews    *reviewhandler.ReviewHandler
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	logger     interfaces.Logger
}

// New builds the server with the full route table.
func New(
	cfg *config.Config,
	jwtManager *auth.JWTManager,
	handlers Handlers,
	logger interfaces.Logger,
) *Server {
	router := NewRouter(cfg, jwtManager, handlers, logger)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Service.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter assembles the chi router. The identity middleware runs on
// every request; permission decisions stay in the handlers so read
// endpoints remain open to anonymous callers.
func NewRouter(
	cfg *config.Config,
	jwtManager *auth.JWTManager,
	handlers Handlers,
	logger interfaces.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware(routePattern))
	}
	r.Use(auth.Middleware(jwtManager, logger))

	r.NotFound(httpx.NotFoundHandler())
	r.MethodNotAllowed(httpx.MethodNotAllowedHandler())

	r.Get("/health", healthHandler)
	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", handlers.Auth.Routes())
		r.Mount("/users", handlers.Users.Routes())
		r.Mount("/categories", handlers.Categories.Routes())
		r.Mount("/genres", handlers.Genres.Routes())
		r.Mount("/titles", handlers.Titles.Routes())
		r.Mount("/titles/{titleID}/reviews", handlers.Reviews.Routes())
	})

	return r
}

// routePattern returns the matched chi route pattern for metric labels.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting",
		interfaces.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

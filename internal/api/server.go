package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apihandler "github.com/newthinker/strategylab/internal/api/handler/api"
	"github.com/newthinker/strategylab/internal/api/handler/web"
	"github.com/newthinker/strategylab/internal/api/middleware"
	"github.com/newthinker/strategylab/internal/metrics"
	"github.com/newthinker/strategylab/internal/session"
	"github.com/newthinker/strategylab/internal/workspace"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for the backtest front-end
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	TemplatesDir string
	// MetricsPath serves Prometheus metrics when Metrics is set.
	MetricsPath string
}

// Dependencies are the services the routes call into.
type Dependencies struct {
	Sessions   *session.Manager
	Auth       web.Authenticator
	Workspaces *workspace.Store
	// Metrics is optional; nil disables HTTP metrics and the metrics route.
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		logger: logger,
		mux:    http.NewServeMux(),
	}

	// Set up routes
	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	// Metrics wraps the mux directly so the matched pattern is visible.
	var h http.Handler = s.mux
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	h = deps.Sessions.Middleware(h)
	h = metrics.LoggingMiddleware(logger.Named("http"))(h)
	s.handler = h

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	webDeps := web.Dependencies{
		Sessions:   deps.Sessions,
		Auth:       deps.Auth,
		Workspaces: deps.Workspaces,
		Logger:     s.logger,
	}
	if deps.Metrics != nil {
		webDeps.Metrics = deps.Metrics
	}
	webHandler, err := web.NewHandler(cfg.TemplatesDir, webDeps)
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}
	protect := func(h http.HandlerFunc) http.Handler { return middleware.RequireSession(h) }

	// Web UI routes
	s.mux.HandleFunc("GET /{$}", webHandler.Home)
	s.mux.HandleFunc("GET /login", webHandler.LoginPage)
	s.mux.HandleFunc("POST /login", webHandler.Login)
	s.mux.HandleFunc("GET /signup", webHandler.SignupPage)
	s.mux.HandleFunc("POST /signup", webHandler.Signup)
	s.mux.HandleFunc("POST /logout", webHandler.Logout)
	s.mux.Handle("GET /backtest", protect(webHandler.Backtest))
	s.mux.Handle("POST /backtest", protect(webHandler.Submit))
	s.mux.Handle("POST /backtest/field", protect(webHandler.Field))
	s.mux.Handle("POST /backtest/table", protect(webHandler.Table))
	s.mux.Handle("GET /backtest/export", protect(webHandler.Export))

	// JSON routes
	runHandler := apihandler.NewRunHandler(deps.Workspaces)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.Handle("GET /api/v1/run", middleware.RequireSessionJSON(http.HandlerFunc(runHandler.Get)))

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	return nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

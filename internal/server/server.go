// Package server wires the classroom API together: store → services →
// handlers → routes, plus the middleware chain and graceful shutdown.
//
// This is the composition root. Nothing below this package constructs its
// own dependencies.
//
//	config ──► store (sqlite | postgres)
//	       ──► TokenService, PasswordService, Metrics
//	       ──► AuthService, ClassService, AssignmentService
//	       ──► handlers ──► chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakif/classroom/internal/auth"
	"github.com/sakif/classroom/internal/config"
	"github.com/sakif/classroom/internal/handler"
	"github.com/sakif/classroom/internal/metrics"
	"github.com/sakif/classroom/internal/middleware"
	"github.com/sakif/classroom/internal/model"
	"github.com/sakif/classroom/internal/repository"
	"github.com/sakif/classroom/internal/repository/postgres"
	sqliteRepo "github.com/sakif/classroom/internal/repository/sqlite"
	"github.com/sakif/classroom/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store: Start closes it after the HTTP server has
// drained, and Close does so for a Server that was never started.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	store    repository.Store
	registry *prometheus.Registry
}

// New opens the configured store, migrates it, and builds the Server.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	s, err := NewWithStore(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// OpenStore opens and migrates the store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqliteRepo.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	case config.DriverPostgres:
		store, err := postgres.Connect(ctx, cfg.DSN, postgres.Options{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewWithStore builds the Server on an already open store. Tests use it with
// an in-memory SQLite database.
func NewWithStore(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                        {"ok":true}
//	GET    /healthz                 database ping
//	GET    /metrics                 Prometheus (when enabled)
//	POST   /api/users               register
//	POST   /api/auth/login          login
//	POST   /api/auth/refresh        RequireAuth
//	GET    /api/me                  RequireAuth
//	GET    /api/users               RequireAuth + LoadRole (teacher's students)
//	GET    /api/classes[/{id}]      RequireAuth + LoadRole
//	POST   /api/classes             RequireAuth + RequireRole(teacher)
//	PATCH  /api/classes/{id}        RequireAuth + RequireRole(teacher)
//	DELETE /api/classes/{id}        RequireAuth + RequireRole(teacher)
//	...    /api/assignments         same layout as /api/classes
//
// MIDDLEWARE ORDER:
// RequestID first so every later log line carries it, Recoverer last so a
// panic still passes through Logger and Metrics as a 500.
func (s *Server) setupRoutes() error {
	var m *metrics.Metrics
	if s.config.Metrics.Enabled {
		s.registry = metrics.NewRegistry()
		m = metrics.New(s.registry)
	}

	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.JWTExpiry)
	if err != nil {
		return err
	}
	passwords, err := auth.NewPasswordService(s.config.Auth.BCryptCost, s.config.Auth.HashConcurrency)
	if err != nil {
		return err
	}

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(m))
	s.router.Use(chimiddleware.Recoverer)

	// === Services and handlers ===
	// s.store satisfies every repository interface; each service sees only
	// the one it needs.
	guard := auth.NewGuard(tokens, s.store, s.logger, m)
	authHandler := handler.NewAuthHandler(service.NewAuthService(s.store, tokens, passwords, m, s.logger), s.logger)
	classHandler := handler.NewClassHandler(service.NewClassService(s.store, s.logger), s.logger)
	assignmentHandler := handler.NewAssignmentHandler(service.NewAssignmentService(s.store, s.logger), s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	s.router.Get("/", healthHandler.HandleRoot)
	s.router.Get("/healthz", healthHandler.HandleHealthz)
	if s.registry != nil {
		s.router.Handle("/metrics", metrics.Handler(s.registry))
	}

	teacherOnly := guard.RequireRole(model.RoleTeacher)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/users", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireAuth)

			r.Post("/auth/refresh", authHandler.HandleRefresh)
			r.Get("/me", authHandler.HandleMe)

			r.Group(func(r chi.Router) {
				r.Use(guard.LoadRole)

				r.Get("/users", authHandler.HandleListStudents)

				r.Get("/classes", classHandler.HandleList)
				r.Get("/classes/{id}", classHandler.HandleGet)
				r.With(teacherOnly).Post("/classes", classHandler.HandleCreate)
				r.With(teacherOnly).Patch("/classes/{id}", classHandler.HandleUpdate)
				r.With(teacherOnly).Delete("/classes/{id}", classHandler.HandleDelete)

				r.Get("/assignments", assignmentHandler.HandleList)
				r.Get("/assignments/{id}", assignmentHandler.HandleGet)
				r.With(teacherOnly).Post("/assignments", assignmentHandler.HandleCreate)
				r.With(teacherOnly).Patch("/assignments/{id}", assignmentHandler.HandleUpdate)
				r.With(teacherOnly).Delete("/assignments/{id}", assignmentHandler.HandleDelete)
			})
		})
	})

	return nil
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully:
//  1. stop accepting new connections
//  2. wait up to http.shutdowntimeout for in-flight requests
//  3. close the store
func (s *Server) Start(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(s.config.HTTP.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.HTTP.ReadTimeout,
		WriteTimeout: s.config.HTTP.WriteTimeout,
		IdleTimeout:  s.config.HTTP.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.HTTP.Port),
			slog.String("database", s.config.Database.Driver),
			slog.Duration("tokenLifetime", s.config.Auth.JWTExpiry),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

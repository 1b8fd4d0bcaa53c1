// Package server is the composition root: it opens the store, wires the
// service, generator and churn scheduler to the HTTP handlers, and owns the
// process lifecycle (startup seeding, graceful shutdown).
//
// DEPENDENCY FLOW:
//
//	sqlite.DB (repository.UserRepository)
//	  ├─ service.UserService → handler.UserHandler, handler.HealthHandler
//	  └─ churn.Scheduler ← generator.Generator
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/user-service/internal/churn"
	"github.com/sakif/user-service/internal/config"
	"github.com/sakif/user-service/internal/generator"
	"github.com/sakif/user-service/internal/handler"
	"github.com/sakif/user-service/internal/middleware"
	sqliteRepo "github.com/sakif/user-service/internal/repository/sqlite"
	"github.com/sakif/user-service/internal/service"
)

const memoryDB = ":memory:"

// Server holds the router and every long-lived dependency.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	users  *service.UserService
	churn  *churn.Scheduler
}

// New opens the database at cfg.DBPath (creating its directory when
// needed), runs migrations and wires all components. Nothing is seeded and
// no background work starts until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.DBPath != memoryDB {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	users := service.NewUserService(db, service.Limits{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
	}, logger.With(slog.String("component", "service")))

	gen := generator.New(cfg.GeneratorSeed)
	scheduler := churn.New(db, gen, churn.Config{Interval: cfg.Churn.Interval},
		logger.With(slog.String("component", "churn")))

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		users:  users,
		churn:  scheduler,
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
//	GET    /health              liveness
//	GET    /stats               totals and gender distribution
//	GET    /v1/users            every user
//	GET    /v1/users/search     filtered, paginated
//	GET    /v1/users/{id}
//	POST   /v1/users
//	PUT    /v1/users/{id}       partial update
//	DELETE /v1/users/{id}
//
// /v1/users/search is registered before /{id}; chi prefers static segments
// anyway, so "search" is never read as an id.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	health := handler.NewHealthHandler(s.users, s.logger)
	s.router.Get("/health", health.HandleHealth)
	s.router.Get("/stats", health.HandleStats)

	users := handler.NewUserHandler(s.users, s.logger)
	s.router.Route("/v1/users", func(r chi.Router) {
		r.Get("/", users.HandleList)
		r.Post("/", users.HandleCreate)
		r.Get("/search", users.HandleSearch)
		r.Get("/{id}", users.HandleGet)
		r.Put("/{id}", users.HandleUpdate)
		r.Delete("/{id}", users.HandleDelete)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Seed fills an empty store with cfg.UsersNumber generated users.
func (s *Server) Seed(ctx context.Context) error {
	_, err := s.churn.Seed(ctx, s.config.UsersNumber)
	return err
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start seeds the store, starts the churn scheduler and serves HTTP until
// SIGINT/SIGTERM. Shutdown order: stop accepting requests, wait for
// in-flight ones (up to cfg.ShutdownTimeout), stop churn, close the store.
func (s *Server) Start() error {
	defer s.db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Seed(ctx); err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}

	if s.config.Churn.Enabled {
		if err := s.churn.Start(ctx); err != nil {
			return fmt.Errorf("starting churn: %w", err)
		}
		defer func() {
			if err := s.churn.Stop(); err != nil && !errors.Is(err, churn.ErrNotRunning) {
				s.logger.Error("stopping churn", slog.String("error", err.Error()))
			}
		}()
	} else {
		s.logger.Info("churn disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

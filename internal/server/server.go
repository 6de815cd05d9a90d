// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	sloghttp "github.com/samber/slog-http"

	"roamly/internal/api/handler"
	"roamly/internal/config"
	"roamly/internal/graph"
	"roamly/internal/metrics"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Opener reports when the database is usable. Ready must be closed exactly
// once.
type Opener interface {
	Ready() <-chan struct{}
}

type Services struct {
	Accounts graph.AccountService
	Auth     handler.Authenticator
	Feed     handler.MemberFeed
}

type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	db     Opener
	router *chi.Mux

	mu        sync.Mutex
	addr      net.Addr
	boundAt   time.Time
	listening chan struct{}
}

func New(cfg *config.Config, logger *slog.Logger, db Opener, svc Services) (*Server, error) {
	schema, err := graph.NewSchema(graph.NewResolver(svc.Accounts, logger.With("logger", "graphql")))
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		router:    chi.NewRouter(),
		listening: make(chan struct{}),
	}
	s.setupRoutes(graph.NewHandler(schema), svc)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(gql http.Handler, svc Services) {
	r := s.router

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	authCtx := handler.AuthContext(svc.Auth, s.logger.With("logger", "auth"))

	// Websocket upgrades bypass the response-wrapping middleware below.
	r.With(authCtx).Get("/ws", handler.NewWebSocketHandler(svc.Feed, s.logger.With("logger", "ws")).HandleConnection)

	r.Group(func(r chi.Router) {
		r.Use(sloghttp.NewWithConfig(s.logger.With("logger", "http"), sloghttp.Config{
			WithRequestID: true,
		}))
		r.Use(metrics.InstrumentHandler)

		r.Get("/healthz", handler.Health)
		r.Handle("/metrics", metrics.Handler())

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestSize(maxBodyBytes))
			r.Use(authCtx)
			r.Handle("/graphql", gql)

			ah := handler.NewAuthHandler(svc.Accounts)
			r.Route("/api/auth", func(r chi.Router) {
				r.Post("/signup", ah.SignUp)
				r.Post("/login", ah.Login)
				r.Post("/logout", ah.Logout)
			})
		})

		// Registered last so it never shadows the API routes.
		r.Get("/*", handler.NewSPAHandler(s.cfg.BuildDir, s.cfg.Production()).ServeHTTP)
	})
}

// Start blocks until the database is open, binds the listener and serves
// until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("waiting for database")
	select {
	case <-s.db.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.boundAt = time.Now()
	s.mu.Unlock()
	close(s.listening)

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Now listening", "port", s.cfg.ServerPort, "addr", ln.Addr().String(), "env", s.cfg.Env)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Listening is closed once the listener is bound.
func (s *Server) Listening() <-chan struct{} {
	return s.listening
}

// Addr returns the bound address and when it was bound, or nil before Start
// has bound.
func (s *Server) Addr() (net.Addr, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr, s.boundAt
}

// Package server wires the router, middleware and handlers together and runs
// the HTTP server.
//
//	feedstore.Store → service.FeedService → handler.PostHandler
//	               ↘ auth.Session (per request auth.Controller) → handler.AuthHandler
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/social-feed/internal/auth"
	"github.com/sakif/social-feed/internal/feedstore"
	"github.com/sakif/social-feed/internal/handler"
	"github.com/sakif/social-feed/internal/middleware"
	"github.com/sakif/social-feed/internal/service"
	"github.com/sakif/social-feed/internal/session"
)

type Config struct {
	Port             int
	SessionTTL       time.Duration
	DefaultAvatarURL string
}

// Server owns the store and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	store  *feedstore.Store
	logger *slog.Logger
}

func New(cfg Config, store *feedstore.Store, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		store:  store,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// GET    /healthz                      → storage probe
// GET    /api/posts                    → feed, newest first
// POST   /api/posts                    → publish (signed in)
// POST   /api/posts/{id}/{action}      → like | comment | share (signed in)
// POST   /api/auth/signin|signup|signout
// GET    /api/me
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	health := handler.NewHealthHandler(s.store, s.logger)
	s.router.Get("/healthz", health.HandleHealth)

	feed := service.NewFeedService(s.store, s.config.DefaultAvatarURL, s.logger)
	posts := handler.NewPostHandler(feed, s.logger)
	authHandler := handler.NewAuthHandler(s.logger)

	cookieOpts := []session.Option{session.WithTTL(s.config.SessionTTL)}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.Session(s.store, cookieOpts, s.logger))

		r.Get("/posts", posts.HandleList)
		r.Get("/me", authHandler.HandleMe)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signin", authHandler.HandleSignIn)
			r.Post("/signup", authHandler.HandleSignUp)
			r.Post("/signout", authHandler.HandleSignOut)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSignedIn)
			r.Post("/posts", posts.HandleCreate)
			r.Post("/posts/{id}/{action}", posts.HandleInteract)
		})
	})
}

// Boot opens storage and provisions the demo accounts. Start calls it; it is
// exported so tests can prepare a server without listening.
func (s *Server) Boot(ctx context.Context) error {
	if err := s.store.Initialize(ctx); err != nil {
		return fmt.Errorf("server: boot: %w", err)
	}
	if err := s.store.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("server: boot: %w", err)
	}
	return nil
}

// Start boots storage, serves until ctx is cancelled, then drains in-flight
// requests for up to 30 seconds and closes the store.
func (s *Server) Start(ctx context.Context) error {
	defer s.store.Close()

	if err := s.Boot(ctx); err != nil {
		return err
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
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

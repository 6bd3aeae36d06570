// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware and
// routes, and decides how the server starts and stops.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go:     config.Load → OpenStore → server.New → Start
//	server.New:  store → UserService/MessageService → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place instead of being scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/messaging-api/internal/auth"
	"github.com/sakif/messaging-api/internal/config"
	"github.com/sakif/messaging-api/internal/handler"
	"github.com/sakif/messaging-api/internal/middleware"
	"github.com/sakif/messaging-api/internal/repository"
	"github.com/sakif/messaging-api/internal/service"
)

// shutdownTimeout bounds how long in-flight requests get after SIGINT/SIGTERM.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. Start closes it after the HTTP server has
// drained, so no request ever sees a closed pool.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
}

// New wires services and handlers around store and builds the router.
func New(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	passwords := auth.NewPasswordServiceWithCost(cfg.BcryptCost)
	userService, err := service.NewUserService(store, passwords, logger)
	if err != nil {
		return nil, fmt.Errorf("creating user service: %w", err)
	}
	messageService := service.NewMessageService(store, logger)

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes(
		handler.NewUserHandler(userService, logger),
		handler.NewMessageHandler(messageService, logger),
		handler.NewHealthHandler(store, logger),
	)
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// ROUTE STRUCTURE:
// GET  /health          → store probe
// POST /register        → create account
// POST /login           → check credentials
// GET  /list_all_users  → everyone but the requester
// GET  /view_messages   → conversation between two users
// POST /send_message    → store one message
//
// MIDDLEWARE ORDER MATTERS:
//  1. RealIP    extracts the client IP from proxy headers
//  2. RequestID assigns the id that every log line carries
//  3. Logger    logs each request with timing info
//  4. Recoverer turns a panic into a 500 instead of a crash
//  5. Timeout   puts a deadline on the request context, so a hung store
//     call is cancelled and answered with the 500 envelope
func (s *Server) setupRoutes(users *handler.UserHandler, messages *handler.MessageHandler, health *handler.HealthHandler) {
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Timeout(s.config.RequestTimeout))

	s.router.Get("/health", health.HandleHealth)

	s.router.Post("/register", users.HandleRegister)
	s.router.Post("/login", users.HandleLogin)
	s.router.Get("/list_all_users", users.HandleListAll)

	s.router.Get("/view_messages", messages.HandleView)
	s.router.Post("/send_message", messages.HandleSend)
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait for in-flight requests to finish (shutdownTimeout)
//  3. Close the store (flushes the sqlite WAL, returns pool connections)
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled. Start wires it to OS signals.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.config.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("driver", s.config.DB.Driver),
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

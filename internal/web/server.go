// Package web exposes the attendance system over HTTP for kiosk and
// dashboard clients.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/campusops/smart-attendance/internal/biometric"
	"github.com/campusops/smart-attendance/internal/capture"
	"github.com/campusops/smart-attendance/internal/config"
	"github.com/campusops/smart-attendance/internal/enroll"
	"github.com/campusops/smart-attendance/internal/roster"
	"github.com/campusops/smart-attendance/internal/schedule"
	"github.com/campusops/smart-attendance/internal/store"
	"github.com/campusops/smart-attendance/internal/verify"
	"github.com/campusops/smart-attendance/internal/web/middleware"
)

// Dependencies bundles the stores and engines the server is built on.
type Dependencies struct {
	Students    store.StudentStore
	Instructors store.InstructorStore
	Sessions    store.SessionStore
	Attendance  store.AttendanceStore
	Bio         biometric.Capability
	Opener      capture.Opener
	Schedule    *schedule.Schedule
	Roster      *roster.Index
	Enroll      *enroll.Controller
	Verify      *verify.Engine
}

// Server is the HTTP front of the attendance system.
type Server struct {
	config      *config.Config
	router      *chi.Mux
	httpServer  *http.Server
	auth        *middleware.AuthManager
	coordinator *capture.Coordinator
}

// NewServer creates a web server listening on host:port.
func NewServer(cfg *config.Config, port int, host string, deps Dependencies) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:      cfg,
		router:      r,
		auth:        middleware.NewAuthManager(cfg.Web.SessionTTL),
		coordinator: capture.NewCoordinator(),
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS)

	s.setupRoutes(deps)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server. An in-flight capture loop is
// cancelled so the camera is released before the process exits.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	s.coordinator.Cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

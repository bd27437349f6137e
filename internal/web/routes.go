package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/campusops/smart-attendance/internal/attendance"
	"github.com/campusops/smart-attendance/internal/web/handlers"
	"github.com/campusops/smart-attendance/internal/web/middleware"
)

func (s *Server) setupRoutes(deps Dependencies) {
	sessions := attendance.NewSessions(deps.Sessions)
	recorder := attendance.NewRecorder(deps.Attendance)

	authHandler := handlers.NewAuthHandler(deps.Students, deps.Instructors, s.auth)
	enrollHandler := handlers.NewEnrollHandler(deps.Enroll, s.coordinator, deps.Opener,
		deps.Students, deps.Roster, s.config.Capture.MatchThreshold)
	verifyHandler := handlers.NewVerifyHandler(deps.Verify, s.coordinator, deps.Opener,
		recorder, deps.Schedule)
	sessionsHandler := handlers.NewSessionsHandler(sessions, recorder, deps.Schedule)
	attendanceHandler := handlers.NewAttendanceHandler(recorder, deps.Schedule)
	rosterHandler := handlers.NewRosterHandler(deps.Bio, deps.Roster)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.auth))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/schedule", attendanceHandler.Schedule)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(middleware.RoleStudent))

				r.Post("/enroll/start", enrollHandler.Start)
				r.Post("/enroll/capture", enrollHandler.Capture)
				r.Post("/enroll/cancel", enrollHandler.Cancel)
				r.Get("/enroll/status", enrollHandler.Status)

				r.Post("/verify/start", verifyHandler.Start)
				r.Post("/verify/cancel", verifyHandler.Cancel)
				r.Get("/verify/status", verifyHandler.Status)

				r.Get("/attendance", attendanceHandler.History)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(middleware.RoleInstructor))

				r.Get("/sessions", sessionsHandler.List)
				r.Post("/sessions/{subject}/toggle", sessionsHandler.Toggle)
				r.Post("/roster/identify", rosterHandler.Identify)
			})
		})
	})
}

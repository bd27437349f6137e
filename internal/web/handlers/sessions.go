package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusops/smart-attendance/internal/attendance"
	"github.com/campusops/smart-attendance/internal/schedule"
	"github.com/campusops/smart-attendance/internal/web/middleware"
)

// SessionsHandler lets instructors open and close verification windows for
// the subjects they own.
type SessionsHandler struct {
	sessions *attendance.Sessions
	recorder *attendance.Recorder
	schedule *schedule.Schedule
}

func NewSessionsHandler(sessions *attendance.Sessions, recorder *attendance.Recorder, sched *schedule.Schedule) *SessionsHandler {
	return &SessionsHandler{
		sessions: sessions,
		recorder: recorder,
		schedule: sched,
	}
}

type sessionState struct {
	Subject    string `json:"subject"`
	Active     bool   `json:"active"`
	TodayCount int    `json:"today_count"`
}

// List returns the instructor's subjects with session state and today's
// attendance counts.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	active := make(map[string]bool)
	stored, err := h.sessions.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	for _, s := range stored {
		active[s.SubjectName] = s.Active
	}

	subjects := h.schedule.SubjectsByInstructor(session.UserID)
	states := make([]sessionState, 0, len(subjects))
	for _, subject := range subjects {
		count, err := h.recorder.CountToday(r.Context(), subject)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "could not count attendance")
			return
		}
		states = append(states, sessionState{
			Subject:    subject,
			Active:     active[subject],
			TodayCount: count,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"sessions": states})
}

// Toggle flips the session gate for a subject. Only the owning instructor
// may toggle; the new state is durable before the response is written.
func (h *SessionsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	subject := chi.URLParam(r, "subject")
	owner, known := h.schedule.Owner(subject)
	if !known {
		respondError(w, http.StatusNotFound, "unknown subject")
		return
	}
	if owner != session.UserID {
		respondError(w, http.StatusForbidden, "subject belongs to another instructor")
		return
	}

	state, err := h.sessions.Toggle(r.Context(), h.schedule.Canonical(subject))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not toggle session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"subject": h.schedule.Canonical(subject),
		"active":  state,
	})
}

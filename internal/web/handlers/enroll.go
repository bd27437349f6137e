package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/campusops/smart-attendance/internal/capture"
	"github.com/campusops/smart-attendance/internal/enroll"
	"github.com/campusops/smart-attendance/internal/roster"
	"github.com/campusops/smart-attendance/internal/store"
	"github.com/campusops/smart-attendance/internal/web/middleware"
)

// EnrollHandler exposes the enrollment capture sequence over HTTP. The
// camera loop runs on the coordinator's background goroutine; the client
// drives it with capture requests and polls for the terminal result.
type EnrollHandler struct {
	controller   *enroll.Controller
	coordinator  *capture.Coordinator
	opener       capture.Opener
	students     store.StudentStore
	roster       *roster.Index
	warnDistance float64

	mu      sync.Mutex
	current string // student ID of the enrollment in flight, "" when idle
}

func NewEnrollHandler(controller *enroll.Controller, coordinator *capture.Coordinator,
	opener capture.Opener, students store.StudentStore, rosterIndex *roster.Index, warnDistance float64) *EnrollHandler {
	return &EnrollHandler{
		controller:   controller,
		coordinator:  coordinator,
		opener:       opener,
		students:     students,
		roster:       rosterIndex,
		warnDistance: warnDistance,
	}
}

// Start launches the enrollment capture loop for the authenticated student.
func (h *EnrollHandler) Start(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	h.mu.Lock()
	defer h.mu.Unlock()

	// Detached from the request context; the loop outlives this request
	// and is stopped through Cancel or its own terminal result.
	err := h.coordinator.Start(context.Background(), func(ctx context.Context) capture.Result {
		return h.controller.Run(ctx, session.UserID, h.opener)
	})
	if err != nil {
		respondError(w, http.StatusConflict, "camera is busy")
		return
	}

	h.current = session.UserID
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// Capture arms the single-shot capture intent for the next angle.
func (h *EnrollHandler) Capture(w http.ResponseWriter, r *http.Request) {
	if !h.owns(middleware.SessionFromContext(r.Context())) {
		respondError(w, http.StatusNotFound, "no enrollment in progress")
		return
	}

	h.controller.RequestCapture()
	respondJSON(w, http.StatusOK, map[string]string{"status": "capture requested"})
}

// Cancel stops the enrollment loop at its next frame boundary. Nothing is
// persisted; a later enrollment starts again from the first angle.
func (h *EnrollHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.owns(middleware.SessionFromContext(r.Context())) {
		respondError(w, http.StatusNotFound, "no enrollment in progress")
		return
	}

	h.coordinator.Cancel()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

type enrollStatusResponse struct {
	Status    string        `json:"status"`
	Captured  int           `json:"captured,omitempty"`
	NextAngle string        `json:"next_angle,omitempty"`
	Error     string        `json:"error,omitempty"`
	Similar   *roster.Match `json:"similar,omitempty"`
}

// Status polls for the terminal result. While the loop runs it reports
// capture progress; once the result is drained the coordinator is free for
// the next operation.
func (h *EnrollHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if !h.owns(session) {
		respondError(w, http.StatusNotFound, "no enrollment in progress")
		return
	}

	result, done := h.coordinator.Poll()
	if !done {
		captured, next := h.controller.Progress()
		respondJSON(w, http.StatusOK, enrollStatusResponse{
			Status:    "running",
			Captured:  captured,
			NextAngle: next,
		})
		return
	}

	h.mu.Lock()
	h.current = ""
	h.mu.Unlock()

	switch result.Outcome {
	case capture.OutcomeSuccess:
		resp := enrollStatusResponse{Status: "enrolled"}
		if student, err := h.students.Get(r.Context(), session.UserID); err == nil {
			resp.Similar = h.similarStudent(*student)
			h.roster.Add(*student)
		}
		respondJSON(w, http.StatusOK, resp)
	case capture.OutcomeCancelled:
		respondJSON(w, http.StatusOK, enrollStatusResponse{Status: "cancelled"})
	default:
		resp := enrollStatusResponse{Status: "failed"}
		if result.Err != nil {
			resp.Error = result.Err.Error()
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

func (h *EnrollHandler) owns(session *middleware.Session) bool {
	if session == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current == session.UserID && h.current != ""
}

// similarStudent flags an existing enrollment suspiciously close to the new
// reference encoding, before the new student joins the index.
func (h *EnrollHandler) similarStudent(student store.Student) *roster.Match {
	matches, err := h.roster.Identify(student.ReferenceEncoding, 1)
	if err != nil || len(matches) == 0 {
		return nil
	}
	if matches[0].StudentID == student.ID || matches[0].Distance > h.warnDistance {
		return nil
	}
	return &matches[0]
}

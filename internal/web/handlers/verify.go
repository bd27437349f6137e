package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/campusops/smart-attendance/internal/attendance"
	"github.com/campusops/smart-attendance/internal/capture"
	"github.com/campusops/smart-attendance/internal/schedule"
	"github.com/campusops/smart-attendance/internal/verify"
	"github.com/campusops/smart-attendance/internal/web/middleware"
)

// VerifyHandler runs the bounded face verification loop and records
// attendance when it succeeds.
type VerifyHandler struct {
	engine      *verify.Engine
	coordinator *capture.Coordinator
	opener      capture.Opener
	recorder    *attendance.Recorder
	schedule    *schedule.Schedule

	mu      sync.Mutex
	student string // student ID of the verification in flight
	subject string
	matched bool // face matched but the attendance insert has not succeeded yet
}

func NewVerifyHandler(engine *verify.Engine, coordinator *capture.Coordinator,
	opener capture.Opener, recorder *attendance.Recorder, sched *schedule.Schedule) *VerifyHandler {
	return &VerifyHandler{
		engine:      engine,
		coordinator: coordinator,
		opener:      opener,
		recorder:    recorder,
		schedule:    sched,
	}
}

type verifyStartRequest struct {
	Subject string `json:"subject"`
}

// Start launches verification of the authenticated student for a subject.
func (h *VerifyHandler) Start(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	var req verifyStartRequest
	if err := decodeJSON(r, &req); err != nil || req.Subject == "" {
		respondError(w, http.StatusBadRequest, "subject is required")
		return
	}
	if !h.schedule.Known(req.Subject) {
		respondError(w, http.StatusNotFound, "unknown subject")
		return
	}
	subject := h.schedule.Canonical(req.Subject)

	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.coordinator.Start(context.Background(), func(ctx context.Context) capture.Result {
		return h.engine.Run(ctx, session.UserID, subject, h.opener)
	})
	if err != nil {
		respondError(w, http.StatusConflict, "camera is busy")
		return
	}

	h.student = session.UserID
	h.subject = subject
	h.matched = false
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "started", "subject": subject})
}

// Cancel stops the verification loop at its next frame boundary.
func (h *VerifyHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.owns(middleware.SessionFromContext(r.Context())) {
		respondError(w, http.StatusNotFound, "no verification in progress")
		return
	}

	h.coordinator.Cancel()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

type verifyStatusResponse struct {
	Status  string `json:"status"`
	Subject string `json:"subject,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Status polls for the terminal result. A matched face records attendance
// before the response is written, so the client never sees success ahead of
// a durable attendance fact. If the insert fails, the match is kept and the
// next status poll retries the insert without another camera loop.
func (h *VerifyHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if !h.owns(session) {
		respondError(w, http.StatusNotFound, "no verification in progress")
		return
	}

	if h.matchPending() {
		h.recordMatch(w, r, session.UserID)
		return
	}

	result, done := h.coordinator.Poll()
	if !done {
		respondJSON(w, http.StatusOK, verifyStatusResponse{Status: "running", Subject: h.currentSubject()})
		return
	}

	switch result.Outcome {
	case capture.OutcomeSuccess:
		h.mu.Lock()
		h.matched = true
		h.mu.Unlock()
		h.recordMatch(w, r, session.UserID)
	case capture.OutcomeCancelled:
		subject := h.clear()
		respondJSON(w, http.StatusOK, verifyStatusResponse{Status: "cancelled", Subject: subject})
	default:
		subject := h.clear()
		respondJSON(w, http.StatusOK, verifyStatusResponse{
			Status:  failureStatus(result.Err),
			Subject: subject,
			Error:   errorMessage(result.Err),
		})
	}
}

// recordMatch inserts the attendance fact for a matched face. Handler state
// is cleared only once the insert succeeds.
func (h *VerifyHandler) recordMatch(w http.ResponseWriter, r *http.Request, studentID string) {
	subject := h.currentSubject()
	status, err := h.recorder.Record(r.Context(), studentID, subject)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not record attendance")
		return
	}
	h.clear()
	respondJSON(w, http.StatusOK, verifyStatusResponse{Status: string(status), Subject: subject})
}

func (h *VerifyHandler) matchPending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.matched
}

// clear resets the handler state and returns the subject it was bound to.
func (h *VerifyHandler) clear() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	subject := h.subject
	h.student = ""
	h.subject = ""
	h.matched = false
	return subject
}

func (h *VerifyHandler) owns(session *middleware.Session) bool {
	if session == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.student == session.UserID && h.student != ""
}

func (h *VerifyHandler) currentSubject() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subject
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, verify.ErrNoMatch):
		return "no_match"
	case errors.Is(err, verify.ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, verify.ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, capture.ErrDeviceUnavailable):
		return "camera_unavailable"
	default:
		return "failed"
	}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

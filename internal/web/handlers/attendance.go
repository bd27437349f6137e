package handlers

import (
	"net/http"
	"time"

	"github.com/campusops/smart-attendance/internal/attendance"
	"github.com/campusops/smart-attendance/internal/schedule"
	"github.com/campusops/smart-attendance/internal/web/middleware"
)

// AttendanceHandler serves read-only attendance views.
type AttendanceHandler struct {
	recorder *attendance.Recorder
	schedule *schedule.Schedule
}

func NewAttendanceHandler(recorder *attendance.Recorder, sched *schedule.Schedule) *AttendanceHandler {
	return &AttendanceHandler{recorder: recorder, schedule: sched}
}

type attendanceEntry struct {
	Subject    string `json:"subject"`
	Day        string `json:"day"`
	RecordedAt string `json:"recorded_at"`
}

// History returns the authenticated student's attendance records.
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	records, err := h.recorder.History(r.Context(), session.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not list attendance")
		return
	}

	entries := make([]attendanceEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, attendanceEntry{
			Subject:    rec.SubjectName,
			Day:        rec.Day.Format("2006-01-02"),
			RecordedAt: rec.CreatedAt.Format(time.RFC3339),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"attendance": entries})
}

// Schedule returns the weekly class schedule for display.
func (h *AttendanceHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	type slot struct {
		Subject string `json:"subject"`
		Time    string `json:"time"`
		Room    string `json:"room"`
	}

	week := make(map[string][]slot)
	for _, day := range h.schedule.Days() {
		for _, e := range h.schedule.Entries(day) {
			week[day] = append(week[day], slot{Subject: e.Subject, Time: e.Time, Room: e.Room})
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"days": h.schedule.Days(),
		"week": week,
	})
}

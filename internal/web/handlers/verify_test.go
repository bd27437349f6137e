package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campusops/smart-attendance/internal/attendance"
	"github.com/campusops/smart-attendance/internal/capture"
	"github.com/campusops/smart-attendance/internal/store"
	"github.com/campusops/smart-attendance/internal/store/mock"
	"github.com/campusops/smart-attendance/internal/verify"
)

func setupVerifyHandler(t *testing.T, probe []float32) (*VerifyHandler, *mock.StudentStore, *mock.SessionStore, *mock.AttendanceStore) {
	t.Helper()
	students := mock.NewStudentStore()
	sessionStore := mock.NewSessionStore()
	attendanceStore := mock.NewAttendanceStore()

	bio := &fakeBio{encoding: probe}
	engine := verify.NewEngine(bio, students, sessionStore, 0.5, 500*time.Millisecond, 0)
	handler := NewVerifyHandler(engine, capture.NewCoordinator(), fakeOpener,
		attendance.NewRecorder(attendanceStore), testSchedule(t))
	return handler, students, sessionStore, attendanceStore
}

func startVerification(t *testing.T, handler *VerifyHandler, studentID, subject string) *httptest.ResponseRecorder {
	t.Helper()
	body := bytes.NewBufferString(`{"subject": "` + subject + `"}`)
	req := withSession(httptest.NewRequest("POST", "/api/v1/verify/start", body), studentSession(studentID, "Test"))
	recorder := httptest.NewRecorder()
	handler.Start(recorder, req)
	return recorder
}

func waitForTerminalVerifyStatus(t *testing.T, handler *VerifyHandler, studentID string) verifyStatusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		req := withSession(httptest.NewRequest("GET", "/api/v1/verify/status", nil), studentSession(studentID, "Test"))
		recorder := httptest.NewRecorder()
		handler.Status(recorder, req)
		assertStatusCode(t, recorder, http.StatusOK)

		var resp verifyStatusResponse
		parseJSONResponse(t, recorder, &resp)
		if resp.Status != "running" {
			return resp
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("verification did not finish within the deadline")
	return verifyStatusResponse{}
}

func TestVerifyHandler_MatchRecordsAttendance(t *testing.T) {
	reference := []float32{1, 2, 3}
	handler, students, sessionStore, attendanceStore := setupVerifyHandler(t, reference)
	students.Add(store.Student{ID: "101", SecretCode: "1234", Name: "Ahmed Ali",
		ReferenceEncoding: reference, Enrolled: true})
	sessionStore.Set("Mathematics", true)

	rec := startVerification(t, handler, "101", "Mathematics")
	assertStatusCode(t, rec, http.StatusAccepted)

	resp := waitForTerminalVerifyStatus(t, handler, "101")
	if resp.Status != string(attendance.Recorded) {
		t.Fatalf("expected status recorded, got %+v", resp)
	}

	count, err := attendanceStore.CountOnDay(context.Background(), "Mathematics", time.Now())
	if err != nil {
		t.Fatalf("counting attendance: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 attendance record, got %d", count)
	}
}

func TestVerifyHandler_SecondMatchSameDayIsAlreadyRecorded(t *testing.T) {
	reference := []float32{1, 2, 3}
	handler, students, sessionStore, attendanceStore := setupVerifyHandler(t, reference)
	students.Add(store.Student{ID: "101", SecretCode: "1234", Name: "Ahmed Ali",
		ReferenceEncoding: reference, Enrolled: true})
	sessionStore.Set("Mathematics", true)

	if err := attendanceStore.Insert(context.Background(), "101", "Mathematics", time.Now()); err != nil {
		t.Fatalf("seeding attendance: %v", err)
	}

	startVerification(t, handler, "101", "Mathematics")
	resp := waitForTerminalVerifyStatus(t, handler, "101")

	if resp.Status != string(attendance.AlreadyRecorded) {
		t.Fatalf("expected status already_recorded, got %+v", resp)
	}
	count, err := attendanceStore.CountOnDay(context.Background(), "Mathematics", time.Now())
	if err != nil {
		t.Fatalf("counting attendance: %v", err)
	}
	if count != 1 {
		t.Errorf("expected the count to stay at 1, got %d", count)
	}
}

func TestVerifyHandler_ClosedSession(t *testing.T) {
	reference := []float32{1, 2, 3}
	handler, students, _, _ := setupVerifyHandler(t, reference)
	students.Add(store.Student{ID: "101", SecretCode: "1234", Name: "Ahmed Ali",
		ReferenceEncoding: reference, Enrolled: true})

	startVerification(t, handler, "101", "Mathematics")
	resp := waitForTerminalVerifyStatus(t, handler, "101")

	if resp.Status != "session_closed" {
		t.Errorf("expected status session_closed, got %+v", resp)
	}
}

func TestVerifyHandler_NotEnrolled(t *testing.T) {
	handler, students, sessionStore, _ := setupVerifyHandler(t, []float32{1, 2, 3})
	students.Add(store.Student{ID: "101", SecretCode: "1234", Name: "Ahmed Ali"})
	sessionStore.Set("Mathematics", true)

	startVerification(t, handler, "101", "Mathematics")
	resp := waitForTerminalVerifyStatus(t, handler, "101")

	if resp.Status != "not_enrolled" {
		t.Errorf("expected status not_enrolled, got %+v", resp)
	}
}

func TestVerifyHandler_NoMatchWithinBudget(t *testing.T) {
	handler, students, sessionStore, attendanceStore := setupVerifyHandler(t, []float32{9, 9, 9})
	students.Add(store.Student{ID: "101", SecretCode: "1234", Name: "Ahmed Ali",
		ReferenceEncoding: []float32{1, 2, 3}, Enrolled: true})
	sessionStore.Set("Mathematics", true)

	startVerification(t, handler, "101", "Mathematics")
	resp := waitForTerminalVerifyStatus(t, handler, "101")

	if resp.Status != "no_match" {
		t.Errorf("expected status no_match, got %+v", resp)
	}
	count, err := attendanceStore.CountOnDay(context.Background(), "Mathematics", time.Now())
	if err != nil {
		t.Fatalf("counting attendance: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no attendance records, got %d", count)
	}
}

func TestVerifyHandler_FailedInsertRetriesWithoutCamera(t *testing.T) {
	reference := []float32{1, 2, 3}
	handler, students, sessionStore, attendanceStore := setupVerifyHandler(t, reference)
	students.Add(store.Student{ID: "101", SecretCode: "1234", Name: "Ahmed Ali",
		ReferenceEncoding: reference, Enrolled: true})
	sessionStore.Set("Mathematics", true)
	attendanceStore.InsertError = errors.New("connection reset")

	startVerification(t, handler, "101", "Mathematics")

	// Poll until the match is drained; the broken store turns it into a 500.
	deadline := time.Now().Add(5 * time.Second)
	sawFailure := false
	for time.Now().Before(deadline) {
		req := withSession(httptest.NewRequest("GET", "/api/v1/verify/status", nil), studentSession("101", "Test"))
		recorder := httptest.NewRecorder()
		handler.Status(recorder, req)
		if recorder.Code == http.StatusInternalServerError {
			sawFailure = true
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !sawFailure {
		t.Fatal("expected a 500 while the attendance store is failing")
	}

	// The store recovers; the next poll retries the insert with no new
	// verification run.
	attendanceStore.InsertError = nil
	req := withSession(httptest.NewRequest("GET", "/api/v1/verify/status", nil), studentSession("101", "Test"))
	recorder := httptest.NewRecorder()
	handler.Status(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var resp verifyStatusResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Status != string(attendance.Recorded) {
		t.Fatalf("expected the retry to record attendance, got %+v", resp)
	}

	count, err := attendanceStore.CountOnDay(context.Background(), "Mathematics", time.Now())
	if err != nil {
		t.Fatalf("counting attendance: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 attendance record after the retry, got %d", count)
	}
}

func TestVerifyHandler_UnknownSubject(t *testing.T) {
	handler, _, _, _ := setupVerifyHandler(t, []float32{1, 2, 3})

	rec := startVerification(t, handler, "101", "Astrology")
	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestVerifyHandler_MissingSubject(t *testing.T) {
	handler, _, _, _ := setupVerifyHandler(t, []float32{1, 2, 3})

	body := bytes.NewBufferString(`{}`)
	req := withSession(httptest.NewRequest("POST", "/api/v1/verify/start", body), studentSession("101", "Test"))
	recorder := httptest.NewRecorder()
	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

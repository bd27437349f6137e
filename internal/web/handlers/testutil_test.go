package handlers

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/campusops/smart-attendance/internal/biometric"
	"github.com/campusops/smart-attendance/internal/capture"
	"github.com/campusops/smart-attendance/internal/schedule"
	"github.com/campusops/smart-attendance/internal/web/middleware"
)

const testScheduleYAML = `
instructors:
  Mathematics: dr_math
  Data Structures: dr_cs
week:
  Sunday:
    - subject: Mathematics
      time: "09:00"
      room: A101
    - subject: Data Structures
      time: "11:00"
      room: B204
`

func testSchedule(t *testing.T) *schedule.Schedule {
	t.Helper()
	s, err := schedule.Parse([]byte(testScheduleYAML))
	if err != nil {
		t.Fatalf("parsing test schedule: %v", err)
	}
	return s
}

// withSession attaches an authenticated session to a request, the way
// RequireAuth does for production traffic.
func withSession(req *http.Request, session *middleware.Session) *http.Request {
	ctx := middleware.SetSessionInContext(req.Context(), session)
	return req.WithContext(ctx)
}

func studentSession(id, name string) *middleware.Session {
	return &middleware.Session{Token: "tok-" + id, UserID: id, Name: name, Role: middleware.RoleStudent}
}

func instructorSession(id, name string) *middleware.Session {
	return &middleware.Session{Token: "tok-" + id, UserID: id, Name: name, Role: middleware.RoleInstructor}
}

// requestWithChiParams injects chi URL parameters for direct handler calls.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, want int) {
	t.Helper()
	if recorder.Code != want {
		t.Errorf("expected status %d, got %d (body: %s)", want, recorder.Code, recorder.Body.String())
	}
}

func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), dst); err != nil {
		t.Fatalf("could not parse response %q: %v", recorder.Body.String(), err)
	}
}

func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, want string) {
	t.Helper()
	var resp map[string]string
	parseJSONResponse(t, recorder, &resp)
	if resp["error"] != want {
		t.Errorf("expected error %q, got %q", want, resp["error"])
	}
}

// fakeBio is a scripted biometric capability for handler tests. Every frame
// contains one face encoding to the configured vector.
type fakeBio struct {
	encoding  []float32
	detectErr error
}

func (f *fakeBio) Detect(_ context.Context, _ image.Image) ([]biometric.Box, error) {
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return []biometric.Box{{Top: 10, Right: 90, Bottom: 90, Left: 10}}, nil
}

func (f *fakeBio) Encode(_ context.Context, _ image.Image, _ biometric.Box) ([]float32, error) {
	return f.encoding, nil
}

// fakeCamera serves a static frame forever.
type fakeCamera struct{}

func (fakeCamera) NextFrame(ctx context.Context) (image.Image, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}

func (fakeCamera) Close() error { return nil }

func fakeOpener(_ context.Context) (capture.Source, error) {
	return fakeCamera{}, nil
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuthManager_CreateAndGet(t *testing.T) {
	m := NewAuthManager(time.Hour)

	session := m.CreateSession("101", "Ahmed Ali", RoleStudent)
	if session.Token == "" {
		t.Fatal("expected a non-empty token")
	}

	got := m.Get(session.Token)
	if got == nil {
		t.Fatal("expected the session to resolve")
	}
	if got.UserID != "101" || got.Role != RoleStudent {
		t.Errorf("unexpected session %+v", got)
	}
}

func TestAuthManager_ExpiredSession(t *testing.T) {
	m := NewAuthManager(-time.Minute)

	session := m.CreateSession("101", "Ahmed Ali", RoleStudent)
	if m.Get(session.Token) != nil {
		t.Error("expected an expired session to be rejected")
	}
}

func TestAuthManager_Delete(t *testing.T) {
	m := NewAuthManager(time.Hour)

	session := m.CreateSession("101", "Ahmed Ali", RoleStudent)
	m.Delete(session.Token)
	if m.Get(session.Token) != nil {
		t.Error("expected a deleted session to be gone")
	}
}

func TestRequireAuth(t *testing.T) {
	m := NewAuthManager(time.Hour)
	session := m.CreateSession("101", "Ahmed Ali", RoleStudent)

	var seen *Session
	handler := RequireAuth(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + session.Token, http.StatusOK},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", session.Token, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest("GET", "/api/v1/attendance", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, req)

			if recorder.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, recorder.Code)
			}
			if tt.wantStatus == http.StatusOK && (seen == nil || seen.UserID != "101") {
				t.Errorf("expected the session in context, got %+v", seen)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(RoleInstructor)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	instructor := &Session{Token: "t1", UserID: "dr_math", Role: RoleInstructor}
	student := &Session{Token: "t2", UserID: "101", Role: RoleStudent}

	req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	req = req.WithContext(SetSessionInContext(req.Context(), instructor))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Errorf("expected an instructor to pass, got %d", recorder.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/sessions", nil)
	req = req.WithContext(SetSessionInContext(req.Context(), student))
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected a student to be rejected, got %d", recorder.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/sessions", nil)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected an anonymous request to be rejected, got %d", recorder.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the next handler")
	}))

	req := httptest.NewRequest("OPTIONS", "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected localhost origin to be allowed, got %q", got)
	}
}

func TestCORS_UnknownOrigin(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, req)

	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS headers for an unknown origin, got %q", got)
	}
}

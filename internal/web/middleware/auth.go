package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role separates the two authenticated surfaces.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// Session is an authenticated web session.
type Session struct {
	Token     string
	UserID    string
	Name      string
	Role      Role
	ExpiresAt time.Time
}

// AuthManager issues and validates bearer tokens for web sessions.
// Sessions are held in memory; a restart simply logs everyone out.
type AuthManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewAuthManager creates an auth manager with the given session lifetime.
func NewAuthManager(ttl time.Duration) *AuthManager {
	return &AuthManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// CreateSession issues a new token for the given identity.
func (m *AuthManager) CreateSession(userID, name string, role Role) *Session {
	session := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Role:      role,
		ExpiresAt: time.Now().Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[session.Token] = session
	m.mu.Unlock()
	return session
}

// Get returns the session for a token, or nil if unknown or expired.
func (m *AuthManager) Get(token string) *Session {
	m.mu.RLock()
	session, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok {
		return nil
	}
	if time.Now().After(session.ExpiresAt) {
		m.Delete(token)
		return nil
	}
	return session
}

// Delete removes a session.
func (m *AuthManager) Delete(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// FromRequest extracts the session from the Authorization header.
func (m *AuthManager) FromRequest(r *http.Request) *Session {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil
	}
	return m.Get(token)
}

type contextKey string

const sessionContextKey contextKey = "session"

// RequireAuth rejects requests without a valid bearer token and injects the
// session into the request context.
func RequireAuth(m *AuthManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := m.FromRequest(r)
			if session == nil {
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose session has a different
// role. Must run after RequireAuth.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil || session.Role != role {
				http.Error(w, `{"error": "forbidden"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext retrieves the session from the request context.
func SessionFromContext(ctx context.Context) *Session {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionInContext adds a session to the context. Primarily for tests;
// production requests go through RequireAuth.
func SetSessionInContext(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

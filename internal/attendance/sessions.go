// Package attendance holds the instructor-controlled session gate and the
// idempotent attendance recorder.
package attendance

import (
	"context"
	"fmt"

	"github.com/campusops/smart-attendance/internal/store"
)

// Sessions manages the per-subject session flag gating verification.
type Sessions struct {
	store store.SessionStore
}

// NewSessions creates a session manager over the given store.
func NewSessions(st store.SessionStore) *Sessions {
	return &Sessions{store: st}
}

// IsOpen reports whether verification attempts for subject may proceed.
// Unknown subjects are closed.
func (s *Sessions) IsOpen(ctx context.Context, subject string) (bool, error) {
	open, err := s.store.IsActive(ctx, subject)
	if err != nil {
		return false, fmt.Errorf("checking session for %s: %w", subject, err)
	}
	return open, nil
}

// Toggle flips the subject's session flag and returns the new state. The
// flip is durable before Toggle returns, so a verification precondition
// check issued afterwards observes the new state.
func (s *Sessions) Toggle(ctx context.Context, subject string) (bool, error) {
	state, err := s.store.Toggle(ctx, subject)
	if err != nil {
		return false, fmt.Errorf("toggling session for %s: %w", subject, err)
	}
	return state, nil
}

// List returns all subject sessions and their current state.
func (s *Sessions) List(ctx context.Context) ([]store.SubjectSession, error) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campusops/smart-attendance/internal/store"
)

// SessionRepository provides PostgreSQL-backed subject session storage.
type SessionRepository struct {
	pool *Pool
}

// NewSessionRepository creates a new PostgreSQL session repository.
func NewSessionRepository(pool *Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// IsActive reports whether a subject's session is open. Unknown subjects
// are closed.
func (r *SessionRepository) IsActive(ctx context.Context, subject string) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, "SELECT is_active FROM sessions WHERE subject_name = $1", subject).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get session state: %w", err)
	}
	return active, nil
}

// Toggle flips the subject's session flag in a single statement and returns
// the new state. A subject without a row flips from the implicit closed
// state to open.
func (r *SessionRepository) Toggle(ctx context.Context, subject string) (bool, error) {
	query := `
		INSERT INTO sessions (subject_name, is_active)
		VALUES ($1, TRUE)
		ON CONFLICT (subject_name) DO UPDATE SET is_active = NOT sessions.is_active
		RETURNING is_active
	`
	var active bool
	if err := r.pool.QueryRow(ctx, query, subject).Scan(&active); err != nil {
		return false, fmt.Errorf("toggle session: %w", err)
	}
	return active, nil
}

// Ensure creates the subject's session row closed if it does not exist.
func (r *SessionRepository) Ensure(ctx context.Context, subject string) error {
	query := `
		INSERT INTO sessions (subject_name, is_active)
		VALUES ($1, FALSE)
		ON CONFLICT (subject_name) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, subject); err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	return nil
}

// List returns all subject sessions ordered by subject name.
func (r *SessionRepository) List(ctx context.Context) ([]store.SubjectSession, error) {
	rows, err := r.pool.Query(ctx, "SELECT subject_name, is_active FROM sessions ORDER BY subject_name")
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []store.SubjectSession
	for rows.Next() {
		var s store.SubjectSession
		if err := rows.Scan(&s.SubjectName, &s.Active); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

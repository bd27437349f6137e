package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campusops/smart-attendance/internal/store"
)

// InstructorRepository provides PostgreSQL-backed instructor storage.
type InstructorRepository struct {
	pool *Pool
}

// NewInstructorRepository creates a new PostgreSQL instructor repository.
func NewInstructorRepository(pool *Pool) *InstructorRepository {
	return &InstructorRepository{pool: pool}
}

func scanInstructor(row *sql.Row) (*store.Instructor, error) {
	var i store.Instructor
	err := row.Scan(&i.ID, &i.SecretCode, &i.Name, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan instructor: %w", err)
	}
	return &i, nil
}

// Get retrieves an instructor by ID.
func (r *InstructorRepository) Get(ctx context.Context, id string) (*store.Instructor, error) {
	query := `
		SELECT instructor_id, secret_code, name, created_at
		FROM instructors
		WHERE instructor_id = $1
	`
	return scanInstructor(r.pool.QueryRow(ctx, query, id))
}

// GetByCredentials retrieves an instructor by ID and secret code.
func (r *InstructorRepository) GetByCredentials(ctx context.Context, id, secretCode string) (*store.Instructor, error) {
	query := `
		SELECT instructor_id, secret_code, name, created_at
		FROM instructors
		WHERE instructor_id = $1 AND secret_code = $2
	`
	return scanInstructor(r.pool.QueryRow(ctx, query, id, secretCode))
}

// Create provisions a new instructor, leaving existing rows untouched.
func (r *InstructorRepository) Create(ctx context.Context, i store.Instructor) error {
	query := `
		INSERT INTO instructors (instructor_id, secret_code, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (instructor_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, i.ID, i.SecretCode, i.Name); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

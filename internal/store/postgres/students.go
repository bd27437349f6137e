package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campusops/smart-attendance/internal/store"
	"github.com/pgvector/pgvector-go"
)

// StudentRepository provides PostgreSQL-backed student storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row *sql.Row) (*store.Student, error) {
	var s store.Student
	var enc sql.Null[pgvector.Vector]

	err := row.Scan(&s.ID, &s.SecretCode, &s.Name, &enc, &s.Enrolled, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan student: %w", err)
	}

	if enc.Valid {
		s.ReferenceEncoding = enc.V.Slice()
	}
	return &s, nil
}

// Get retrieves a student by ID.
func (r *StudentRepository) Get(ctx context.Context, id string) (*store.Student, error) {
	query := `
		SELECT student_id, secret_code, name, reference_encoding, enrolled, created_at
		FROM students
		WHERE student_id = $1
	`
	return scanStudent(r.pool.QueryRow(ctx, query, id))
}

// GetByCredentials retrieves a student by ID and secret code.
func (r *StudentRepository) GetByCredentials(ctx context.Context, id, secretCode string) (*store.Student, error) {
	query := `
		SELECT student_id, secret_code, name, reference_encoding, enrolled, created_at
		FROM students
		WHERE student_id = $1 AND secret_code = $2
	`
	return scanStudent(r.pool.QueryRow(ctx, query, id, secretCode))
}

// Create provisions a new student, leaving existing rows untouched.
func (r *StudentRepository) Create(ctx context.Context, s store.Student) error {
	query := `
		INSERT INTO students (student_id, secret_code, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, s.ID, s.SecretCode, s.Name); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// SetReferenceEncoding persists the reference encoding and marks the student
// enrolled in one statement, so a partially-enrolled state is never visible.
func (r *StudentRepository) SetReferenceEncoding(ctx context.Context, id string, encoding []float32) error {
	if len(encoding) == 0 {
		return errors.New("reference encoding must not be empty")
	}

	query := `
		UPDATE students
		SET reference_encoding = $2, enrolled = TRUE
		WHERE student_id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, pgvector.NewVector(encoding))
	if err != nil {
		return fmt.Errorf("set reference encoding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListEnrolled returns all students with a persisted reference encoding.
func (r *StudentRepository) ListEnrolled(ctx context.Context) ([]store.Student, error) {
	query := `
		SELECT student_id, secret_code, name, reference_encoding, enrolled, created_at
		FROM students
		WHERE enrolled AND reference_encoding IS NOT NULL
		ORDER BY student_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query enrolled students: %w", err)
	}
	defer rows.Close()

	var students []store.Student
	for rows.Next() {
		var s store.Student
		var enc pgvector.Vector
		if err := rows.Scan(&s.ID, &s.SecretCode, &s.Name, &enc, &s.Enrolled, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan enrolled student: %w", err)
		}
		s.ReferenceEncoding = enc.Slice()
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrolled students: %w", err)
	}
	return students, nil
}

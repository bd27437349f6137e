package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusops/smart-attendance/internal/store"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// AttendanceRepository provides PostgreSQL-backed attendance storage.
// The (student, subject, day) uniqueness constraint lives in the schema;
// this repository only translates the violation into a typed error.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Insert records an attendance fact. A constraint violation maps to
// store.ErrDuplicateAttendance; there is deliberately no existence
// pre-check, so two racing inserts resolve to exactly one winner.
func (r *AttendanceRepository) Insert(ctx context.Context, studentID, subject string, day time.Time) error {
	query := `
		INSERT INTO attendance (student_id, subject_name, day)
		VALUES ($1, $2, $3)
	`
	_, err := r.pool.Exec(ctx, query, studentID, subject, store.DateOf(day))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return store.ErrDuplicateAttendance
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// CountOnDay returns the number of students recorded for a subject on the
// given day.
func (r *AttendanceRepository) CountOnDay(ctx context.Context, subject string, day time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(
		ctx, "SELECT COUNT(*) FROM attendance WHERE subject_name = $1 AND day = $2",
		subject, store.DateOf(day),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return count, nil
}

// ListForStudent returns a student's attendance records, newest first.
func (r *AttendanceRepository) ListForStudent(ctx context.Context, studentID string) ([]store.AttendanceRecord, error) {
	query := `
		SELECT student_id, subject_name, day, created_at
		FROM attendance
		WHERE student_id = $1
		ORDER BY day DESC, subject_name
	`
	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []store.AttendanceRecord
	for rows.Next() {
		var rec store.AttendanceRecord
		if err := rows.Scan(&rec.StudentID, &rec.SubjectName, &rec.Day, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}

package store

import (
	"context"
	"time"
)

// StudentStore provides access to student identities.
type StudentStore interface {
	// Get retrieves a student by ID, returns ErrNotFound if missing.
	Get(ctx context.Context, id string) (*Student, error)
	// GetByCredentials retrieves a student by ID and secret code.
	// Returns ErrNotFound when either does not match.
	GetByCredentials(ctx context.Context, id, secretCode string) (*Student, error)
	// Create provisions a new student. Existing rows are left untouched.
	Create(ctx context.Context, s Student) error
	// SetReferenceEncoding persists the reference encoding and marks the
	// student enrolled in a single durable write.
	SetReferenceEncoding(ctx context.Context, id string, encoding []float32) error
	// ListEnrolled returns all students with a persisted reference encoding.
	ListEnrolled(ctx context.Context) ([]Student, error)
}

// InstructorStore provides access to instructor identities.
type InstructorStore interface {
	// Get retrieves an instructor by ID, returns ErrNotFound if missing.
	Get(ctx context.Context, id string) (*Instructor, error)
	// GetByCredentials retrieves an instructor by ID and secret code.
	GetByCredentials(ctx context.Context, id, secretCode string) (*Instructor, error)
	// Create provisions a new instructor. Existing rows are left untouched.
	Create(ctx context.Context, i Instructor) error
}

// SessionStore provides access to per-subject session flags.
type SessionStore interface {
	// IsActive reports whether a subject's session is open.
	// Unknown subjects are closed.
	IsActive(ctx context.Context, subject string) (bool, error)
	// Toggle flips the subject's session flag and returns the new state.
	// The flip is durable before Toggle returns.
	Toggle(ctx context.Context, subject string) (bool, error)
	// Ensure creates the subject's session row closed if it does not exist.
	Ensure(ctx context.Context, subject string) error
	// List returns all subject sessions.
	List(ctx context.Context) ([]SubjectSession, error)
}

// AttendanceStore provides access to attendance facts. Uniqueness of
// (student, subject, day) is enforced by the store itself.
type AttendanceStore interface {
	// Insert records an attendance fact. Returns ErrDuplicateAttendance
	// when the fact already exists for that day.
	Insert(ctx context.Context, studentID, subject string, day time.Time) error
	// CountOnDay returns the number of students recorded for a subject on
	// the given day.
	CountOnDay(ctx context.Context, subject string, day time.Time) (int, error)
	// ListForStudent returns a student's attendance records, newest first.
	ListForStudent(ctx context.Context, studentID string) ([]AttendanceRecord, error)
}

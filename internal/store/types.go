// Package store defines the durable storage contracts for students,
// instructors, subject sessions, and attendance facts.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateAttendance is returned when an attendance insert violates the
// (student, subject, day) uniqueness constraint. The constraint is the sole
// arbiter of the duplicate race; callers must not pre-check instead.
var ErrDuplicateAttendance = errors.New("attendance already recorded")

// Student is a provisioned student identity. ReferenceEncoding is nil until
// the student completes enrollment, at which point it is written together
// with Enrolled in a single update.
type Student struct {
	ID                string
	SecretCode        string
	Name              string
	ReferenceEncoding []float32
	Enrolled          bool
	CreatedAt         time.Time
}

// Instructor is a provisioned instructor identity, read-only to the core.
type Instructor struct {
	ID         string
	SecretCode string
	Name       string
	CreatedAt  time.Time
}

// SubjectSession is the per-subject gate for verification attempts.
type SubjectSession struct {
	SubjectName string
	Active      bool
}

// AttendanceRecord is one attendance fact at calendar-day granularity.
type AttendanceRecord struct {
	StudentID   string
	SubjectName string
	Day         time.Time
	CreatedAt   time.Time
}

// DateOf truncates a timestamp to calendar-day granularity in its location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusops/smart-attendance/internal/store"
)

// RecordStatus is the outcome of an attendance insert.
type RecordStatus string

const (
	// Recorded means a new attendance fact was inserted.
	Recorded RecordStatus = "recorded"
	// AlreadyRecorded means the fact existed for that day. The goal is
	// satisfied, so this is informational, not an error.
	AlreadyRecorded RecordStatus = "already_recorded"
)

// Recorder inserts attendance facts with exactly-once-per-day semantics.
// The store's uniqueness constraint is the single arbiter of duplicates;
// the recorder only translates the violation, never pre-checks.
type Recorder struct {
	store store.AttendanceStore
	now   func() time.Time
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(st store.AttendanceStore) *Recorder {
	return &Recorder{store: st, now: time.Now}
}

// Record inserts an attendance fact for today. Two racing calls for the
// same (student, subject, day) resolve to one Recorded and one
// AlreadyRecorded.
func (r *Recorder) Record(ctx context.Context, studentID, subject string) (RecordStatus, error) {
	err := r.store.Insert(ctx, studentID, subject, r.now())
	if errors.Is(err, store.ErrDuplicateAttendance) {
		return AlreadyRecorded, nil
	}
	if err != nil {
		return "", fmt.Errorf("recording attendance: %w", err)
	}
	return Recorded, nil
}

// CountToday returns today's attendance count for a subject. Display only;
// never used for correctness decisions.
func (r *Recorder) CountToday(ctx context.Context, subject string) (int, error) {
	count, err := r.store.CountOnDay(ctx, subject, r.now())
	if err != nil {
		return 0, fmt.Errorf("counting attendance: %w", err)
	}
	return count, nil
}

// History returns a student's attendance records.
func (r *Recorder) History(ctx context.Context, studentID string) ([]store.AttendanceRecord, error) {
	records, err := r.store.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("listing attendance: %w", err)
	}
	return records, nil
}

// Package verify drives the bounded live matching loop that compares probe
// encodings against a student's stored reference.
package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusops/smart-attendance/internal/biometric"
	"github.com/campusops/smart-attendance/internal/capture"
	"github.com/campusops/smart-attendance/internal/store"
)

var (
	// ErrNotEnrolled indicates the student has no reference encoding.
	ErrNotEnrolled = errors.New("not enrolled")
	// ErrSessionClosed indicates the subject's session gate is closed.
	ErrSessionClosed = errors.New("session closed")
	// ErrNoMatch indicates no matching face appeared within the budget.
	ErrNoMatch = errors.New("no match within budget")
)

// Engine matches live probe encodings against stored references under a
// numeric distance threshold.
type Engine struct {
	bio       biometric.Capability
	students  store.StudentStore
	sessions  store.SessionStore
	threshold float64
	budget    time.Duration
	hold      time.Duration
}

// NewEngine creates a verification engine. threshold is inclusive (a probe
// at exactly the threshold matches); budget bounds the live loop; hold
// pauses briefly after a match for user-visible confirmation.
func NewEngine(bio biometric.Capability, students store.StudentStore, sessions store.SessionStore,
	threshold float64, budget, hold time.Duration) *Engine {
	return &Engine{
		bio:       bio,
		students:  students,
		sessions:  sessions,
		threshold: threshold,
		budget:    budget,
		hold:      hold,
	}
}

// Run verifies studentID against subject. Preconditions (enrollment and an
// open session) are checked before any camera acquisition; a precondition
// failure never touches the hardware.
func (e *Engine) Run(ctx context.Context, studentID, subject string, open capture.Opener) capture.Result {
	student, err := e.students.Get(ctx, studentID)
	if errors.Is(err, store.ErrNotFound) {
		return capture.Result{Outcome: capture.OutcomeFailed, Err: ErrNotEnrolled}
	}
	if err != nil {
		return capture.Result{Outcome: capture.OutcomeFailed, Err: fmt.Errorf("loading student: %w", err)}
	}
	if !student.Enrolled || len(student.ReferenceEncoding) == 0 {
		return capture.Result{Outcome: capture.OutcomeFailed, Err: ErrNotEnrolled}
	}

	active, err := e.sessions.IsActive(ctx, subject)
	if err != nil {
		return capture.Result{Outcome: capture.OutcomeFailed, Err: fmt.Errorf("checking session: %w", err)}
	}
	if !active {
		return capture.Result{Outcome: capture.OutcomeFailed, Err: ErrSessionClosed}
	}

	cam, err := open(ctx)
	if err != nil {
		return capture.Result{Outcome: capture.OutcomeFailed, Err: err}
	}
	defer cam.Close()

	deadline := time.Now().Add(e.budget)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return capture.Result{Outcome: capture.OutcomeCancelled}
		}

		frame, err := cam.NextFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return capture.Result{Outcome: capture.OutcomeCancelled}
			}
			// A failed read is no detection this frame, not a fatal error.
			continue
		}

		boxes, err := e.bio.Detect(ctx, frame)
		if err != nil || len(boxes) == 0 {
			continue
		}

		probe, err := e.bio.Encode(ctx, frame, boxes[0])
		if err != nil {
			continue
		}

		if biometric.Distance(student.ReferenceEncoding, probe) <= e.threshold {
			e.holdForFeedback(ctx)
			return capture.Result{Outcome: capture.OutcomeSuccess, Encoding: probe}
		}
	}

	return capture.Result{Outcome: capture.OutcomeFailed, Err: ErrNoMatch}
}

// holdForFeedback keeps the matched frame visible briefly before the loop
// terminates.
func (e *Engine) holdForFeedback(ctx context.Context) {
	if e.hold <= 0 {
		return
	}
	timer := time.NewTimer(e.hold)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

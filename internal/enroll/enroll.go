// Package enroll drives the three-angle enrollment capture sequence and
// produces a student's reference encoding.
package enroll

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/campusops/smart-attendance/internal/biometric"
	"github.com/campusops/smart-attendance/internal/capture"
	"github.com/campusops/smart-attendance/internal/store"
)

// DefaultAngles is the ordered pose sequence captured during enrollment.
// A single pose is sensitive to head orientation; averaging several poses
// stabilizes the reference encoding against frame-to-frame noise.
var DefaultAngles = []string{"Front", "Right", "Left"}

// Controller runs the enrollment state machine: one encoding captured per
// angle, advanced by an explicit single-shot capture intent, with the mean
// of all angles persisted only after the full sequence completes.
type Controller struct {
	bio      biometric.Capability
	students store.StudentStore
	angles   []string
	frameDir string

	mu      sync.Mutex
	pending bool
	step    int
}

// NewController creates an enrollment controller. angles defaults to
// DefaultAngles when nil; frameDir receives one audit JPEG per captured
// angle.
func NewController(bio biometric.Capability, students store.StudentStore, angles []string, frameDir string) *Controller {
	if len(angles) == 0 {
		angles = DefaultAngles
	}
	return &Controller{
		bio:      bio,
		students: students,
		angles:   angles,
		frameDir: frameDir,
	}
}

// RequestCapture arms the capture intent. The intent fires once, on the
// next frame with a detected face, and cannot double-fire within a frame.
func (c *Controller) RequestCapture() {
	c.mu.Lock()
	c.pending = true
	c.mu.Unlock()
}

// takeCapture consumes the pending intent.
func (c *Controller) takeCapture() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending {
		return false
	}
	c.pending = false
	return true
}

// Progress returns the number of captured angles and the name of the next
// angle ("" once complete).
func (c *Controller) Progress() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step >= len(c.angles) {
		return c.step, ""
	}
	return c.step, c.angles[c.step]
}

func (c *Controller) setStep(step int) {
	c.mu.Lock()
	c.step = step
	c.mu.Unlock()
}

// Run executes the capture loop for studentID. An aborted run persists
// nothing; a restarted enrollment always begins again at the first angle.
// Exactly one terminal result is returned, and on success the reference
// encoding is durable before Run returns.
func (c *Controller) Run(ctx context.Context, studentID string, open capture.Opener) capture.Result {
	c.mu.Lock()
	c.pending = false
	c.step = 0
	c.mu.Unlock()

	cam, err := open(ctx)
	if err != nil {
		return capture.Result{Outcome: capture.OutcomeFailed, Err: err}
	}
	defer cam.Close()

	var collected [][]float32
	for len(collected) < len(c.angles) {
		if ctx.Err() != nil {
			return capture.Result{Outcome: capture.OutcomeCancelled}
		}

		frame, err := cam.NextFrame(ctx)
		if err != nil {
			// Mid-sequence hardware failure aborts without partial writes.
			return capture.Result{Outcome: capture.OutcomeCancelled}
		}

		boxes, err := c.bio.Detect(ctx, frame)
		if err != nil || len(boxes) == 0 {
			// No face this frame; the armed intent stays pending.
			continue
		}

		if !c.takeCapture() {
			continue
		}

		angle := c.angles[len(collected)]
		encoding, err := c.bio.Encode(ctx, frame, boxes[0])
		if err != nil {
			return capture.Result{Outcome: capture.OutcomeFailed, Err: fmt.Errorf("encoding %s angle: %w", angle, err)}
		}

		if err := c.saveAuditFrame(frame, studentID, angle); err != nil {
			return capture.Result{Outcome: capture.OutcomeFailed, Err: err}
		}

		collected = append(collected, encoding)
		c.setStep(len(collected))
	}

	reference := biometric.Mean(collected)
	if reference == nil {
		return capture.Result{Outcome: capture.OutcomeFailed, Err: fmt.Errorf("inconsistent encodings collected for student %s", studentID)}
	}

	// Persist before delivering the terminal result so the foreground
	// never observes success ahead of a durable reference encoding.
	if err := c.students.SetReferenceEncoding(ctx, studentID, reference); err != nil {
		return capture.Result{Outcome: capture.OutcomeFailed, Err: fmt.Errorf("persisting reference encoding: %w", err)}
	}

	return capture.Result{Outcome: capture.OutcomeSuccess, Encoding: reference}
}

// saveAuditFrame writes the captured frame keyed by student and angle.
// Skipped when no frame directory is configured.
func (c *Controller) saveAuditFrame(frame image.Image, studentID, angle string) error {
	if c.frameDir == "" {
		return nil
	}

	data, err := biometric.EncodeJPEG(frame)
	if err != nil {
		return fmt.Errorf("encoding audit frame: %w", err)
	}

	if err := os.MkdirAll(c.frameDir, 0o755); err != nil {
		return fmt.Errorf("creating frame directory: %w", err)
	}

	path := filepath.Join(c.frameDir, fmt.Sprintf("%s_%s.jpg", studentID, angle))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing audit frame: %w", err)
	}
	return nil
}

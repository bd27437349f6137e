package capture

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy indicates a capture operation is already in flight and its
// terminal result has not been drained yet.
var ErrBusy = errors.New("capture operation already in progress")

// Outcome tags the terminal result of a capture loop.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Result is the single terminal message of one capture-loop invocation.
// Exactly one Result is delivered per invocation, after all store and file
// artifacts of the operation have been written.
type Result struct {
	Outcome  Outcome
	Encoding []float32 // reference or probe encoding on success, nil otherwise
	Err      error     // terminal error when Outcome is OutcomeFailed
}

// Operation is the camera-bound work run on the background goroutine.
// It must return exactly one Result and honor ctx cancellation at frame
// boundaries.
type Operation func(ctx context.Context) Result

// Coordinator runs one camera operation at a time on a background
// goroutine and relays its terminal result through a bounded channel.
// The foreground polls with Poll or Wait; a new operation cannot start
// until the previous result has been drained.
type Coordinator struct {
	mu       sync.Mutex
	inflight bool
	cancel   context.CancelFunc
	results  chan Result
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		results: make(chan Result, 1),
	}
}

// Start launches op on a background goroutine. Returns ErrBusy while a
// prior operation is in flight or its result is still undrained.
func (c *Coordinator) Start(ctx context.Context, op Operation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight || len(c.results) > 0 {
		return ErrBusy
	}

	opCtx, cancel := context.WithCancel(ctx)
	c.inflight = true
	c.cancel = cancel

	go func() {
		defer cancel()
		c.results <- op(opCtx)
	}()

	return nil
}

// Cancel requests cooperative cancellation of the in-flight operation.
// The loop stops at its next frame boundary and still delivers a terminal
// result.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight && c.cancel != nil {
		c.cancel()
	}
}

// Busy reports whether an operation is in flight or its result undrained.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight || len(c.results) > 0
}

// Poll drains the terminal result if one is available. The second return
// is false while the operation is still running or no operation started.
func (c *Coordinator) Poll() (Result, bool) {
	select {
	case res := <-c.results:
		c.mu.Lock()
		c.inflight = false
		c.cancel = nil
		c.mu.Unlock()
		return res, true
	default:
		return Result{}, false
	}
}

// Wait polls on a fixed interval until the terminal result arrives or ctx
// is done. Polling stops as soon as the result is delivered.
func (c *Coordinator) Wait(ctx context.Context, interval time.Duration) (Result, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if res, ok := c.Poll(); ok {
			return res, nil
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

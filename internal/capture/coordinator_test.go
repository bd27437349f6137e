package capture

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCoordinator_DeliversSingleResult(t *testing.T) {
	c := NewCoordinator()

	err := c.Start(context.Background(), func(ctx context.Context) Result {
		return Result{Outcome: OutcomeSuccess, Encoding: []float32{1, 2, 3}}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := c.Wait(context.Background(), time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeSuccess {
		t.Errorf("expected success outcome, got %s", res.Outcome)
	}
	if len(res.Encoding) != 3 {
		t.Errorf("expected encoding in result, got %v", res.Encoding)
	}

	// No second result may appear.
	if _, ok := c.Poll(); ok {
		t.Error("expected no further results after the terminal one")
	}
}

func TestCoordinator_RejectsConcurrentStart(t *testing.T) {
	c := NewCoordinator()
	release := make(chan struct{})

	err := c.Start(context.Background(), func(ctx context.Context) Result {
		<-release
		return Result{Outcome: OutcomeSuccess}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.Start(context.Background(), func(ctx context.Context) Result {
		return Result{Outcome: OutcomeSuccess}
	}); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy for second start, got %v", err)
	}

	close(release)
	if _, err := c.Wait(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCoordinator_BusyUntilResultDrained(t *testing.T) {
	c := NewCoordinator()

	if err := c.Start(context.Background(), func(ctx context.Context) Result {
		return Result{Outcome: OutcomeCancelled}
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Wait for the background goroutine to deliver, without draining.
	deadline := time.Now().Add(time.Second)
	for len(c.results) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if !c.Busy() {
		t.Error("expected coordinator busy while result is undrained")
	}
	if err := c.Start(context.Background(), func(ctx context.Context) Result {
		return Result{}
	}); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy while result undrained, got %v", err)
	}

	if res, ok := c.Poll(); !ok || res.Outcome != OutcomeCancelled {
		t.Fatalf("expected to drain cancelled result, got %+v ok=%v", res, ok)
	}
	if c.Busy() {
		t.Error("expected coordinator idle after drain")
	}
}

func TestCoordinator_CancelStopsOperation(t *testing.T) {
	c := NewCoordinator()

	if err := c.Start(context.Background(), func(ctx context.Context) Result {
		<-ctx.Done()
		return Result{Outcome: OutcomeCancelled}
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.Cancel()

	res, err := c.Wait(context.Background(), time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeCancelled {
		t.Errorf("expected cancelled outcome, got %s", res.Outcome)
	}
}

func TestCoordinator_WaitHonorsContext(t *testing.T) {
	c := NewCoordinator()
	release := make(chan struct{})
	defer close(release)

	if err := c.Start(context.Background(), func(ctx context.Context) Result {
		<-release
		return Result{Outcome: OutcomeSuccess}
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Wait(ctx, time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

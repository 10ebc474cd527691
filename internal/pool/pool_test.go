package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"classifier/internal/testutil"
)

func TestPool_RunsTasks(t *testing.T) {
	p := New(Config{Workers: 2, QueueCapacity: 10}, nil)

	var ran atomic.Int64
	for i := 0; i < 3; i++ {
		err := p.Submit(&Task{
			ID:  "task",
			Run: func(ctx context.Context) { ran.Add(1) },
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	testutil.MustWaitForCount(t, &ran, 3)

	stats := p.Stats()
	if stats.Queued != 3 {
		t.Errorf("expected 3 queued, got %d", stats.Queued)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(ctx)

	if got := p.Stats().Executed; got != 3 {
		t.Errorf("expected 3 executed, got %d", got)
	}
}

func TestPool_QueueFull(t *testing.T) {
	p := New(Config{Workers: 1, QueueCapacity: 1}, nil)

	gate := make(chan struct{})
	blocker := &Task{ID: "blocker", Run: func(ctx context.Context) { <-gate }}
	if err := p.Submit(blocker); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Wait for the worker to pick up the blocker so the queue is free.
	testutil.MustWaitFor(t, func() bool {
		return p.Stats().Running == 1
	})

	if err := p.Submit(&Task{ID: "queued", Run: func(ctx context.Context) {}}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	err := p.Submit(&Task{ID: "refused", Run: func(ctx context.Context) {}})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if got := p.Stats().Rejected; got != 1 {
		t.Errorf("expected 1 rejected, got %d", got)
	}

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(ctx)
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := New(Config{Workers: 1, QueueCapacity: 1}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	err := p.Submit(&Task{ID: "late", Run: func(ctx context.Context) {}})
	if !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestPool_AbandonsQueuedTasksOnStop(t *testing.T) {
	p := New(Config{Workers: 1, QueueCapacity: 5}, nil)

	gate := make(chan struct{})
	if err := p.Submit(&Task{ID: "blocker", Run: func(ctx context.Context) { <-gate }}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	testutil.MustWaitFor(t, func() bool {
		return p.Stats().Running == 1
	})

	var ran, abandoned atomic.Int64
	for i := 0; i < 3; i++ {
		err := p.Submit(&Task{
			ID:      "queued",
			Run:     func(ctx context.Context) { ran.Add(1) },
			Abandon: func() { abandoned.Add(1) },
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	stopDone := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		stopDone <- p.Stop(ctx)
	}()

	// Queued tasks are abandoned as soon as intake closes, before the
	// in-flight task finishes.
	testutil.MustWaitForCount(t, &abandoned, 3)

	close(gate)
	if err := <-stopDone; err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := ran.Load(); got != 0 {
		t.Errorf("expected no queued task to run, got %d", got)
	}
	stats := p.Stats()
	if stats.Abandoned != 3 {
		t.Errorf("expected 3 abandoned, got %d", stats.Abandoned)
	}
	if stats.Executed != 1 {
		t.Errorf("expected 1 executed, got %d", stats.Executed)
	}
}

func TestPool_StopTimeoutThenTerminate(t *testing.T) {
	p := New(Config{Workers: 1, QueueCapacity: 1}, nil)

	started := make(chan struct{})
	if err := p.Submit(&Task{
		ID: "cooperative",
		Run: func(ctx context.Context) {
			close(started)
			<-ctx.Done()
		},
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-started

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stopCancel()
	if err := p.Stop(stopCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded from Stop, got %v", err)
	}

	termCtx, termCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer termCancel()
	if err := p.Terminate(termCtx); err != nil {
		t.Fatalf("Terminate failed: %v", err)
	}

	if got := p.Stats().Running; got != 0 {
		t.Errorf("expected 0 running after terminate, got %d", got)
	}
}

func TestPool_EveryTaskRunsOrIsAbandoned(t *testing.T) {
	p := New(Config{Workers: 2, QueueCapacity: 50}, nil)

	const tasks = 20
	outcomes := make([]atomic.Int32, tasks)
	accepted := 0
	for i := 0; i < tasks; i++ {
		i := i
		err := p.Submit(&Task{
			ID: "task",
			Run: func(ctx context.Context) {
				time.Sleep(time.Millisecond)
				outcomes[i].Add(1)
			},
			Abandon: func() { outcomes[i].Add(1) },
		})
		if err == nil {
			accepted++
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	var total int32
	for i := range outcomes {
		n := outcomes[i].Load()
		if n > 1 {
			t.Errorf("task %d handled %d times", i, n)
		}
		total += n
	}
	if total != int32(accepted) {
		t.Errorf("expected %d tasks handled, got %d", accepted, total)
	}
}

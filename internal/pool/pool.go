// Package pool provides a bounded worker pool for running job tasks.
// Tasks are queued in a bounded channel and picked up by a fixed set of
// worker goroutines. If the queue is full, Submit refuses the task instead
// of blocking the caller.
package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrQueueFull is returned when the pool's queue is full and the task is refused.
var ErrQueueFull = errors.New("pool queue full, task refused")

// ErrStopped is returned when the pool no longer accepts tasks.
var ErrStopped = errors.New("pool is stopped")

// Task is a unit of work. For every accepted task exactly one of Run or
// Abandon is invoked: Run when a worker picks the task up, Abandon when the
// pool shuts down before the task starts.
type Task struct {
	ID      string
	Run     func(ctx context.Context)
	Abandon func()
}

// MetricsRecorder is an optional interface for recording pool metrics.
type MetricsRecorder interface {
	RecordPoolQueueDepth(ctx context.Context, depth int64)
	RecordPoolRejected(ctx context.Context)
}

// Pool runs tasks on a fixed number of workers with a bounded queue.
type Pool struct {
	queue   chan *Task
	config  Config
	logger  *slog.Logger
	metrics MetricsRecorder

	// runCtx is passed to every Run and canceled by Terminate.
	runCtx    context.Context
	cancelRun context.CancelFunc

	// Internal counters (for Stats())
	queued    atomic.Int64
	executed  atomic.Int64
	rejected  atomic.Int64
	abandoned atomic.Int64
	running   atomic.Int64

	// mu serializes Submit against shutdown so an accepted task is never
	// stranded in the queue after the drain.
	mu     sync.RWMutex
	closed bool

	wg       sync.WaitGroup
	shutdown chan struct{}
}

// New creates a pool and starts its workers.
func New(cfg Config, metrics MetricsRecorder) *Pool {
	cfg = cfg.withDefaults()

	runCtx, cancelRun := context.WithCancel(context.Background())
	p := &Pool{
		queue:     make(chan *Task, cfg.QueueCapacity),
		config:    cfg,
		logger:    slog.With("component", "pool"),
		metrics:   metrics,
		runCtx:    runCtx,
		cancelRun: cancelRun,
		shutdown:  make(chan struct{}),
	}

	// Start workers
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker()
	}

	// Start queue depth reporter if metrics enabled
	if metrics != nil {
		go p.reportQueueDepth()
	}

	p.logger.Info("Pool started", "workers", cfg.Workers, "capacity", cfg.QueueCapacity)
	return p
}

// reportQueueDepth periodically reports the queue depth metric.
func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.metrics.RecordPoolQueueDepth(context.Background(), int64(len(p.queue)))
		}
	}
}

// Submit queues a task for execution. Non-blocking.
// Returns ErrStopped after Stop or Terminate, ErrQueueFull when the buffer
// has no room.
func (p *Pool) Submit(task *Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrStopped
	}

	select {
	case p.queue <- task:
		p.queued.Add(1)
		return nil
	default:
		p.rejected.Add(1)
		if p.metrics != nil {
			p.metrics.RecordPoolRejected(context.Background())
		}
		p.logger.Warn("Task refused, queue full", "taskId", task.ID)
		return ErrQueueFull
	}
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		QueueDepth: len(p.queue),
		Running:    p.running.Load(),
		Queued:     p.queued.Load(),
		Executed:   p.executed.Load(),
		Rejected:   p.rejected.Load(),
		Abandoned:  p.abandoned.Load(),
	}
}

// Stats holds pool statistics.
type Stats struct {
	QueueDepth int   // tasks waiting for a worker
	Running    int64 // tasks currently executing
	Queued     int64 // total tasks accepted
	Executed   int64 // tasks run to completion
	Rejected   int64 // tasks refused because the queue was full
	Abandoned  int64 // queued tasks released during shutdown
}

// Stop closes the pool: no new tasks are accepted, queued tasks are
// abandoned, and in-flight tasks get until the context deadline to finish.
func (p *Pool) Stop(ctx context.Context) error {
	p.closeIntake()

	if err := p.waitWorkers(ctx); err != nil {
		p.logger.Warn("Pool stop timed out", "running", p.running.Load())
		return err
	}

	p.logger.Info("Pool stopped",
		"executed", p.executed.Load(),
		"abandoned", p.abandoned.Load(),
		"rejected", p.rejected.Load(),
	)
	return nil
}

// Terminate cancels the context passed to running tasks and waits until the
// context deadline for workers to exit. Called after Stop when cooperative
// shutdown ran out of time; safe to call on its own.
func (p *Pool) Terminate(ctx context.Context) error {
	p.closeIntake()
	p.cancelRun()

	if err := p.waitWorkers(ctx); err != nil {
		p.logger.Warn("Pool terminate timed out", "running", p.running.Load())
		return err
	}
	return nil
}

// closeIntake marks the pool closed, signals workers, and abandons every
// task still waiting in the queue. Idempotent.
func (p *Pool) closeIntake() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.logger.Info("Pool shutting down", "queued", len(p.queue), "running", p.running.Load())
	close(p.shutdown)
	p.drainQueue()
}

// drainQueue abandons tasks that never started.
func (p *Pool) drainQueue() {
	for {
		select {
		case task := <-p.queue:
			p.abandoned.Add(1)
			if task.Abandon != nil {
				task.Abandon()
			}
		default:
			return // queue empty
		}
	}
}

// waitWorkers blocks until all workers exit or the context is done.
func (p *Pool) waitWorkers(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker runs tasks from the queue until shutdown.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.shutdown:
			return
		case task := <-p.queue:
			p.execute(task)
		}
	}
}

func (p *Pool) execute(task *Task) {
	p.running.Add(1)
	defer func() {
		p.running.Add(-1)
		p.executed.Add(1)
	}()

	task.Run(p.runCtx)
}

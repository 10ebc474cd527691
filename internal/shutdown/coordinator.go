// Package shutdown coordinates the escalating termination sequence that
// drains or forcibly stops outstanding work.
package shutdown

import (
	"context"
	"log/slog"
	"time"

	"classifier/internal/pool"
)

// JobController is the orchestrator surface the coordinator drives.
type JobController interface {
	// BeginShutdown stops intake: new submissions are refused.
	BeginShutdown()
	// AbortAll force-transitions every live job record to aborted and
	// returns how many were aborted.
	AbortAll() int
}

// WorkerPool is the execution pool surface the coordinator drives.
type WorkerPool interface {
	Stop(ctx context.Context) error
	Terminate(ctx context.Context) error
	Stats() pool.Stats
}

// Coordinator runs the shutdown sequence: refuse intake, abort job records,
// drain the pool cooperatively, then escalate to termination.
type Coordinator struct {
	jobs           JobController
	pool           WorkerPool
	grace          time.Duration
	terminateGrace time.Duration
	logger         *slog.Logger
}

// New creates a coordinator with the given grace periods.
func New(jobs JobController, p WorkerPool, grace, terminateGrace time.Duration) *Coordinator {
	return &Coordinator{
		jobs:           jobs,
		pool:           p,
		grace:          grace,
		terminateGrace: terminateGrace,
		logger:         slog.With("component", "shutdown"),
	}
}

// Run executes the sequence. It always returns once the grace periods have
// elapsed; workers that survive termination are reported and left behind.
func (c *Coordinator) Run() {
	c.jobs.BeginShutdown()

	aborted := c.jobs.AbortAll()
	c.logger.Info("Outstanding jobs aborted", "count", aborted)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), c.grace)
	defer stopCancel()
	if err := c.pool.Stop(stopCtx); err == nil {
		c.logger.Info("Pool drained")
		return
	}

	c.logger.Warn("Grace period expired, cancelling running jobs", "grace", c.grace)

	termCtx, termCancel := context.WithTimeout(context.Background(), c.terminateGrace)
	defer termCancel()
	if err := c.pool.Terminate(termCtx); err != nil {
		c.logger.Error("Workers survived termination", "running", c.pool.Stats().Running)
		return
	}

	c.logger.Info("Pool terminated")
}

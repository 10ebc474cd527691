// Package job implements the orchestration core: the registry of submitted
// batches, the state machine each job moves through, cooperative
// cancellation, and retention of finished work.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"classifier/internal/apperrors"
	"classifier/internal/classify"
	"classifier/internal/config"
	"classifier/internal/observability"
	"classifier/internal/pool"
)

// Orchestrator owns the job lifecycle. Submissions create a record, flip it
// to Processing, and dispatch the body to the pool; everything afterwards is
// asynchronous. The registry is the single source of truth for job state,
// and records only ever leave it through the reaper.
type Orchestrator struct {
	backend classify.Backend
	pool    *pool.Pool
	metrics *observability.Metrics
	logger  *slog.Logger

	registry *registry
	handles  *handleDir

	resultTTL time.Duration

	shuttingDown      atomic.Bool
	cancelMaintenance context.CancelFunc
}

// Config holds configuration for the Orchestrator.
type Config struct {
	Backend             classify.Backend       // inference backend (required)
	Pool                *pool.Pool             // execution pool (required)
	ResultTTL           time.Duration          // how long finished jobs are kept (default 1h)
	MaintenanceInterval time.Duration          // how often the reaper scans (default 5m)
	Metrics             *observability.Metrics // metrics recorder (optional)
}

// LoadConfigFromEnv loads orchestrator configuration from environment variables.
// RESULT_TTL and CLEANUP_INTERVAL are integer seconds.
func LoadConfigFromEnv() Config {
	return Config{
		ResultTTL:           config.GetSecondsEnv("RESULT_TTL", time.Hour),
		MaintenanceInterval: config.GetSecondsEnv("CLEANUP_INTERVAL", 5*time.Minute),
	}
}

// NewOrchestrator creates an orchestrator and starts its background reaper.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if cfg.Pool == nil {
		return nil, fmt.Errorf("pool is required")
	}

	resultTTL := cfg.ResultTTL
	if resultTTL <= 0 {
		resultTTL = time.Hour
	}
	maintenanceInterval := cfg.MaintenanceInterval
	if maintenanceInterval <= 0 {
		maintenanceInterval = 5 * time.Minute
	}

	o := &Orchestrator{
		backend:   cfg.Backend,
		pool:      cfg.Pool,
		metrics:   cfg.Metrics,
		logger:    slog.With("component", "orchestrator"),
		registry:  newRegistry(),
		handles:   newHandleDir(),
		resultTTL: resultTTL,
	}

	// Start background maintenance
	maintenanceCtx, cancel := context.WithCancel(context.Background())
	o.cancelMaintenance = cancel
	go o.runMaintenance(maintenanceCtx, maintenanceInterval)

	return o, nil
}

// Submit registers a batch and dispatches its body to the pool. The record
// is already Processing when Submit returns; the body runs asynchronously.
func (o *Orchestrator) Submit(ctx context.Context, items, categories []string) (*Response, error) {
	if o.shuttingDown.Load() {
		return nil, apperrors.Unavailable("service is shutting down")
	}

	id := o.registry.create(len(items), categories, time.Now())
	h := newJobHandle()
	o.handles.put(id, h)

	o.registry.update(id, func(rec *Record) {
		rec.Status = StatusProcessing
		rec.StartedAt = time.Now()
	})

	task := &pool.Task{
		ID: id,
		Run: func(runCtx context.Context) {
			o.apply(id, o.runBatch(runCtx, id, items, categories, h))
		},
		Abandon: func() {
			o.apply(id, batchOutcome{status: StatusAborted, log: h.log.String()})
		},
	}

	if err := o.pool.Submit(task); err != nil {
		// The job never entered the pool; undo the registration.
		o.registry.remove(id)
		o.handles.remove(id)
		if errors.Is(err, pool.ErrQueueFull) {
			return nil, apperrors.Unavailable("job queue is full")
		}
		return nil, apperrors.Unavailable("service is shutting down")
	}

	return &Response{ID: id, Status: StatusProcessing, Total: len(items)}, nil
}

// apply writes a finished body's outcome into the record. Exactly one apply
// happens per accepted job: from the body when it ran, or from the pool's
// abandon hook when it never started. A record that is already terminal
// keeps its state; only a missing log is backfilled.
func (o *Orchestrator) apply(id string, out batchOutcome) {
	var transitioned bool
	var duration float64
	o.registry.update(id, func(rec *Record) {
		if rec.Status.Terminal() {
			if rec.Log == "" {
				rec.Log = out.log
			}
			return
		}

		rec.Status = out.status
		rec.Log = out.log
		rec.CompletedAt = time.Now()
		switch out.status {
		case StatusCompleted:
			rec.Results = out.results
			rec.Progress = 1
		case StatusFailed:
			rec.Error = out.err
		}

		transitioned = true
		duration = rec.CompletedAt.Sub(rec.StartedAt).Seconds()
	})
	o.handles.remove(id)

	if !transitioned {
		o.logger.Debug("Late completion ignored", "jobId", id, "status", out.status)
		return
	}

	if o.metrics != nil {
		o.metrics.RecordJobFinished(context.Background(), string(out.status), duration)
	}
	o.logger.Info("Job finished", "jobId", id, "status", out.status, "durationSec", duration)
}

// Cancel requests cancellation of a live job. The record is marked Aborted
// immediately so clients see consistent state; the body observes the token
// asynchronously and stops at the next item boundary.
func (o *Orchestrator) Cancel(id string) (*CancelResponse, error) {
	rec, ok := o.registry.get(id)
	if !ok {
		return nil, apperrors.NotFound("job", id)
	}
	if rec.Status.Terminal() {
		return nil, apperrors.InvalidState("job", string(rec.Status),
			fmt.Sprintf("job is already %s", rec.Status))
	}

	if !o.forceAbort(id) {
		// The body finished in between; report the state it reached.
		if rec, ok = o.registry.get(id); ok {
			return nil, apperrors.InvalidState("job", string(rec.Status),
				fmt.Sprintf("job is already %s", rec.Status))
		}
		return nil, apperrors.NotFound("job", id)
	}

	o.logger.Info("Job cancelled", "jobId", id)
	return &CancelResponse{
		ID:      id,
		Status:  StatusAborted,
		Message: "cancellation requested",
	}, nil
}

// forceAbort cancels a job's token and marks its record Aborted if it is
// still live. Reports whether this call performed the transition.
func (o *Orchestrator) forceAbort(id string) bool {
	logSnapshot := ""
	if h, ok := o.handles.get(id); ok {
		h.token.Cancel()
		logSnapshot = h.log.String()
	}

	var transitioned bool
	var duration float64
	o.registry.update(id, func(rec *Record) {
		if rec.Status.Terminal() {
			return
		}
		rec.Status = StatusAborted
		rec.CompletedAt = time.Now()
		if rec.Log == "" {
			rec.Log = logSnapshot
		}
		transitioned = true
		duration = rec.CompletedAt.Sub(rec.StartedAt).Seconds()
	})

	if transitioned && o.metrics != nil {
		o.metrics.RecordJobFinished(context.Background(), string(StatusAborted), duration)
	}
	return transitioned
}

// Query returns a status snapshot of a job.
func (o *Orchestrator) Query(id string) (*StatusResponse, error) {
	rec, ok := o.registry.get(id)
	if !ok {
		return nil, apperrors.NotFound("job", id)
	}
	return rec.toStatus(time.Now()), nil
}

// Results returns the per-item outcomes of a completed job.
func (o *Orchestrator) Results(id string) (*ResultsResponse, error) {
	rec, ok := o.registry.get(id)
	if !ok {
		return nil, apperrors.NotFound("job", id)
	}
	if rec.Status != StatusCompleted {
		return nil, apperrors.InvalidState("job", string(rec.Status),
			fmt.Sprintf("job is %s; results are available only for completed jobs", rec.Status))
	}
	return &ResultsResponse{
		ID:         rec.ID,
		Results:    rec.Results,
		Total:      rec.Total,
		Categories: rec.Categories,
	}, nil
}

// Log returns the execution trace of a job: a live snapshot while the body
// is still running, the captured final text afterwards.
func (o *Orchestrator) Log(id string) (*LogResponse, error) {
	rec, ok := o.registry.get(id)
	if !ok {
		return nil, apperrors.NotFound("job", id)
	}

	text := rec.Log
	if text == "" {
		if h, ok := o.handles.get(id); ok {
			text = h.log.String()
		}
	}
	return &LogResponse{ID: rec.ID, Log: text}, nil
}

// List returns status snapshots of all jobs, oldest first.
func (o *Orchestrator) List() *ListResponse {
	records := o.registry.list()
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	now := time.Now()
	jobs := make([]StatusResponse, 0, len(records))
	for i := range records {
		jobs = append(jobs, *records[i].toStatus(now))
	}
	return &ListResponse{Jobs: jobs}
}

// Counts returns the number of live jobs and the total number of records.
func (o *Orchestrator) Counts() (active, total int) {
	return o.registry.counts()
}

// BeginShutdown refuses new submissions and stops the reaper. Safe to call
// more than once.
func (o *Orchestrator) BeginShutdown() {
	if o.shuttingDown.Swap(true) {
		return
	}
	o.cancelMaintenance()
	o.logger.Info("Submissions disabled")
}

// AbortAll cancels every live job and forces its record to Aborted, so the
// registry is consistent for readers even while workers are still unwinding.
// Returns the number of jobs aborted by this call.
func (o *Orchestrator) AbortAll() int {
	aborted := 0
	for _, id := range o.registry.listActive() {
		if o.forceAbort(id) {
			aborted++
		}
	}
	if aborted > 0 {
		o.logger.Info("Aborted active jobs", "count", aborted)
	}
	return aborted
}

// Close stops the background reaper. Records and running work are left as
// they are; use BeginShutdown and AbortAll for an orderly shutdown.
func (o *Orchestrator) Close() {
	o.cancelMaintenance()
}

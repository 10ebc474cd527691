package job

import (
	"context"
	"log/slog"
	"time"
)

// runMaintenance periodically reaps expired finished jobs. The loop exits
// when ctx is canceled, so shutdown never waits out a full interval.
func (o *Orchestrator) runMaintenance(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.reapExpiredJobs()
		}
	}
}

// reapExpiredJobs deletes terminal records whose retention window has
// passed, along with their cancellation handles. Live jobs are never
// touched.
func (o *Orchestrator) reapExpiredJobs() {
	now := time.Now()
	logger := slog.With("component", "maintenance")

	reaped := 0
	for _, rec := range o.registry.list() {
		if !rec.Status.Terminal() {
			continue
		}
		if rec.CompletedAt.IsZero() || now.Sub(rec.CompletedAt) <= o.resultTTL {
			continue
		}

		if o.registry.remove(rec.ID) {
			o.handles.remove(rec.ID)
			reaped++
			logger.Debug("Reaped expired job", "jobId", rec.ID, "status", rec.Status)
		}
	}

	if reaped == 0 {
		return
	}

	if o.metrics != nil {
		o.metrics.RecordJobsReaped(context.Background(), int64(reaped))
	}
	logger.Info("Maintenance complete", "reaped", reaped)
}

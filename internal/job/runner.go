package job

import (
	"context"
	"fmt"
)

// batchOutcome is what a finished job body hands to the completion callback.
// results is set only for StatusCompleted, err only for StatusFailed.
type batchOutcome struct {
	status  Status
	results []Result
	err     string
	log     string
}

// runBatch is the job body: it classifies every item in order, reporting
// progress after each one and polling the cancellation token between items.
// It never touches the registry directly; the outcome is applied by the
// completion callback.
func (o *Orchestrator) runBatch(ctx context.Context, id string, items, categories []string, h *jobHandle) batchOutcome {
	logger := newJobLogger(h.log)
	logger.Info("batch started", "items", len(items), "categories", len(categories))

	results := make([]Result, 0, len(items))
	defer func() {
		if o.metrics != nil && len(results) > 0 {
			o.metrics.RecordItemsClassified(context.Background(), int64(len(results)), true)
		}
	}()

	for i, item := range items {
		if h.token.Cancelled() || ctx.Err() != nil {
			logger.Warn("batch aborted", "classified", len(results))
			return batchOutcome{status: StatusAborted, log: h.log.String()}
		}

		pred, err := o.backend.Classify(ctx, item, categories)
		if err != nil {
			// Cancellation surfacing through the backend is an abort,
			// not a backend failure.
			if h.token.Cancelled() || ctx.Err() != nil {
				logger.Warn("batch aborted", "classified", len(results))
				return batchOutcome{status: StatusAborted, log: h.log.String()}
			}

			logger.Error("item failed", "index", i, "error", err)
			if o.metrics != nil {
				o.metrics.RecordItemsClassified(context.Background(), 1, false)
			}
			return batchOutcome{
				status: StatusFailed,
				err:    fmt.Sprintf("item %d: %v", i, err),
				log:    h.log.String(),
			}
		}

		results = append(results, Result{Item: item, Predicted: pred.Label, Scores: pred.Scores})
		logger.Info("item classified", "index", i, "predicted", pred.Label)
		o.reportProgress(id, len(results), len(items))
	}

	logger.Info("batch completed", "classified", len(results))
	return batchOutcome{status: StatusCompleted, results: results, log: h.log.String()}
}

// reportProgress records forward progress while the job is still processing.
// Progress freezes as soon as the record turns terminal.
func (o *Orchestrator) reportProgress(id string, done, total int) {
	o.registry.update(id, func(rec *Record) {
		if rec.Status != StatusProcessing {
			return
		}
		if p := float64(done) / float64(total); p > rec.Progress {
			rec.Progress = p
		}
	})
}

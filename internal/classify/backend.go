// Package classify defines the inference backend boundary and its default
// in-process implementation.
package classify

import "context"

// Prediction is the outcome of classifying a single item.
type Prediction struct {
	Label  string             // best-scoring category
	Scores map[string]float64 // per-category scores, normalized to sum to 1
}

// Backend classifies one item against a category set. Implementations may be
// slow and may fail; the orchestration layer calls them only from pool
// workers, never while holding a lock.
type Backend interface {
	Classify(ctx context.Context, item string, categories []string) (Prediction, error)
}

// BackendFunc adapts a plain function to the Backend interface.
type BackendFunc func(ctx context.Context, item string, categories []string) (Prediction, error)

// Classify calls f.
func (f BackendFunc) Classify(ctx context.Context, item string, categories []string) (Prediction, error) {
	return f(ctx, item, categories)
}

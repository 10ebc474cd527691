package classify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"classifier/internal/apperrors"
	"classifier/pkg/backoff"
)

// BuildFunc constructs a backend. Called lazily by the Loader on the first
// classification request.
type BuildFunc func(ctx context.Context) (Backend, error)

// Loader wraps a backend whose construction is expensive (model load, warm
// pool, remote handshake) and defers it until first use. Construction runs
// once; every concurrent caller shares the outcome, including a permanent
// failure.
type Loader struct {
	build      BuildFunc
	attempts   int
	backoffCfg *backoff.Config
	logger     *slog.Logger

	once    sync.Once
	settled atomic.Bool
	backend Backend
	err     error
}

// LoaderConfig tunes the Loader's retry behavior.
type LoaderConfig struct {
	// Attempts is how many times the build runs before the failure is cached.
	Attempts int
	// Backoff controls the delay between attempts.
	Backoff *backoff.Config
	// Logger receives build progress. Defaults to slog.Default.
	Logger *slog.Logger
}

// NewLoader creates a lazy-loading wrapper around build.
func NewLoader(build BuildFunc, cfg LoaderConfig) *Loader {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loader{
		build:      build,
		attempts:   cfg.Attempts,
		backoffCfg: cfg.Backoff,
		logger:     cfg.Logger.With("component", "classify"),
	}
}

// Classify loads the backend if needed and delegates to it.
func (l *Loader) Classify(ctx context.Context, item string, categories []string) (Prediction, error) {
	backend, err := l.get(ctx)
	if err != nil {
		return Prediction{}, err
	}
	return backend.Classify(ctx, item, categories)
}

// Ready reports whether the backend is usable. Before the first load it
// returns nil so readiness does not force an eager build; after the load
// settles it returns the cached build error, if any.
func (l *Loader) Ready(ctx context.Context) error {
	if !l.settled.Load() {
		return nil
	}
	return l.err
}

func (l *Loader) get(ctx context.Context) (Backend, error) {
	l.once.Do(func() {
		l.load(ctx)
	})
	return l.backend, l.err
}

func (l *Loader) load(ctx context.Context) {
	// Detach from the triggering request so one caller's deadline cannot
	// poison the shared backend for everyone else.
	loadCtx := context.WithoutCancel(ctx)

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= l.attempts; attempt++ {
		backend, err := l.build(loadCtx)
		if err == nil {
			l.backend = backend
			l.settled.Store(true)
			l.logger.Info("Backend loaded",
				"attempts", attempt,
				"durationMs", time.Since(start).Milliseconds())
			return
		}
		lastErr = err
		l.logger.Warn("Backend load failed",
			"attempt", attempt,
			"maxAttempts", l.attempts,
			"error", err)
		if attempt < l.attempts {
			time.Sleep(backoff.Exponential(attempt, l.backoffCfg))
		}
	}

	l.err = apperrors.Internal("classify.load", lastErr)
	l.settled.Store(true)
}

// Verify Loader implements Backend
var _ Backend = (*Loader)(nil)

package job

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
)

// logBuffer accumulates a job's execution trace. Safe for concurrent use:
// the job body writes while status queries read.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns the accumulated log text.
func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newJobLogger returns a logger that writes line-oriented text into buf.
// Each job body gets its own logger so traces never interleave.
func newJobLogger(buf *logBuffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Verify logBuffer implements io.Writer
var _ io.Writer = (*logBuffer)(nil)

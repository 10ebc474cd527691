package job

import (
	"sync"
	"sync/atomic"
)

// Token signals cooperative cancellation to a running job body. The
// orchestrator sets it; the body polls it between items. It never resets.
type Token struct {
	fired atomic.Bool
}

// Cancel sets the token. Idempotent.
func (t *Token) Cancel() {
	t.fired.Store(true)
}

// Cancelled reports whether cancellation was requested.
func (t *Token) Cancelled() bool {
	return t.fired.Load()
}

// jobHandle is the live plumbing for a job that has not finished: its
// cancellation token and log buffer. The job body keeps direct references,
// so removing the handle from the directory never breaks a running body.
type jobHandle struct {
	token *Token
	log   *logBuffer
}

func newJobHandle() *jobHandle {
	return &jobHandle{
		token: &Token{},
		log:   &logBuffer{},
	}
}

// handleDir tracks handles for jobs between submission and completion.
type handleDir struct {
	mu      sync.RWMutex
	handles map[string]*jobHandle
}

// newHandleDir creates a new handle directory.
func newHandleDir() *handleDir {
	return &handleDir{
		handles: make(map[string]*jobHandle),
	}
}

// put registers a handle for a job ID.
func (d *handleDir) put(id string, h *jobHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handles[id] = h
}

// get retrieves a job's handle.
func (d *handleDir) get(id string) (*jobHandle, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	h, exists := d.handles[id]
	return h, exists
}

// remove drops a job's handle. Safe to call for missing IDs.
func (d *handleDir) remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handles, id)
}

// len returns the number of live handles.
func (d *handleDir) len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handles)
}

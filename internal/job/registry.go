package job

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// registry stores job records with thread-safe access. Records leave the
// registry only through remove; readers always get value snapshots.
type registry struct {
	mu   sync.RWMutex
	jobs map[string]*Record
}

// newRegistry creates a new job registry.
func newRegistry() *registry {
	return &registry{
		jobs: make(map[string]*Record),
	}
}

// create inserts a fresh Queued record and returns its generated ID.
// The ID is checked against live records under the lock, so it is unique
// for as long as the record exists.
func (r *registry) create(total int, categories []string, now time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	for {
		if _, exists := r.jobs[id]; !exists {
			break
		}
		id = uuid.NewString()
	}

	r.jobs[id] = &Record{
		ID:         id,
		Status:     StatusQueued,
		Total:      total,
		Categories: categories,
		CreatedAt:  now,
	}
	return id
}

// get returns a snapshot of a job record.
func (r *registry) get(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.jobs[id]
	if !exists {
		return Record{}, false
	}
	return *rec, true
}

// update applies fn to a record under the write lock, making the
// read-modify-write atomic. Updating a missing ID is a no-op and returns
// false; callers tolerate this since the record may have been reaped.
func (r *registry) update(id string, fn func(*Record)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.jobs[id]
	if !exists {
		return false
	}
	fn(rec)
	return true
}

// remove deletes a record. Returns true if it existed.
func (r *registry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[id]; !exists {
		return false
	}
	delete(r.jobs, id)
	return true
}

// list returns snapshots of all records.
func (r *registry) list() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]Record, 0, len(r.jobs))
	for _, rec := range r.jobs {
		records = append(records, *rec)
	}
	return records
}

// listActive returns the IDs of all non-terminal records.
func (r *registry) listActive() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.jobs))
	for id, rec := range r.jobs {
		if !rec.Status.Terminal() {
			ids = append(ids, id)
		}
	}
	return ids
}

// counts returns the number of non-terminal records and the total count.
func (r *registry) counts() (active, total int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.jobs {
		if !rec.Status.Terminal() {
			active++
		}
	}
	return active, len(r.jobs)
}

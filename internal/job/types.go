package job

import (
	"time"
)

// Status is the lifecycle state of a job.
type Status string

// Job lifecycle states. Queued is only ever observed internally: submission
// dispatches the job in the same call, so clients first see processing.
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusAborted    Status = "aborted"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusAborted
}

// Record is the registry's state for one submitted batch. It crosses the
// registry boundary by value; Results and Categories are written once and
// never mutated afterwards, so snapshots may share them.
type Record struct {
	ID         string
	Status     Status
	Total      int
	Progress   float64
	Categories []string

	// Results is populated only when Status is StatusCompleted, one entry
	// per input item in input order.
	Results []Result
	// Error is set only when Status is StatusFailed.
	Error string
	// Log is the captured execution trace, set on any terminal transition.
	Log string

	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// Duration returns elapsed processing time in seconds, measured from
// startedAt to now while the job is live and to completedAt once terminal.
func (rec *Record) Duration(now time.Time) float64 {
	if rec.StartedAt.IsZero() {
		return 0
	}
	end := now
	if !rec.CompletedAt.IsZero() {
		end = rec.CompletedAt
	}
	return end.Sub(rec.StartedAt).Seconds()
}

// toStatus builds the API view of the record at time now.
func (rec *Record) toStatus(now time.Time) *StatusResponse {
	resp := &StatusResponse{
		ID:         rec.ID,
		Status:     rec.Status,
		CreatedAt:  rec.CreatedAt,
		Progress:   rec.Progress,
		Total:      rec.Total,
		Categories: rec.Categories,
		Duration:   rec.Duration(now),
		Error:      rec.Error,
	}
	if !rec.StartedAt.IsZero() {
		t := rec.StartedAt
		resp.StartedAt = &t
	}
	if !rec.CompletedAt.IsZero() {
		t := rec.CompletedAt
		resp.CompletedAt = &t
	}
	return resp
}

// Result is the outcome for a single item in a batch.
type Result struct {
	Item      string             `json:"item"`
	Predicted string             `json:"predicted"`
	Scores    map[string]float64 `json:"scores"`
}

// Request represents a request to classify a batch of items.
type Request struct {
	Items      []string `json:"items"`
	Categories []string `json:"categories"`
}

// Response represents the response when a job is accepted.
type Response struct {
	ID     string `json:"id"`
	Status Status `json:"status"` // "processing"
	Total  int    `json:"total"`
}

// StatusResponse represents the queryable state of a job.
type StatusResponse struct {
	ID          string     `json:"id"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Progress    float64    `json:"progress"`
	Total       int        `json:"total"`
	Categories  []string   `json:"categories"`
	Duration    float64    `json:"duration"` // seconds
	Error       string     `json:"error,omitempty"`
}

// ResultsResponse represents the results of a completed job.
type ResultsResponse struct {
	ID         string   `json:"id"`
	Results    []Result `json:"results"`
	Total      int      `json:"total"`
	Categories []string `json:"categories"`
}

// LogResponse represents the execution log of a job.
type LogResponse struct {
	ID  string `json:"id"`
	Log string `json:"log"`
}

// CancelResponse represents the response to a cancellation request.
type CancelResponse struct {
	ID      string `json:"id"`
	Status  Status `json:"status"` // "aborted"
	Message string `json:"message"`
}

// ListResponse represents the response for listing jobs.
type ListResponse struct {
	Jobs []StatusResponse `json:"jobs"`
}

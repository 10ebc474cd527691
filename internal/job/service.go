package job

import (
	"context"
	"fmt"
	"log/slog"

	"classifier/internal/apperrors"
	"classifier/internal/observability"
)

// MaxBatchItems caps the number of items accepted in a single submission.
const MaxBatchItems = 100

// Service validates requests and manages the job lifecycle through the
// Orchestrator. All job state lives in the orchestrator's registry.
type Service struct {
	orchestrator *Orchestrator
	metrics      *observability.Metrics
}

// NewService creates a new job service.
func NewService(orchestrator *Orchestrator, metrics *observability.Metrics) *Service {
	return &Service{
		orchestrator: orchestrator,
		metrics:      metrics,
	}
}

// Create validates and submits a new classification batch. The job is
// already dispatched when Create returns.
func (s *Service) Create(ctx context.Context, req *Request) (*Response, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	resp, err := s.orchestrator.Submit(ctx, req.Items, req.Categories)
	if err != nil {
		slog.Error("Job submission refused", "items", len(req.Items), "error", err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordJobSubmitted(ctx, len(req.Items))
	}

	slog.Info("Job created", "jobId", resp.ID, "items", resp.Total)
	return resp, nil
}

// Get returns the status of a job.
func (s *Service) Get(jobID string) (*StatusResponse, error) {
	return s.orchestrator.Query(jobID)
}

// GetResults returns the results of a completed job.
func (s *Service) GetResults(jobID string) (*ResultsResponse, error) {
	return s.orchestrator.Results(jobID)
}

// GetLog returns the execution log of a job.
func (s *Service) GetLog(jobID string) (*LogResponse, error) {
	return s.orchestrator.Log(jobID)
}

// Cancel requests cancellation of a live job.
func (s *Service) Cancel(jobID string) (*CancelResponse, error) {
	resp, err := s.orchestrator.Cancel(jobID)
	if err != nil {
		slog.Warn("Job cancellation refused", "jobId", jobID, "error", err)
		return nil, err
	}
	return resp, nil
}

// List returns all jobs and their statuses.
func (s *Service) List() *ListResponse {
	return s.orchestrator.List()
}

// Counts returns the number of live jobs and the total number of records.
func (s *Service) Counts() (active, total int) {
	return s.orchestrator.Counts()
}

// validate checks a submission request. Does not modify the request.
func validate(req *Request) error {
	if len(req.Items) == 0 {
		return apperrors.Validation("items", "at least one item is required")
	}
	if len(req.Items) > MaxBatchItems {
		return apperrors.Validation("items", fmt.Sprintf("batch exceeds maximum of %d items", MaxBatchItems))
	}
	if len(req.Categories) == 0 {
		return apperrors.Validation("categories", "at least one category is required")
	}
	for i, cat := range req.Categories {
		if cat == "" {
			return apperrors.Validation("categories", fmt.Sprintf("category %d is empty", i))
		}
	}
	return nil
}

// Package health provides health check functionality for liveness and readiness probes.
package health

import (
	"context"
	"sync"
	"time"
)

// ReadinessChecker is the interface for readiness checks.
// Implemented by the classification backend to report whether it can serve.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// JobCounter reports how many jobs the service is tracking.
type JobCounter interface {
	Counts() (active, total int)
}

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult contains the result of a health check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response is the health check response.
type Response struct {
	Status     Status                 `json:"status"`
	ActiveJobs int                    `json:"activeJobs"`
	TotalJobs  int                    `json:"totalJobs"`
	Checks     map[string]CheckResult `json:"checks,omitempty"`
}

// Checker performs health checks on dependencies.
type Checker struct {
	backend ReadinessChecker
	jobs    JobCounter
	timeout time.Duration

	mu           sync.RWMutex
	lastCheck    time.Time
	cachedReady  *Response
	shuttingDown bool
}

// NewChecker creates a new health checker.
func NewChecker(backend ReadinessChecker, jobs JobCounter) *Checker {
	return &Checker{
		backend: backend,
		jobs:    jobs,
		timeout: 5 * time.Second,
	}
}

// Health reports overall service health with job counts.
// This is a lightweight check that doesn't probe dependencies; it only
// reflects shutdown, so load balancers stop routing while draining.
func (c *Checker) Health(ctx context.Context) *Response {
	c.mu.RLock()
	down := c.shuttingDown
	c.mu.RUnlock()

	resp := &Response{
		Status: StatusHealthy,
	}
	if down {
		resp.Status = StatusUnhealthy
	}
	c.fillCounts(resp)
	return resp
}

// Readiness checks if the service is ready to accept traffic.
// This checks the classification backend.
// Failing this probe should remove the instance from load balancer rotation.
func (c *Checker) Readiness(ctx context.Context) *Response {
	c.mu.RLock()
	// Return unhealthy immediately if shutting down
	if c.shuttingDown {
		c.mu.RUnlock()
		resp := &Response{
			Status: StatusUnhealthy,
			Checks: map[string]CheckResult{
				"shutdown": {Status: StatusUnhealthy, Message: "service is shutting down"},
			},
		}
		c.fillCounts(resp)
		return resp
	}

	// Use cached result if recent; job counts are refreshed on every call
	if c.cachedReady != nil && time.Since(c.lastCheck) < time.Second {
		cached := *c.cachedReady
		c.mu.RUnlock()
		c.fillCounts(&cached)
		return &cached
	}
	c.mu.RUnlock()

	checks := make(map[string]CheckResult)
	overallStatus := StatusHealthy

	// Check classification backend
	backendCheck := c.checkBackend(ctx)
	checks["backend"] = backendCheck
	if backendCheck.Status != StatusHealthy {
		overallStatus = StatusUnhealthy
	}

	response := &Response{
		Status: overallStatus,
		Checks: checks,
	}
	c.fillCounts(response)

	// Cache the result
	c.mu.Lock()
	c.cachedReady = response
	c.lastCheck = time.Now()
	c.mu.Unlock()

	return response
}

// checkBackend verifies the classification backend can serve.
func (c *Checker) checkBackend(ctx context.Context) CheckResult {
	if c.backend == nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "backend not configured",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.backend.Ready(ctx)
	if err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: err.Error(),
		}
	}

	return CheckResult{
		Status: StatusHealthy,
	}
}

func (c *Checker) fillCounts(resp *Response) {
	if c.jobs == nil {
		return
	}
	resp.ActiveJobs, resp.TotalJobs = c.jobs.Counts()
}

// IsHealthy returns true if the overall status is healthy.
func (r *Response) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// SetShuttingDown marks the service as shutting down.
// This causes readiness checks to return unhealthy, signaling
// load balancers to stop sending new traffic.
func (c *Checker) SetShuttingDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuttingDown = true
	c.cachedReady = nil // Clear cache to ensure immediate effect
}

package feedrank

import (
	"context"
	"errors"
	"time"

	healthuc "github.com/kailas-cloud/feedrank/internal/usecase/health"
)

// Health status values.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthError    = "error"
)

// HealthStatus represents the aggregated system health.
// A failing store makes it "error"; a failing embedder only "degraded".
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // "store"/"embedding" → "ok"/"error"
}

// Serving reports whether recommendations can still be served.
func (h HealthStatus) Serving() bool { return h.Status != HealthError }

// Health checks the store and the embedding provider concurrently.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	h := HealthStatus{Status: string(report.Status), Checks: checks}

	var err error
	if h.Status != HealthOK {
		err = errors.New("health " + h.Status)
	}
	c.obs.observe("health", start, err)
	return h
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

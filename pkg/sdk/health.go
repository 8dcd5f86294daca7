package funderdex

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/funderdex/internal/usecase/health"
)

// Health status values.
const (
	StatusOK       = string(healthuc.Healthy)
	StatusDegraded = string(healthuc.Degraded)
	StatusError    = string(healthuc.Unhealthy)
)

// HealthStatus is the aggregated health of the client's dependencies.
// Checks maps a component (search_backend, embedding, nonprofit_registry)
// to "ok" or "error".
type HealthStatus struct {
	Status string
	Checks map[string]string
}

// OK reports whether keyword search is usable. Degraded still counts.
func (h HealthStatus) OK() bool {
	return h.Status != StatusError
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Health checks the search backend, the nonprofit registry breaker and,
// when configured, the embedder.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	h := HealthStatus{Status: string(report.Status), Checks: make(map[string]string, len(report.Checks))}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}
	c.obs.observe("health", start, nil, "status", h.Status)
	return h
}

package health

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errRegistryUnavailable = errors.New("nonprofit registry breaker open")

// Status is the aggregated health of the service.
type Status string

const (
	// Healthy means every configured component passed.
	Healthy Status = "ok"
	// Degraded means keyword search works but semantic search or
	// nonprofit enrichment does not.
	Degraded Status = "degraded"
	// Unhealthy means the search backend is down.
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one component check.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentSearch    = "search_backend"
	ComponentEmbedding = "embedding"
	ComponentRegistry  = "nonprofit_registry"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Option configures a Service.
type Option func(*Service)

// WithEmbedding adds the embedding provider check. Leave it out when semantic search is off.
func WithEmbedding(c EmbeddingChecker) Option {
	return func(s *Service) { s.embedding = c }
}

// WithRegistry adds the nonprofit registry check.
func WithRegistry(c RegistryChecker) Option {
	return func(s *Service) { s.registry = c }
}

// WithTimeout overrides DefaultCheckTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Service runs component checks concurrently, each under its own timeout.
type Service struct {
	backend   BackendPinger
	embedding EmbeddingChecker
	registry  RegistryChecker
	timeout   time.Duration
}

// New creates a Service for the search backend plus optional components.
func New(backend BackendPinger, opts ...Option) *Service {
	s := &Service{backend: backend, timeout: DefaultCheckTimeout}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check runs every configured check. Only a failing search backend makes
// the report Unhealthy.
func (s *Service) Check(ctx context.Context) Report {
	probes := map[string]func(context.Context) error{ComponentSearch: s.backend.Ping}
	if s.embedding != nil {
		probes[ComponentEmbedding] = s.embedding.HealthCheck
	}
	if s.registry != nil {
		probes[ComponentRegistry] = func(context.Context) error {
			if !s.registry.Available() {
				return errRegistryUnavailable
			}
			return nil
		}
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, len(probes))
	)
	for name, probe := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := s.run(ctx, probe)
			mu.Lock()
			checks[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := Healthy
	for name, res := range checks {
		if res != CheckError {
			continue
		}
		if name == ComponentSearch {
			status = Unhealthy
			break
		}
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, check func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := check(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}

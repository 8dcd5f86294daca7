package health

import "context"

// BackendPinger checks document-search backend availability.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// RegistryChecker reports whether nonprofit lookups are currently accepted.
// It must not call the registry: a probe per health check would eat the rate limit.
type RegistryChecker interface {
	Available() bool
}

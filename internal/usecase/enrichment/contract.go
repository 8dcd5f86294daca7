package enrichment

import (
	"context"

	"github.com/kailas-cloud/funderdex/internal/domain/nonprofit"
)

// Registry is the external nonprofit registry.
// Implementations report domain.ErrNotFound and domain.ErrUpstreamUnavailable.
type Registry interface {
	SearchByName(ctx context.Context, name string) ([]nonprofit.Candidate, error)
	GetByEIN(ctx context.Context, ein string) (nonprofit.Profile, error)
}

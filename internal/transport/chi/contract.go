package chi

import (
	"context"

	"github.com/kailas-cloud/funderdex/internal/domain/nonprofit"
	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/domain/search/request"
	"github.com/kailas-cloud/funderdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/funderdex/internal/usecase/health"
)

// Searcher runs funder searches.
type Searcher interface {
	Search(ctx context.Context, req request.Request) ([]result.Funder, error)
	Semantic(ctx context.Context, text string, filters filter.Filters) ([]result.Funder, error)
}

// Enricher resolves an organization name or EIN to a registry profile.
type Enricher interface {
	Lookup(ctx context.Context, query string) (nonprofit.Profile, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

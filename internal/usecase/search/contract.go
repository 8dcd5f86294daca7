package search

import (
	"context"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/search/policy"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
	"github.com/kailas-cloud/funderdex/internal/domain/search/request"
	"github.com/kailas-cloud/funderdex/internal/domain/search/result"
)

// Repository runs one resolved query against the document-search backend.
type Repository interface {
	Search(ctx context.Context, q query.Resolved, vector []float32, limit int) ([]result.RawHit, error)
}

// Resolver turns a validated request into a resolved query.
type Resolver interface {
	Resolve(req request.Request) (query.Resolved, error)
}

// PostFilter drops results that must not be surfaced.
type PostFilter interface {
	Apply(results []result.Funder) ([]result.Funder, map[policy.Reason]int)
}

// Embedder vectorizes query text for semantic mode.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

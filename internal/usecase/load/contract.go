package load

import (
	"context"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	"github.com/kailas-cloud/funderdex/internal/domain/funder"
)

// Repository writes funder documents and manages collection indexes.
type Repository interface {
	EnsureIndex(ctx context.Context, col collection.Collection) (bool, error)
	DropIndex(ctx context.Context, col collection.Collection) error
	Put(ctx context.Context, col collection.Collection, docs []funder.Document) error
}

// Embedder vectorizes document content for semantic collections.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

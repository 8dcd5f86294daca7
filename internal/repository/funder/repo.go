package funder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	domfunder "github.com/kailas-cloud/funderdex/internal/domain/funder"
)

// store is the consumer interface for the funder load path (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	PutDocuments(ctx context.Context, index string, docs []db.Document) error
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements usecase/load.Repository.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a funder repository. vectorDim sizes the semantic collections' vector fields.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the collection's index unless it already exists.
// Returns true if the index was created.
func (r *Repo) EnsureIndex(ctx context.Context, col collection.Collection) (bool, error) {
	exists, err := r.store.IndexExists(ctx, col.Index())
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", col.Index(), err)
	}
	if exists {
		return false, nil
	}

	def, err := buildIndex(col, r.vectorDim, r.hnsw)
	if err != nil {
		return false, fmt.Errorf("build index %s: %w", col.Index(), err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", col.Index(), err)
	}
	return true, nil
}

// DropIndex removes the collection's index. Stored documents are kept.
func (r *Repo) DropIndex(ctx context.Context, col collection.Collection) error {
	if err := r.store.DropIndex(ctx, col.Index()); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("index %s: %w", col.Index(), domain.ErrNotFound)
		}
		return fmt.Errorf("drop index %s: %w", col.Index(), err)
	}
	return nil
}

// Put stores documents in the collection's shape with one batched write.
func (r *Repo) Put(ctx context.Context, col collection.Collection, docs []domfunder.Document) error {
	if len(docs) == 0 {
		return nil
	}
	out := make([]db.Document, 0, len(docs))
	for i := range docs {
		data, err := json.Marshal(buildJSONDoc(col, &docs[i]))
		if err != nil {
			return fmt.Errorf("marshal %s: %w", docs[i].ID(), err)
		}
		out = append(out, db.Document{Key: domfunder.Key(string(col.ID()), docs[i].ID()), Data: data})
	}
	if err := r.store.PutDocuments(ctx, col.Index(), out); err != nil {
		return fmt.Errorf("put %d documents into %s: %w", len(out), col.ID(), err)
	}
	return nil
}

package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/funder"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
	"github.com/kailas-cloud/funderdex/internal/domain/search/result"
)

// DefaultRadius is the maximum cosine distance of a semantic hit.
const DefaultRadius = 0.6

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchFunders(ctx context.Context, q *db.FunderQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store           store
	radius          float64
	backendDuration *prometheus.HistogramVec
}

// Option configures a Repo.
type Option func(*Repo)

// WithRadius sets the semantic distance cutoff.
func WithRadius(r float64) Option {
	return func(repo *Repo) {
		if r > 0 {
			repo.radius = r
		}
	}
}

// WithBackendDuration records the search call latency per collection.
// The histogram vec takes the label "collection".
func WithBackendDuration(h *prometheus.HistogramVec) Option {
	return func(repo *Repo) { repo.backendDuration = h }
}

// New creates a search repository.
func New(s store, opts ...Option) *Repo {
	r := &Repo{store: s, radius: DefaultRadius}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search issues one composite query against the collection's index.
// Every store failure becomes a *domain.BackendError.
func (r *Repo) Search(
	ctx context.Context, q query.Resolved, vector []float32, limit int,
) ([]result.RawHit, error) {
	col := q.Collection
	fq := &db.FunderQuery{
		IndexName: col.Index(),
		Query:     q,
		Vector:    vector,
		Radius:    r.radius,
		Limit:     limit,
	}

	start := time.Now()
	sr, err := r.store.SearchFunders(ctx, fq)
	r.observe(string(col.ID()), start)
	if err != nil {
		if errors.Is(err, db.ErrUnsupportedQuery) {
			err = fmt.Errorf("%w: %w", domain.ErrSemanticSearchNotSupported, err)
		}
		return nil, domain.NewBackendError(string(col.ID()),
			fmt.Errorf("search %s (%s): %w", col.Index(), q.Match.Kind, err))
	}

	hits := make([]result.RawHit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id, _ := funder.IDFromKey(e.Key)
		hits = append(hits, result.RawHit{
			ID:         id,
			Score:      e.Score,
			Source:     e.Source,
			Highlights: e.Highlights,
		})
	}
	return hits, nil
}

func (r *Repo) observe(collection string, start time.Time) {
	if r.backendDuration != nil {
		r.backendDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())
	}
}

package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, q *db.FunderQuery) (*db.SearchResult, error)
	calls    int
}

func (m *mockStore) SearchFunders(ctx context.Context, q *db.FunderQuery) (*db.SearchResult, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T, opts ...Option) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, opts...), ms
}

func resolvedFor(t *testing.T, id collection.ID, kind query.MatchKind) query.Resolved {
	t.Helper()
	col, ok := collection.DefaultCatalog().Get(id)
	if !ok {
		t.Fatalf("collection %s missing from default catalog", id)
	}
	m := mode.Keyword
	if kind == query.MatchSemantic {
		m = mode.Semantic
	}
	return query.Resolved{Collection: col, Mode: m, Match: query.Match{Kind: kind, Text: "housing"}}
}

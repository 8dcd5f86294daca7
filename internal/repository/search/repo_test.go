package search

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
)

func TestSearch_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.searchFn = func(_ context.Context, q *db.FunderQuery) (*db.SearchResult, error) {
		if q.IndexName != "funders:idx" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if q.Limit != 50 {
			t.Errorf("unexpected limit: %d", q.Limit)
		}
		if q.Radius != DefaultRadius {
			t.Errorf("unexpected radius: %v", q.Radius)
		}
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{
					Key:        "funder:funders:ford",
					Score:      9.5,
					Source:     []byte(`{"funderName":"Ford Foundation"}`),
					Highlights: map[string][]string{"funderName": {"<b>Ford</b> Foundation"}},
				},
				{Key: "odd-key", Score: 1, Source: []byte(`{"id":"x"}`)},
			},
		}, nil
	}

	hits, err := repo.Search(ctx, resolvedFor(t, collection.Funders, query.MatchMultiField), nil, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "ford" || hits[0].Score != 9.5 {
		t.Errorf("unexpected first hit: %+v", hits[0])
	}
	if len(hits[0].Highlights["funderName"]) != 1 {
		t.Errorf("expected highlight to be carried, got %v", hits[0].Highlights)
	}
	if hits[1].ID != "" {
		t.Errorf("expected empty id for unrecognized key, got %q", hits[1].ID)
	}
	if ms.calls != 1 {
		t.Errorf("expected exactly one outbound call, got %d", ms.calls)
	}
}

func TestSearch_PassesVectorAndRadius(t *testing.T) {
	repo, ms := newTestRepo(t, WithRadius(0.35))

	ms.searchFn = func(_ context.Context, q *db.FunderQuery) (*db.SearchResult, error) {
		if q.IndexName != "funders-semantic-places:idx" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if len(q.Vector) != 2 || q.Radius != 0.35 {
			t.Errorf("unexpected vector/radius: %v %v", q.Vector, q.Radius)
		}
		return &db.SearchResult{}, nil
	}

	q := resolvedFor(t, collection.FundersSemanticPlaces, query.MatchSemantic)
	if _, err := repo.Search(context.Background(), q, []float32{0.1, 0.2}, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearch_StoreErrorIsBackendUnavailable(t *testing.T) {
	repo, ms := newTestRepo(t)
	cause := &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	ms.searchFn = func(_ context.Context, _ *db.FunderQuery) (*db.SearchResult, error) {
		return nil, cause
	}

	_, err := repo.Search(context.Background(), resolvedFor(t, collection.FundersPlaces, query.MatchPhrase), nil, 10)
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
	var be *domain.BackendError
	if !errors.As(err, &be) || be.Collection != "funders-places" {
		t.Errorf("expected BackendError for funders-places, got %v", err)
	}
}

func TestSearch_UnsupportedQuery(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, _ *db.FunderQuery) (*db.SearchResult, error) {
		return nil, db.ErrUnsupportedQuery
	}

	_, err := repo.Search(context.Background(), resolvedFor(t, collection.FundersSemantic, query.MatchSemantic), []float32{1}, 10)
	if !errors.Is(err, domain.ErrSemanticSearchNotSupported) {
		t.Errorf("expected ErrSemanticSearchNotSupported, got %v", err)
	}
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestSearch_ObservesBackendDuration(t *testing.T) {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_backend_seconds"}, []string{"collection"})
	repo, _ := newTestRepo(t, WithBackendDuration(h))

	if _, err := repo.Search(context.Background(), resolvedFor(t, collection.Funders, query.MatchNone), nil, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := testutil.CollectAndCount(h); n != 1 {
		t.Errorf("expected one observed series, got %d", n)
	}
}

package funderdex

import (
	"context"
	"io"

	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	"github.com/kailas-cloud/funderdex/internal/domain/nonprofit"
	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/domain/search/request"
	"github.com/kailas-cloud/funderdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/funderdex/internal/usecase/health"
	"github.com/kailas-cloud/funderdex/internal/usecase/load"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn   func(ctx context.Context, req request.Request) ([]result.Funder, error)
	semanticFn func(ctx context.Context, text string, filters filter.Filters) ([]result.Funder, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req request.Request) ([]result.Funder, error) {
	return m.searchFn(ctx, req)
}

func (m *mockSearchUC) Semantic(ctx context.Context, text string, filters filter.Filters) ([]result.Funder, error) {
	return m.semanticFn(ctx, text, filters)
}

// --- enrichmentUseCase mock ---

type mockEnrichUC struct {
	lookupFn func(ctx context.Context, q string) (nonprofit.Profile, error)
}

func (m *mockEnrichUC) Lookup(ctx context.Context, q string) (nonprofit.Profile, error) {
	return m.lookupFn(ctx, q)
}

// --- loadUseCase mock ---

type mockLoadUC struct {
	createFn func(ctx context.Context, cols []collection.Collection) ([]load.IndexResult, error)
	loadFn   func(ctx context.Context, col collection.Collection, r io.Reader) (load.Report, error)
}

func (m *mockLoadUC) CreateIndexes(ctx context.Context, cols []collection.Collection) ([]load.IndexResult, error) {
	return m.createFn(ctx, cols)
}

func (m *mockLoadUC) Load(ctx context.Context, col collection.Collection, r io.Reader) (load.Report, error) {
	return m.loadFn(ctx, col, r)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testClient(searchSvc searchUseCase, enrichSvc enrichmentUseCase, loadSvc loadUseCase) *Client {
	return &Client{
		catalog:   collection.DefaultCatalog(),
		searchSvc: searchSvc,
		enrichSvc: enrichSvc,
		loadSvc:   loadSvc,
	}
}

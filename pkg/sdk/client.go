package funderdex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/funderdex/internal/config"
	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/db/driver"
	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	"github.com/kailas-cloud/funderdex/internal/domain/nonprofit"
	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	"github.com/kailas-cloud/funderdex/internal/domain/search/policy"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
	"github.com/kailas-cloud/funderdex/internal/domain/search/request"
	"github.com/kailas-cloud/funderdex/internal/domain/search/result"
	funderrepo "github.com/kailas-cloud/funderdex/internal/repository/funder"
	searchrepo "github.com/kailas-cloud/funderdex/internal/repository/search"
	"github.com/kailas-cloud/funderdex/internal/transport/propublica"
	enrichmentuc "github.com/kailas-cloud/funderdex/internal/usecase/enrichment"
	healthuc "github.com/kailas-cloud/funderdex/internal/usecase/health"
	"github.com/kailas-cloud/funderdex/internal/usecase/load"
	searchuc "github.com/kailas-cloud/funderdex/internal/usecase/search"
)

const defaultReadinessTimeoutSec = 10

// Internal interfaces, swapped for mocks in tests.
type searchUseCase interface {
	Search(ctx context.Context, req request.Request) ([]result.Funder, error)
	Semantic(ctx context.Context, text string, filters filter.Filters) ([]result.Funder, error)
}

type enrichmentUseCase interface {
	Lookup(ctx context.Context, q string) (nonprofit.Profile, error)
}

type loadUseCase interface {
	CreateIndexes(ctx context.Context, cols []collection.Collection) ([]load.IndexResult, error)
	Load(ctx context.Context, col collection.Collection, r io.Reader) (load.Report, error)
}

// Client is the funderdex SDK entry point.
type Client struct {
	engine    db.Engine
	catalog   *collection.Catalog
	semantic  bool
	searchSvc searchUseCase
	enrichSvc enrichmentUseCase
	loadSvc   loadUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a funderdex Client and connects to the search backend.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("funderdex: search backend required (use WithRedis or WithBleve)")
	}
	if cfg.driver == driverRedis && len(cfg.addrs) == 0 {
		return nil, errors.New("funderdex: redis address required")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	engine, _, err := driver.Open(ctx, config.DatabaseConfig{
		Driver:           cfg.driver,
		Addrs:            cfg.addrs,
		Password:         cfg.password,
		ReadinessTimeout: defaultReadinessTimeoutSec,
		BleveDir:         cfg.bleveDir,
	})
	if err != nil {
		return nil, fmt.Errorf("funderdex: %w", err)
	}

	c, err := wireClient(engine, cfg, obs)
	if err != nil {
		engine.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(engine db.Engine, cfg *clientConfig, obs *observer) (*Client, error) {
	boosts, err := query.NewBoostTable(cfg.boosts)
	if err != nil {
		return nil, fmt.Errorf("funderdex: boosts: %w", err)
	}
	catalog := collection.DefaultCatalog()

	searchRepo := searchrepo.New(engine, searchrepo.WithRadius(cfg.radius))
	funderRepo := funderrepo.New(engine, cfg.vectorDimensions).WithHNSW(funderrepo.HNSWConfig{
		M:           cfg.hnswM,
		EFConstruct: cfg.hnswEFConstruct,
	})

	searchOpts := []searchuc.Option{searchuc.WithScoreScaling(cfg.scaleScores)}
	if cfg.maxResults > 0 {
		searchOpts = append(searchOpts, searchuc.WithMaxResults(cfg.maxResults))
	}

	// Interfaces stay nil (not typed nil pointers) without an embedder.
	var (
		loadEmb    load.Embedder
		embChecker healthuc.EmbeddingChecker
	)
	if cfg.embedder != nil {
		adapter := &embedderAdapter{inner: cfg.embedder}
		searchOpts = append(searchOpts, searchuc.WithEmbedder(adapter))
		loadEmb = adapter
		if hc, ok := cfg.embedder.(healthuc.EmbeddingChecker); ok {
			embChecker = hc
		}
	}

	searchSvc := searchuc.New(
		searchRepo,
		query.NewSelector(boosts, catalog),
		policy.New(cfg.suppressed, cfg.requireCategorized),
		searchOpts...,
	)
	loadSvc := load.New(funderRepo, loadEmb, load.WithLogger(zap.NewNop()))

	registry := propublica.New(propublica.Config{
		BaseURL:    cfg.registryURL,
		HTTPClient: cfg.registryClient,
	})

	healthOpts := []healthuc.Option{healthuc.WithRegistry(registry)}
	if embChecker != nil {
		healthOpts = append(healthOpts, healthuc.WithEmbedding(embChecker))
	}

	return &Client{
		engine:    engine,
		catalog:   catalog,
		semantic:  cfg.embedder != nil,
		searchSvc: searchSvc,
		enrichSvc: enrichmentuc.New(registry),
		loadSvc:   loadSvc,
		healthSvc: healthuc.New(engine, healthOpts...),
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.engine != nil {
		c.engine.Close()
	}
}

// Ping checks search backend connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.engine.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search starts a search request.
func (c *Client) Search() *SearchBuilder {
	return &SearchBuilder{client: c, match: MatchAny}
}

// Nonprofit fetches the registry profile for a 9-digit EIN or an organization name.
func (c *Client) Nonprofit(ctx context.Context, q string) (_ Profile, err error) {
	start := time.Now()
	defer func() { c.obs.observe("nonprofit", start, err) }()

	p, err := c.enrichSvc.Lookup(ctx, q)
	if err != nil {
		return Profile{}, fmt.Errorf("nonprofit lookup: %w", err)
	}
	return profileFromDomain(p), nil
}

// EnsureIndexes creates the missing collection indexes. With no ids every
// collection is ensured, except the semantic ones when no embedder is set.
func (c *Client) EnsureIndexes(ctx context.Context, ids ...string) (_ []IndexInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("index.ensure", start, err) }()

	cols, err := c.collections(ids)
	if err != nil {
		return nil, err
	}
	res, err := c.loadSvc.CreateIndexes(ctx, cols)
	out := make([]IndexInfo, len(res))
	for i, r := range res {
		out[i] = IndexInfo{Collection: string(r.Collection), Index: r.Index, Created: r.Created}
	}
	if err != nil {
		return out, fmt.Errorf("ensure indexes: %w", err)
	}
	return out, nil
}

// Load stores funder records read from r (a JSON array or JSON lines) in the
// collection. Invalid records are reported and skipped.
func (c *Client) Load(ctx context.Context, collectionID string, r io.Reader) (_ LoadReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("load", start, err, "collection", collectionID) }()

	cols, err := c.collections([]string{collectionID})
	if err != nil {
		return LoadReport{}, err
	}
	report, err := c.loadSvc.Load(ctx, cols[0], r)
	if err != nil {
		return reportFromDomain(report), fmt.Errorf("load %s: %w", collectionID, err)
	}
	return reportFromDomain(report), nil
}

func (c *Client) collections(ids []string) ([]collection.Collection, error) {
	if len(ids) == 0 {
		out := make([]collection.Collection, 0, 4)
		for _, col := range c.catalog.All() {
			if col.Mode() == mode.Semantic && !c.semantic {
				continue
			}
			out = append(out, col)
		}
		return out, nil
	}
	out := make([]collection.Collection, 0, len(ids))
	for _, id := range ids {
		col, ok := c.catalog.Get(collection.ID(id))
		if !ok {
			return nil, fmt.Errorf("%w: unknown collection %q", ErrInvalidRequest, id)
		}
		out = append(out, col)
	}
	return out, nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

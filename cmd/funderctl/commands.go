package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/funderdex/internal/db/driver"
	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	"github.com/kailas-cloud/funderdex/internal/domain/nonprofit"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	funderrepo "github.com/kailas-cloud/funderdex/internal/repository/funder"
	openaiEmb "github.com/kailas-cloud/funderdex/internal/transport/openai"
	"github.com/kailas-cloud/funderdex/internal/transport/propublica"
	embeddinguc "github.com/kailas-cloud/funderdex/internal/usecase/embedding"
	enrichmentuc "github.com/kailas-cloud/funderdex/internal/usecase/enrichment"
	"github.com/kailas-cloud/funderdex/internal/usecase/load"
)

func (x *ctl) indexCreate(c *cli.Context) error {
	cols, err := x.collections(c.StringSlice("collection"))
	if err != nil {
		return err
	}
	if !x.cfg.Embedding.Enabled {
		cols = keywordOnly(cols, x.logger)
	}

	return x.withLoader(c, func(svc *load.Service) error {
		results, err := svc.CreateIndexes(c.Context, cols)
		for _, r := range results {
			state := "exists"
			if r.Created {
				state = "created"
			}
			fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", r.Collection, r.Index, state)
		}
		return err
	})
}

func (x *ctl) indexDrop(c *cli.Context) error {
	ids := c.StringSlice("collection")
	if len(ids) == 0 && !c.Bool("all") {
		return errors.New("pass --collection or --all")
	}
	cols, err := x.collections(ids)
	if err != nil {
		return err
	}

	return x.withLoader(c, func(svc *load.Service) error {
		if err := svc.DropIndexes(c.Context, cols); err != nil {
			return err
		}
		for _, col := range cols {
			fmt.Fprintf(c.App.Writer, "%s\t%s\tdropped\n", col.ID(), col.Index())
		}
		return nil
	})
}

func (x *ctl) load(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one input file, or - for stdin")
	}
	cols, err := x.collections([]string{c.String("collection")})
	if err != nil {
		return err
	}
	col := cols[0]

	var in io.Reader = c.App.Reader
	if path := c.Args().First(); path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	opts := []load.Option{
		load.WithBatchSize(c.Int("batch-size")),
		load.WithWorkers(c.Int("workers")),
	}
	return x.withLoader(c, func(svc *load.Service) error {
		report, err := svc.Load(c.Context, col, in)
		for _, f := range report.Failures {
			fmt.Fprintf(c.App.ErrWriter, "record %d %s: %v\n", f.Position, f.ID, f.Err)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s: loaded %d of %d records, %d failed\n",
			col.ID(), report.Loaded, report.Read, len(report.Failures))
		return nil
	}, opts...)
}

type profileView struct {
	OrgName            *string  `json:"orgName"`
	EIN                string   `json:"ein"`
	City               *string  `json:"city"`
	State              *string  `json:"state"`
	SubsectionCode     *string  `json:"subsectionCode"`
	NTEEClassification *string  `json:"nteeClassification"`
	RulingDate         *string  `json:"rulingDate"`
	TotalAssets        *float64 `json:"totalAssets"`
	TotalGiving        *float64 `json:"totalGiving"`
	FilingYear         *int     `json:"filingYear"`
}

func (x *ctl) lookup(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected one EIN or organization name")
	}
	e := x.cfg.Enrichment
	registry := propublica.New(propublica.Config{
		BaseURL:                 e.BaseURL,
		Timeout:                 time.Duration(e.TimeoutSec) * time.Second,
		RatePerSecond:           e.RatePerSecond,
		Burst:                   e.Burst,
		BreakerMinRequests:      e.BreakerMinRequests,
		BreakerFailureRatio:     e.BreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(e.BreakerOpenSec) * time.Second,
		BreakerHalfOpenMaxCalls: e.BreakerHalfOpenCalls,
		Logger:                  x.logger,
	})

	p, err := enrichmentuc.New(registry).Lookup(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(newProfileView(p))
}

func newProfileView(p nonprofit.Profile) profileView {
	return profileView{
		OrgName:            p.OrgName,
		EIN:                p.EIN,
		City:               p.City,
		State:              p.State,
		SubsectionCode:     p.SubsectionCode,
		NTEEClassification: p.NTEEClassification,
		RulingDate:         p.RulingDate,
		TotalAssets:        p.TotalAssets,
		TotalGiving:        p.TotalGiving,
		FilingYear:         p.FilingYear,
	}
}

// collections resolves ids against the configured catalog. No ids means all collections.
func (x *ctl) collections(ids []string) ([]collection.Collection, error) {
	catalog, err := x.cfg.Search.Catalog()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return catalog.All(), nil
	}
	out := make([]collection.Collection, 0, len(ids))
	for _, id := range ids {
		col, ok := catalog.Get(collection.ID(id))
		if !ok {
			return nil, fmt.Errorf("unknown collection %q", id)
		}
		out = append(out, col)
	}
	return out, nil
}

func keywordOnly(cols []collection.Collection, logger *zap.Logger) []collection.Collection {
	out := cols[:0:0]
	for _, col := range cols {
		if col.Mode() == mode.Semantic {
			logger.Warn("Skipping semantic collection, embedding is disabled", zap.String("collection", string(col.ID())))
			continue
		}
		out = append(out, col)
	}
	return out
}

// withLoader opens the engine, builds the load service and closes the engine after fn.
func (x *ctl) withLoader(c *cli.Context, fn func(*load.Service) error, opts ...load.Option) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	engine, _, err := driver.Open(ctx, x.cfg.Database)
	if err != nil {
		return err
	}
	defer engine.Close()

	emb := x.cfg.Embedding
	repo := funderrepo.New(engine, emb.Dimensions).WithHNSW(funderrepo.HNSWConfig{
		M:           emb.HNSWM,
		EFConstruct: emb.HNSWEFConstruct,
	})

	var embedder load.Embedder
	if emb.Enabled {
		embedder = documentEmbedder(x)
	}
	opts = append([]load.Option{load.WithLogger(x.logger)}, opts...)
	return fn(load.New(repo, embedder, opts...))
}

// documentEmbedder vectorizes stored content. It carries no query instruction and no cache.
func documentEmbedder(x *ctl) *embeddinguc.InstrumentedEmbedder {
	emb := x.cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:        emb.APIKey,
		BaseURL:       emb.BaseURL,
		Model:         emb.Model,
		Dimensions:    emb.Dimensions,
		Provider:      emb.Provider,
		MaxInputChars: emb.MaxInputChars,
		Logger:        x.logger,
	})
	return embeddinguc.NewInstrumentedEmbedder(base, embeddinguc.Config{
		Provider:   emb.Provider,
		Model:      emb.Model,
		Dimensions: emb.Dimensions,
		Purpose:    embeddinguc.PurposeDocument,
	}, x.logger)
}

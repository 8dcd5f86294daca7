package load

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	"github.com/kailas-cloud/funderdex/internal/domain/funder"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
)

// Defaults for Service options.
const (
	DefaultBatchSize = 100
	DefaultWorkers   = 4
)

// Failure is a record that was not loaded.
type Failure struct {
	Position int
	ID       string
	Err      error
}

// Report summarizes a load.
type Report struct {
	Read     int
	Loaded   int
	Failures []Failure
}

// IndexResult is the outcome of one index bootstrap.
type IndexResult struct {
	Collection collection.ID
	Index      string
	Created    bool
}

// Service loads seed data into collections and bootstraps their indexes.
type Service struct {
	repo      Repository
	embed     Embedder
	batchSize int
	workers   int
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBatchSize sets how many documents go into one store write.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithWorkers sets the embedding pool size.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a load service. embed may be nil when no semantic collection is loaded.
func New(repo Repository, embed Embedder, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		embed:     embed,
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateIndexes creates every missing collection index. Existing indexes are left alone.
func (s *Service) CreateIndexes(ctx context.Context, cols []collection.Collection) ([]IndexResult, error) {
	out := make([]IndexResult, 0, len(cols))
	for _, col := range cols {
		created, err := s.repo.EnsureIndex(ctx, col)
		if err != nil {
			return out, fmt.Errorf("collection %s: %w", col.ID(), err)
		}
		s.logger.Info("Index ensured",
			zap.String("collection", string(col.ID())),
			zap.String("index", col.Index()),
			zap.Bool("created", created),
		)
		out = append(out, IndexResult{Collection: col.ID(), Index: col.Index(), Created: created})
	}
	return out, nil
}

// DropIndexes drops the collection indexes, stopping at the first failure.
func (s *Service) DropIndexes(ctx context.Context, cols []collection.Collection) error {
	for _, col := range cols {
		if err := s.repo.DropIndex(ctx, col); err != nil {
			return fmt.Errorf("collection %s: %w", col.ID(), err)
		}
		s.logger.Info("Index dropped", zap.String("collection", string(col.ID())), zap.String("index", col.Index()))
	}
	return nil
}

// Load reads funder records from r and stores them in col.
// Records that fail validation or embedding are reported in Report.Failures and skipped;
// a malformed stream or a store failure aborts the load.
func (s *Service) Load(ctx context.Context, col collection.Collection, r io.Reader) (Report, error) {
	records, err := decodeRecords(r)
	if err != nil {
		return Report{}, fmt.Errorf("decode input: %w", err)
	}

	report := Report{Read: len(records)}
	docs, positions := s.validate(records, &report)

	if col.Mode() == mode.Semantic && len(docs) > 0 {
		if s.embed == nil {
			return report, fmt.Errorf("collection %s is semantic but no embedder is configured", col.ID())
		}
		docs, positions, err = s.embedAll(ctx, docs, positions, &report)
		if err != nil {
			return report, err
		}
	}

	for start := 0; start < len(docs); start += s.batchSize {
		end := min(start+s.batchSize, len(docs))
		if err := s.repo.Put(ctx, col, docs[start:end]); err != nil {
			return report, fmt.Errorf("store records %d-%d: %w", positions[start], positions[end-1], err)
		}
		report.Loaded += end - start
		s.logger.Debug("Batch stored",
			zap.String("collection", string(col.ID())),
			zap.Int("loaded", report.Loaded),
			zap.Int("total", len(docs)),
		)
	}

	s.logger.Info("Load completed",
		zap.String("collection", string(col.ID())),
		zap.Int("read", report.Read),
		zap.Int("loaded", report.Loaded),
		zap.Int("failed", len(report.Failures)),
	)
	return report, nil
}

// validate turns raw records into documents. Later duplicates of an id are rejected.
func (s *Service) validate(records []record, report *Report) ([]funder.Document, []int) {
	docs := make([]funder.Document, 0, len(records))
	positions := make([]int, 0, len(records))
	seen := make(map[string]int, len(records))

	for _, rec := range records {
		src, ok := funder.DecodeSource(rec.raw)
		if !ok {
			report.Failures = append(report.Failures, Failure{Position: rec.pos, Err: fmt.Errorf("not a funder object")})
			continue
		}
		doc, err := funder.FromSource(src)
		if err != nil {
			report.Failures = append(report.Failures, Failure{Position: rec.pos, ID: string(src.ID), Err: err})
			continue
		}
		if prev, dup := seen[doc.ID()]; dup {
			report.Failures = append(report.Failures, Failure{
				Position: rec.pos, ID: doc.ID(),
				Err: fmt.Errorf("duplicate id, first seen at record %d", prev),
			})
			continue
		}
		seen[doc.ID()] = rec.pos
		docs = append(docs, doc)
		positions = append(positions, rec.pos)
	}
	return docs, positions
}

type embedSlot struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
}

func (e *embedSlot) set(field string, vec []float32, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		if e.err == nil {
			e.err = fmt.Errorf("embed %s: %w", field, err)
		}
		return
	}
	e.vectors[field] = vec
}

// embedAll computes content-field vectors through a bounded worker pool.
// Documents with a failed field are reported and dropped.
func (s *Service) embedAll(
	ctx context.Context, docs []funder.Document, positions []int, report *Report,
) ([]funder.Document, []int, error) {
	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedding pool: %w", err)
	}
	defer pool.Release()

	slots := make([]embedSlot, len(docs))
	var wg sync.WaitGroup

	for i := range docs {
		slots[i].vectors = make(map[string][]float32, len(funder.ContentFields))
		for _, field := range funder.ContentFields {
			text := docs[i].Content(field)
			if strings.TrimSpace(text) == "" {
				continue
			}
			slot := &slots[i]
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				res, err := s.embed.Embed(ctx, text)
				slot.set(field, res.Embedding, err)
			})
			if submitErr != nil {
				wg.Done()
				slot.set(field, nil, submitErr)
			}
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("embed documents: %w", err)
	}

	kept := docs[:0]
	keptPos := positions[:0]
	for i := range docs {
		if slots[i].err != nil {
			report.Failures = append(report.Failures, Failure{Position: positions[i], ID: docs[i].ID(), Err: slots[i].err})
			s.logger.Warn("Embedding failed",
				zap.String("id", docs[i].ID()),
				zap.Int("position", positions[i]),
				zap.Error(slots[i].err),
			)
			continue
		}
		kept = append(kept, docs[i].WithEmbeddings(slots[i].vectors))
		keptPos = append(keptPos, positions[i])
	}
	return kept, keptPos, nil
}

// Package bleve is an in-process keyword search engine over Bleve indexes.
// It serves keyword and browse queries; vector fields are not indexed.
package bleve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	blevesearch "github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/funderdex/internal/db"
)

// Compile-time check: Store implements db.Engine.
var _ db.Engine = (*Store)(nil)

var (
	errClosed = errors.New("bleve store is closed")
	defKey    = []byte("funderdex.definition")
)

// Config holds Bleve store parameters.
type Config struct {
	// Dir holds one sub-directory per index. Empty keeps every index in memory.
	Dir string
}

type index struct {
	idx blevesearch.Index
	def *db.IndexDefinition
	dir string
}

// Store implements db.Engine on Bleve.
type Store struct {
	dir string

	mu      sync.RWMutex
	indexes map[string]*index
	closed  bool
}

// NewStore opens the indexes persisted under cfg.Dir, or starts an empty in-memory store.
func NewStore(cfg Config) (*Store, error) {
	s := &Store{dir: cfg.Dir, indexes: make(map[string]*index)}
	if cfg.Dir == "" {
		return s, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("read index dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ix, err := openIndex(filepath.Join(cfg.Dir, e.Name()))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.indexes[ix.def.Name] = ix
	}
	return s, nil
}

func openIndex(dir string) (*index, error) {
	idx, err := blevesearch.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open bleve index %s: %w", dir, err)
	}
	raw, err := idx.GetInternal(defKey)
	if err != nil || len(raw) == 0 {
		_ = idx.Close()
		return nil, fmt.Errorf("bleve index %s has no definition", dir)
	}
	var def db.IndexDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("decode definition of %s: %w", dir, err)
	}
	return &index{idx: idx, def: &def, dir: dir}, nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &db.Error{Op: db.OpPing, Err: errClosed}
	}
	return nil
}

// Close closes every open index.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ix := range s.indexes {
		_ = ix.idx.Close()
	}
	s.indexes = map[string]*index{}
	s.closed = true
}

// CreateIndex builds a Bleve mapping from def and persists def alongside the index.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpCreateIndex, Err: errClosed}
	}
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}

	im, err := buildMapping(def)
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	var (
		idx blevesearch.Index
		dir string
	)
	if s.dir == "" {
		idx, err = blevesearch.NewMemOnly(im)
	} else {
		dir = filepath.Join(s.dir, dirName(def.Name))
		idx, err = blevesearch.New(dir, im)
	}
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	raw, err := json.Marshal(def)
	if err == nil {
		err = idx.SetInternal(defKey, raw)
	}
	if err != nil {
		_ = idx.Close()
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	stored := *def
	stored.Fields = append([]db.IndexField(nil), def.Fields...)
	s.indexes[def.Name] = &index{idx: idx, def: &stored, dir: dir}
	return nil
}

// DropIndex closes the index and removes its files.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ix, ok := s.indexes[name]
	if !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	if err := ix.idx.Close(); err != nil {
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	if ix.dir != "" {
		if err := os.RemoveAll(ix.dir); err != nil {
			return &db.Error{Op: db.OpDropIndex, Err: err}
		}
	}
	return nil
}

// IndexExists reports whether the named index is open.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, &db.Error{Op: db.OpIndexInfo, Err: errClosed}
	}
	_, ok := s.indexes[name]
	return ok, nil
}

// PutDocuments flattens each JSON document by the index definition and indexes it in one batch.
func (s *Store) PutDocuments(_ context.Context, name string, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}
	ix, err := s.get(name, db.OpBatch)
	if err != nil {
		return err
	}

	batch := ix.idx.NewBatch()
	var errs []error
	for _, d := range docs {
		var body any
		if err := json.Unmarshal(d.Data, &body); err != nil {
			errs = append(errs, &db.Error{Op: db.OpBatch, Err: fmt.Errorf("%s: %w", d.Key, err)})
			continue
		}
		if err := batch.Index(d.Key, flatten(ix.def, body, d.Data)); err != nil {
			errs = append(errs, &db.Error{Op: db.OpBatch, Err: fmt.Errorf("%s: %w", d.Key, err)})
		}
	}
	if err := ix.idx.Batch(batch); err != nil {
		errs = append(errs, &db.Error{Op: db.OpBatch, Err: err})
	}
	return errors.Join(errs...)
}

func (s *Store) get(name, op string) (*index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, &db.Error{Op: op, Err: errClosed}
	}
	ix, ok := s.indexes[name]
	if !ok {
		return nil, &db.Error{Op: op, Err: fmt.Errorf("%s: %w", name, db.ErrIndexNotFound)}
	}
	return ix, nil
}

func dirName(index string) string {
	return strings.NewReplacer(":", "_", "/", "_").Replace(index)
}

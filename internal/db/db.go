package db

import (
	"context"
	"time"
)

// Engine is the document-search facade shared by every driver.
type Engine interface {
	Pinger
	IndexManager
	DocumentWriter
	Searcher
	Close()
}

// Store is the Redis facade: a search engine plus the key-value store
// backing the query embedding cache.
type Store interface {
	Engine
	KVStore
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Document is a single JSON document destined for an index.
type Document struct {
	Key  string
	Data []byte
}

// DocumentWriter stores documents so the named index picks them up.
type DocumentWriter interface {
	PutDocuments(ctx context.Context, index string, docs []Document) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs resolved funder queries.
type Searcher interface {
	SearchFunders(ctx context.Context, q *FunderQuery) (*SearchResult, error)
}

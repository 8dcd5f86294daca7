package db

import "github.com/kailas-cloud/funderdex/internal/domain/search/query"

// FunderQuery is the engine-neutral input of a funder search.
type FunderQuery struct {
	IndexName string
	Query     query.Resolved
	// Vector is the query embedding, required for semantic matches.
	Vector []float32
	// Radius is the maximum vector distance for semantic matches.
	Radius float64
	Limit  int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Source []byte
	// Highlights maps a field attribute to its highlighted fragments.
	Highlights map[string][]string
}

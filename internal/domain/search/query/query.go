package query

import (
	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
)

// MatchKind is the shape of the text-matching clause.
type MatchKind int

// Match kinds.
const (
	MatchNone MatchKind = iota
	MatchMultiField
	MatchPhrase
	MatchSemantic
)

func (k MatchKind) String() string {
	switch k {
	case MatchNone:
		return "none"
	case MatchMultiField:
		return "multi_field"
	case MatchPhrase:
		return "phrase"
	case MatchSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// Operator combines the terms of a multi-field match.
type Operator string

// Term operators.
const (
	OperatorOr  Operator = "or"
	OperatorAnd Operator = "and"
)

// Match is the text-matching clause of a resolved query.
type Match struct {
	Kind MatchKind
	// Text is the normalized query text: quote-stripped for phrases, verbatim otherwise.
	Text string
	// Terms are the tokenized query terms of a multi-field match.
	Terms    []string
	Operator Operator
	// Fields are the eligible field variants, highest weight first.
	// For semantic matches these are the content fields, combined with OR-of-similarity.
	Fields []WeightedField
}

// FacetClause is a hard filter: the document must carry at least one of Values in Field.
type FacetClause struct {
	Facet  filter.Facet
	Field  string
	Values []string
}

// Sort is a deterministic field ordering.
type Sort struct {
	Field      string
	Descending bool
}

// NameSort is the browse ordering: funder name ascending.
var NameSort = Sort{Field: string(FunderName)}

// Resolved is a fully decided query: target collection, match clause, hard facet
// filters and, for pure browse, the sort fallback.
type Resolved struct {
	Collection collection.Collection
	Mode       mode.Mode
	Match      Match
	Facets     []FacetClause
	// SortFallback is set only when Match.Kind is MatchNone.
	SortFallback *Sort
}

// IsBrowse reports whether the query has no text clause.
func (r *Resolved) IsBrowse() bool { return r.Match.Kind == MatchNone }

package query

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	"github.com/kailas-cloud/funderdex/internal/domain/search/request"
)

// Selector decides the collection and match shape for a request.
type Selector struct {
	boosts       BoostTable
	catalog      *collection.Catalog
	autocomplete bool
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithoutAutocomplete drops the autocomplete variants from keyword matches,
// for engines whose collections do not index them.
func WithoutAutocomplete() SelectorOption {
	return func(s *Selector) { s.autocomplete = false }
}

// NewSelector creates a selector over a boost table and collection catalog.
func NewSelector(boosts BoostTable, catalog *collection.Catalog, opts ...SelectorOption) *Selector {
	s := &Selector{boosts: boosts, catalog: catalog, autocomplete: true}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Boosts returns the selector's boost table.
func (s *Selector) Boosts() BoostTable { return s.boosts }

// Resolve turns a validated request into a resolved query.
// It refuses requests that end up with neither text nor filters (ErrEmptyQuery)
// and reports a missing collection route as ErrBackendUnavailable.
func (s *Selector) Resolve(req request.Request) (Resolved, error) {
	filters := req.Filters()
	col, err := s.catalog.Route(req.Mode(), filters.HasLocations())
	if err != nil {
		return Resolved{}, domain.NewBackendError(
			fmt.Sprintf("%s/places=%t", req.Mode(), filters.HasLocations()), err)
	}

	r := Resolved{
		Collection: col,
		Mode:       req.Mode(),
		Facets:     facetClauses(filters, col),
	}

	r.Match = s.match(req)
	if r.Match.Kind == MatchNone {
		if filters.IsEmpty() {
			return Resolved{}, domain.ErrEmptyQuery
		}
		sortBy := NameSort
		r.SortFallback = &sortBy
	}
	return r, nil
}

func (s *Selector) match(req request.Request) Match {
	text := req.Query()
	if req.Mode() == mode.Semantic {
		if text == "" {
			return Match{Kind: MatchNone}
		}
		fields := make([]WeightedField, 0, len(ContentFields))
		for _, f := range ContentFields {
			fields = append(fields, WeightedField{Field: f, Variant: VariantText, Weight: s.boosts.Weight(f, VariantText)})
		}
		return Match{Kind: MatchSemantic, Text: text, Fields: fields}
	}

	switch req.Match() {
	case mode.MatchExact:
		phrase := strings.TrimSpace(StripQuotes(text))
		if len(Tokenize(phrase)) == 0 {
			return Match{Kind: MatchNone}
		}
		return Match{
			Kind:   MatchPhrase,
			Text:   phrase,
			Terms:  Tokenize(phrase),
			Fields: s.boosts.Eligible(req.FunderNameOnly(), false),
		}
	case mode.MatchAll, mode.MatchAny:
		terms := Tokenize(text)
		if len(terms) == 0 {
			return Match{Kind: MatchNone}
		}
		op := OperatorOr
		if req.Match() == mode.MatchAll {
			op = OperatorAnd
		}
		return Match{
			Kind:     MatchMultiField,
			Text:     text,
			Terms:    terms,
			Operator: op,
			Fields:   s.boosts.Eligible(req.FunderNameOnly(), s.autocomplete),
		}
	default:
		return Match{Kind: MatchNone}
	}
}

func facetClauses(f filter.Filters, col collection.Collection) []FacetClause {
	var out []FacetClause
	if v := f.IssueAreas(); len(v) > 0 {
		out = append(out, FacetClause{Facet: filter.IssueAreas, Field: collection.IssueAreasField, Values: v})
	}
	if v := f.Locations(); len(v) > 0 {
		out = append(out, FacetClause{Facet: filter.Locations, Field: col.LocationField(), Values: v})
	}
	return out
}

// StripQuotes removes one leading and one trailing double quote, if present.
// Applying it to an unquoted phrase is a no-op.
func StripQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

// Tokenize splits text into terms on whitespace and punctuation, keeping
// only tokens that contain a letter or digit.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '&'
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'&")
		if f == "" {
			continue
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

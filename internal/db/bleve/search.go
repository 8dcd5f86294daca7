package bleve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	blevesearch "github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/domain/funder"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
)

const minPrefixLen = 2

// SearchFunders runs a resolved keyword or browse query. Semantic queries are
// rejected with db.ErrUnsupportedQuery.
func (s *Store) SearchFunders(ctx context.Context, q *db.FunderQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if q.Limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	ix, err := s.get(q.IndexName, db.OpSearch)
	if err != nil {
		return nil, err
	}

	bq, err := buildQuery(ix.def, &q.Query)
	if err != nil {
		return nil, err
	}

	req := blevesearch.NewSearchRequestOptions(bq, q.Limit, 0, false)
	req.Fields = []string{sourceField}

	rq := &q.Query
	keyword := rq.Match.Kind == query.MatchMultiField || rq.Match.Kind == query.MatchPhrase
	if keyword {
		req.Highlight = blevesearch.NewHighlight()
		req.Highlight.AddField(string(query.FunderName))
	}
	if rq.SortFallback != nil {
		field := db.SortAttr(rq.SortFallback.Field)
		if rq.SortFallback.Descending {
			field = "-" + field
		}
		req.SortBy([]string{field, "_id"})
	}

	res, err := ix.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	out := &db.SearchResult{Total: int(res.Total), Entries: make([]db.SearchEntry, 0, len(res.Hits))}
	for _, hit := range res.Hits {
		entry := db.SearchEntry{Key: hit.ID}
		if keyword {
			entry.Score = hit.Score
		}
		if src, ok := hit.Fields[sourceField].(string); ok {
			entry.Source = []byte(src)
		}
		// Fragments are rendered for every stored field; only a located term is a match.
		name := string(query.FunderName)
		if frags := hit.Fragments[name]; len(frags) > 0 && len(hit.Locations[name]) > 0 {
			entry.Highlights = map[string][]string{name: frags}
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func buildQuery(def *db.IndexDefinition, rq *query.Resolved) (blevequery.Query, error) {
	must := make([]blevequery.Query, 0, len(rq.Facets)+1)
	for _, fc := range rq.Facets {
		if fq := facetQuery(def, fc); fq != nil {
			must = append(must, fq)
		}
	}

	var match blevequery.Query
	switch rq.Match.Kind {
	case query.MatchNone:
	case query.MatchMultiField:
		if rq.Match.Operator == query.OperatorAnd {
			match = allQuery(&rq.Match)
		} else {
			match = anyQuery(&rq.Match)
		}
	case query.MatchPhrase:
		match = phraseQuery(&rq.Match)
	default:
		return nil, fmt.Errorf("%w: match kind %s", db.ErrUnsupportedQuery, rq.Match.Kind)
	}
	if match != nil {
		must = append(must, match)
	}

	switch len(must) {
	case 0:
		return blevesearch.NewMatchAllQuery(), nil
	case 1:
		return must[0], nil
	default:
		return blevesearch.NewConjunctionQuery(must...), nil
	}
}

func facetQuery(def *db.IndexDefinition, fc query.FacetClause) blevequery.Query {
	if len(fc.Values) == 0 {
		return nil
	}
	attr := db.Attr(fc.Field)
	caseSensitive := false
	if f, ok := def.Field(attr); ok {
		caseSensitive = f.TagCaseSensitive
	}
	terms := make([]blevequery.Query, 0, len(fc.Values))
	for _, v := range fc.Values {
		if !caseSensitive {
			v = strings.ToLower(v)
		}
		tq := blevesearch.NewTermQuery(v)
		tq.SetField(attr)
		terms = append(terms, tq)
	}
	return blevesearch.NewDisjunctionQuery(terms...)
}

func exactQuery(f query.Field, text string, weight float64) blevequery.Query {
	name := funder.ExactName(text)
	if name == "" {
		return nil
	}
	tq := blevesearch.NewTermQuery(name)
	tq.SetField(db.ExactAttr(f))
	tq.SetBoost(weight)
	return tq
}

// termQuery matches terms in one field variant; terms are OR-ed.
func termQuery(wf query.WeightedField, terms []string) blevequery.Query {
	alts := make([]blevequery.Query, 0, len(terms))
	for _, t := range terms {
		if wf.Variant == query.VariantAutocomplete {
			if len([]rune(t)) < minPrefixLen {
				continue
			}
			pq := blevesearch.NewPrefixQuery(strings.ToLower(t))
			pq.SetField(string(wf.Field))
			alts = append(alts, pq)
			continue
		}
		mq := blevesearch.NewMatchQuery(t)
		mq.SetField(string(wf.Field))
		alts = append(alts, mq)
	}
	if len(alts) == 0 {
		return nil
	}
	dq := blevesearch.NewDisjunctionQuery(alts...)
	dq.SetBoost(wf.Weight)
	return dq
}

func disjunction(qs []blevequery.Query) blevequery.Query {
	if len(qs) == 0 {
		return blevesearch.NewMatchNoneQuery()
	}
	return blevesearch.NewDisjunctionQuery(qs...)
}

func anyQuery(m *query.Match) blevequery.Query {
	qs := make([]blevequery.Query, 0, len(m.Fields))
	for _, wf := range m.Fields {
		var q blevequery.Query
		if wf.Variant == query.VariantExact {
			q = exactQuery(wf.Field, m.Text, wf.Weight)
		} else {
			q = termQuery(wf, m.Terms)
		}
		if q != nil {
			qs = append(qs, q)
		}
	}
	return disjunction(qs)
}

// allQuery requires each term in at least one field; the exact name only adds score.
func allQuery(m *query.Match) blevequery.Query {
	bq := blevesearch.NewBooleanQuery()
	for _, term := range m.Terms {
		qs := make([]blevequery.Query, 0, len(m.Fields))
		for _, wf := range m.Fields {
			if wf.Variant == query.VariantExact {
				continue
			}
			if q := termQuery(wf, []string{term}); q != nil {
				qs = append(qs, q)
			}
		}
		bq.AddMust(disjunction(qs))
	}
	for _, wf := range m.Fields {
		if wf.Variant != query.VariantExact {
			continue
		}
		if q := exactQuery(wf.Field, m.Text, wf.Weight); q != nil {
			bq.AddShould(q)
		}
	}
	return bq
}

func phraseQuery(m *query.Match) blevequery.Query {
	qs := make([]blevequery.Query, 0, len(m.Fields))
	for _, wf := range m.Fields {
		switch wf.Variant {
		case query.VariantExact:
			if q := exactQuery(wf.Field, m.Text, wf.Weight); q != nil {
				qs = append(qs, q)
			}
		case query.VariantAutocomplete:
		default:
			pq := blevesearch.NewMatchPhraseQuery(strings.Join(m.Terms, " "))
			pq.SetField(string(wf.Field))
			pq.SetBoost(wf.Weight)
			qs = append(qs, pq)
		}
	}
	return disjunction(qs)
}

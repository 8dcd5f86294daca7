package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
)

// SearchFunders runs a resolved funder query via one FT.SEARCH.
func (s *Store) SearchFunders(ctx context.Context, q *db.FunderQuery) (*db.SearchResult, error) {
	args, err := buildSearchArgs(q)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%s: %w", q.IndexName, db.ErrIndexNotFound)}
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	switch q.Query.Match.Kind {
	case query.MatchMultiField, query.MatchPhrase:
		return parseScoredResult(raw)
	case query.MatchSemantic:
		res, err := parseListResult(raw, distanceScorer(q.Query.Match.Fields))
		if err != nil {
			return nil, err
		}
		sort.SliceStable(res.Entries, func(i, j int) bool {
			return res.Entries[i].Score > res.Entries[j].Score
		})
		return res, nil
	default:
		return parseListResult(raw, nil)
	}
}

// --- Result parsing ---

// parseScoredResult parses a WITHSCORES reply.
func parseScoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	total, ok, err := parseTotal(raw)
	if err != nil || !ok {
		return &db.SearchResult{}, err
	}

	entries := make([]db.SearchEntry, 0, total)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entry := toEntry(key, parseFieldPairs(fields))
		entry.Score = score
		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// parseListResult parses a reply without scores; score, when set, derives one from the fields.
func parseListResult(raw []rueidis.RedisMessage, score func(map[string]string) float64) (*db.SearchResult, error) {
	total, ok, err := parseTotal(raw)
	if err != nil || !ok {
		return &db.SearchResult{}, err
	}

	entries := make([]db.SearchEntry, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		m := parseFieldPairs(fields)
		entry := toEntry(key, m)
		if score != nil {
			entry.Score = score(m)
		}
		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func parseTotal(raw []rueidis.RedisMessage) (int, bool, error) {
	if len(raw) == 0 {
		return 0, false, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, false, fmt.Errorf("parse total: %w", err)
	}
	return int(total), total > 0, nil
}

func toEntry(key string, fields map[string]string) db.SearchEntry {
	src, ok := fields["$"]
	entry := db.SearchEntry{Key: key, Source: []byte(src)}
	if !ok {
		entry.Source = projectedSource(fields)
	}
	if name, ok := fields[string(query.FunderName)]; ok && strings.Contains(name, highlightOpen) {
		entry.Highlights = map[string][]string{string(query.FunderName): {name}}
	}
	return entry
}

// projectedSource rebuilds a source document from aliased RETURN projections.
// Returns nil when the reply carries none of them.
func projectedSource(fields map[string]string) []byte {
	doc := make(map[string]json.RawMessage, len(semanticProjections)+1)
	add := func(alias string, isJSON bool) {
		v, ok := fields[alias]
		if !ok {
			return
		}
		if isJSON && json.Valid([]byte(v)) {
			doc[alias] = json.RawMessage(v)
			return
		}
		if b, err := json.Marshal(v); err == nil {
			doc[alias] = b
		}
	}
	for _, p := range semanticProjections {
		add(p.alias, p.json)
	}
	add(string(query.FunderName), false)
	if len(doc) == 0 {
		return nil
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	return out
}

// distanceScorer converts the yielded per-field distances into a similarity:
// 1 - the nearest distance. A hit with no readable distance scores 0.
func distanceScorer(fields []query.WeightedField) func(map[string]string) float64 {
	return func(m map[string]string) float64 {
		best := math.Inf(1)
		for _, wf := range fields {
			v, ok := m[db.DistanceAttr(wf.Field)]
			if !ok {
				continue
			}
			if d, err := strconv.ParseFloat(v, 64); err == nil && d < best {
				best = d
			}
		}
		if math.IsInf(best, 1) {
			return 0
		}
		return 1 - best
	}
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

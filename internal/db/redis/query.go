package redis

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/domain/funder"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
)

const (
	highlightOpen  = "<b>"
	highlightClose = "</b>"
	minPrefixLen   = 2
)

// buildSearchArgs assembles FT.SEARCH arguments for a resolved funder query.
// The whole request is a single composite query.
func buildSearchArgs(q *db.FunderQuery) ([]string, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if q.Limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	rq := &q.Query
	parts := make([]string, 0, len(rq.Facets)+1)
	for _, fc := range rq.Facets {
		if clause := facetClause(fc); clause != "" {
			parts = append(parts, clause)
		}
	}

	var matchStr string
	switch rq.Match.Kind {
	case query.MatchNone:
	case query.MatchMultiField:
		if rq.Match.Operator == query.OperatorAnd {
			matchStr = allClause(&rq.Match)
		} else {
			matchStr = anyClause(&rq.Match)
		}
	case query.MatchPhrase:
		matchStr = phraseClause(&rq.Match)
	case query.MatchSemantic:
		if len(q.Vector) == 0 {
			return nil, errors.New("vector is required for semantic search")
		}
		matchStr = semanticClause(&rq.Match)
	default:
		return nil, fmt.Errorf("%w: match kind %s", db.ErrUnsupportedQuery, rq.Match.Kind)
	}
	if matchStr != "" {
		parts = append(parts, matchStr)
	}

	queryStr := strings.Join(parts, " ")
	if queryStr == "" {
		queryStr = "*"
	}

	args := []string{q.IndexName, queryStr}

	keyword := rq.Match.Kind == query.MatchMultiField || rq.Match.Kind == query.MatchPhrase
	if keyword {
		args = append(args, "WITHSCORES")
	}

	var ret []string
	if rq.Match.Kind == query.MatchSemantic {
		ret = semanticReturn(rq.Match.Fields)
	} else {
		ret = []string{"$", string(query.FunderName)}
	}
	args = append(args, "RETURN", strconv.Itoa(len(ret)))
	args = append(args, ret...)

	if keyword {
		args = append(args,
			"HIGHLIGHT", "FIELDS", "1", string(query.FunderName),
			"TAGS", highlightOpen, highlightClose,
		)
	}

	if rq.SortFallback != nil {
		dir := "ASC"
		if rq.SortFallback.Descending {
			dir = "DESC"
		}
		args = append(args, "SORTBY", db.SortAttr(rq.SortFallback.Field), dir)
	}

	args = append(args, "LIMIT", "0", strconv.Itoa(q.Limit))

	if rq.Match.Kind == query.MatchSemantic {
		args = append(args,
			"PARAMS", "4",
			"radius", strconv.FormatFloat(q.Radius, 'f', -1, 64),
			"BLOB", vectorToBytes(q.Vector),
		)
	}

	return append(args, "DIALECT", "2"), nil
}

// sourceProjection is one stored path returned under an alias in place of the JSON root.
// JSON values are serialized by the engine; text values come back bare.
type sourceProjection struct {
	path  string
	alias string
	json  bool
}

// semanticProjections skip the embedding arrays of semantic documents.
var semanticProjections = []sourceProjection{
	{path: "$.id", alias: "id"},
	{path: "$.funderUrl", alias: "funderUrl"},
	{path: "$.overview.text", alias: "overview"},
	{path: "$.ipTake.text", alias: "ipTake"},
	{path: "$.profile.text", alias: "profile"},
	{path: "$.issueAreas", alias: "issueAreas", json: true},
	{path: "$.geoLocation", alias: "geoLocation", json: true},
	{path: "$.state", alias: "state", json: true},
}

func semanticReturn(fields []query.WeightedField) []string {
	ret := make([]string, 0, len(semanticProjections)*3+1+len(fields))
	for _, p := range semanticProjections {
		ret = append(ret, p.path, "AS", p.alias)
	}
	ret = append(ret, string(query.FunderName))
	for _, wf := range fields {
		ret = append(ret, db.DistanceAttr(wf.Field))
	}
	return ret
}

func facetClause(fc query.FacetClause) string {
	if len(fc.Values) == 0 {
		return ""
	}
	escaped := make([]string, len(fc.Values))
	for i, v := range fc.Values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", db.Attr(fc.Field), strings.Join(escaped, " | "))
}

func exactClause(f query.Field, text string) string {
	name := funder.ExactName(text)
	if name == "" {
		return ""
	}
	return fmt.Sprintf("@%s:{%s}", db.ExactAttr(f), tagEscaper.Replace(name))
}

func weighted(clause string, w float64) string {
	return fmt.Sprintf("(%s)=>{$weight:%s}", clause, strconv.FormatFloat(w, 'f', -1, 64))
}

// termClause matches terms in one field variant; terms are OR-ed.
// Returns "" when no term qualifies (autocomplete skips short prefixes).
func termClause(wf query.WeightedField, terms []string) string {
	alts := make([]string, 0, len(terms))
	for _, t := range terms {
		switch wf.Variant {
		case query.VariantAutocomplete:
			if len([]rune(t)) < minPrefixLen {
				continue
			}
			alts = append(alts, escapeQuery(strings.ToLower(t))+"*")
		default:
			alts = append(alts, escapeQuery(t))
		}
	}
	if len(alts) == 0 {
		return ""
	}
	if len(alts) == 1 {
		return fmt.Sprintf("@%s:%s", wf.Field, alts[0])
	}
	return fmt.Sprintf("@%s:(%s)", wf.Field, strings.Join(alts, "|"))
}

func union(clauses []string) string {
	switch len(clauses) {
	case 0:
		return ""
	case 1:
		return clauses[0]
	default:
		return "(" + strings.Join(clauses, " | ") + ")"
	}
}

// anyClause: a document matches if any term appears in any eligible field.
func anyClause(m *query.Match) string {
	clauses := make([]string, 0, len(m.Fields))
	for _, wf := range m.Fields {
		var c string
		if wf.Variant == query.VariantExact {
			c = exactClause(wf.Field, m.Text)
		} else {
			c = termClause(wf, m.Terms)
		}
		if c != "" {
			clauses = append(clauses, weighted(c, wf.Weight))
		}
	}
	return union(clauses)
}

// allClause: every term must appear in at least one eligible field.
// The exact-name tag only adds score.
func allClause(m *query.Match) string {
	groups := make([]string, 0, len(m.Terms)+1)
	var exact string
	for _, term := range m.Terms {
		clauses := make([]string, 0, len(m.Fields))
		for _, wf := range m.Fields {
			if wf.Variant == query.VariantExact {
				if exact == "" {
					if c := exactClause(wf.Field, m.Text); c != "" {
						exact = "~" + weighted(c, wf.Weight)
					}
				}
				continue
			}
			if c := termClause(wf, []string{term}); c != "" {
				clauses = append(clauses, weighted(c, wf.Weight))
			}
		}
		if g := union(clauses); g != "" {
			if len(clauses) == 1 {
				g = "(" + g + ")"
			}
			groups = append(groups, g)
		}
	}
	if exact != "" {
		groups = append(groups, exact)
	}
	return strings.Join(groups, " ")
}

// phraseClause: the quoted phrase in any non-autocomplete field, or the exact name.
func phraseClause(m *query.Match) string {
	escaped := make([]string, len(m.Terms))
	for i, t := range m.Terms {
		escaped[i] = escapeQuery(t)
	}
	phrase := `"` + strings.Join(escaped, " ") + `"`

	clauses := make([]string, 0, len(m.Fields))
	for _, wf := range m.Fields {
		var c string
		switch wf.Variant {
		case query.VariantExact:
			c = exactClause(wf.Field, m.Text)
		case query.VariantAutocomplete:
			continue
		default:
			c = fmt.Sprintf("@%s:%s", wf.Field, phrase)
		}
		if c != "" {
			clauses = append(clauses, weighted(c, wf.Weight))
		}
	}
	return union(clauses)
}

// semanticClause: OR-of-similarity across the content field vectors.
func semanticClause(m *query.Match) string {
	clauses := make([]string, 0, len(m.Fields))
	for _, wf := range m.Fields {
		clauses = append(clauses, fmt.Sprintf(
			"@%s:[VECTOR_RANGE $radius $BLOB]=>{$YIELD_DISTANCE_AS: %s}",
			db.VectorAttr(wf.Field), db.DistanceAttr(wf.Field),
		))
	}
	return union(clauses)
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	"[", "\\[",
	"]", "\\]",
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"|", "\\|",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"/", "\\/",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`&`, `\&`,
	`:`, `\:`,
	`.`, `\.`,
	`,`, `\,`,
)

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

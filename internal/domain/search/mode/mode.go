package mode

import "fmt"

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Keyword matches query terms against weighted text fields.
	Keyword Mode = "keyword"
	// Semantic matches by embedding similarity against the content fields.
	Semantic Mode = "semantic"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Keyword || m == Semantic
}

// MatchPolicy controls how keyword query terms combine. Ignored in semantic mode.
type MatchPolicy string

// Match policy constants.
const (
	// MatchAny requires at least one term to match (OR).
	MatchAny MatchPolicy = "any"
	// MatchAll requires every term to appear in at least one field (AND).
	MatchAll MatchPolicy = "all"
	// MatchExact requires the whole query to match as a phrase.
	MatchExact MatchPolicy = "exact"
)

// IsValid checks if the policy is one of the supported values.
func (p MatchPolicy) IsValid() bool {
	return p == MatchAny || p == MatchAll || p == MatchExact
}

// ParseMatchPolicy maps the wire value to a MatchPolicy. Empty means MatchAny.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	if s == "" {
		return MatchAny, nil
	}
	p := MatchPolicy(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid search type %q (want any, all or exact)", s)
	}
	return p, nil
}

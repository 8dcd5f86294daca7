package filter

import (
	"encoding/json"
	"strings"
)

// MaxValuesPerFacet is the maximum number of tag values kept per facet.
const MaxValuesPerFacet = 64

// Facet names a tag-valued facet the client can filter on.
type Facet string

// Facet constants. Values match the keys of the client filters object.
const (
	IssueAreas Facet = "issueAreas"
	Locations  Facet = "locations"
)

// Filters is a validated facet selection. An empty facet means no restriction on it.
type Filters struct {
	issueAreas []string
	locations  []string
}

// New builds Filters from plain tag lists, applying the same cleaning as Normalize
// against an open taxonomy.
func New(issueAreas, locations []string) Filters {
	return FromLists(issueAreas, locations, Taxonomy{})
}

// FromLists cleans tag lists against a taxonomy.
func FromLists(issueAreas, locations []string, tax Taxonomy) Filters {
	return Filters{
		issueAreas: clean(IssueAreas, issueAreas, tax),
		locations:  clean(Locations, locations, tax),
	}
}

// Normalize validates a raw client filters object. It never fails: malformed
// containers, non-string entries, blank strings and tags unknown to a configured
// taxonomy are dropped silently. Tag values are kept verbatim.
func Normalize(raw json.RawMessage, tax Taxonomy) Filters {
	if len(raw) == 0 {
		return Filters{}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Filters{}
	}
	return Filters{
		issueAreas: clean(IssueAreas, stringItems(obj[string(IssueAreas)]), tax),
		locations:  clean(Locations, stringItems(obj[string(Locations)]), tax),
	}
}

// IssueAreas returns the selected issue-area tags in client order.
func (f Filters) IssueAreas() []string { return f.issueAreas }

// Locations returns the selected location tags in client order.
func (f Filters) Locations() []string { return f.locations }

// Values returns the tags selected for a facet.
func (f Filters) Values(facet Facet) []string {
	switch facet {
	case IssueAreas:
		return f.issueAreas
	case Locations:
		return f.locations
	default:
		return nil
	}
}

// HasLocations reports whether a location restriction is present.
func (f Filters) HasLocations() bool { return len(f.locations) > 0 }

// IsEmpty reports whether no facet restricts the result set.
func (f Filters) IsEmpty() bool {
	return len(f.issueAreas) == 0 && len(f.locations) == 0
}

func stringItems(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func clean(facet Facet, values []string, tax Taxonomy) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if !tax.Allows(facet, v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == MaxValuesPerFacet {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

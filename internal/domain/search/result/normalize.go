package result

import (
	"math"
	"sort"
	"strings"

	"github.com/kailas-cloud/funderdex/internal/domain/funder"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
)

// NameField is the attribute whose highlight marks an exact-name match.
const NameField = "funderName"

// RawHit is one engine hit before normalization.
type RawHit struct {
	ID     string
	Score  float64
	Source []byte
	// Highlights maps a field to its highlighted fragments.
	Highlights map[string][]string
}

// Normalize maps raw hits to results, preserving engine order.
// Shape irregularities in the stored documents are normalized, never reported.
func Normalize(hits []RawHit, m mode.Mode) []Funder {
	out := make([]Funder, 0, len(hits))
	for i := range hits {
		out = append(out, normalizeHit(&hits[i], m))
	}
	return out
}

func normalizeHit(h *RawHit, m mode.Mode) Funder {
	src, _ := funder.DecodeSource(h.Source)
	id := h.ID
	if id == "" {
		id = string(src.ID)
	}
	issueAreas := []string(src.IssueAreas)
	if issueAreas == nil {
		issueAreas = []string{}
	}
	locations := src.Locations()
	if locations == nil {
		locations = []string{}
	}
	return Funder{
		id:         id,
		name:       string(src.FunderName),
		url:        string(src.FunderURL),
		overview:   string(src.Overview),
		ipTake:     string(src.IPTake),
		profile:    string(src.Profile),
		issueAreas: issueAreas,
		locations:  locations,
		score:      h.Score,
		matchType:  classify(h, m),
	}
}

func classify(h *RawHit, m mode.Mode) MatchType {
	if m == mode.Semantic {
		return MatchSemantic
	}
	if len(h.Highlights[NameField]) > 0 {
		return MatchExactName
	}
	return MatchMention
}

// ScaleScores sets relevance to score/top*100, where top is the highest score
// in the slice. When top is zero, negative or not finite, relevance stays nil.
func ScaleScores(results []Funder) {
	if len(results) == 0 {
		return
	}
	top := math.Inf(-1)
	for i := range results {
		if s := results[i].score; !math.IsNaN(s) && s > top {
			top = s
		}
	}
	if top <= 0 || math.IsInf(top, 0) {
		for i := range results {
			results[i].relevance = nil
		}
		return
	}
	for i := range results {
		v := results[i].score / top * 100
		if math.IsNaN(v) {
			results[i].relevance = nil
			continue
		}
		results[i].relevance = &v
	}
}

// SortByName orders results by funder name, case-insensitive ascending,
// ties broken by id.
func SortByName(results []Funder) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := strings.ToLower(results[i].name), strings.ToLower(results[j].name)
		if a != b {
			return a < b
		}
		return results[i].id < results[j].id
	})
}

package funderdex

import (
	"github.com/kailas-cloud/funderdex/internal/domain/nonprofit"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	"github.com/kailas-cloud/funderdex/internal/domain/search/result"
	"github.com/kailas-cloud/funderdex/internal/usecase/load"
)

// MatchPolicy controls how keyword query terms combine.
type MatchPolicy string

// Match policies. Ignored by semantic search.
const (
	MatchAny   MatchPolicy = MatchPolicy(mode.MatchAny)
	MatchAll   MatchPolicy = MatchPolicy(mode.MatchAll)
	MatchExact MatchPolicy = MatchPolicy(mode.MatchExact)
)

// MatchType classifies why a funder matched.
type MatchType string

// Match types.
const (
	MatchTypeExact    MatchType = MatchType(result.MatchExactName)
	MatchTypeMention  MatchType = MatchType(result.MatchMention)
	MatchTypeSemantic MatchType = MatchType(result.MatchSemantic)
)

// Funder is a single search result.
type Funder struct {
	ID         string
	Name       string
	URL        string
	Overview   string
	IPTake     string
	Profile    string
	IssueAreas []string
	Locations  []string
	Score      float64
	Relevance  *float64 // semantic results only
	MatchType  MatchType
}

// Profile is a nonprofit registry record. Absent registry values are nil.
type Profile struct {
	OrgName            *string
	EIN                string
	City               *string
	State              *string
	SubsectionCode     *string
	NTEEClassification *string
	RulingDate         *string
	TotalAssets        *float64
	TotalGiving        *float64
	FilingYear         *int
}

// IndexInfo describes one ensured collection index.
type IndexInfo struct {
	Collection string
	Index      string
	Created    bool
}

// LoadFailure is a record that was skipped during Load.
type LoadFailure struct {
	Position int // 1-based record position in the input
	ID       string
	Err      error
}

// LoadReport summarizes a Load call.
type LoadReport struct {
	Read     int
	Loaded   int
	Failures []LoadFailure
}

func funderFromDomain(f *result.Funder) Funder {
	return Funder{
		ID:         f.ID(),
		Name:       f.Name(),
		URL:        f.URL(),
		Overview:   f.Overview(),
		IPTake:     f.IPTake(),
		Profile:    f.Profile(),
		IssueAreas: f.IssueAreas(),
		Locations:  f.Locations(),
		Score:      f.Score(),
		Relevance:  f.Relevance(),
		MatchType:  MatchType(f.MatchType()),
	}
}

func fundersFromDomain(in []result.Funder) []Funder {
	out := make([]Funder, len(in))
	for i := range in {
		out[i] = funderFromDomain(&in[i])
	}
	return out
}

func profileFromDomain(p nonprofit.Profile) Profile {
	return Profile{
		OrgName:            p.OrgName,
		EIN:                p.EIN,
		City:               p.City,
		State:              p.State,
		SubsectionCode:     p.SubsectionCode,
		NTEEClassification: p.NTEEClassification,
		RulingDate:         p.RulingDate,
		TotalAssets:        p.TotalAssets,
		TotalGiving:        p.TotalGiving,
		FilingYear:         p.FilingYear,
	}
}

func reportFromDomain(r load.Report) LoadReport {
	out := LoadReport{Read: r.Read, Loaded: r.Loaded}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, LoadFailure{Position: f.Position, ID: f.ID, Err: f.Err})
	}
	return out
}

package result

// MatchType classifies why a result matched.
type MatchType string

// Match types.
const (
	MatchExactName MatchType = "exact"
	MatchMention   MatchType = "mention"
	MatchSemantic  MatchType = "semantic"
)

// Funder is a single normalized search hit.
type Funder struct {
	id         string
	name       string
	url        string
	overview   string
	ipTake     string
	profile    string
	issueAreas []string
	locations  []string
	score      float64
	relevance  *float64
	matchType  MatchType
}

// New creates a normalized result.
func New(
	id, name, url, overview, ipTake, profile string,
	issueAreas, locations []string,
	score float64, matchType MatchType,
) Funder {
	return Funder{
		id: id, name: name, url: url,
		overview: overview, ipTake: ipTake, profile: profile,
		issueAreas: issueAreas, locations: locations,
		score: score, matchType: matchType,
	}
}

// ID returns the document identifier.
func (f *Funder) ID() string { return f.id }

// Name returns the funder name.
func (f *Funder) Name() string { return f.name }

// URL returns the funder landing URL.
func (f *Funder) URL() string { return f.url }

// Overview returns the overview text.
func (f *Funder) Overview() string { return f.overview }

// IPTake returns the editorial take text.
func (f *Funder) IPTake() string { return f.ipTake }

// Profile returns the profile text.
func (f *Funder) Profile() string { return f.profile }

// IssueAreas returns the issue-area tags.
func (f *Funder) IssueAreas() []string { return f.issueAreas }

// Locations returns the location tags.
func (f *Funder) Locations() []string { return f.locations }

// Score returns the raw engine score. Scales differ between modes.
func (f *Funder) Score() float64 { return f.score }

// Relevance returns the 0-100 score relative to the top hit, or nil when unscaled.
func (f *Funder) Relevance() *float64 { return f.relevance }

// MatchType returns the match classification.
func (f *Funder) MatchType() MatchType { return f.matchType }

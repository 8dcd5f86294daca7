package filter

// Tag is a taxonomy entry: the exact-match tag value plus display metadata.
type Tag struct {
	Value string
	Name  string
	URL   string
}

// Taxonomy is the externally defined set of facet tags. A facet with no tags
// configured is open: any non-blank tag is accepted for it.
type Taxonomy struct {
	issueAreas []Tag
	locations  []Tag
	allowed    map[Facet]map[string]struct{}
}

// NewTaxonomy builds a taxonomy from tag lists.
func NewTaxonomy(issueAreas, locations []Tag) Taxonomy {
	t := Taxonomy{
		issueAreas: issueAreas,
		locations:  locations,
		allowed:    make(map[Facet]map[string]struct{}, 2),
	}
	t.index(IssueAreas, issueAreas)
	t.index(Locations, locations)
	return t
}

func (t Taxonomy) index(facet Facet, tags []Tag) {
	if len(tags) == 0 {
		return
	}
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag.Value] = struct{}{}
	}
	t.allowed[facet] = set
}

// Allows reports whether tag is acceptable for facet.
func (t Taxonomy) Allows(facet Facet, tag string) bool {
	set, ok := t.allowed[facet]
	if !ok {
		return true
	}
	_, ok = set[tag]
	return ok
}

// IssueAreas returns the configured issue-area tags.
func (t Taxonomy) IssueAreas() []Tag { return t.issueAreas }

// Locations returns the configured location tags.
func (t Taxonomy) Locations() []Tag { return t.locations }

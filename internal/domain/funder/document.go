package funder

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	idRegex   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	slugStrip = regexp.MustCompile(`[^a-z0-9]+`)
)

// Content field names, in boost order.
const (
	FieldOverview = "overview"
	FieldIPTake   = "ipTake"
	FieldProfile  = "profile"
)

// ContentFields lists the free-text content attributes eligible for semantic matching.
var ContentFields = []string{FieldOverview, FieldIPTake, FieldProfile}

// Document is a funder record prepared for indexing (immutable value object).
type Document struct {
	id         string
	name       string
	url        string
	overview   string
	ipTake     string
	profile    string
	issueAreas []string
	locations  []string
	embeddings map[string][]float32
}

// FromSource validates a decoded source record. The id falls back to a slug of the name.
func FromSource(src Source) (Document, error) {
	name := strings.TrimSpace(string(src.FunderName))
	if name == "" {
		return Document{}, fmt.Errorf("funderName is required")
	}
	id := string(src.ID)
	if id == "" {
		id = Slug(name)
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID %q must be alphanumeric with underscores and hyphens", id)
	}
	return Document{
		id:         id,
		name:       name,
		url:        string(src.FunderURL),
		overview:   string(src.Overview),
		ipTake:     string(src.IPTake),
		profile:    string(src.Profile),
		issueAreas: append([]string(nil), src.IssueAreas...),
		locations:  src.Locations(),
	}, nil
}

// Slug derives a document id from a funder name.
func Slug(name string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// ExactName is the normalized form used for whole-name tag matching.
func ExactName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Name returns the funder name.
func (d *Document) Name() string { return d.name }

// URL returns the funder landing URL.
func (d *Document) URL() string { return d.url }

// IssueAreas returns the issue-area tags.
func (d *Document) IssueAreas() []string { return d.issueAreas }

// Locations returns the location tags.
func (d *Document) Locations() []string { return d.locations }

// Content returns the text of a content field by name.
func (d *Document) Content(field string) string {
	switch field {
	case FieldOverview:
		return d.overview
	case FieldIPTake:
		return d.ipTake
	case FieldProfile:
		return d.profile
	default:
		return ""
	}
}

// WithEmbeddings returns a copy carrying content-field vectors. Unknown fields are ignored.
func (d Document) WithEmbeddings(vectors map[string][]float32) Document {
	out := d
	out.embeddings = make(map[string][]float32, len(ContentFields))
	for _, f := range ContentFields {
		if v, ok := vectors[f]; ok && len(v) > 0 {
			out.embeddings[f] = v
		}
	}
	return out
}

// Embedding returns the vector of a content field, nil when none was computed.
func (d *Document) Embedding(field string) []float32 { return d.embeddings[field] }

package funder

import (
	"strings"

	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	domfunder "github.com/kailas-cloud/funderdex/internal/domain/funder"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
)

// textEnvelope is the content-field shape of semantic collections.
type textEnvelope struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// buildJSONDoc converts a funder document into the stored JSON shape of a collection.
// Tag lists are always written as lists, even for a single value.
func buildJSONDoc(col collection.Collection, doc *domfunder.Document) map[string]any {
	name := doc.Name()
	field := string(query.FunderName)
	m := map[string]any{
		"id":                       doc.ID(),
		"funderUrl":                doc.URL(),
		field:                      name,
		collection.IssueAreasField: nonNil(doc.IssueAreas()),
	}
	m[db.ExactAttr(query.FunderName)] = domfunder.ExactName(name)
	m[db.SortAttr(field)] = strings.ToLower(strings.TrimSpace(name))

	semantic := col.Mode() == mode.Semantic
	for _, f := range domfunder.ContentFields {
		text := doc.Content(f)
		if semantic {
			m[f] = textEnvelope{Text: text, Embedding: doc.Embedding(f)}
		} else {
			m[f] = text
		}
	}

	locations := nonNil(doc.Locations())
	switch col.LocationField() {
	case collection.LocationGeoStates:
		m["geoLocation"] = map[string]any{"states": locations}
	default:
		m[col.LocationField()] = locations
	}
	return m
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

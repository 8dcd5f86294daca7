package funder

import (
	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	domfunder "github.com/kailas-cloud/funderdex/internal/domain/funder"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
)

// tagSeparator keeps tags containing commas ("Arts, Culture & Humanities") whole.
const tagSeparator = "|"

// buildIndex creates the index definition of a collection.
// Keyword collections store content fields as plain strings; semantic collections
// store {text, embedding} envelopes and index one HNSW vector per content field.
func buildIndex(col collection.Collection, vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	name := string(query.FunderName)
	b := db.NewIndex(col.Index()).
		Prefix(domfunder.Prefix(string(col.ID()))).
		Text("$."+name).As(name).
		Tag("$."+db.ExactAttr(query.FunderName)).As(db.ExactAttr(query.FunderName)).Separator(tagSeparator).
		Tag("$."+db.SortAttr(name)).As(db.SortAttr(name)).Separator(tagSeparator).Sortable()

	semantic := col.Mode() == mode.Semantic
	for _, f := range query.ContentFields {
		path := "$." + string(f)
		if semantic {
			path += ".text"
		}
		b.Text(path).As(string(f))
	}
	if semantic {
		for _, f := range query.ContentFields {
			b.Vector("$."+string(f)+".embedding", vectorDim, hnsw.M, hnsw.EFConstruct).As(db.VectorAttr(f))
		}
	}

	b.Tag("$."+collection.IssueAreasField+"[*]").As(collection.IssueAreasField).Separator(tagSeparator).CaseSensitive()
	b.Tag("$."+col.LocationField()+"[*]").As(db.Attr(col.LocationField())).Separator(tagSeparator).CaseSensitive()

	return b.Build()
}

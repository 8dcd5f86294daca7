package bleve

import (
	"fmt"
	"strings"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/funderdex/internal/db"
)

const (
	// sourceField stores the raw document; it is returned with every hit and never indexed.
	sourceField = "source"

	// textAnalyzer lowercases unicode tokens and keeps stopwords, so every
	// query term has a token to match in ALL mode.
	textAnalyzer = "funder_text"
)

func buildMapping(def *db.IndexDefinition) (*mapping.IndexMappingImpl, error) {
	im := blevesearch.NewIndexMapping()
	err := im.AddCustomAnalyzer(textAnalyzer, map[string]any{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []any{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("register %s analyzer: %w", textAnalyzer, err)
	}
	doc := blevesearch.NewDocumentMapping()

	for i := range def.Fields {
		f := &def.Fields[i]
		switch f.Type {
		case db.IndexFieldText:
			fm := blevesearch.NewTextFieldMapping()
			fm.Analyzer = textAnalyzer
			fm.Store = true
			fm.IncludeTermVectors = true
			doc.AddFieldMappingsAt(f.Attribute(), fm)
		case db.IndexFieldTag:
			fm := blevesearch.NewKeywordFieldMapping()
			fm.IncludeInAll = false
			doc.AddFieldMappingsAt(f.Attribute(), fm)
		case db.IndexFieldVector:
			// not indexed
		}
	}

	src := blevesearch.NewTextFieldMapping()
	src.Index = false
	src.Store = true
	src.IncludeInAll = false
	src.IncludeTermVectors = false
	src.DocValues = false
	doc.AddFieldMappingsAt(sourceField, src)

	im.DefaultMapping = doc
	im.DefaultAnalyzer = textAnalyzer
	return im, nil
}

// flatten maps a JSON document onto the index attributes.
// Case-insensitive tags are lowercased so term queries can match them.
func flatten(def *db.IndexDefinition, body any, raw []byte) map[string]any {
	out := make(map[string]any, len(def.Fields)+1)
	for i := range def.Fields {
		f := &def.Fields[i]
		if f.Type == db.IndexFieldVector {
			continue
		}
		values := extract(body, f.Path)
		if len(values) == 0 {
			continue
		}
		if f.Type == db.IndexFieldTag {
			values = splitTags(values, f.TagSeparator)
			if !f.TagCaseSensitive {
				for j := range values {
					values[j] = strings.ToLower(values[j])
				}
			}
		}
		if len(values) == 1 {
			out[f.Attribute()] = values[0]
		} else {
			out[f.Attribute()] = values
		}
	}
	out[sourceField] = string(raw)
	return out
}

func splitTags(values []string, sep string) []string {
	if sep == "" {
		sep = ","
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, sep) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// extract evaluates the JSON path subset used by index definitions:
// "$.a.b" and "$.a[*]", returning every string found.
func extract(body any, path string) []string {
	path = strings.TrimPrefix(strings.TrimPrefix(path, "$"), ".")
	cur := []any{body}
	for _, seg := range strings.Split(path, ".") {
		wildcard := strings.HasSuffix(seg, "[*]")
		seg = strings.TrimSuffix(seg, "[*]")

		next := make([]any, 0, len(cur))
		for _, node := range cur {
			obj, ok := node.(map[string]any)
			if !ok {
				continue
			}
			v, ok := obj[seg]
			if !ok {
				continue
			}
			if arr, isArr := v.([]any); isArr && wildcard {
				next = append(next, arr...)
			} else {
				next = append(next, v)
			}
		}
		cur = next
	}

	out := make([]string, 0, len(cur))
	for _, v := range cur {
		switch x := v.(type) {
		case string:
			if x != "" {
				out = append(out, x)
			}
		case []any:
			for _, item := range x {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

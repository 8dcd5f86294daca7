package db

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Vector fields are FLOAT32 arrays compared by cosine distance. Semantic
// scores are derived as 1 - distance, so no other metric is offered.
const (
	VectorType     = "FLOAT32"
	VectorDistance = "COSINE"
)

// IndexFieldType enumerates supported index field types.
type IndexFieldType int

const (
	// IndexFieldTag is an exact-match tag field.
	IndexFieldTag IndexFieldType = iota
	// IndexFieldText is a tokenized full-text field.
	IndexFieldText
	// IndexFieldVector is an HNSW vector field.
	IndexFieldVector
)

func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldTag:
		return "TAG"
	case IndexFieldText:
		return "TEXT"
	case IndexFieldVector:
		return "VECTOR"
	default:
		return fmt.Sprintf("IndexFieldType(%d)", int(t))
	}
}

// IndexField maps a JSON path of a funder document onto a queryable attribute.
type IndexField struct {
	Path  string
	Alias string
	Type  IndexFieldType

	Sortable bool

	TagSeparator     string
	TagCaseSensitive bool

	VectorDim         int
	VectorM           int // max edges per HNSW node
	VectorEFConstruct int // HNSW build-time candidate list size
}

// Attribute returns the name queries use for the field: the alias when set.
func (f *IndexField) Attribute() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Path
}

// IndexDefinition describes one collection index over JSON documents
// stored under Prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_:-]+$`)

// IsValidIdentifier reports whether s is a usable index name.
func IsValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Path == "" {
			return fmt.Errorf("field %d: path is required", i)
		}
		attr := f.Attribute()
		if _, dup := seen[attr]; dup {
			return fmt.Errorf("duplicate field name: %s", attr)
		}
		seen[attr] = struct{}{}

		if f.Type == IndexFieldVector {
			if f.VectorDim <= 0 {
				return fmt.Errorf("vector field %s requires positive DIM", attr)
			}
			if f.Sortable {
				return fmt.Errorf("vector field %s cannot be sortable", attr)
			}
		}
	}
	return nil
}

// Field returns the field whose attribute name is attr.
func (idx *IndexDefinition) Field(attr string) (*IndexField, bool) {
	for i := range idx.Fields {
		if idx.Fields[i].Attribute() == attr {
			return &idx.Fields[i], true
		}
	}
	return nil, false
}

// String renders the schema compactly for logs and test diffs:
// name[prefixes] attr=TYPE(path) ...
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString(idx.Name)
	sb.WriteString("[" + strings.Join(idx.Prefixes, ",") + "]")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		fmt.Fprintf(&sb, " %s=%s(%s)", f.Attribute(), f.Type, f.Path)
		if f.Type == IndexFieldVector {
			fmt.Fprintf(&sb, "/%d", f.VectorDim)
		}
		if f.Sortable {
			sb.WriteString(",SORTABLE")
		}
	}
	return sb.String()
}

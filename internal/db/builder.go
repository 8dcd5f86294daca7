package db

// IndexBuilder assembles an IndexDefinition field by field. Modifiers
// (As, Sortable, Separator, CaseSensitive) apply to the last added field
// and are ignored before the first one.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix adds key prefixes the index watches.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Text adds a full-text field.
func (b *IndexBuilder) Text(path string) *IndexBuilder {
	return b.add(IndexField{Path: path, Type: IndexFieldText})
}

// Tag adds a case-insensitive tag field.
func (b *IndexBuilder) Tag(path string) *IndexBuilder {
	return b.add(IndexField{Path: path, Type: IndexFieldTag})
}

// Vector adds an HNSW vector field. Zero m or efConstruct keep the engine defaults.
func (b *IndexBuilder) Vector(path string, dim, m, efConstruct int) *IndexBuilder {
	return b.add(IndexField{
		Path:              path,
		Type:              IndexFieldVector,
		VectorDim:         dim,
		VectorM:           m,
		VectorEFConstruct: efConstruct,
	})
}

// As sets the attribute name of the last field.
func (b *IndexBuilder) As(alias string) *IndexBuilder {
	return b.last(func(f *IndexField) { f.Alias = alias })
}

// Sortable marks the last field sortable.
func (b *IndexBuilder) Sortable() *IndexBuilder {
	return b.last(func(f *IndexField) { f.Sortable = true })
}

// Separator sets the multi-value separator of the last tag field.
func (b *IndexBuilder) Separator(sep string) *IndexBuilder {
	return b.last(func(f *IndexField) { f.TagSeparator = sep })
}

// CaseSensitive makes the last tag field match case-sensitively.
func (b *IndexBuilder) CaseSensitive() *IndexBuilder {
	return b.last(func(f *IndexField) { f.TagCaseSensitive = true })
}

// Build validates and returns a copy of the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	def.Prefixes = append([]string(nil), b.def.Prefixes...)
	def.Fields = append([]IndexField(nil), b.def.Fields...)
	return &def, nil
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

func (b *IndexBuilder) last(fn func(*IndexField)) *IndexBuilder {
	if n := len(b.def.Fields); n > 0 {
		fn(&b.def.Fields[n-1])
	}
	return b
}

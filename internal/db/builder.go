package db

import "strings"

// IndexBuilder accumulates an FT index definition through chained
// calls. Documents are always stored as hashes and vector fields
// always use cosine distance.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition for the named index.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix adds key prefixes the index watches.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Tag adds a TAG field. An empty alias indexes under the raw name.
func (b *IndexBuilder) Tag(name, alias string) *IndexBuilder {
	return b.add(IndexField{Name: name, Alias: alias, Type: IndexFieldTag})
}

// TagWithSeparator adds a TAG field splitting values on separator.
func (b *IndexBuilder) TagWithSeparator(name, alias, separator string) *IndexBuilder {
	return b.add(IndexField{Name: name, Alias: alias, Type: IndexFieldTag, TagSeparator: separator})
}

// Text adds a TEXT field.
func (b *IndexBuilder) Text(name, alias string) *IndexBuilder {
	return b.add(IndexField{Name: name, Alias: alias, Type: IndexFieldText})
}

// VectorHNSW adds a VECTOR field indexed with the HNSW graph.
func (b *IndexBuilder) VectorHNSW(name, alias string, dim, m, efConstruct int) *IndexBuilder {
	return b.add(IndexField{
		Name:              name,
		Alias:             alias,
		Type:              IndexFieldVector,
		VectorAlgo:        VectorHNSW,
		VectorDim:         dim,
		VectorM:           m,
		VectorEFConstruct: efConstruct,
	})
}

// VectorFlat adds a VECTOR field with exhaustive FLAT search.
func (b *IndexBuilder) VectorFlat(name, alias string, dim, blockSize int) *IndexBuilder {
	return b.add(IndexField{
		Name:            name,
		Alias:           alias,
		Type:            IndexFieldVector,
		VectorAlgo:      VectorFlat,
		VectorDim:       dim,
		VectorBlockSize: blockSize,
	})
}

// Build validates the accumulated definition and hands it out.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild is Build for static schemas; it panics instead of
// returning the validation error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String renders a debug form resembling the FT.CREATE command.
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString("FT.CREATE ")
	sb.WriteString(idx.Name)
	sb.WriteString(" ON HASH")
	if len(idx.Prefixes) > 0 {
		sb.WriteString(" PREFIX")
		for _, p := range idx.Prefixes {
			sb.WriteString(" ")
			sb.WriteString(p)
		}
	}
	sb.WriteString(" SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		sb.WriteString(" ")
		sb.WriteString(f.Name)
		if f.Alias != "" {
			sb.WriteString(" AS ")
			sb.WriteString(f.Alias)
		}
		switch f.Type {
		case IndexFieldTag:
			sb.WriteString(" TAG")
		case IndexFieldText:
			sb.WriteString(" TEXT")
		case IndexFieldVector:
			sb.WriteString(" VECTOR ")
			sb.WriteString(string(f.VectorAlgo))
		}
	}
	return sb.String()
}

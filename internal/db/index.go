package db

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
)

// VectorAlgorithm selects how FT.CREATE indexes a vector field.
type VectorAlgorithm string

const (
	// VectorHNSW builds a hierarchical navigable small world graph.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat scans exhaustively. Exact but linear in corpus size.
	VectorFlat VectorAlgorithm = "FLAT"
)

// IndexFieldType enumerates the FT schema field types in use.
type IndexFieldType int

const (
	IndexFieldTag IndexFieldType = iota
	IndexFieldText
	IndexFieldVector
)

// IndexField is one entry of an FT index schema. Only the option group
// matching Type is consulted; the rest stays zero. Vector fields are
// always indexed with cosine distance, which the similarity math
// downstream assumes.
type IndexField struct {
	Name  string
	Alias string // indexed under this name when set (SCHEMA ... AS)
	Type  IndexFieldType

	// TAG options
	TagSeparator string

	// VECTOR options
	VectorAlgo        VectorAlgorithm
	VectorDim         int
	VectorM           int // HNSW max edges per node, 16 when zero
	VectorEFConstruct int // HNSW build-time candidate list size, 200 when zero
	VectorBlockSize   int // FLAT allocation block size
}

// schemaName is the name the field is indexed and queried under.
func (f *IndexField) schemaName() string {
	return cmp.Or(f.Alias, f.Name)
}

// IndexDefinition describes a full FT index over hash documents.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate rejects definitions FT.CREATE would refuse or that would
// produce an unqueryable index.
func (idx *IndexDefinition) Validate() error {
	switch {
	case idx.Name == "":
		return errors.New("index name is required")
	case !IsValidIdentifier(idx.Name):
		return errors.New("index name contains invalid characters")
	case len(idx.Fields) == 0:
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if f.Type == IndexFieldVector && f.VectorDim <= 0 {
			return fmt.Errorf("vector field %s requires positive DIM", f.Name)
		}
		name := f.schemaName()
		if seen[name] {
			return errors.New("duplicate field name: " + name)
		}
		seen[name] = true
	}
	return nil
}

// IsValidIdentifier reports whether s is safe to splice into an FT
// command, limited to [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_' || r == ':' || r == '-':
			return false
		}
		return true
	}) == -1
}

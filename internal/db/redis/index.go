package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ganeshmamidipalli/GANI/internal/db"
)

// CreateIndex issues FT.CREATE for def. An existing index with the same
// name maps to db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createArgs(def)
	if err != nil {
		return err
	}

	if err := s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error(); err != nil {
		if redisErrContains(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: "FT.CREATE", Key: def.Name, Err: err}
	}
	return nil
}

// DropIndex removes the index definition. Documents stay; only the index
// goes away.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	if err := s.do(ctx, s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()).Error(); err != nil {
		if redisErrContains(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: "FT.DROPINDEX", Key: name, Err: err}
	}
	return nil
}

// IndexExists probes with FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).Error(); err != nil {
		if redisErrContains(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: "FT.INFO", Key: name, Err: err}
	}
	return true, nil
}

// createArgs renders def into FT.CREATE argument order: name, storage,
// prefixes, then the schema.
func createArgs(def *db.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("empty index name")
	}
	if len(def.Fields) == 0 {
		return nil, errors.New("schema has no fields")
	}

	args := []string{def.Name, "ON", "HASH"}
	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range def.Fields {
		fa, err := fieldArgs(&def.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fa...)
	}
	return args, nil
}

func fieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("schema field missing a name")
	}

	args := []string{f.Name}
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}

	switch f.Type {
	case db.IndexFieldText:
		return append(args, "TEXT"), nil

	case db.IndexFieldTag:
		args = append(args, "TAG")
		if f.TagSeparator != "" {
			args = append(args, "SEPARATOR", f.TagSeparator)
		}
		return args, nil

	case db.IndexFieldVector:
		va, err := vectorArgs(f)
		if err != nil {
			return nil, err
		}
		return append(args, va...), nil

	default:
		return nil, fmt.Errorf("unsupported field type %d", f.Type)
	}
}

// vectorArgs renders the VECTOR clause. The attribute count the server
// expects covers the TYPE/DIM/DISTANCE_METRIC pairs plus any tuning knobs.
func vectorArgs(f *db.IndexField) ([]string, error) {
	if f.VectorDim <= 0 {
		return nil, fmt.Errorf("vector field %s has non-positive DIM", f.Name)
	}

	algo := f.VectorAlgo
	if algo == "" {
		algo = db.VectorHNSW
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.VectorDim),
		"DISTANCE_METRIC", "COSINE",
	}

	switch algo {
	case db.VectorHNSW:
		if f.VectorM > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
		}
		if f.VectorEFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
		}
	case db.VectorFlat:
		if f.VectorBlockSize > 0 {
			attrs = append(attrs, "BLOCK_SIZE", strconv.Itoa(f.VectorBlockSize))
		}
	}

	return append([]string{"VECTOR", string(algo), strconv.Itoa(len(attrs))}, attrs...), nil
}

package corpus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ganeshmamidipalli/GANI/internal/db"
)

// Hash fields of a snippet document. Aliases keep FT.SEARCH queries readable.
const (
	fieldText    = "__text"
	fieldURL     = "__url"
	fieldSection = "__section"
	fieldVector  = "__vector"
)

// store is the slice of the database corpus loading touches.
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Document is one embedded corpus chunk ready for indexing.
type Document struct {
	ID      string
	Text    string
	URL     string
	Section string
	Vector  []float32
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo writes corpus documents and manages per-namespace indexes.
type Repo struct {
	store     store
	keyPrefix string
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a corpus repository.
func New(s store, keyPrefix string, vectorDim int) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, vectorDim: vectorDim, hnsw: HNSWConfig{M: 32, EFConstruct: 400}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the namespace index when absent.
// Returns true when a new index was created.
func (r *Repo) EnsureIndex(ctx context.Context, namespace string) (bool, error) {
	def, err := r.buildIndex(namespace)
	if err != nil {
		return false, fmt.Errorf("index definition %s: %w", namespace, err)
	}

	err = r.store.CreateIndex(ctx, def)
	if errors.Is(err, db.ErrIndexExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create index %s: %w", namespace, err)
	}
	return true, nil
}

// Recreate drops the namespace index, deletes its documents and creates the
// index fresh. Returns the number of deleted documents.
func (r *Repo) Recreate(ctx context.Context, namespace string) (int, error) {
	def, err := r.buildIndex(namespace)
	if err != nil {
		return 0, fmt.Errorf("index definition %s: %w", namespace, err)
	}

	if err := r.store.DropIndex(ctx, r.indexName(namespace)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return 0, fmt.Errorf("drop index %s: %w", namespace, err)
	}

	keys, err := r.store.Scan(ctx, r.docPrefix(namespace)+"*")
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", namespace, err)
	}

	deleted := 0
	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return deleted, fmt.Errorf("del %s: %w", key, err)
		}
		deleted++
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		return deleted, fmt.Errorf("create index %s: %w", namespace, err)
	}
	return deleted, nil
}

// UpsertBatch writes a batch of documents in one pipelined round-trip.
func (r *Repo) UpsertBatch(ctx context.Context, namespace string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(docs))
	for i, doc := range docs {
		items[i] = db.HashSetItem{
			Key: r.docKey(namespace, doc.ID),
			Fields: map[string]string{
				fieldText:    doc.Text,
				fieldURL:     doc.URL,
				fieldSection: doc.Section,
				fieldVector:  vectorToBlob(doc.Vector),
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert batch %s: %w", namespace, err)
	}
	return nil
}

// Exists reports whether a document is already stored.
func (r *Repo) Exists(ctx context.Context, namespace, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.docKey(namespace, id))
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", id, err)
	}
	return ok, nil
}

// IndexExists reports whether the namespace index is present.
func (r *Repo) IndexExists(ctx context.Context, namespace string) (bool, error) {
	return r.store.IndexExists(ctx, r.indexName(namespace))
}

// Key patterns: gani:{namespace}:idx, gani:{namespace}:{id}

func (r *Repo) indexName(namespace string) string {
	return fmt.Sprintf("%s%s:idx", r.keyPrefix, namespace)
}

func (r *Repo) docPrefix(namespace string) string {
	return fmt.Sprintf("%s%s:", r.keyPrefix, namespace)
}

func (r *Repo) docKey(namespace, id string) string {
	return fmt.Sprintf("%s%s:%s", r.keyPrefix, namespace, id)
}

// buildIndex assembles the namespace schema. Validation catches namespaces
// whose characters FT.CREATE would reject.
func (r *Repo) buildIndex(namespace string) (*db.IndexDefinition, error) {
	return db.NewIndex(r.indexName(namespace)).
		Prefix(r.docPrefix(namespace)).
		Tag(fieldURL, "url").
		Tag(fieldSection, "section").
		Text(fieldText, "text").
		VectorHNSW(fieldVector, "vector", r.vectorDim, r.hnsw.M, r.hnsw.EFConstruct).
		Build()
}

// vectorToBlob serializes a vector into the FLOAT32 little-endian layout the
// index expects.
func vectorToBlob(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

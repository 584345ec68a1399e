package snippets

import (
	"context"
	"fmt"

	"github.com/ganeshmamidipalli/GANI/internal/db"
	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// Hash fields of a snippet document. The vector field is indexed under the
// "vector" alias; FT.SEARCH reports the KNN distance as __vector_score.
const (
	fieldText    = "__text"
	fieldURL     = "__url"
	fieldSection = "__section"
	fieldScore   = "__vector_score"
)

// store is the slice of the database snippet retrieval touches.
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements usecase/retrieval.Repository.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a snippet repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Search runs a KNN query against one namespace index. Hits come back in
// rank order with raw cosine similarity as both score and weighted score.
func (r *Repo) Search(ctx context.Context, namespace string, vector []float32, k int) ([]domain.Snippet, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName(namespace),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldText, fieldURL, fieldSection, fieldScore},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", namespace, err)
	}

	return parseSnippets(sr, namespace), nil
}

// Count returns the number of vectors stored in a namespace.
func (r *Repo) Count(ctx context.Context, namespace string) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(namespace), "*")
	if err != nil {
		return 0, fmt.Errorf("search count %s: %w", namespace, err)
	}
	return n, nil
}

// Key patterns: gani:{namespace}:idx, gani:{namespace}:{id}

func (r *Repo) indexName(namespace string) string {
	return fmt.Sprintf("%s%s:idx", r.keyPrefix, namespace)
}

func parseSnippets(sr *db.SearchResult, namespace string) []domain.Snippet {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	out := make([]domain.Snippet, 0, len(sr.Entries))
	for i, entry := range sr.Entries {
		out = append(out, domain.NewSnippet(
			entry.Fields[fieldText],
			entry.Fields[fieldURL],
			entry.Fields[fieldSection],
			namespace,
			entry.Score,
			entry.Score,
			i+1,
		))
	}
	return out
}

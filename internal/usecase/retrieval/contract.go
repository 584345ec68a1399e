package retrieval

import (
	"context"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// Repository defines the vector store contract for snippet retrieval.
type Repository interface {
	Search(ctx context.Context, namespace string, vector []float32, k int) ([]domain.Snippet, error)
}

// Embedder vectorizes the question text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

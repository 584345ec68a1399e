package answer

import (
	"context"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// Classifier routes a question to an intent.
type Classifier interface {
	Classify(q domain.Question) domain.Intent
}

// Retriever returns ranked, deduplicated snippets for a question.
type Retriever interface {
	Retrieve(ctx context.Context, q domain.Question, intent domain.Intent, k int) ([]domain.Snippet, error)
}

// Packer renders snippets into a numbered, budgeted context.
type Packer interface {
	Pack(snippets []domain.Snippet) domain.PackedContext
}

// Verifier scores generated text against the context it was given.
type Verifier interface {
	Verify(generatedText string, packed domain.PackedContext) domain.VerificationResult
	BlendModelHint(confidence float64) float64
}

// SessionStore persists per-conversation memory. The pipeline treats it as
// best-effort: failures are logged and never fail a request.
type SessionStore interface {
	Get(ctx context.Context, key string) (domain.SessionRecord, error)
	Put(ctx context.Context, rec domain.SessionRecord) error
}

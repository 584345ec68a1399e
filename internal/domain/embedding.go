package domain

import (
	"context"
	"fmt"
)

// EmbeddingResult carries one vector plus the token usage the provider
// reported for producing it.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries vectors for several texts, in input order,
// with usage summed across the batch.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Embedder is the text vectorization contract shared by the provider,
// the cache, and the instrumentation decorators.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes several texts in one provider call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

var _ interface {
	Embedder
	BatchEmbedder
} = (*InstructionEmbedder)(nil)

// InstructionEmbedder prepends a fixed prefix to every text before it
// reaches the inner embedder. BGE-style models want their retrieval
// instruction on queries while documents embed as-is, so this decorator
// sits on the query path only.
type InstructionEmbedder struct {
	next   Embedder
	prefix string
}

// NewInstructionEmbedder wraps next so that every text gets prefix
// prepended first.
func NewInstructionEmbedder(next Embedder, prefix string) *InstructionEmbedder {
	return &InstructionEmbedder{next: next, prefix: prefix}
}

func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := e.next.Embed(ctx, e.prefix+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("prefixed embed: %w", err)
	}
	return res, nil
}

// BatchEmbed prefixes every text and hands the batch to the inner
// embedder, falling back to one Embed per text when it has no batch
// support.
func (e *InstructionEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.prefix + t
	}

	be, ok := e.next.(BatchEmbedder)
	if !ok {
		return BatchFallback(ctx, e.next, prefixed)
	}

	res, err := be.BatchEmbed(ctx, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("prefixed batch embed: %w", err)
	}
	return res, nil
}

// BatchFallback emulates BatchEmbed with sequential Embed calls for
// providers that only vectorize one text at a time.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("embed text %d of %d: %w", i+1, len(texts), err)
		}
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

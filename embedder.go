package gani

import "context"

// Embedder turns one piece of text into its vector representation.
//
// Supply one with WithEmbedder when the built-in OpenAI-compatible
// provider does not fit. The client prepends the BGE retrieval
// instruction to queries itself, so implementations embed exactly the
// text they receive. Vectors must match the dimensions the corpus was
// loaded with.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is one vector plus the token usage the provider
// reported for producing it. Providers that report no usage may leave
// the counts zero.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

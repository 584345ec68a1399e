package domain

import "time"

// DefaultSystemPrompt is used when no prompt override is configured.
const DefaultSystemPrompt = "You are GANI, an AI assistant that mimics Ganesh's personality."

// EmbeddingConfig holds internal vectorization settings, not exposed to clients.
type EmbeddingConfig struct {
	Model            string
	Dimensions       int
	QueryInstruction string
}

// DefaultEmbeddingConfig returns the default configuration tuned for
// BGE large embeddings. The query instruction is the BGE retrieval prefix;
// documents are embedded without it.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Model:            "BAAI/bge-large-en-v1.5",
		Dimensions:       1024,
		QueryInstruction: "Represent this sentence for retrieval: ",
	}
}

// RetrievalConfig holds retrieval and packing knobs shared across layers.
type RetrievalConfig struct {
	// TopKPerNamespace is the per-namespace candidate count before merge.
	TopKPerNamespace int
	// KContext is the final snippet count after dedup and ranking.
	KContext int
	// CharBudget bounds the rendered packed context length.
	CharBudget int
	// SnippetCharLimit bounds one snippet's text inside a block.
	SnippetCharLimit int
}

// DefaultRetrievalConfig returns the tuned retrieval defaults.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopKPerNamespace: 12,
		KContext:         6,
		CharBudget:       1200,
		SnippetCharLimit: 400,
	}
}

// VerifyConfig holds the confidence policy. Values are tunable as long as
// more unsupported citations or ungrounded sentences never raise confidence.
type VerifyConfig struct {
	// OverlapThreshold is the minimum lexical overlap for a grounded sentence.
	OverlapThreshold float64
	// UnsupportedPenalty is subtracted per unsupported citation marker.
	UnsupportedPenalty float64
	// UngroundedWeight scales the ungrounded sentence fraction penalty.
	UngroundedWeight float64
	// ModelHint is the assumed model self-confidence in the final blend.
	ModelHint float64
	// ModelHintWeight is the hint's share of the final blend.
	ModelHintWeight float64
}

// DefaultVerifyConfig returns the default confidence policy.
func DefaultVerifyConfig() VerifyConfig {
	return VerifyConfig{
		OverlapThreshold:   0.2,
		UnsupportedPenalty: 0.15,
		UngroundedWeight:   0.5,
		ModelHint:          0.8,
		ModelHintWeight:    0.3,
	}
}

// GenerationConfig holds chat completion settings for the answer model.
type GenerationConfig struct {
	Model        string
	Temperature  float32
	TopP         float32
	MaxTokens    int
	Timeout      time.Duration
	SystemPrompt string
}

// DefaultGenerationConfig returns the default completion settings.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Model:        "openai/gpt-oss-20b",
		Temperature:  0.2,
		TopP:         0.9,
		MaxTokens:    1000,
		Timeout:      30 * time.Second,
		SystemPrompt: DefaultSystemPrompt,
	}
}

package gani

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	keyPrefix string

	embedder         Embedder
	embeddingBaseURL string
	embeddingAPIKey  string

	openRouterKey   string
	generationModel string
	systemPrompt    string

	kContext       int
	sessionTTL     time.Duration
	memorySessions bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix overrides the key prefix shared by indexes, documents,
// sessions and caches. Default: "gani:". Must match the prefix ganiload
// wrote the corpus under.
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithEmbeddingProvider configures the OpenAI-compatible embedding endpoint
// used for query vectorization. Model and dimensions follow the corpus
// defaults (BGE large, 1024 dims).
func WithEmbeddingProvider(baseURL, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingBaseURL = baseURL
		c.embeddingAPIKey = apiKey
	})
}

// WithEmbedder sets a custom embedding provider. It takes precedence over
// WithEmbeddingProvider. The vectors must match the loaded corpus dimensions.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenRouterKey configures answer generation through OpenRouter with the
// default model. Without it the pipeline serves degraded answers only.
func WithOpenRouterKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openRouterKey = key
	})
}

// WithGenerationModel overrides the completion model identifier.
func WithGenerationModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.generationModel = model
	})
}

// WithSystemPrompt overrides the built-in persona prompt.
func WithSystemPrompt(prompt string) Option {
	return optionFunc(func(c *clientConfig) {
		c.systemPrompt = prompt
	})
}

// WithKContext sets how many ranked snippets feed the packed context.
// Default: 6.
func WithKContext(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.kContext = k
	})
}

// WithSessionTTL sets how long conversation memory is kept. Default: 1 hour.
func WithSessionTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.sessionTTL = ttl
	})
}

// WithMemorySessions keeps conversation memory in process instead of Redis.
// Sessions are lost on restart and not shared between instances.
func WithMemorySessions() Option {
	return optionFunc(func(c *clientConfig) {
		c.memorySessions = true
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

package gani

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestNoopEmbedder(t *testing.T) {
	noop := noopEmbedder{}
	_, err := noop.Embed(context.Background(), "test")
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestNoopGenerator(t *testing.T) {
	noop := noopGenerator{}
	_, err := noop.Generate(context.Background(), domain.GenerationRequest{})
	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Fatalf("error = %v, want ErrGenerationUnavailable", err)
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			called = true
			return EmbeddingResult{
				Embedding:    []float32{1, 2, 3},
				PromptTokens: 5,
				TotalTokens:  10,
			}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(result.Embedding) != 3 {
		t.Errorf("embedding len = %d, want 3", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", result.TotalTokens)
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}

	adapter := &embedderAdapter{inner: mock}
	_, err := adapter.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error from adapter")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithRedis("localhost:6379", "secret").apply(cfg)
	if len(cfg.addrs) != 1 || cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v, want [localhost:6379]", cfg.addrs)
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	WithKeyPrefix("bot:").apply(cfg)
	if cfg.keyPrefix != "bot:" {
		t.Errorf("keyPrefix = %q, want bot:", cfg.keyPrefix)
	}

	WithEmbeddingProvider("https://emb.example.com/v1", "emb-key").apply(cfg)
	if cfg.embeddingBaseURL != "https://emb.example.com/v1" {
		t.Errorf("embeddingBaseURL = %q", cfg.embeddingBaseURL)
	}
	if cfg.embeddingAPIKey != "emb-key" {
		t.Errorf("embeddingAPIKey = %q", cfg.embeddingAPIKey)
	}

	WithOpenRouterKey("or-key").apply(cfg)
	if cfg.openRouterKey != "or-key" {
		t.Errorf("openRouterKey = %q", cfg.openRouterKey)
	}

	WithGenerationModel("openai/gpt-oss-120b").apply(cfg)
	if cfg.generationModel != "openai/gpt-oss-120b" {
		t.Errorf("generationModel = %q", cfg.generationModel)
	}

	WithSystemPrompt("You are a test bot.").apply(cfg)
	if cfg.systemPrompt != "You are a test bot." {
		t.Errorf("systemPrompt = %q", cfg.systemPrompt)
	}

	WithKContext(4).apply(cfg)
	if cfg.kContext != 4 {
		t.Errorf("kContext = %d, want 4", cfg.kContext)
	}

	WithSessionTTL(30 * time.Minute).apply(cfg)
	if cfg.sessionTTL != 30*time.Minute {
		t.Errorf("sessionTTL = %v, want 30m", cfg.sessionTTL)
	}

	WithMemorySessions().apply(cfg)
	if !cfg.memorySessions {
		t.Error("memorySessions = false, want true")
	}

	WithLogger(slog.Default()).apply(cfg)
	if cfg.logger == nil {
		t.Error("logger not set")
	}

	WithPrometheus(prometheus.NewRegistry()).apply(cfg)
	if cfg.metricsReg == nil {
		t.Error("metricsReg not set")
	}
}

func TestBuildEmbedder_Default_FailsOnUse(t *testing.T) {
	embedder, health := buildEmbedder(&clientConfig{}, domain.DefaultEmbeddingConfig())
	if health != nil {
		t.Error("expected nil health checker without a provider")
	}

	_, err := embedder.Embed(context.Background(), "test")
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestBuildEmbedder_CustomWinsOverProvider(t *testing.T) {
	var gotText string
	custom := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			gotText = text
			return EmbeddingResult{Embedding: []float32{1}}, nil
		},
	}

	cfg := &clientConfig{
		embedder:         custom,
		embeddingBaseURL: "https://ignored.example.com/v1",
	}
	embedder, _ := buildEmbedder(cfg, domain.DefaultEmbeddingConfig())

	if _, err := embedder.Embed(context.Background(), "my query"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(gotText, "Represent this sentence for retrieval: ") {
		t.Errorf("query instruction not prepended: %q", gotText)
	}
	if !strings.HasSuffix(gotText, "my query") {
		t.Errorf("query text lost: %q", gotText)
	}
}

func TestBuildGenerator_NoKey_FailsOnUse(t *testing.T) {
	generator, health := buildGenerator(&clientConfig{}, domain.DefaultGenerationConfig())
	if health != nil {
		t.Error("expected nil health checker without a key")
	}

	_, err := generator.Generate(context.Background(), domain.GenerationRequest{})
	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Fatalf("error = %v, want ErrGenerationUnavailable", err)
	}
}

func TestBuildGenerator_WithKey(t *testing.T) {
	generator, health := buildGenerator(
		&clientConfig{openRouterKey: "or-key"}, domain.DefaultGenerationConfig(),
	)
	if generator == nil {
		t.Fatal("expected a generator")
	}
	if health == nil {
		t.Error("expected a health checker with a key")
	}
}

func TestSessionKey_Format(t *testing.T) {
	key := SessionKey("203.0.113.7", "gani-test/1.0")
	if !strings.HasPrefix(key, "session_") {
		t.Errorf("key = %q, want session_ prefix", key)
	}
	if len(key) != len("session_")+4 {
		t.Errorf("key = %q, want 4-digit suffix", key)
	}
	if key != SessionKey("203.0.113.7", "gani-test/1.0") {
		t.Error("same caller produced different keys")
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first observer: %v", err)
	}
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer on same registry: %v", err)
	}

	// Must not panic and must record through the reused collectors.
	obs.observe("answer", time.Now(), nil)
	obs.observe("answer", time.Now(), errors.New("boom"))
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("answer", time.Now(), nil)
}

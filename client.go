package gani

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ganeshmamidipalli/GANI/internal/db"
	dbRedis "github.com/ganeshmamidipalli/GANI/internal/db/redis"
	"github.com/ganeshmamidipalli/GANI/internal/domain"
	sessionrepo "github.com/ganeshmamidipalli/GANI/internal/repository/session"
	snippetsrepo "github.com/ganeshmamidipalli/GANI/internal/repository/snippets"
	openaiProv "github.com/ganeshmamidipalli/GANI/internal/transport/openai"
	answeruc "github.com/ganeshmamidipalli/GANI/internal/usecase/answer"
	"github.com/ganeshmamidipalli/GANI/internal/usecase/contextpack"
	healthuc "github.com/ganeshmamidipalli/GANI/internal/usecase/health"
	intentuc "github.com/ganeshmamidipalli/GANI/internal/usecase/intent"
	retrievaluc "github.com/ganeshmamidipalli/GANI/internal/usecase/retrieval"
	statsuc "github.com/ganeshmamidipalli/GANI/internal/usecase/stats"
	"github.com/ganeshmamidipalli/GANI/internal/usecase/verify"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "gani:"
	defaultSessionTTL       = time.Hour
	openRouterBaseURL       = "https://openrouter.ai/api/v1"
)

// Internal interfaces so tests can substitute the wired services.
type answerUseCase interface {
	Answer(ctx context.Context, q domain.Question, sessionKey string) domain.Answer
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type statsUseCase interface {
	Report(ctx context.Context) (statsuc.Report, error)
}

// Client is the GANI pipeline entry point.
type Client struct {
	store     db.Store
	answerSvc answerUseCase
	healthSvc healthUseCase
	statsSvc  statsUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:  defaultKeyPrefix,
		sessionTTL: defaultSessionTTL,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("gani: database address required (use WithRedis)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("gani: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("gani: create redis store: %w", err)
	}
	return s, nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	embCfg := domain.DefaultEmbeddingConfig()
	genCfg := domain.DefaultGenerationConfig()
	retCfg := domain.DefaultRetrievalConfig()
	weights := domain.DefaultNamespaceWeights()

	// Internal services log through zap; the client's own observability is
	// the slog observer, so the pipeline gets a nop logger.
	zlog := zap.NewNop()

	embedder, embHealth := buildEmbedder(cfg, embCfg)
	generator, genHealth := buildGenerator(cfg, genCfg)

	snippetRepo := snippetsrepo.New(store, cfg.keyPrefix)
	retriever := retrievaluc.New(snippetRepo, embedder, weights, retCfg.TopKPerNamespace, zlog)
	packer := contextpack.New(retCfg.CharBudget, retCfg.SnippetCharLimit)
	verifier := verify.New(domain.DefaultVerifyConfig())

	var sessions answeruc.SessionStore
	if cfg.memorySessions {
		sessions = sessionrepo.NewMemory(cfg.sessionTTL)
	} else {
		sessions = sessionrepo.NewRedis(store, cfg.keyPrefix, cfg.sessionTTL)
	}

	answers := answeruc.New(intentuc.New(nil), retriever, packer, generator, verifier, sessions, zlog).
		WithKContext(cfg.kContext).
		WithSystemPrompt(cfg.systemPrompt)

	kContext := retCfg.KContext
	if cfg.kContext > 0 {
		kContext = cfg.kContext
	}
	statsSvc := statsuc.New(snippetRepo, nil, statsuc.ConfigSnapshot{
		EmbeddingModel:  embeddingModelLabel(cfg, embCfg),
		GenerationModel: generationModel(cfg, genCfg),
		KContext:        kContext,
		Namespaces:      weights.AllNamespaces(),
	})

	return &Client{
		store:     store,
		answerSvc: answers,
		healthSvc: healthuc.New(store, embHealth, genHealth),
		statsSvc:  statsSvc,
		obs:       obs,
	}
}

// buildEmbedder assembles the query embedding chain. A custom Embedder wins
// over the provider settings; with neither, a noop that fails on use keeps
// the pipeline in permanent degraded mode. The BGE retrieval instruction
// wraps whichever base is chosen.
func buildEmbedder(cfg *clientConfig, embCfg domain.EmbeddingConfig) (domain.Embedder, healthuc.Checker) {
	var base domain.Embedder
	var health healthuc.Checker

	switch {
	case cfg.embedder != nil:
		base = &embedderAdapter{inner: cfg.embedder}
	case cfg.embeddingBaseURL != "":
		p := openaiProv.NewEmbedder(&openaiProv.EmbedderConfig{
			APIKey:     cfg.embeddingAPIKey,
			BaseURL:    cfg.embeddingBaseURL,
			Model:      embCfg.Model,
			Dimensions: embCfg.Dimensions,
			Provider:   "embedding",
		})
		base = p
		health = p
	default:
		base = noopEmbedder{}
	}

	return domain.NewInstructionEmbedder(base, embCfg.QueryInstruction), health
}

// buildGenerator picks the completion provider: OpenRouter when a key is
// set, otherwise a noop that fails on use.
func buildGenerator(cfg *clientConfig, genCfg domain.GenerationConfig) (domain.Generator, healthuc.Checker) {
	if cfg.openRouterKey == "" {
		return noopGenerator{}, nil
	}

	p := openaiProv.NewGenerator(&openaiProv.GeneratorConfig{
		APIKey:      cfg.openRouterKey,
		BaseURL:     openRouterBaseURL,
		Model:       generationModel(cfg, genCfg),
		Temperature: genCfg.Temperature,
		TopP:        genCfg.TopP,
		MaxTokens:   genCfg.MaxTokens,
		Timeout:     genCfg.Timeout,
	})
	return p, p
}

func embeddingModelLabel(cfg *clientConfig, embCfg domain.EmbeddingConfig) string {
	if cfg.embedder != nil {
		return "custom"
	}
	return embCfg.Model
}

func generationModel(cfg *clientConfig, genCfg domain.GenerationConfig) string {
	if cfg.generationModel != "" {
		return cfg.generationModel
	}
	return genCfg.Model
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Answer runs the question pipeline. The session key groups follow-up
// questions into one conversation; any stable caller identity works. The
// only error is ErrEmptyQuestion; provider failures come back as a degraded
// answer instead.
func (c *Client) Answer(ctx context.Context, question, sessionKey string) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("answer", start, err) }()

	q := domain.NewQuestion(question)
	if q.IsEmpty() {
		return Answer{}, ErrEmptyQuestion
	}

	return answerFromDomain(c.answerSvc.Answer(ctx, q, sessionKey)), nil
}

// SessionKey derives the deterministic session key the HTTP API uses for a
// caller, letting SDK and API traffic share conversations.
func SessionKey(ip, userAgent string) string {
	return domain.SessionKey(ip, userAgent)
}

// Health checks the health of all configured components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	defer func() { c.obs.observe("health", start, nil) }()

	return healthFromReport(c.healthSvc.Check(ctx))
}

// Stats reports per-namespace snippet counts and the effective configuration.
func (c *Client) Stats(ctx context.Context) (st Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	report, err := c.statsSvc.Report(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return statsFromReport(report), nil
}

// embedderAdapter wraps the public Embedder to satisfy internal
// domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder fails on use (no embedding provider configured). The
// pipeline absorbs the failure into degraded answers.
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"%w: embedder not configured (use WithEmbeddingProvider or WithEmbedder)",
		domain.ErrEmbeddingUnavailable,
	)
}

// noopGenerator fails on use (no OpenRouter key configured).
type noopGenerator struct{}

func (noopGenerator) Generate(_ context.Context, _ domain.GenerationRequest) (domain.GenerationResult, error) {
	return domain.GenerationResult{}, fmt.Errorf(
		"%w: generator not configured (use WithOpenRouterKey)",
		domain.ErrGenerationUnavailable,
	)
}

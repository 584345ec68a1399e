package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ganeshmamidipalli/GANI/internal/config"
	"github.com/ganeshmamidipalli/GANI/internal/db"
	dbRedis "github.com/ganeshmamidipalli/GANI/internal/db/redis"
	"github.com/ganeshmamidipalli/GANI/internal/domain"
	logpkg "github.com/ganeshmamidipalli/GANI/internal/logger"
	"github.com/ganeshmamidipalli/GANI/internal/metrics"
	budgetrepo "github.com/ganeshmamidipalli/GANI/internal/repository/budget"
	"github.com/ganeshmamidipalli/GANI/internal/repository/embcache"
	sessionrepo "github.com/ganeshmamidipalli/GANI/internal/repository/session"
	snippetsrepo "github.com/ganeshmamidipalli/GANI/internal/repository/snippets"
	chiTransport "github.com/ganeshmamidipalli/GANI/internal/transport/chi"
	openaiProv "github.com/ganeshmamidipalli/GANI/internal/transport/openai"
	answeruc "github.com/ganeshmamidipalli/GANI/internal/usecase/answer"
	"github.com/ganeshmamidipalli/GANI/internal/usecase/contextpack"
	healthuc "github.com/ganeshmamidipalli/GANI/internal/usecase/health"
	intentuc "github.com/ganeshmamidipalli/GANI/internal/usecase/intent"
	"github.com/ganeshmamidipalli/GANI/internal/usecase/llm"
	retrievaluc "github.com/ganeshmamidipalli/GANI/internal/usecase/retrieval"
	statsuc "github.com/ganeshmamidipalli/GANI/internal/usecase/stats"
	"github.com/ganeshmamidipalli/GANI/internal/usecase/verify"
	"github.com/ganeshmamidipalli/GANI/internal/version"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting GANI API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// One BudgetTracker per provider path, shared with the stats service.
	embBudget := newBudgetTracker(ctx, "embedding", cfg.Embedding.Budget, cfg.Storage.KeyPrefix, store, logger)
	genBudget := newBudgetTracker(ctx, "generation", cfg.Generation.Budget, cfg.Storage.KeyPrefix, store, logger)

	// The base providers stay in scope for the health service; the
	// decorator chains built around them do not forward HealthCheck.
	baseEmbedder := openaiProv.NewEmbedder(&openaiProv.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "embedding",
	})
	queryEmbedder := buildQueryEmbedder(baseEmbedder, cfg, store, budgetChecker(embBudget), logger)
	logger.Info("Query embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	baseGenerator := openaiProv.NewGenerator(&openaiProv.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		TopP:        cfg.Generation.TopP,
		MaxTokens:   cfg.Generation.MaxTokens,
		Timeout:     time.Duration(cfg.Generation.TimeoutSec) * time.Second,
	})
	generator := llm.NewInstrumentedGenerator(
		baseGenerator, "generation", cfg.Generation.Model, budgetChecker(genBudget), logger,
	)
	logger.Info("Generator created", zap.String("model", cfg.Generation.Model))

	// Weight table and intent priority were validated at load time.
	weights, err := cfg.NamespaceWeights()
	if err != nil {
		logger.Fatal("Invalid weight table", zap.Error(err))
	}
	priority, err := cfg.IntentPriority()
	if err != nil {
		logger.Fatal("Invalid intent priority", zap.Error(err))
	}

	snippetRepo := snippetsrepo.New(store, cfg.Storage.KeyPrefix)
	sessions := newSessionStore(cfg, store)

	classifier := intentuc.New(priority)
	retriever := retrievaluc.New(snippetRepo, queryEmbedder, weights, cfg.Retrieval.TopKPerNamespace, logger)
	packer := contextpack.New(cfg.Retrieval.CharBudget, cfg.Retrieval.SnippetCharLimit)
	verifier := verify.New(domain.VerifyConfig{
		OverlapThreshold:   cfg.Verify.OverlapThreshold,
		UnsupportedPenalty: cfg.Verify.UnsupportedPenalty,
		UngroundedWeight:   cfg.Verify.UngroundedWeight,
		ModelHint:          cfg.Verify.ModelHint,
		ModelHintWeight:    cfg.Verify.ModelHintWeight,
	})

	answers := answeruc.New(classifier, retriever, packer, generator, verifier, sessions, logger).
		WithKContext(cfg.Retrieval.KContext).
		WithSystemPrompt(systemPrompt(cfg, logger))

	healthSvc := healthuc.New(store, baseEmbedder, baseGenerator)

	var budgets []statsuc.BudgetReader
	if embBudget != nil {
		budgets = append(budgets, embBudget)
	}
	if genBudget != nil {
		budgets = append(budgets, genBudget)
	}
	statsSvc := statsuc.New(snippetRepo, budgets, statsuc.ConfigSnapshot{
		EmbeddingModel:  cfg.Embedding.Model,
		GenerationModel: cfg.Generation.Model,
		KContext:        cfg.Retrieval.KContext,
		Namespaces:      weights.AllNamespaces(),
	})

	server := chiTransport.NewServer(answers, healthSvc, statsSvc, logger)

	r := chi.NewRouter()
	r.Use(recoverJSON(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLog(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newBudgetTracker builds one provider budget tracker, or nil when no limit
// is configured. Persistence loads current counters from the store.
func newBudgetTracker(
	ctx context.Context,
	provider string,
	bc config.BudgetConfig,
	keyPrefix string,
	store db.Store,
	logger *zap.Logger,
) *llm.BudgetTracker {
	if bc.DailyTokenLimit <= 0 && bc.MonthlyTokenLimit <= 0 {
		return nil
	}

	action := llm.BudgetActionWarn
	if bc.Action == "reject" {
		action = llm.BudgetActionReject
	}

	tracker := llm.NewBudgetTracker(
		provider, keyPrefix, bc.DailyTokenLimit, bc.MonthlyTokenLimit, action, logger,
	)
	return tracker.WithStore(ctx, budgetrepo.New(store))
}

// budgetChecker narrows an optional tracker to the checker interface.
// A nil *BudgetTracker must become a nil interface here, or the
// decorators would see a non-nil checker backed by a nil pointer.
func budgetChecker(b *llm.BudgetTracker) llm.BudgetChecker {
	if b == nil {
		return nil
	}
	return b
}

// buildQueryEmbedder assembles the decorator chain: OpenAI -> Cached ->
// Instrumented -> Instruction. The instruction goes outermost so the cache
// key includes it.
func buildQueryEmbedder(
	base domain.Embedder,
	cfg config.Config,
	store db.Store,
	budget llm.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, cfg.Storage.KeyPrefix, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = llm.NewInstrumentedEmbedder(embedder, "embedding", cfg.Embedding.Model, budget, logger)

	if instruction := cfg.Embedding.QueryInstruction; instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// newSessionStore picks the session backend. Redis keeps sessions across
// restarts; memory is for single-instance local runs.
func newSessionStore(cfg config.Config, store db.Store) answeruc.SessionStore {
	ttl := time.Duration(cfg.Session.TTLSec) * time.Second
	if cfg.Session.Backend == "memory" {
		return sessionrepo.NewMemory(ttl)
	}
	return sessionrepo.NewRedis(store, cfg.Storage.KeyPrefix, ttl)
}

// systemPrompt resolves the persona prompt: inline config wins, then the
// prompt file, then the built-in default.
func systemPrompt(cfg config.Config, logger *zap.Logger) string {
	if cfg.Generation.SystemPrompt != "" {
		return cfg.Generation.SystemPrompt
	}
	if cfg.Generation.SystemPromptFile == "" {
		return ""
	}

	data, err := os.ReadFile(cfg.Generation.SystemPromptFile)
	if err != nil {
		logger.Warn("Failed to read system prompt file, using default",
			zap.String("path", cfg.Generation.SystemPromptFile), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(string(data))
}

// recoverJSON converts handler panics into JSON 500 responses; the stock
// chi recoverer prints a text stacktrace, which API clients cannot parse.
func recoverJSON(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					// net/http expects this one to keep propagating.
					panic(rvr)
				}
				logger.Error("Panic recovered", zap.Any("panic", rvr), zap.Stack("stacktrace"))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    "internal_error",
					"message": "internal error",
				})
			}()
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// requestLog echoes X-Request-ID back to the caller, hangs a
// request-scoped logger on the context, and emits one canonical line
// when the handler returns.
func requestLog(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := chiMiddleware.GetReqID(r.Context())
			if id != "" {
				w.Header().Set("X-Request-ID", id)
			}
			reqLogger := logger.With(zap.String("request_id", id))

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logpkg.ContextWithLogger(r.Context(), reqLogger)))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		}
		return http.HandlerFunc(fn)
	}
}

package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
	"github.com/ganeshmamidipalli/GANI/internal/metrics"
)

// DefaultMaxAPIBatchSize caps how many texts go into one embedding API request.
const DefaultMaxAPIBatchSize = 256

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// budgetGate is the budget-and-logging half shared by the embedder and
// generator decorators. A nil budget disables enforcement.
type budgetGate struct {
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// admit enforces the budget before a provider call.
func (g *budgetGate) admit(ctx context.Context) error {
	if g.budget == nil {
		return nil
	}
	if err := g.budget.Check(ctx); err != nil {
		g.logger.Error("Budget exceeded",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Error(err),
		)
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

// settle records spent tokens and refreshes the remaining-budget gauges.
func (g *budgetGate) settle(tokens int) {
	if g.budget == nil || tokens <= 0 {
		return
	}
	g.budget.Record(int64(tokens))
	setRemainingGauges(g.provider, g.budget)
}

func setRemainingGauges(provider string, budget BudgetChecker) {
	remaining := metrics.BudgetTokensRemaining
	remaining.WithLabelValues(provider, "daily").Set(float64(budget.RemainingDaily()))
	remaining.WithLabelValues(provider, "monthly").Set(float64(budget.RemainingMonthly()))
}

// InstrumentedEmbedder wraps an Embedder with budget enforcement and
// logging. Transport metrics (requests, duration, tokens) live in
// transport/openai; this layer owns the budget side only.
type InstrumentedEmbedder struct {
	budgetGate
	inner domain.Embedder
}

// NewInstrumentedEmbedder wraps an embedder with budget and observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		budgetGate: budgetGate{provider: provider, model: model, budget: budget, logger: logger},
		inner:      inner,
	}
}

// Embed checks the budget, delegates, and records what the call consumed.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := p.admit(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.settle(result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// BatchEmbed slices the batch into provider-sized chunks, re-checking the
// budget before every chunk after the first so one oversized batch cannot
// run far past the cap.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if err := p.admit(ctx); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	start := time.Now()
	var out domain.BatchEmbeddingResult
	for offset := 0; offset < len(texts); offset += DefaultMaxAPIBatchSize {
		if offset > 0 {
			if err := p.admit(ctx); err != nil {
				return domain.BatchEmbeddingResult{}, fmt.Errorf("chunk at %d: %w", offset, err)
			}
		}

		chunk := texts[offset:min(offset+DefaultMaxAPIBatchSize, len(texts))]
		res, err := p.vectorize(ctx, chunk)
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}

		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	p.settle(out.TotalTokens)

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Int("total_tokens", out.TotalTokens),
	)
	return out, nil
}

// vectorize hands one chunk to the inner embedder, per-text when it has no
// batch support.
func (p *InstrumentedEmbedder) vectorize(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := p.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, p.inner, texts)
}

package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// InstrumentedGenerator wraps a Generator with budget enforcement and
// logging, mirroring InstrumentedEmbedder on the generation path.
type InstrumentedGenerator struct {
	budgetGate
	inner domain.Generator
}

// NewInstrumentedGenerator wraps a generator with budget and observability.
func NewInstrumentedGenerator(
	inner domain.Generator, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedGenerator {
	return &InstrumentedGenerator{
		budgetGate: budgetGate{provider: provider, model: model, budget: budget, logger: logger},
		inner:      inner,
	}
}

// Generate checks the budget, delegates, and records what the call consumed.
func (g *InstrumentedGenerator) Generate(
	ctx context.Context, req domain.GenerationRequest,
) (domain.GenerationResult, error) {
	if err := g.admit(ctx); err != nil {
		return domain.GenerationResult{}, err
	}

	start := time.Now()
	result, err := g.inner.Generate(ctx, req)
	if err != nil {
		g.logger.Error("Generation request failed",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}

	g.settle(result.TotalTokens)

	g.logger.Debug("Generation request completed",
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

package gani

import (
	"context"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
	healthuc "github.com/ganeshmamidipalli/GANI/internal/usecase/health"
	statsuc "github.com/ganeshmamidipalli/GANI/internal/usecase/stats"
)

// --- public Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- answerUseCase mock ---

type mockAnswerUC struct {
	fn func(ctx context.Context, q domain.Question, sessionKey string) domain.Answer
}

func (m *mockAnswerUC) Answer(ctx context.Context, q domain.Question, sessionKey string) domain.Answer {
	return m.fn(ctx, q, sessionKey)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	fn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.fn(ctx)
}

// --- statsUseCase mock ---

type mockStatsUC struct {
	fn func(ctx context.Context) (statsuc.Report, error)
}

func (m *mockStatsUC) Report(ctx context.Context) (statsuc.Report, error) {
	return m.fn(ctx)
}

package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
	"github.com/ganeshmamidipalli/GANI/internal/metrics"
)

// Service retrieves ranked context snippets for a classified question.
// Namespaces are queried concurrently; per-namespace failures degrade the
// result instead of failing the request.
type Service struct {
	repo    Repository
	embed   Embedder
	weights domain.NamespaceWeights
	topK    int
	logger  *zap.Logger
}

// New creates a retrieval service. topK is the per-namespace candidate count
// before merge and dedup.
func New(
	repo Repository, embed Embedder,
	weights domain.NamespaceWeights, topK int, logger *zap.Logger,
) *Service {
	return &Service{
		repo:    repo,
		embed:   embed,
		weights: weights,
		topK:    topK,
		logger:  logger,
	}
}

// Retrieve embeds the question, fans out across the intent's namespaces,
// merges the weighted hits, and returns at most k deduplicated snippets in
// final ranking order. Embedding failure and all-namespace failure surface
// as ErrRetrievalUnavailable; anything less degrades partially.
func (s *Service) Retrieve(
	ctx context.Context, q domain.Question, intent domain.Intent, k int,
) ([]domain.Snippet, error) {
	start := time.Now()

	embResult, err := s.embed.Embed(ctx, q.Raw())
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %w", domain.ErrRetrievalUnavailable, err)
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(embResult.TotalTokens)

	namespaces := s.weights.Namespaces(intent)
	if len(namespaces) == 0 {
		return []domain.Snippet{}, nil
	}

	perNamespace, errs := s.fanOut(ctx, namespaces, embResult.Embedding)

	if failed := errors.Join(errs...); failed != nil && allFailed(errs) {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, failed)
	}

	merged := dedupe(flatten(perNamespace))
	s.sortSnippets(merged, intent)
	if len(merged) > k {
		merged = merged[:k]
	}

	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	metrics.SnippetsRetrieved.Observe(float64(len(merged)))

	s.logger.Debug("Retrieval completed",
		zap.String("intent", intent.String()),
		zap.Int("namespaces", len(namespaces)),
		zap.Int("snippets", len(merged)),
		zap.Duration("duration", time.Since(start)),
	)

	return merged, nil
}

// fanOut queries every weighted namespace concurrently. Result slots are
// index-addressed so arrival order cannot affect the merge.
func (s *Service) fanOut(
	ctx context.Context, namespaces []domain.NamespaceWeight, vector []float32,
) ([][]domain.Snippet, []error) {
	perNamespace := make([][]domain.Snippet, len(namespaces))
	errs := make([]error, len(namespaces))

	var wg sync.WaitGroup
	for i, nw := range namespaces {
		wg.Add(1)
		go func(i int, nw domain.NamespaceWeight) {
			defer wg.Done()

			hits, err := s.repo.Search(ctx, nw.Name, vector, s.topK)
			if err != nil {
				errs[i] = domain.NewNamespaceError(nw.Name, err)
				metrics.NamespaceFailuresTotal.WithLabelValues(nw.Name).Inc()
				s.logger.Warn("Namespace query failed",
					zap.String("namespace", nw.Name),
					zap.Error(err),
				)
				return
			}

			weighted := make([]domain.Snippet, len(hits))
			for j := range hits {
				weighted[j] = hits[j].Weighted(nw.Weight)
			}
			perNamespace[i] = weighted
		}(i, nw)
	}
	wg.Wait()

	return perNamespace, errs
}

func allFailed(errs []error) bool {
	for _, err := range errs {
		if err == nil {
			return false
		}
	}
	return true
}

func flatten(perNamespace [][]domain.Snippet) []domain.Snippet {
	var pool []domain.Snippet
	for _, hits := range perNamespace {
		pool = append(pool, hits...)
	}
	return pool
}

// dedupe collapses near-duplicates by DedupKey, keeping the highest weighted
// score per key. Survivors stay in first-seen order; final order comes from
// the sort that follows.
func dedupe(pool []domain.Snippet) []domain.Snippet {
	survivors := make([]domain.Snippet, 0, len(pool))
	byKey := make(map[string]int, len(pool))

	for _, sn := range pool {
		key := sn.DedupKey()
		if at, seen := byKey[key]; seen {
			if sn.WeightedScore() > survivors[at].WeightedScore() {
				survivors[at] = sn
			}
			continue
		}
		byKey[key] = len(survivors)
		survivors = append(survivors, sn)
	}

	return survivors
}

// sortSnippets orders by weighted score descending, then namespace priority
// for the intent, then the namespace-local rank.
func (s *Service) sortSnippets(snippets []domain.Snippet, intent domain.Intent) {
	sort.Slice(snippets, func(i, j int) bool {
		a, b := &snippets[i], &snippets[j]
		if a.WeightedScore() != b.WeightedScore() {
			return a.WeightedScore() > b.WeightedScore()
		}
		pa := s.weights.Priority(intent, a.Namespace())
		pb := s.weights.Priority(intent, b.Namespace())
		if pa != pb {
			return pa < pb
		}
		return a.Rank() < b.Rank()
	})
}

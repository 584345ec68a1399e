package stats

import (
	"context"
	"fmt"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// ConfigSnapshot is the read-only configuration slice exposed by the stats
// endpoint.
type ConfigSnapshot struct {
	EmbeddingModel  string   `json:"embedding_model"`
	GenerationModel string   `json:"generation_model"`
	KContext        int      `json:"k_context"`
	Namespaces      []string `json:"namespaces"`
}

// NamespaceCount is one namespace's stored snippet count.
type NamespaceCount struct {
	Namespace string `json:"namespace"`
	Snippets  int    `json:"snippets"`
}

// BudgetStatus is one provider's token budget state. Limits of 0 mean
// unlimited; remaining is -1 when unlimited.
type BudgetStatus struct {
	Provider         string `json:"provider"`
	DailyLimit       int64  `json:"daily_limit"`
	DailyUsed        int64  `json:"daily_used"`
	RemainingDaily   int64  `json:"remaining_daily"`
	MonthlyLimit     int64  `json:"monthly_limit"`
	MonthlyUsed      int64  `json:"monthly_used"`
	RemainingMonthly int64  `json:"remaining_monthly"`
}

// Report aggregates the service's operational statistics.
type Report struct {
	Namespaces []NamespaceCount `json:"namespaces"`
	Budgets    []BudgetStatus   `json:"budgets,omitempty"`
	Config     ConfigSnapshot   `json:"config"`
}

// Service builds operational statistics reports.
type Service struct {
	counts   NamespaceCounter
	budgets  []BudgetReader
	snapshot ConfigSnapshot
}

// New creates a Service. budgets may be empty when running unlimited.
func New(counts NamespaceCounter, budgets []BudgetReader, snapshot ConfigSnapshot) *Service {
	return &Service{counts: counts, budgets: budgets, snapshot: snapshot}
}

// Report counts stored snippets per configured namespace and snapshots every
// provider budget. Counting keeps the configured namespace order.
func (s *Service) Report(ctx context.Context) (Report, error) {
	counts := make([]NamespaceCount, 0, len(s.snapshot.Namespaces))
	for _, ns := range s.snapshot.Namespaces {
		n, err := s.counts.Count(ctx, ns)
		if err != nil {
			return Report{}, fmt.Errorf("%w: count %s: %w", domain.ErrNamespaceUnavailable, ns, err)
		}
		counts = append(counts, NamespaceCount{Namespace: ns, Snippets: n})
	}

	budgets := make([]BudgetStatus, 0, len(s.budgets))
	for _, br := range s.budgets {
		if br == nil {
			continue
		}
		budgets = append(budgets, BudgetStatus{
			Provider:         br.Provider(),
			DailyLimit:       br.DailyLimit(),
			DailyUsed:        br.DailyUsed(),
			RemainingDaily:   br.RemainingDaily(),
			MonthlyLimit:     br.MonthlyLimit(),
			MonthlyUsed:      br.MonthlyUsed(),
			RemainingMonthly: br.RemainingMonthly(),
		})
	}

	return Report{Namespaces: counts, Budgets: budgets, Config: s.snapshot}, nil
}

package gani

import (
	"github.com/ganeshmamidipalli/GANI/internal/domain"
	healthuc "github.com/ganeshmamidipalli/GANI/internal/usecase/health"
	statsuc "github.com/ganeshmamidipalli/GANI/internal/usecase/stats"
)

// Answer is the pipeline's final product for one question. It mirrors the
// HTTP chat response.
type Answer struct {
	ID         string
	Short      string
	Expanded   string
	Citations  []Citation
	Confidence float64
	Intent     string
	SessionID  string

	// Degraded is true when retrieval or generation was unavailable and the
	// fixed fallback texts were served.
	Degraded bool
}

// Citation points one bracketed context marker at its source.
type Citation struct {
	Index   int
	URL     string
	Section string
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}

// Stats aggregates operational statistics, mirroring the HTTP stats response.
type Stats struct {
	Namespaces []NamespaceCount
	Budgets    []BudgetStatus
	Config     ConfigSummary
}

// NamespaceCount is one namespace's stored snippet count.
type NamespaceCount struct {
	Namespace string
	Snippets  int
}

// BudgetStatus is one provider's token budget state. Limits of 0 mean
// unlimited; remaining is -1 when unlimited.
type BudgetStatus struct {
	Provider         string
	DailyLimit       int64
	DailyUsed        int64
	RemainingDaily   int64
	MonthlyLimit     int64
	MonthlyUsed      int64
	RemainingMonthly int64
}

// ConfigSummary is the read-only configuration slice reported by Stats.
type ConfigSummary struct {
	EmbeddingModel  string
	GenerationModel string
	KContext        int
	Namespaces      []string
}

func answerFromDomain(a domain.Answer) Answer {
	citations := make([]Citation, len(a.Citations))
	for i, c := range a.Citations {
		citations[i] = Citation{Index: c.Index, URL: c.URL, Section: c.Section}
	}
	return Answer{
		ID:         a.ID,
		Short:      a.Short,
		Expanded:   a.Expanded,
		Citations:  citations,
		Confidence: a.Confidence,
		Intent:     a.Intent.String(),
		SessionID:  a.SessionKey,
		Degraded:   a.Degraded,
	}
}

func healthFromReport(r healthuc.Report) HealthStatus {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(r.Status), Checks: checks}
}

func statsFromReport(r statsuc.Report) Stats {
	namespaces := make([]NamespaceCount, len(r.Namespaces))
	for i, n := range r.Namespaces {
		namespaces[i] = NamespaceCount{Namespace: n.Namespace, Snippets: n.Snippets}
	}
	budgets := make([]BudgetStatus, len(r.Budgets))
	for i, b := range r.Budgets {
		budgets[i] = BudgetStatus{
			Provider:         b.Provider,
			DailyLimit:       b.DailyLimit,
			DailyUsed:        b.DailyUsed,
			RemainingDaily:   b.RemainingDaily,
			MonthlyLimit:     b.MonthlyLimit,
			MonthlyUsed:      b.MonthlyUsed,
			RemainingMonthly: b.RemainingMonthly,
		}
	}
	return Stats{
		Namespaces: namespaces,
		Budgets:    budgets,
		Config: ConfigSummary{
			EmbeddingModel:  r.Config.EmbeddingModel,
			GenerationModel: r.Config.GenerationModel,
			KContext:        r.Config.KContext,
			Namespaces:      r.Config.Namespaces,
		},
	}
}

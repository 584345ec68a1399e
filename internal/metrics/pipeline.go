package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Question pipeline metrics, covering retrieval, generation and the
// shared token budget.
var (
	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gani",
			Name:      "questions_total",
			Help:      "Total questions answered, by routed intent and outcome",
		},
		[]string{"intent", "outcome"}, // outcome: "ok" / "degraded"
	)

	RetrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gani",
			Name:      "retrieval_duration_seconds",
			Help:      "Full retrieval fan-out duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	NamespaceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gani",
			Name:      "namespace_failures_total",
			Help:      "Vector store query failures, by namespace",
		},
		[]string{"namespace"},
	)

	SnippetsRetrieved = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gani",
			Name:      "snippets_retrieved",
			Help:      "Snippets surviving merge and dedup per question",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 8, 10, 12},
		},
	)

	AnswerConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gani",
			Name:      "answer_confidence",
			Help:      "Verified confidence of delivered answers",
			Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gani",
			Name:      "generation_requests_total",
			Help:      "Total completion requests",
		},
		[]string{"model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gani",
			Name:      "generation_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gani",
			Name:      "generation_tokens_total",
			Help:      "Total completion tokens consumed",
		},
		[]string{"model", "type"}, // type: "prompt" / "completion"
	)

	BudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gani",
			Name:      "budget_tokens_remaining",
			Help:      "Remaining shared token budget",
		},
		[]string{"provider", "period"},
	)
)

var registerPipelineOnce sync.Once

// RegisterPipelineMetrics puts the pipeline metric set on the default
// registry. Repeat calls are no-ops.
func RegisterPipelineMetrics() {
	registerPipelineOnce.Do(func() {
		prometheus.MustRegister(
			QuestionsTotal,
			RetrievalDuration,
			NamespaceFailuresTotal,
			SnippetsRetrieved,
			AnswerConfidence,
			GenerationRequestsTotal,
			GenerationRequestDuration,
			GenerationTokensTotal,
			BudgetTokensRemaining,
		)
	})
}

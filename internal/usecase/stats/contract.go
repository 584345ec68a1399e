package stats

import "context"

// NamespaceCounter reports how many snippets a namespace holds.
type NamespaceCounter interface {
	Count(ctx context.Context, namespace string) (int, error)
}

// BudgetReader provides read-only access to one provider's token budget.
type BudgetReader interface {
	Provider() string
	DailyLimit() int64
	MonthlyLimit() int64
	DailyUsed() int64
	MonthlyUsed() int64
	RemainingDaily() int64
	RemainingMonthly() int64
}

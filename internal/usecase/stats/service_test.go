package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// --- Mocks ---

type mockCounter struct {
	counts map[string]int
	err    error
}

func (m *mockCounter) Count(_ context.Context, namespace string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[namespace], nil
}

type mockBudget struct {
	provider              string
	dailyLimit, dailyUsed int64
	monthLimit, monthUsed int64
	remDaily, remMonthly  int64
}

func (m *mockBudget) Provider() string        { return m.provider }
func (m *mockBudget) DailyLimit() int64       { return m.dailyLimit }
func (m *mockBudget) MonthlyLimit() int64     { return m.monthLimit }
func (m *mockBudget) DailyUsed() int64        { return m.dailyUsed }
func (m *mockBudget) MonthlyUsed() int64      { return m.monthUsed }
func (m *mockBudget) RemainingDaily() int64   { return m.remDaily }
func (m *mockBudget) RemainingMonthly() int64 { return m.remMonthly }

func testSnapshot() ConfigSnapshot {
	return ConfigSnapshot{
		EmbeddingModel:  "BAAI/bge-large-en-v1.5",
		GenerationModel: "openai/gpt-oss-20b",
		KContext:        6,
		Namespaces:      []string{"medium", "personal", "website"},
	}
}

// --- Tests ---

func TestReport_CountsNamespacesInConfiguredOrder(t *testing.T) {
	counter := &mockCounter{counts: map[string]int{"personal": 120, "website": 85, "medium": 14}}
	svc := New(counter, nil, testSnapshot())

	r, err := svc.Report(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []NamespaceCount{
		{Namespace: "medium", Snippets: 14},
		{Namespace: "personal", Snippets: 120},
		{Namespace: "website", Snippets: 85},
	}
	if len(r.Namespaces) != len(want) {
		t.Fatalf("got %d namespace counts, want %d", len(r.Namespaces), len(want))
	}
	for i := range want {
		if r.Namespaces[i] != want[i] {
			t.Errorf("Namespaces[%d] = %+v, want %+v", i, r.Namespaces[i], want[i])
		}
	}
	if r.Config.GenerationModel != "openai/gpt-oss-20b" {
		t.Errorf("Config = %+v", r.Config)
	}
}

func TestReport_CountErrorFailsReport(t *testing.T) {
	counter := &mockCounter{err: errors.New("index missing")}
	svc := New(counter, nil, testSnapshot())

	_, err := svc.Report(context.Background())
	if err == nil {
		t.Fatal("expected error when a namespace count fails")
	}
	if !errors.Is(err, domain.ErrNamespaceUnavailable) {
		t.Fatalf("expected ErrNamespaceUnavailable, got %v", err)
	}
}

func TestReport_IncludesProviderBudgets(t *testing.T) {
	counter := &mockCounter{counts: map[string]int{}}
	budgets := []BudgetReader{
		&mockBudget{provider: "embedding", dailyLimit: 100000, dailyUsed: 2500, remDaily: 97500, monthLimit: 0, remMonthly: -1},
		&mockBudget{provider: "generation", dailyLimit: 50000, dailyUsed: 50000, remDaily: 0, monthLimit: 900000, monthUsed: 61000, remMonthly: 839000},
	}
	svc := New(counter, budgets, testSnapshot())

	r, err := svc.Report(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(r.Budgets) != 2 {
		t.Fatalf("got %d budgets, want 2", len(r.Budgets))
	}
	if r.Budgets[0].Provider != "embedding" || r.Budgets[0].RemainingDaily != 97500 {
		t.Errorf("Budgets[0] = %+v", r.Budgets[0])
	}
	if r.Budgets[1].RemainingMonthly != 839000 {
		t.Errorf("Budgets[1] = %+v", r.Budgets[1])
	}
	if r.Budgets[0].RemainingMonthly != -1 {
		t.Errorf("unlimited monthly budget should report -1, got %d", r.Budgets[0].RemainingMonthly)
	}
}

func TestReport_NilBudgetsSkipped(t *testing.T) {
	counter := &mockCounter{counts: map[string]int{}}
	svc := New(counter, []BudgetReader{nil, &mockBudget{provider: "generation"}}, testSnapshot())

	r, err := svc.Report(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Budgets) != 1 || r.Budgets[0].Provider != "generation" {
		t.Errorf("Budgets = %+v, want only the generation entry", r.Budgets)
	}
}

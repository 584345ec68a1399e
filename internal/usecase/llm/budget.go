package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// BudgetAction defines behavior when token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore is the persistence interface for budget counters.
// Implementations must be idempotent (IncrBy can be called repeatedly).
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// budgetWindow is one rolling counter: usage since start against a limit,
// zeroed whenever trunc(now) moves past start.
type budgetWindow struct {
	used  int64
	limit int64
	start time.Time
	trunc func(time.Time) time.Time
}

func (w *budgetWindow) roll(now time.Time) {
	if s := w.trunc(now); s.After(w.start) {
		w.used = 0
		w.start = s
	}
}

func (w *budgetWindow) exceeded() bool {
	return w.limit > 0 && w.used >= w.limit
}

// remaining is -1 for an unlimited window, never negative otherwise.
func (w *budgetWindow) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	if r := w.limit - w.used; r > 0 {
		return r
	}
	return 0
}

// BudgetTracker guards one provider path (embedding or generation) with a
// daily and a monthly token window. Check stays in memory so the hot path
// never waits on the store; Record bumps the counters first and then
// writes behind to the store when one is attached.
type BudgetTracker struct {
	mu       sync.Mutex
	day      budgetWindow
	month    budgetWindow
	action   BudgetAction
	provider string

	keyPrefix string
	store     BudgetStore
	logger    *zap.Logger
}

// NewBudgetTracker creates a tracker with the given limits. A zero limit
// leaves that window unlimited.
func NewBudgetTracker(
	provider, keyPrefix string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	now := time.Now().UTC()
	return &BudgetTracker{
		day:       budgetWindow{limit: dailyLimit, start: startOfDay(now), trunc: startOfDay},
		month:     budgetWindow{limit: monthlyLimit, start: startOfMonth(now), trunc: startOfMonth},
		action:    action,
		provider:  provider,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// WithStore attaches a persistence store and loads the current counters,
// so budgets survive restarts.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.store = store

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC()
	for _, w := range []struct {
		window *budgetWindow
		key    string
	}{
		{&b.day, b.dailyKey(now)},
		{&b.month, b.monthlyKey(now)},
	} {
		val, err := store.Get(ctx, w.key)
		if err != nil {
			b.logger.Warn("Failed to load budget counter", zap.String("key", w.key), zap.Error(err))
			continue
		}
		w.window.used = val
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("monthly_used", b.month.used),
	)
	return b
}

// Provider returns the provider path this tracker guards.
func (b *BudgetTracker) Provider() string { return b.provider }

// Key patterns: gani:budget:{provider}:daily:YYYY-MM-DD, gani:budget:{provider}:monthly:YYYY-MM

func (b *BudgetTracker) dailyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", b.keyPrefix, b.provider, t.Format("2006-01-02"))
}

func (b *BudgetTracker) monthlyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", b.keyPrefix, b.provider, t.Format("2006-01"))
}

// Check verifies the budget allows a new request. In-memory only (hot path).
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollWindows()
	if !b.day.exceeded() && !b.month.exceeded() {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrTokenBudgetExceeded
	}

	// action=warn: log but allow the request through
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("daily_limit", b.day.limit),
		zap.Int64("monthly_used", b.month.used),
		zap.Int64("monthly_limit", b.month.limit),
	)
	return nil
}

// Record registers consumed tokens after a request completes.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.rollWindows()
	b.day.used += tokens
	b.month.used += tokens
	store := b.store
	now := time.Now().UTC()
	dailyKey := b.dailyKey(now)
	monthlyKey := b.monthlyKey(now)
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Write-behind on a detached context so a slow store never holds up
	// the answer path.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	persist := func(window, key string) {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist budget counter",
				zap.String("window", window), zap.String("key", key), zap.Error(err))
		}
	}
	persist("daily", dailyKey)
	persist("monthly", monthlyKey)
}

// RemainingDaily returns tokens left today, or -1 when unlimited.
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollWindows()
	return b.day.remaining()
}

// RemainingMonthly returns tokens left this month, or -1 when unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollWindows()
	return b.month.remaining()
}

// DailyLimit returns the daily token cap.
func (b *BudgetTracker) DailyLimit() int64 { return b.day.limit }

// MonthlyLimit returns the monthly token cap.
func (b *BudgetTracker) MonthlyLimit() int64 { return b.month.limit }

// DailyUsed returns tokens consumed today.
func (b *BudgetTracker) DailyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollWindows()
	return b.day.used
}

// MonthlyUsed returns tokens consumed this month.
func (b *BudgetTracker) MonthlyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollWindows()
	return b.month.used
}

func (b *BudgetTracker) rollWindows() {
	now := time.Now().UTC()
	b.day.roll(now)
	b.month.roll(now)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ganeshmamidipalli/GANI/internal/db"
)

// Key TTLs leave a safety margin past the period so counters survive restarts
// near a rollover but do not accumulate forever.
const (
	DefaultDailyTTL   = 48 * time.Hour
	DefaultMonthlyTTL = 62 * 24 * time.Hour
)

// counters is the slice of the database that budget accounting touches.
type counters interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store accumulates token usage in expiring counter keys, one per provider
// and period (gani:budget:{provider}:daily:... and :monthly:...).
type Store struct {
	kv      counters
	daily   time.Duration
	monthly time.Duration
}

// New creates a budget store with the default key TTLs.
func New(kv counters) *Store {
	return &Store{kv: kv, daily: DefaultDailyTTL, monthly: DefaultMonthlyTTL}
}

// WithTTLs overrides the daily and monthly key TTLs.
func (s *Store) WithTTLs(dailyTTL, monthTTL time.Duration) *Store {
	s.daily = dailyTTL
	s.monthly = monthTTL
	return s
}

// IncrBy adds val to the counter and arms its expiry. The NX flag leaves an
// already-armed expiry alone, so repeated increments within a period never
// push the deadline out.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.kv.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}
	if err := s.kv.Expire(ctx, key, s.expiry(key), true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

// Get reads a counter. A missing key reads as zero so a fresh period starts
// from nothing without any priming write.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	raw, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}

	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s parse: %w", key, err)
	}
	return n, nil
}

// expiry picks the TTL by period. Daily keys carry a ":daily:" segment,
// everything else counts as monthly.
func (s *Store) expiry(key string) time.Duration {
	if strings.Contains(key, ":daily:") {
		return s.daily
	}
	return s.monthly
}

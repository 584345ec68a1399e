package budget

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/ganeshmamidipalli/GANI/internal/db"
)

// fakeCounters records every call and answers from canned fields. A nil
// value makes Get behave like a missing key.
type fakeCounters struct {
	got     []string
	incrs   []string
	amounts []int64
	expires []time.Duration
	nxFlags []bool

	value   []byte
	getErr  error
	incrErr error
	expErr  error
}

func (f *fakeCounters) Get(_ context.Context, key string) ([]byte, error) {
	f.got = append(f.got, key)
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.value == nil {
		return nil, db.ErrKeyNotFound
	}
	return f.value, nil
}

func (f *fakeCounters) IncrBy(_ context.Context, key string, val int64) error {
	if f.incrErr != nil {
		return f.incrErr
	}
	f.incrs = append(f.incrs, key)
	f.amounts = append(f.amounts, val)
	return nil
}

func (f *fakeCounters) Expire(_ context.Context, _ string, ttl time.Duration, nx bool) error {
	if f.expErr != nil {
		return f.expErr
	}
	f.expires = append(f.expires, ttl)
	f.nxFlags = append(f.nxFlags, nx)
	return nil
}

func TestIncrByArmsExpiry(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		daily   time.Duration
		monthly time.Duration
		want    time.Duration
	}{
		{
			name: "daily key gets daily TTL",
			key:  "gani:budget:embedding:daily:2025-06-01",
			want: DefaultDailyTTL,
		},
		{
			name: "monthly key gets monthly TTL",
			key:  "gani:budget:generation:monthly:2025-06",
			want: DefaultMonthlyTTL,
		},
		{
			name:    "overridden TTLs win",
			key:     "gani:budget:embedding:daily:2025-06-01",
			daily:   time.Hour,
			monthly: 24 * time.Hour,
			want:    time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCounters{}
			s := New(fc)
			if tt.daily > 0 {
				s = s.WithTTLs(tt.daily, tt.monthly)
			}

			if err := s.IncrBy(context.Background(), tt.key, 42); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(fc.incrs, []string{tt.key}) {
				t.Errorf("unexpected INCRBY keys: %v", fc.incrs)
			}
			if !slices.Equal(fc.amounts, []int64{42}) {
				t.Errorf("unexpected amounts: %v", fc.amounts)
			}
			if !slices.Equal(fc.expires, []time.Duration{tt.want}) {
				t.Errorf("expected TTL %v, got %v", tt.want, fc.expires)
			}
			if !slices.Equal(fc.nxFlags, []bool{true}) {
				t.Error("expected EXPIRE NX so a running period keeps its deadline")
			}
		})
	}
}

func TestIncrByErrors(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name    string
		store   *fakeCounters
		wantMsg string
	}{
		{"incr fails", &fakeCounters{incrErr: cause}, "INCRBY"},
		{"expire fails", &fakeCounters{expErr: cause}, "EXPIRE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.store)

			err := s.IncrBy(context.Background(), "gani:budget:embedding:daily:2025-06-01", 1)
			if !errors.Is(err, cause) {
				t.Fatalf("expected wrapped cause, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q missing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestGetReadsCounter(t *testing.T) {
	fc := &fakeCounters{value: []byte("31337")}
	s := New(fc)

	val, err := s.Get(context.Background(), "gani:budget:embedding:daily:2025-06-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 31337 {
		t.Errorf("expected 31337, got %d", val)
	}
	if !slices.Equal(fc.got, []string{"gani:budget:embedding:daily:2025-06-01"}) {
		t.Errorf("unexpected GET keys: %v", fc.got)
	}
}

func TestGetMissingKeyIsZero(t *testing.T) {
	s := New(&fakeCounters{})

	val, err := s.Get(context.Background(), "gani:budget:embedding:daily:2025-06-01")
	if err != nil {
		t.Fatalf("expected nil error for missing key, got %v", err)
	}
	if val != 0 {
		t.Errorf("expected 0, got %d", val)
	}
}

func TestGetErrors(t *testing.T) {
	t.Run("store failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		s := New(&fakeCounters{getErr: cause})

		if _, err := s.Get(context.Background(), "gani:budget:embedding:daily:2025-06-01"); !errors.Is(err, cause) {
			t.Fatalf("expected wrapped cause, got %v", err)
		}
	})

	t.Run("garbage value", func(t *testing.T) {
		s := New(&fakeCounters{value: []byte("not-a-number")})

		_, err := s.Get(context.Background(), "gani:budget:embedding:daily:2025-06-01")
		if err == nil || !strings.Contains(err.Error(), "parse") {
			t.Fatalf("expected parse error, got %v", err)
		}
	})
}

package session

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// MemoryStore keeps session records in process memory. Suited to local runs
// and tests; records do not survive restarts.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemory creates an in-memory session store.
func NewMemory(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: gocache.New(ttl, 2*ttl)}
}

// Get returns the stored session record.
func (m *MemoryStore) Get(_ context.Context, key string) (domain.SessionRecord, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	rec, ok := v.(domain.SessionRecord)
	if !ok {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	return rec, nil
}

// Put stores the session record, refreshing its TTL.
func (m *MemoryStore) Put(_ context.Context, rec domain.SessionRecord) error {
	m.cache.Set(rec.Key, rec, gocache.DefaultExpiration)
	return nil
}

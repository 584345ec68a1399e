package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ganeshmamidipalli/GANI/internal/db"
	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// store is the slice of the database session persistence touches.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore keeps session records in Redis with a sliding TTL.
type RedisStore struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// NewRedis creates a Redis-backed session store.
func NewRedis(s store, keyPrefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{store: s, keyPrefix: keyPrefix, ttl: ttl}
}

// Get returns the stored session record.
func (r *RedisStore) Get(ctx context.Context, key string) (domain.SessionRecord, error) {
	data, err := r.store.Get(ctx, r.sessionKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.SessionRecord{}, domain.ErrSessionNotFound
		}
		return domain.SessionRecord{}, fmt.Errorf("get session %s: %w", key, err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("parse session %s: %w", key, err)
	}
	return rec, nil
}

// Put stores the session record, refreshing its TTL.
func (r *RedisStore) Put(ctx context.Context, rec domain.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", rec.Key, err)
	}
	if err := r.store.SetWithTTL(ctx, r.sessionKey(rec.Key), data, r.ttl); err != nil {
		return fmt.Errorf("put session %s: %w", rec.Key, err)
	}
	return nil
}

// Key pattern: gani:session:{key}

func (r *RedisStore) sessionKey(key string) string {
	return r.keyPrefix + "session:" + key
}

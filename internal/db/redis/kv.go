package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/ganeshmamidipalli/GANI/internal/db"
)

// Get reads a string key. Missing keys map to db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	switch {
	case err == nil:
		return data, nil
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	default:
		return nil, &db.Error{Op: "GET", Key: key, Err: err}
	}
}

// Set stores value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.setValue(ctx, key, value, 0)
}

// SetWithTTL stores value with an expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.setValue(ctx, key, value, ttl)
}

func (s *Store) setValue(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	base := s.b().Set().Key(key).Value(rueidis.BinaryString(value))

	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = base.Ex(ttl).Build()
	} else {
		cmd = base.Build()
	}

	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: "SET", Key: key, Err: err}
	}
	return nil
}

// IncrBy adds val to an integer key, creating it at zero when absent.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.do(ctx, s.b().Incrby().Key(key).Increment(val).Build()).Error(); err != nil {
		return &db.Error{Op: "INCRBY", Key: key, Err: err}
	}
	return nil
}

// Expire sets a TTL. With nx the TTL applies only when the key has none yet;
// the budget counters rely on that to pin their window boundaries.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	expire := s.b().Expire().Key(key).Seconds(int64(ttl.Seconds()))

	var cmd rueidis.Completed
	if nx {
		cmd = expire.Nx().Build()
	} else {
		cmd = expire.Build()
	}

	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: "EXPIRE", Key: key, Err: err}
	}
	return nil
}

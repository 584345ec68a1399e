// Package db defines the storage contracts the pipeline is written
// against. The redis subpackage carries the production implementation;
// tests substitute in-memory fakes per sub-interface.
package db

import (
	"context"
	"time"
)

// Store bundles every storage capability one backend connection
// provides. Consumers should depend on the narrow sub-interface they
// actually use and receive a Store only at wiring time.
//
//nolint:interfacebloat // facade over the narrow sub-interfaces below
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger reports backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore holds flat values: cache entries, budget counters, session
// records.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// HashSetItem is one key with its field map, for pipelined writes.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore holds field-structured documents, the shape the search
// indexes consume.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexManager covers the FT index lifecycle.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs queries against FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

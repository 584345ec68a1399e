package redis

import "github.com/redis/rueidis"

// NewStoreForTest builds a Store around a mock client so command-level
// tests can run without a server.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}

package db

import "errors"

// KNNQuery asks an FT index for the K nearest hashes to Vector.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// Validate reports whether the query can be sent to the server.
func (q *KNNQuery) Validate() error {
	switch {
	case q.IndexName == "":
		return errors.New("index name is required")
	case len(q.Vector) == 0:
		return errors.New("vector is required")
	case q.K <= 0:
		return errors.New("k must be positive")
	}
	return nil
}

// SearchResult carries the server-reported total plus the returned entries.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hit. Score is a similarity in [0,1] for KNN searches.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

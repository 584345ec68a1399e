package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/ganeshmamidipalli/GANI/internal/db"
)

// SearchKNN runs the fixed-shape KNN query namespace retrieval uses: top-K
// by vector distance with explicit LIMIT paging (the server default caps
// replies at 10) and DIALECT 2 for the parameterized blob.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	args := []string{q.IndexName, fmt.Sprintf("*=>[KNN %d @vector $BLOB]", q.K)}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}
	args = append(args,
		"SORTBY", "__vector_score",
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", blob(q.Vector),
		"DIALECT", "2",
	)

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: "FT.SEARCH", Key: q.IndexName, Err: err}
	}
	return parseKNNReply(raw)
}

// SearchCount returns the match count for query without fetching documents.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0").Build()).ToArray()
	if err != nil {
		return 0, &db.Error{Op: "FT.SEARCH", Key: index, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// parseKNNReply walks the RESP2 array: total first, then key/fields pairs.
func parseKNNReply(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	result := &db.SearchResult{Total: int(total)}
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fieldsRaw, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key, Fields: fieldMap(fieldsRaw)}
		if distStr, ok := entry.Fields["__vector_score"]; ok {
			if dist, err := strconv.ParseFloat(distStr, 64); err == nil {
				entry.Score = similarity(dist)
			}
			delete(entry.Fields, "__vector_score")
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func fieldMap(raw []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		name, err := raw[i].ToString()
		if err != nil {
			continue
		}
		value, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// similarity converts the server's cosine distance into a [0,1] score.
func similarity(distance float64) float64 {
	if s := 1 - distance; s > 0 {
		return s
	}
	return 0
}

// blob renders the query vector as the little-endian float32 byte string
// FT.SEARCH expects for $BLOB.
func blob(v []float32) string {
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return rueidis.BinaryString(buf)
}

package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/ganeshmamidipalli/GANI/internal/db"
	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// providerStub fakes the inner embedder. Calls are recorded so tests can
// assert exactly which texts reached the provider.
type providerStub struct {
	embedFn func(text string) (domain.EmbeddingResult, error)
	batchFn func(texts []string) (domain.BatchEmbeddingResult, error)

	embeds  []string
	batches [][]string
}

func (p *providerStub) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	p.embeds = append(p.embeds, text)
	if p.embedFn != nil {
		return p.embedFn(text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.5}, PromptTokens: 5, TotalTokens: 5}, nil
}

func (p *providerStub) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	p.batches = append(p.batches, texts)
	if p.batchFn != nil {
		return p.batchFn(texts)
	}

	res := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i := range texts {
		res.Embeddings[i] = []float32{0.5}
		res.PromptTokens += 5
		res.TotalTokens += 5
	}
	return res, nil
}

// memStore is a map-backed stand-in for the KV layer.
type memStore struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if data, ok := m.data[key]; ok {
		return data, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func newCachedEmbedder(t *testing.T, provider domain.Embedder) (*CachedEmbedder, *memStore) {
	t.Helper()
	ms := newMemStore()
	return New(provider, ms, "gani:", nil, zap.NewNop()), ms
}

// seed plants a vector in the store under the key Embed would compute for text.
func seed(ce *CachedEmbedder, ms *memStore, text string, vec []float32) {
	ms.data[ce.cacheKey(text)] = encodeVector(vec)
}

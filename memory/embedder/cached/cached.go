// Package cached wraps an embedder with a ristretto cache keyed by
// content. Extraction rounds embed the same strings repeatedly (dedup
// probe, merge, promotion), so memoizing keeps the pipeline cheap
// without changing semantics.
package cached

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// Embedder is the wrapped contract.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// CachedEmbedder memoizes Embed results by exact text.
type CachedEmbedder struct {
	inner Embedder
	cache *ristretto.Cache
}

// New wraps inner with a cache holding roughly maxEntries vectors.
// maxEntries <= 0 defaults to 4096.
func New(inner Embedder, maxEntries int64) (*CachedEmbedder, error) {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, embedding on miss.
// Callers must not mutate the returned slice.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, 1)
	return vec, nil
}

// Dimensions returns the wrapped embedder's vector size.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Close releases the cache.
func (c *CachedEmbedder) Close() error {
	c.cache.Close()
	return nil
}

// Package mock provides a deterministic embedder for tests and local
// development. No model, no network: vectors are derived from a hash
// of the input text.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Embedder generates deterministic embeddings from text hashes.
// Identical text always yields the identical vector, which makes
// dedup and merge behavior reproducible in tests.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder with 384 dimensions, matching
// all-MiniLM-L6-v2.
func New() *Embedder {
	return &Embedder{dimensions: 384}
}

// Embed derives a normalized vector from the text's hash. Empty or
// whitespace-only input yields an all-zero vector.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, m.dimensions), nil
	}

	h := fnv.New64a()
	h.Write([]byte(text))

	// LCG seeded by the hash gives a stable pseudo-random vector.
	seed := h.Sum64()
	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}

	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (m *Embedder) Dimensions() int {
	return m.dimensions
}

// normalize converts the vector to unit length.
func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}

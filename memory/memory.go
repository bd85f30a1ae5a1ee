package memory

import (
	"context"

	"github.com/HarshitMathur01/MindMitra/core"
)

// Embedder converts text to vector embeddings.
// Implementations: MockEmbedder (testing), ONNXEmbedder (local, build tag
// "onnx"), CachedEmbedder (ristretto decorator over either).
//
// Contract:
//   - Vectors are normalized and 384-dimensional by default.
//   - Empty or whitespace-only input yields an all-zero vector, not an
//     error. Callers must not treat a zero vector as a failure.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Store is the persistence backend for all four memory surfaces:
// global memories (vector-searchable), session memories, episodic
// pattern trackers, and the per-session episodic log.
//
// Implementations: ChromemStore (embedded, local SDK). A production
// deployment swaps in a pgvector-backed store behind this interface.
type Store interface {
	// FindSimilar returns global memories of the given type owned by
	// userID whose cosine similarity to embedding is at least threshold,
	// sorted by similarity descending.
	FindSimilar(ctx context.Context, embedding []float32, userID string, memType core.MemoryType, threshold float64) ([]core.SimilarMatch, error)

	// HybridSearch retrieves global memories blending vector similarity
	// with keyword relevance into a combined score. Results are limited
	// to the given types, filtered by confidence floor, sorted by
	// combined score descending, and capped at limit.
	HybridSearch(ctx context.Context, embedding []float32, queryText, userID string, types []core.MemoryType, confidenceFloor float64, limit int) ([]core.ScoredMemory, error)

	// UpsertGlobalMemory inserts rec when rec.ID is empty, otherwise
	// replaces the stored record with the same ID. Returns the record ID.
	UpsertGlobalMemory(ctx context.Context, rec *core.GlobalMemoryRecord) (string, error)

	// InsertSessionMemory appends a session-tier memory. Session
	// memories are never merged or updated. Returns the record ID.
	InsertSessionMemory(ctx context.Context, rec *core.SessionMemoryRecord) (string, error)

	// SessionMemories returns the session-tier memories for sessionID
	// restricted to the given types, oldest first.
	SessionMemories(ctx context.Context, sessionID string, types []core.MemoryType) ([]core.SessionMemoryRecord, error)

	// EpisodicTracker looks up the pattern tracker for (userID, patternHash).
	// A missing tracker is (nil, nil), not an error.
	EpisodicTracker(ctx context.Context, userID, patternHash string) (*core.EpisodicTrackerRecord, error)

	// UpsertEpisodicTracker inserts or replaces a pattern tracker.
	UpsertEpisodicTracker(ctx context.Context, rec *core.EpisodicTrackerRecord) error

	// AppendSessionEpisodic logs a raw episodic memory against its session.
	AppendSessionEpisodic(ctx context.Context, rec *core.EpisodicRecord) error

	// SessionEpisodics returns every episodic memory logged for
	// sessionID, in insertion order, with no filtering.
	SessionEpisodics(ctx context.Context, sessionID string) ([]core.EpisodicRecord, error)

	// Close releases resources.
	Close() error
}

// Classifier is the LLM boundary. It extracts memory candidates from
// conversation turns, summarizes sessions, and synthesizes insights
// from recurring episodic patterns.
//
// Implementations: anthropic.Classifier (SDK-provided). Test code uses
// in-test fakes.
type Classifier interface {
	// Classify extracts candidates of one memory type from formatted
	// conversation turns. Malformed LLM output is repaired where
	// possible; candidates with missing fields get safe defaults
	// (confidence 0.5, worth_saving when confidence >= 0.4).
	Classify(ctx context.Context, turns []core.Message, memType core.MemoryType) ([]core.MemoryCandidate, error)

	// Summarize condenses a chunk of turns into a session summary.
	Summarize(ctx context.Context, turns []core.Message) (*core.SessionSummary, error)

	// Insight synthesizes a recurring episodic pattern into one durable
	// statement. An unparseable response is an error; callers must not
	// fabricate an insight in that case.
	Insight(ctx context.Context, occurrences []core.Occurrence) (*core.PatternInsight, error)
}

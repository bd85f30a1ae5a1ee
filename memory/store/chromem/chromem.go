// Package chromem implements the memory store on chromem-go, a pure Go
// embedded vector database. Global memories live in per-user vector
// collections; session memories, pattern trackers, and episodic logs
// live in keyed in-memory tables alongside. A production deployment
// replaces this package with a pgvector-backed implementation.
package chromem

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/HarshitMathur01/MindMitra/core"
)

// Weights for blending vector similarity with keyword relevance into
// the combined retrieval score.
const (
	vectorWeight  = 0.7
	keywordWeight = 0.3
)

// Store holds all four memory surfaces.
type Store struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection // per-user vector collections
	colMu       sync.RWMutex

	mu        sync.RWMutex
	globals   map[string]*core.GlobalMemoryRecord   // by record ID
	sessions  map[string][]core.SessionMemoryRecord // by session ID
	trackers  map[string]*core.EpisodicTrackerRecord
	episodics map[string][]core.EpisodicRecord // by session ID
}

// New creates an empty store.
func New() (*Store, error) {
	return &Store{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
		globals:     make(map[string]*core.GlobalMemoryRecord),
		sessions:    make(map[string][]core.SessionMemoryRecord),
		trackers:    make(map[string]*core.EpisodicTrackerRecord),
		episodics:   make(map[string][]core.EpisodicRecord),
	}, nil
}

// getOrCreateCollection returns the vector collection for a user.
// Each user gets their own collection for namespace isolation.
func (s *Store) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	s.colMu.RLock()
	col, exists := s.collections[userID]
	s.colMu.RUnlock()
	if exists {
		return col, nil
	}

	s.colMu.Lock()
	defer s.colMu.Unlock()

	// Double-check after acquiring the write lock.
	if col, exists := s.collections[userID]; exists {
		return col, nil
	}

	name := fmt.Sprintf("user_%s", userID)
	if userID == "" {
		name = "global"
	}
	col, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collections[userID] = col
	return col, nil
}

// queryCollection runs a vector query filtered by memory type.
// chromem requires nResults <= collection size, so retry with smaller
// limits until it succeeds or the collection turns out to be empty.
func (s *Store) queryCollection(ctx context.Context, col *chromem.Collection, embedding []float32, memType core.MemoryType, limit int) ([]chromem.Result, error) {
	where := map[string]string{"memory_type": string(memType)}

	for currentLimit := limit; currentLimit >= 1; currentLimit-- {
		results, err := col.QueryEmbedding(ctx, embedding, currentLimit, where, nil)
		if err == nil {
			return results, nil
		}
		if isInsufficientDocsError(err) {
			if currentLimit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	return nil, nil
}

// FindSimilar returns global memories of one type whose similarity to
// embedding clears threshold, most similar first.
func (s *Store) FindSimilar(ctx context.Context, embedding []float32, userID string, memType core.MemoryType, threshold float64) ([]core.SimilarMatch, error) {
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}

	results, err := s.queryCollection(ctx, col, embedding, memType, 5)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []core.SimilarMatch
	for _, res := range results {
		// A zero probe embedding (empty content) yields NaN cosine
		// similarity, and NaN compares false against any threshold.
		// Require sim >= threshold so NaN never slips through.
		sim := float64(res.Similarity)
		if math.IsNaN(sim) || sim < threshold {
			continue
		}
		rec, ok := s.globals[res.ID]
		if !ok {
			log.Printf("[CHROMEM] Vector hit %s has no record, skipping", res.ID)
			continue
		}
		matches = append(matches, core.SimilarMatch{
			Record:     copyGlobal(rec),
			Similarity: sim,
		})
	}
	return matches, nil
}

// HybridSearch blends vector similarity with keyword overlap:
// combined = 0.7*similarity + 0.3*(matched query words / query words).
func (s *Store) HybridSearch(ctx context.Context, embedding []float32, queryText, userID string, types []core.MemoryType, confidenceFloor float64, limit int) ([]core.ScoredMemory, error) {
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	queryWords := strings.Fields(strings.ToLower(queryText))

	var scored []core.ScoredMemory
	s.mu.RLock()
	for _, memType := range types {
		results, err := s.queryCollection(ctx, col, embedding, memType, limit)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		for _, res := range results {
			rec, ok := s.globals[res.ID]
			if !ok {
				continue
			}
			if rec.ConfidenceScore < confidenceFloor {
				continue
			}
			// Treat NaN similarity as zero so one bad vector cannot
			// poison the score sort.
			sim := float64(res.Similarity)
			if math.IsNaN(sim) {
				sim = 0
			}
			combined := vectorWeight*sim + keywordWeight*keywordRelevance(queryWords, rec.Content)
			scored = append(scored, core.ScoredMemory{
				Record:        copyGlobal(rec),
				CombinedScore: combined,
			})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CombinedScore > scored[j].CombinedScore
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// keywordRelevance is the fraction of query words present in content.
func keywordRelevance(queryWords []string, content string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matched := 0
	for _, w := range queryWords {
		if strings.Contains(lower, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// UpsertGlobalMemory inserts or replaces a global memory and its
// vector document. AddDocument with an existing ID overwrites in
// chromem, which gives upsert semantics for free.
func (s *Store) UpsertGlobalMemory(ctx context.Context, rec *core.GlobalMemoryRecord) (string, error) {
	if rec.UserID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	col, err := s.getOrCreateCollection(rec.UserID)
	if err != nil {
		return "", err
	}

	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Content,
		Embedding: rec.Embedding,
		Metadata: map[string]string{
			"memory_type": string(rec.Type),
			"user_id":     rec.UserID,
			"created_at":  rec.CreatedAt.Format(time.RFC3339),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}

	s.mu.Lock()
	s.globals[rec.ID] = copyGlobal(rec)
	s.mu.Unlock()

	log.Printf("[CHROMEM] Stored global memory %s (user=%s, type=%s)", rec.ID, rec.UserID, rec.Type)
	return rec.ID, nil
}

// InsertSessionMemory appends a session-tier memory.
func (s *Store) InsertSessionMemory(ctx context.Context, rec *core.SessionMemoryRecord) (string, error) {
	if rec.SessionID == "" {
		return "", fmt.Errorf("session id is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.sessions[rec.SessionID] = append(s.sessions[rec.SessionID], *rec)
	s.mu.Unlock()
	return rec.ID, nil
}

// SessionMemories returns session-tier memories of the given types,
// oldest first.
func (s *Store) SessionMemories(ctx context.Context, sessionID string, types []core.MemoryType) ([]core.SessionMemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.SessionMemoryRecord
	for _, rec := range s.sessions[sessionID] {
		if typeAllowed(rec.Type, types) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// EpisodicTracker looks up a pattern tracker. Missing is (nil, nil).
func (s *Store) EpisodicTracker(ctx context.Context, userID, patternHash string) (*core.EpisodicTrackerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.trackers[trackerKey(userID, patternHash)]
	if !ok {
		return nil, nil
	}
	return copyTracker(rec), nil
}

// UpsertEpisodicTracker inserts or replaces a pattern tracker.
func (s *Store) UpsertEpisodicTracker(ctx context.Context, rec *core.EpisodicTrackerRecord) error {
	if rec.UserID == "" || rec.PatternHash == "" {
		return fmt.Errorf("user id and pattern hash are required")
	}
	s.mu.Lock()
	s.trackers[trackerKey(rec.UserID, rec.PatternHash)] = copyTracker(rec)
	s.mu.Unlock()
	return nil
}

// AppendSessionEpisodic logs a raw episodic memory for its session.
func (s *Store) AppendSessionEpisodic(ctx context.Context, rec *core.EpisodicRecord) error {
	if rec.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	cp := *rec
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.episodics[rec.SessionID] = append(s.episodics[rec.SessionID], cp)
	s.mu.Unlock()
	return nil
}

// SessionEpisodics returns the full episodic log for a session, in
// insertion order.
func (s *Store) SessionEpisodics(ctx context.Context, sessionID string) ([]core.EpisodicRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.EpisodicRecord(nil), s.episodics[sessionID]...), nil
}

// Close releases resources. chromem keeps everything in memory.
func (s *Store) Close() error {
	return nil
}

func trackerKey(userID, patternHash string) string {
	return userID + "\x00" + patternHash
}

func typeAllowed(t core.MemoryType, types []core.MemoryType) bool {
	if len(types) == 0 {
		return true
	}
	for _, allowed := range types {
		if t == allowed {
			return true
		}
	}
	return false
}

// copyGlobal deep-copies a record so callers cannot mutate store state.
func copyGlobal(rec *core.GlobalMemoryRecord) *core.GlobalMemoryRecord {
	cp := *rec
	cp.Embedding = append([]float32(nil), rec.Embedding...)
	cp.SourceSessionIDs = append([]string(nil), rec.SourceSessionIDs...)
	return &cp
}

func copyTracker(rec *core.EpisodicTrackerRecord) *core.EpisodicTrackerRecord {
	cp := *rec
	cp.Occurrences = append([]core.Occurrence(nil), rec.Occurrences...)
	return &cp
}

// isInsufficientDocsError checks if the query failed because nResults
// exceeded the collection size.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}

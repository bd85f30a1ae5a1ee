package core

import "time"

// MemoryType classifies what a memory captures.
//
//   - Semantic: durable facts and insights about the user
//     ("presentations trigger anxiety for this user")
//   - Procedural: coping strategies and techniques that worked
//     ("4-7-8 breathing calms this user down")
//   - Episodic: individual events tied to a session
//     ("felt anxious before Monday's presentation")
type MemoryType string

const (
	MemoryTypeSemantic   MemoryType = "semantic"
	MemoryTypeProcedural MemoryType = "procedural"
	MemoryTypeEpisodic   MemoryType = "episodic"
)

// AllMemoryTypes returns the three memory types in canonical order.
func AllMemoryTypes() []MemoryType {
	return []MemoryType{MemoryTypeSemantic, MemoryTypeProcedural, MemoryTypeEpisodic}
}

// ParseMemoryType maps a string to a known MemoryType.
func ParseMemoryType(s string) (MemoryType, bool) {
	switch MemoryType(s) {
	case MemoryTypeSemantic, MemoryTypeProcedural, MemoryTypeEpisodic:
		return MemoryType(s), true
	}
	return "", false
}

// Message is a single conversation turn.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// MemoryCandidate is one extracted memory as proposed by the classifier,
// before any routing decision has been made.
type MemoryCandidate struct {
	Content     string     `json:"content"`
	Type        MemoryType `json:"memory_type"`
	Confidence  float64    `json:"confidence"`   // [0.0, 1.0]
	WorthSaving bool       `json:"worth_saving"` // classifier's own keep/discard signal
}

// GlobalMemoryRecord is a cross-session memory in the global tier.
// Global memories carry an embedding and participate in similarity
// search and hybrid retrieval.
type GlobalMemoryRecord struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Type             MemoryType `json:"memory_type"`
	Content          string     `json:"content"`
	Embedding        []float32  `json:"-"`
	ConfidenceScore  float64    `json:"confidence_score"`
	OccurrenceCount  int        `json:"occurrence_count"`
	SourceSessionIDs []string   `json:"source_session_ids"`
	AccessCount      int        `json:"access_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SessionMemoryRecord is a session-scoped memory in the provisional
// tier. Session memories are never deduplicated and never merged.
type SessionMemoryRecord struct {
	ID              string     `json:"id"`
	SessionID       string     `json:"session_id"`
	UserID          string     `json:"user_id"`
	Type            MemoryType `json:"memory_type"`
	Content         string     `json:"content"`
	ConfidenceScore float64    `json:"confidence_score"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Occurrence is one sighting of a recurring episodic pattern.
type Occurrence struct {
	Content   string    `json:"content"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EpisodicTrackerRecord accumulates occurrences of one episodic
// pattern for one user, keyed by the pattern hash. Once the pattern
// has been promoted to a semantic memory, PromotedToSemanticID holds
// the new record's id and the tracker never promotes again.
type EpisodicTrackerRecord struct {
	ID                   string       `json:"id"`
	UserID               string       `json:"user_id"`
	PatternHash          string       `json:"pattern_hash"`
	Occurrences          []Occurrence `json:"occurrences"`
	OccurrenceCount      int          `json:"occurrence_count"`
	PromotedToSemanticID string       `json:"promoted_to_semantic_id,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// EpisodicRecord is a raw episodic memory logged verbatim against its
// session. Retrieval surfaces these without filtering or ranking.
type EpisodicRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// PromotedMemory describes a semantic memory newly synthesized from a
// recurring episodic pattern.
type PromotedMemory struct {
	ID           string  `json:"id"`
	Content      string  `json:"content"`
	Confidence   float64 `json:"confidence"`
	OutcomeTrend string  `json:"outcome_trend,omitempty"` // "success", "mixed", or "failure"
}

// PatternInsight is the LLM's synthesis of a recurring episodic
// pattern into one durable statement.
type PatternInsight struct {
	Insight      string  `json:"insight"`
	OutcomeTrend string  `json:"outcome_trend"`
	Confidence   float64 `json:"confidence"`
}

// SimilarMatch pairs a global memory with its cosine similarity to a
// probe embedding.
type SimilarMatch struct {
	Record     *GlobalMemoryRecord
	Similarity float64
}

// ScoredMemory pairs a global memory with its blended retrieval score
// (vector similarity weighted with keyword relevance).
type ScoredMemory struct {
	Record        *GlobalMemoryRecord
	CombinedScore float64
}

// MemorySource identifies where a retrieved memory came from.
type MemorySource string

const (
	SourceGlobal   MemorySource = "global"
	SourceSession  MemorySource = "session"
	SourceEpisodic MemorySource = "episodic"
)

// RetrievedMemory is one entry in a retrieval bucket, normalized
// across the three provenance sources.
type RetrievedMemory struct {
	ID            string       `json:"id"`
	Type          MemoryType   `json:"memory_type"`
	Content       string       `json:"content"`
	Confidence    float64      `json:"confidence"`
	CombinedScore float64      `json:"combined_score,omitempty"` // set for global results only
	Source        MemorySource `json:"source"`
	CreatedAt     time.Time    `json:"created_at"`
}

// RetrievalResult partitions retrieved memories into the three
// type buckets. A failed retrieval yields three empty buckets,
// never an error.
type RetrievalResult struct {
	Semantic   []RetrievedMemory `json:"semantic"`
	Procedural []RetrievedMemory `json:"procedural"`
	Episodic   []RetrievedMemory `json:"episodic"`
}

// Bucket returns the slice for the given type, or nil for an unknown type.
func (r *RetrievalResult) Bucket(t MemoryType) []RetrievedMemory {
	switch t {
	case MemoryTypeSemantic:
		return r.Semantic
	case MemoryTypeProcedural:
		return r.Procedural
	case MemoryTypeEpisodic:
		return r.Episodic
	}
	return nil
}

// Total returns the number of memories across all buckets.
func (r *RetrievalResult) Total() int {
	return len(r.Semantic) + len(r.Procedural) + len(r.Episodic)
}

// EmotionalProgression tracks how the user's state moved over a session.
type EmotionalProgression struct {
	StartState string `json:"start_state"`
	EndState   string `json:"end_state"`
	Trajectory string `json:"trajectory"` // "improving", "stable", or "declining"
}

// SessionSummary is the classifier's condensed view of a chunk of
// conversation, produced alongside memory extraction.
type SessionSummary struct {
	Summary     string               `json:"summary"`
	Progression EmotionalProgression `json:"emotional_progression"`
	KeyThemes   []string             `json:"key_themes"`
}

// ExtractionResult reports one extraction round over a chunk of turns.
type ExtractionResult struct {
	Summary    SessionSummary
	Candidates map[MemoryType][]MemoryCandidate
	Saved      map[MemoryType]int
	Promoted   []PromotedMemory
}

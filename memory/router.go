package memory

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/HarshitMathur01/MindMitra/core"
)

// TieredRouter decides where an extracted memory candidate lives.
//
// Routing by confidence:
//   - worth_saving false, or confidence < SessionConfidenceMin: discard
//   - confidence >= GlobalConfidenceMin: global tier, with
//     similarity-based merge against existing memories
//   - otherwise: session tier, plain insert
//
// Route never returns an error. Every failure (embedding, store) is
// logged and reported as "not saved" so a memory hiccup can never take
// down the chat path.
type TieredRouter struct {
	store    Store
	embedder Embedder
	config   *Config
	now      func() time.Time
}

// NewTieredRouter creates a router. A nil config uses DefaultConfig.
func NewTieredRouter(store Store, embedder Embedder, config *Config) *TieredRouter {
	return &TieredRouter{
		store:    store,
		embedder: embedder,
		config:   config.withDefaults(),
		now:      time.Now,
	}
}

// Route persists cand for userID according to the tier rules and
// returns the record ID, or "" when the candidate was discarded or the
// save failed. Exactly one store write happens per successful call.
func (r *TieredRouter) Route(ctx context.Context, cand core.MemoryCandidate, sessionID, userID string) string {
	if !cand.WorthSaving {
		log.Printf("[DEDUP] Discarding candidate (not worth saving): %q", truncateLog(cand.Content, 60))
		return ""
	}
	if cand.Confidence < r.config.SessionConfidenceMin {
		log.Printf("[DEDUP] Discarding candidate (confidence %.2f < %.2f): %q",
			cand.Confidence, r.config.SessionConfidenceMin, truncateLog(cand.Content, 60))
		return ""
	}

	if cand.Confidence >= r.config.GlobalConfidenceMin {
		return r.saveGlobal(ctx, cand, sessionID, userID)
	}
	return r.saveSession(ctx, cand, sessionID, userID)
}

// saveGlobal writes cand to the global tier, merging into the closest
// existing memory when one is similar enough.
func (r *TieredRouter) saveGlobal(ctx context.Context, cand core.MemoryCandidate, sessionID, userID string) string {
	embedding, err := r.embedder.Embed(ctx, cand.Content)
	if err != nil {
		log.Printf("[DEDUP] Embed failed, candidate not saved: %v", err)
		return ""
	}

	matches, err := r.store.FindSimilar(ctx, embedding, userID, cand.Type, r.config.SimilarityThreshold)
	if err != nil {
		log.Printf("[DEDUP] Similarity search failed, candidate not saved: %v", err)
		return ""
	}

	if len(matches) > 0 {
		return r.mergeInto(ctx, matches[0], sessionID)
	}

	now := r.now()
	rec := &core.GlobalMemoryRecord{
		ID:               uuid.NewString(),
		UserID:           userID,
		Type:             cand.Type,
		Content:          cand.Content,
		Embedding:        embedding,
		ConfidenceScore:  cand.Confidence,
		OccurrenceCount:  1,
		SourceSessionIDs: []string{sessionID},
		AccessCount:      0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	id, err := r.store.UpsertGlobalMemory(ctx, rec)
	if err != nil {
		log.Printf("[DEDUP] Global insert failed, candidate not saved: %v", err)
		return ""
	}
	log.Printf("[DEDUP] New global %s memory %s (confidence %.2f)", cand.Type, id, cand.Confidence)
	return id
}

// mergeInto reinforces an existing global memory instead of inserting
// a near-duplicate. The boosted confidence is min(1.0, old*1.2 + 0.1).
func (r *TieredRouter) mergeInto(ctx context.Context, match core.SimilarMatch, sessionID string) string {
	rec := *match.Record

	rec.ConfidenceScore = boostConfidence(rec.ConfidenceScore)
	rec.OccurrenceCount++
	if !containsString(rec.SourceSessionIDs, sessionID) {
		rec.SourceSessionIDs = append(append([]string(nil), rec.SourceSessionIDs...), sessionID)
	}
	rec.AccessCount++
	rec.UpdatedAt = r.now()

	id, err := r.store.UpsertGlobalMemory(ctx, &rec)
	if err != nil {
		log.Printf("[DEDUP] Merge update failed, candidate not saved: %v", err)
		return ""
	}
	log.Printf("[DEDUP] Merged into %s (similarity %.3f, occurrences %d, confidence %.2f)",
		id, match.Similarity, rec.OccurrenceCount, rec.ConfidenceScore)
	return id
}

// saveSession writes cand to the provisional session tier. No dedup.
func (r *TieredRouter) saveSession(ctx context.Context, cand core.MemoryCandidate, sessionID, userID string) string {
	rec := &core.SessionMemoryRecord{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		UserID:          userID,
		Type:            cand.Type,
		Content:         cand.Content,
		ConfidenceScore: cand.Confidence,
		CreatedAt:       r.now(),
	}
	id, err := r.store.InsertSessionMemory(ctx, rec)
	if err != nil {
		log.Printf("[DEDUP] Session insert failed, candidate not saved: %v", err)
		return ""
	}
	log.Printf("[DEDUP] New session %s memory %s (confidence %.2f)", cand.Type, id, cand.Confidence)
	return id
}

// boostConfidence applies the merge reinforcement formula.
func boostConfidence(old float64) float64 {
	boosted := old*1.2 + 0.1
	if boosted > 1.0 {
		return 1.0
	}
	return boosted
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// truncateLog truncates text for logging.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package memory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/HarshitMathur01/MindMitra/core"
)

// Promoter watches episodic memories for recurring patterns and
// promotes patterns seen often enough into durable semantic memories.
//
// Patterns are keyed by a coarse content fingerprint (PatternHash), so
// rephrasings of the same event land on the same tracker as long as
// their significant words match.
type Promoter struct {
	store      Store
	embedder   Embedder
	classifier Classifier
	config     *Config
	now        func() time.Time
}

// NewPromoter creates a promoter. A nil config uses DefaultConfig.
func NewPromoter(store Store, embedder Embedder, classifier Classifier, config *Config) *Promoter {
	return &Promoter{
		store:      store,
		embedder:   embedder,
		classifier: classifier,
		config:     config.withDefaults(),
		now:        time.Now,
	}
}

// PatternHash fingerprints episodic content: the first five lowercase
// purely-alphabetic words longer than four characters, sorted, joined
// with underscores, md5-hashed, truncated to 16 hex chars. Word order
// and casing do not change the hash.
func PatternHash(content string) string {
	var significant []string
	for _, word := range strings.Fields(strings.ToLower(content)) {
		if utf8.RuneCountInString(word) > 4 && isAlpha(word) {
			significant = append(significant, word)
			if len(significant) == 5 {
				break
			}
		}
	}
	sort.Strings(significant)

	sum := md5.Sum([]byte(strings.Join(significant, "_")))
	return hex.EncodeToString(sum[:])[:16]
}

// TrackAndPromote records one sighting of an episodic pattern and, when
// the pattern has recurred enough, promotes it to a semantic memory.
// It returns the promoted memory on the promotion call only; every
// other call (including failures, which are logged) returns nil.
func (p *Promoter) TrackAndPromote(ctx context.Context, cand core.MemoryCandidate, sessionID, userID string) *core.PromotedMemory {
	hash := PatternHash(cand.Content)

	tracker, err := p.store.EpisodicTracker(ctx, userID, hash)
	if err != nil {
		log.Printf("[PROMOTER] Tracker lookup failed for hash %s: %v", hash, err)
		return nil
	}

	now := p.now()
	occ := core.Occurrence{Content: cand.Content, SessionID: sessionID, Timestamp: now}

	if tracker == nil {
		tracker = &core.EpisodicTrackerRecord{
			ID:              uuid.NewString(),
			UserID:          userID,
			PatternHash:     hash,
			Occurrences:     []core.Occurrence{occ},
			OccurrenceCount: 1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := p.store.UpsertEpisodicTracker(ctx, tracker); err != nil {
			log.Printf("[PROMOTER] Tracker insert failed for hash %s: %v", hash, err)
		}
		return nil
	}

	tracker.Occurrences = append(tracker.Occurrences, occ)
	tracker.OccurrenceCount++
	tracker.UpdatedAt = now
	if err := p.store.UpsertEpisodicTracker(ctx, tracker); err != nil {
		log.Printf("[PROMOTER] Tracker update failed for hash %s: %v", hash, err)
		return nil
	}

	if tracker.OccurrenceCount < p.config.PromotionMinOccurrences || tracker.PromotedToSemanticID != "" {
		return nil
	}

	return p.promote(ctx, tracker)
}

// promote synthesizes a semantic memory from the tracker's occurrences
// and marks the tracker so the pattern promotes exactly once.
func (p *Promoter) promote(ctx context.Context, tracker *core.EpisodicTrackerRecord) *core.PromotedMemory {
	recent := tracker.Occurrences
	if len(recent) > p.config.PromotionContextSize {
		recent = recent[len(recent)-p.config.PromotionContextSize:]
	}

	insight, err := p.classifier.Insight(ctx, recent)
	if err != nil {
		// No fallback content. A fabricated insight is worse than a
		// missed promotion; the next occurrence retries.
		log.Printf("[PROMOTER] Insight synthesis failed for hash %s, promotion aborted: %v", tracker.PatternHash, err)
		return nil
	}

	embedding, err := p.embedder.Embed(ctx, insight.Insight)
	if err != nil {
		log.Printf("[PROMOTER] Embed failed for hash %s, promotion aborted: %v", tracker.PatternHash, err)
		return nil
	}

	sessionIDs := make([]string, 0, len(tracker.Occurrences))
	for _, o := range tracker.Occurrences {
		if !containsString(sessionIDs, o.SessionID) {
			sessionIDs = append(sessionIDs, o.SessionID)
		}
	}

	now := p.now()
	rec := &core.GlobalMemoryRecord{
		ID:               uuid.NewString(),
		UserID:           tracker.UserID,
		Type:             core.MemoryTypeSemantic,
		Content:          insight.Insight,
		Embedding:        embedding,
		ConfidenceScore:  insight.Confidence,
		OccurrenceCount:  len(tracker.Occurrences),
		SourceSessionIDs: sessionIDs,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	id, err := p.store.UpsertGlobalMemory(ctx, rec)
	if err != nil {
		log.Printf("[PROMOTER] Semantic insert failed for hash %s, promotion aborted: %v", tracker.PatternHash, err)
		return nil
	}

	tracker.PromotedToSemanticID = id
	tracker.UpdatedAt = now
	if err := p.store.UpsertEpisodicTracker(ctx, tracker); err != nil {
		log.Printf("[PROMOTER] Tracker promotion mark failed for hash %s: %v", tracker.PatternHash, err)
	}

	log.Printf("[PROMOTER] Promoted pattern %s to semantic memory %s (%d occurrences, trend %s)",
		tracker.PatternHash, id, tracker.OccurrenceCount, insight.OutcomeTrend)
	return &core.PromotedMemory{
		ID:           id,
		Content:      insight.Insight,
		Confidence:   insight.Confidence,
		OutcomeTrend: insight.OutcomeTrend,
	}
}

// isAlpha reports whether s consists only of letters. Accented and
// other non-ASCII letters count, so words like "café" fingerprint the
// same way in every language.
func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

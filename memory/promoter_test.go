package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/HarshitMathur01/MindMitra/core"
	"github.com/HarshitMathur01/MindMitra/memory"
	"github.com/HarshitMathur01/MindMitra/memory/embedder/mock"
)

// fakeClassifier scripts the LLM boundary.
type fakeClassifier struct {
	candidates   map[core.MemoryType][]core.MemoryCandidate
	classifyErr  error
	summary      *core.SessionSummary
	summaryErr   error
	insight      *core.PatternInsight
	insightErr   error
	insightCalls int
}

func (f *fakeClassifier) Classify(ctx context.Context, turns []core.Message, memType core.MemoryType) ([]core.MemoryCandidate, error) {
	if f.classifyErr != nil {
		return nil, f.classifyErr
	}
	return f.candidates[memType], nil
}

func (f *fakeClassifier) Summarize(ctx context.Context, turns []core.Message) (*core.SessionSummary, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.summary, nil
}

func (f *fakeClassifier) Insight(ctx context.Context, occurrences []core.Occurrence) (*core.PatternInsight, error) {
	f.insightCalls++
	if f.insightErr != nil {
		return nil, f.insightErr
	}
	return f.insight, nil
}

func episodicCandidate(content string) core.MemoryCandidate {
	return core.MemoryCandidate{
		Content:     content,
		Type:        core.MemoryTypeEpisodic,
		Confidence:  0.7,
		WorthSaving: true,
	}
}

func defaultInsight() *core.PatternInsight {
	return &core.PatternInsight{
		Insight:      "The user repeatedly experiences anxiety around presentations",
		OutcomeTrend: "mixed",
		Confidence:   0.8,
	}
}

func TestPatternHashDeterministic(t *testing.T) {
	content := "felt anxious before the big presentation, tried breathing exercises"
	h1 := memory.PatternHash(content)
	h2 := memory.PatternHash(content)
	if h1 != h2 {
		t.Fatalf("hash not deterministic: %q vs %q", h1, h2)
	}
	if len(h1) != 16 {
		t.Fatalf("hash length = %d, want 16", len(h1))
	}
}

func TestPatternHashIgnoresCaseAndOrder(t *testing.T) {
	// Same significant words (>4 letters, purely alphabetic), different
	// casing and order.
	a := memory.PatternHash("Anxious before Presentation tried Breathing")
	b := memory.PatternHash("breathing tried presentation before anxious")
	if a != b {
		t.Fatalf("hash should be order and case insensitive: %q vs %q", a, b)
	}
}

func TestPatternHashSkipsShortAndNonAlphabetic(t *testing.T) {
	// Short words, digits, and punctuation-bearing words contribute
	// nothing; only the significant words drive the hash.
	a := memory.PatternHash("anxious presentation breathing")
	b := memory.PatternHash("so anxious b4 my presentation and did 3x breathing ok")
	if a != b {
		t.Fatalf("noise words should not change the hash: %q vs %q", a, b)
	}
}

func TestPatternHashUsesFirstFiveSignificantWords(t *testing.T) {
	// Both share the first five significant words; the sixth differs.
	a := memory.PatternHash("anxious presentation breathing exercises helped greatly today")
	b := memory.PatternHash("anxious presentation breathing exercises helped slightly today")
	if a != b {
		t.Fatalf("words past the first five should not change the hash: %q vs %q", a, b)
	}

	c := memory.PatternHash("journal writing calmed racing thoughts")
	if a == c {
		t.Fatalf("different patterns should hash differently")
	}
}

func TestPatternHashCountsAccentedWords(t *testing.T) {
	// Letters are letters in any script: "séance" (6 letters) is a
	// significant word, so swapping it out must change the hash.
	a := memory.PatternHash("anxious during séance gathering")
	b := memory.PatternHash("anxious during quiet gathering")
	if a == b {
		t.Fatal("accented significant word did not contribute to the hash")
	}

	// Word length is measured in letters, not bytes: "café" has four
	// letters and stays insignificant despite its five-byte encoding.
	c := memory.PatternHash("café anxious during gathering")
	d := memory.PatternHash("tea anxious during gathering")
	if c != d {
		t.Fatalf("four-letter accented word should not be significant: %q vs %q", c, d)
	}
}

func TestTrackFirstOccurrenceDoesNotPromote(t *testing.T) {
	store := newFakeStore()
	clf := &fakeClassifier{insight: defaultInsight()}
	promoter := memory.NewPromoter(store, mock.New(), clf, nil)

	promoted := promoter.TrackAndPromote(context.Background(), episodicCandidate("anxious before presentation again"), "s1", "u1")
	if promoted != nil {
		t.Fatalf("first occurrence must not promote, got %+v", promoted)
	}
	if clf.insightCalls != 0 {
		t.Fatalf("insight must not be called on first occurrence")
	}
	if len(store.trackers) != 1 {
		t.Fatalf("expected a tracker to be created")
	}
	for _, tracker := range store.trackers {
		if tracker.OccurrenceCount != 1 || len(tracker.Occurrences) != 1 {
			t.Fatalf("tracker counts wrong: %+v", tracker)
		}
	}
}

func TestPromotionAtSecondOccurrence(t *testing.T) {
	store := newFakeStore()
	clf := &fakeClassifier{insight: defaultInsight()}
	promoter := memory.NewPromoter(store, mock.New(), clf, nil)
	ctx := context.Background()

	content := "anxious before presentation again"
	if p := promoter.TrackAndPromote(ctx, episodicCandidate(content), "s1", "u1"); p != nil {
		t.Fatal("unexpected promotion on first occurrence")
	}
	promoted := promoter.TrackAndPromote(ctx, episodicCandidate(content), "s2", "u1")
	if promoted == nil {
		t.Fatal("expected promotion on second occurrence")
	}
	if promoted.Content != defaultInsight().Insight {
		t.Fatalf("promoted content = %q, want the synthesized insight", promoted.Content)
	}
	if promoted.Confidence != 0.8 {
		t.Fatalf("promoted confidence = %v, want 0.8", promoted.Confidence)
	}

	if len(store.globalUpserts) != 1 {
		t.Fatalf("expected 1 semantic record, got %d", len(store.globalUpserts))
	}
	rec := store.globalUpserts[0]
	if rec.Type != core.MemoryTypeSemantic {
		t.Fatalf("promoted record type = %s, want semantic", rec.Type)
	}
	if rec.OccurrenceCount != 2 {
		t.Fatalf("promoted occurrence count = %d, want 2", rec.OccurrenceCount)
	}
	if len(rec.SourceSessionIDs) != 2 {
		t.Fatalf("promoted source sessions = %v, want both sessions", rec.SourceSessionIDs)
	}

	for _, tracker := range store.trackers {
		if tracker.PromotedToSemanticID != promoted.ID {
			t.Fatalf("tracker not marked with promoted id: %+v", tracker)
		}
	}
}

func TestPromotionHappensExactlyOnce(t *testing.T) {
	store := newFakeStore()
	clf := &fakeClassifier{insight: defaultInsight()}
	promoter := memory.NewPromoter(store, mock.New(), clf, nil)
	ctx := context.Background()

	content := "anxious before presentation again"
	promoter.TrackAndPromote(ctx, episodicCandidate(content), "s1", "u1")
	second := promoter.TrackAndPromote(ctx, episodicCandidate(content), "s2", "u1")
	third := promoter.TrackAndPromote(ctx, episodicCandidate(content), "s3", "u1")

	if second == nil {
		t.Fatal("expected promotion on second occurrence")
	}
	if third != nil {
		t.Fatalf("third occurrence must not promote again, got %+v", third)
	}
	if clf.insightCalls != 1 {
		t.Fatalf("insight calls = %d, want 1", clf.insightCalls)
	}
	if len(store.globalUpserts) != 1 {
		t.Fatalf("semantic records = %d, want 1", len(store.globalUpserts))
	}

	// The tracker keeps counting occurrences after promotion.
	for _, tracker := range store.trackers {
		if tracker.OccurrenceCount != 3 {
			t.Fatalf("tracker occurrence count = %d, want 3", tracker.OccurrenceCount)
		}
	}
}

func TestPromotionAbortsOnInsightFailure(t *testing.T) {
	store := newFakeStore()
	clf := &fakeClassifier{insightErr: fmt.Errorf("malformed response")}
	promoter := memory.NewPromoter(store, mock.New(), clf, nil)
	ctx := context.Background()

	content := "anxious before presentation again"
	promoter.TrackAndPromote(ctx, episodicCandidate(content), "s1", "u1")
	if p := promoter.TrackAndPromote(ctx, episodicCandidate(content), "s2", "u1"); p != nil {
		t.Fatalf("failed insight must abort promotion, got %+v", p)
	}
	if len(store.globalUpserts) != 0 {
		t.Fatal("no semantic record may be written when synthesis fails")
	}
	for _, tracker := range store.trackers {
		if tracker.PromotedToSemanticID != "" {
			t.Fatal("tracker must stay unpromoted after a failed attempt")
		}
	}

	// The next occurrence retries and succeeds.
	clf.insightErr = nil
	clf.insight = defaultInsight()
	if p := promoter.TrackAndPromote(ctx, episodicCandidate(content), "s3", "u1"); p == nil {
		t.Fatal("expected retry to promote once synthesis recovers")
	}
	if len(store.globalUpserts) != 1 {
		t.Fatalf("semantic records = %d, want 1", len(store.globalUpserts))
	}
}

func TestTrackAbsorbsStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.trackerGetErr = fmt.Errorf("connection refused")
	promoter := memory.NewPromoter(store, mock.New(), &fakeClassifier{insight: defaultInsight()}, nil)

	if p := promoter.TrackAndPromote(context.Background(), episodicCandidate("anxious before presentation"), "s1", "u1"); p != nil {
		t.Fatalf("tracker failure must yield nil, got %+v", p)
	}
}

package anthropic

import (
	"testing"

	"github.com/HarshitMathur01/MindMitra/core"
)

func TestParseCandidatesEnvelope(t *testing.T) {
	text := `{"memories": [
		{"content": "Presentations trigger the user's anxiety", "confidence": 0.8, "worth_saving": true},
		{"content": "User mentioned the weather", "confidence": 0.2, "worth_saving": false}
	]}`
	cands, err := parseCandidates(text, core.MemoryTypeSemantic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("candidates = %d, want 2", len(cands))
	}
	if cands[0].Type != core.MemoryTypeSemantic {
		t.Fatalf("type = %s, want semantic", cands[0].Type)
	}
	if cands[0].Confidence != 0.8 || !cands[0].WorthSaving {
		t.Fatalf("first candidate wrong: %+v", cands[0])
	}
	if cands[1].WorthSaving {
		t.Fatalf("explicit worth_saving false must be honored: %+v", cands[1])
	}
}

func TestParseCandidatesBareArray(t *testing.T) {
	text := `[{"content": "Breathing helps the user", "confidence": 0.7}]`
	cands, err := parseCandidates(text, core.MemoryTypeProcedural)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 || cands[0].Content != "Breathing helps the user" {
		t.Fatalf("candidates = %+v", cands)
	}
}

func TestParseCandidatesDefaults(t *testing.T) {
	// Missing confidence defaults to 0.5, which clears the 0.4 line,
	// so missing worth_saving defaults to true.
	cands, err := parseCandidates(`{"memories": [{"content": "some fact"}]}`, core.MemoryTypeSemantic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cands[0].Confidence != 0.5 {
		t.Fatalf("default confidence = %v, want 0.5", cands[0].Confidence)
	}
	if !cands[0].WorthSaving {
		t.Fatal("worth_saving should default to true at confidence 0.5")
	}

	// Low explicit confidence flips the worth_saving default.
	cands, err = parseCandidates(`{"memories": [{"content": "weak fact", "confidence": 0.3}]}`, core.MemoryTypeSemantic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cands[0].WorthSaving {
		t.Fatal("worth_saving should default to false below confidence 0.4")
	}
}

func TestParseCandidatesClampsAndDropsEmpty(t *testing.T) {
	text := `{"memories": [
		{"content": "", "confidence": 0.9},
		{"content": "overconfident", "confidence": 1.7},
		{"content": "negative", "confidence": -0.2}
	]}`
	cands, err := parseCandidates(text, core.MemoryTypeSemantic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("empty content must be dropped, got %d candidates", len(cands))
	}
	if cands[0].Confidence != 1.0 {
		t.Fatalf("confidence = %v, want clamped to 1.0", cands[0].Confidence)
	}
	if cands[1].Confidence != 0.0 {
		t.Fatalf("confidence = %v, want clamped to 0.0", cands[1].Confidence)
	}
}

func TestParseCandidatesNoisyResponse(t *testing.T) {
	text := "Here are the extracted memories:\n```json\n{\"memories\": [{\"content\": \"fact\", \"confidence\": 0.6}]}\n```"
	cands, err := parseCandidates(text, core.MemoryTypeSemantic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("candidates = %d, want 1", len(cands))
	}
}

func TestParseCandidatesGarbage(t *testing.T) {
	if _, err := parseCandidates("I could not produce JSON, sorry.", core.MemoryTypeSemantic); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestParseSummary(t *testing.T) {
	text := `{"summary": "User discussed work stress.",
		"emotional_progression": {"start_state": "anxious", "end_state": "calm", "trajectory": "improving"},
		"key_themes": ["work", "stress"]}`
	s, err := parseSummary(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Summary != "User discussed work stress." || s.Progression.Trajectory != "improving" || len(s.KeyThemes) != 2 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestParseSummaryDefaults(t *testing.T) {
	s, err := parseSummary(`{"summary": "short"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Progression.Trajectory != "stable" {
		t.Fatalf("trajectory = %q, want stable default", s.Progression.Trajectory)
	}
	if s.KeyThemes == nil {
		t.Fatal("key themes must be empty, not nil")
	}

	if _, err := parseSummary(`{"key_themes": []}`); err == nil {
		t.Fatal("missing summary must be an error")
	}
}

func TestParseInsight(t *testing.T) {
	in, err := parseInsight(`{"insight": "Recurring presentation anxiety", "outcome_trend": "mixed", "confidence": 0.9}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Insight != "Recurring presentation anxiety" || in.OutcomeTrend != "mixed" || in.Confidence != 0.9 {
		t.Fatalf("insight = %+v", in)
	}
}

func TestParseInsightConfidenceDefault(t *testing.T) {
	in, err := parseInsight(`{"insight": "Recurring pattern", "outcome_trend": "success"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Confidence != 0.7 {
		t.Fatalf("default confidence = %v, want 0.7", in.Confidence)
	}
}

func TestParseInsightMissingInsightIsFatal(t *testing.T) {
	for _, text := range []string{
		`{"outcome_trend": "success", "confidence": 0.9}`,
		`{"insight": ""}`,
		"not json at all",
	} {
		if in, err := parseInsight(text); err == nil {
			t.Fatalf("parseInsight(%q) = %+v, want error", text, in)
		}
	}
}

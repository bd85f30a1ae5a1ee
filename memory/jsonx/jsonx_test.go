package jsonx_test

import (
	"testing"

	"github.com/HarshitMathur01/MindMitra/memory/jsonx"
)

func TestExtractStrict(t *testing.T) {
	got, err := jsonx.Extract(`{"insight": "recurring anxiety"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"insight": "recurring anxiety"}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractFencedBlock(t *testing.T) {
	text := "Here you go:\n```json\n{\"memories\": []}\n```\nHope that helps!"
	got, err := jsonx.Extract(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"memories": []}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractBalancedScan(t *testing.T) {
	text := `Sure! The result is {"a": {"b": "brace } in string"}, "c": [1, 2]} and that's it.`
	got, err := jsonx.Extract(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"a": {"b": "brace } in string"}, "c": [1, 2]}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractArray(t *testing.T) {
	got, err := jsonx.Extract(`The list: [{"content": "x"}] done`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `[{"content": "x"}]` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractFailures(t *testing.T) {
	for _, text := range []string{
		"",
		"   ",
		"no json here",
		"broken {\"a\": ",
		`"just a string"`,
		"42",
	} {
		if got, err := jsonx.Extract(text); err == nil {
			t.Fatalf("Extract(%q) = %q, want error", text, got)
		}
	}
}

func TestUnmarshal(t *testing.T) {
	var payload struct {
		Insight    string  `json:"insight"`
		Confidence float64 `json:"confidence"`
	}
	text := "```json\n{\"insight\": \"x\", \"confidence\": 0.7}\n```"
	if err := jsonx.Unmarshal(text, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Insight != "x" || payload.Confidence != 0.7 {
		t.Fatalf("decoded %+v", payload)
	}
}

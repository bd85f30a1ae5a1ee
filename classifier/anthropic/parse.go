package anthropic

import (
	"fmt"

	"github.com/HarshitMathur01/MindMitra/core"
	"github.com/HarshitMathur01/MindMitra/memory/jsonx"
)

// candidateJSON mirrors the extraction payload. Pointer fields
// distinguish absent from zero so defaults apply only when a field is
// actually missing.
type candidateJSON struct {
	Content     string   `json:"content"`
	Confidence  *float64 `json:"confidence"`
	WorthSaving *bool    `json:"worth_saving"`
}

// parseCandidates decodes an extraction response. Accepts both the
// documented {"memories": [...]} envelope and a bare array. Missing
// fields get safe defaults: confidence 0.5, worth_saving when
// confidence >= 0.4. Entries without content are dropped.
func parseCandidates(text string, memType core.MemoryType) ([]core.MemoryCandidate, error) {
	var envelope struct {
		Memories []candidateJSON `json:"memories"`
	}
	var raw []candidateJSON
	if err := jsonx.Unmarshal(text, &envelope); err == nil && envelope.Memories != nil {
		raw = envelope.Memories
	} else {
		var bare []candidateJSON
		if arrErr := jsonx.Unmarshal(text, &bare); arrErr != nil {
			return nil, fmt.Errorf("no memories payload in response: %w", arrErr)
		}
		raw = bare
	}

	cands := make([]core.MemoryCandidate, 0, len(raw))
	for _, item := range raw {
		if item.Content == "" {
			continue
		}
		confidence := 0.5
		if item.Confidence != nil {
			confidence = clamp01(*item.Confidence)
		}
		worth := confidence >= 0.4
		if item.WorthSaving != nil {
			worth = *item.WorthSaving
		}
		cands = append(cands, core.MemoryCandidate{
			Content:     item.Content,
			Type:        memType,
			Confidence:  confidence,
			WorthSaving: worth,
		})
	}
	return cands, nil
}

// parseSummary decodes a summarization response. An empty summary is
// an error; the caller substitutes its placeholder.
func parseSummary(text string) (*core.SessionSummary, error) {
	var payload struct {
		Summary     string `json:"summary"`
		Progression struct {
			StartState string `json:"start_state"`
			EndState   string `json:"end_state"`
			Trajectory string `json:"trajectory"`
		} `json:"emotional_progression"`
		KeyThemes []string `json:"key_themes"`
	}
	if err := jsonx.Unmarshal(text, &payload); err != nil {
		return nil, err
	}
	if payload.Summary == "" {
		return nil, fmt.Errorf("summary missing from response")
	}

	trajectory := payload.Progression.Trajectory
	if trajectory == "" {
		trajectory = "stable"
	}
	themes := payload.KeyThemes
	if themes == nil {
		themes = []string{}
	}
	return &core.SessionSummary{
		Summary: payload.Summary,
		Progression: core.EmotionalProgression{
			StartState: payload.Progression.StartState,
			EndState:   payload.Progression.EndState,
			Trajectory: trajectory,
		},
		KeyThemes: themes,
	}, nil
}

// parseInsight decodes a promotion insight. A missing insight is an
// error by design: the pattern stays unpromoted rather than getting a
// made-up one. Confidence defaults to 0.7 when absent.
func parseInsight(text string) (*core.PatternInsight, error) {
	var payload struct {
		Insight      string   `json:"insight"`
		OutcomeTrend string   `json:"outcome_trend"`
		Confidence   *float64 `json:"confidence"`
	}
	if err := jsonx.Unmarshal(text, &payload); err != nil {
		return nil, err
	}
	if payload.Insight == "" {
		return nil, fmt.Errorf("insight missing from response")
	}

	confidence := 0.7
	if payload.Confidence != nil {
		confidence = clamp01(*payload.Confidence)
	}
	return &core.PatternInsight{
		Insight:      payload.Insight,
		OutcomeTrend: payload.OutcomeTrend,
		Confidence:   confidence,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package anthropic implements the memory classifier on the Anthropic
// Messages API. It extracts memory candidates from conversation turns,
// summarizes sessions, and synthesizes insights from recurring
// episodic patterns.
package anthropic

import (
	"context"
	"fmt"
	"log"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/HarshitMathur01/MindMitra/core"
	"github.com/HarshitMathur01/MindMitra/memory"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-20250514"

// Classifier calls Claude for extraction, summarization, and
// promotion insights.
type Classifier struct {
	client    *sdk.Client
	model     string
	maxTokens int64
}

// Option customizes the classifier.
type Option func(*Classifier)

// WithModel overrides the model.
func WithModel(model string) Option {
	return func(c *Classifier) { c.model = model }
}

// WithMaxTokens overrides the response token cap.
func WithMaxTokens(n int64) Option {
	return func(c *Classifier) { c.maxTokens = n }
}

// New creates a classifier over an existing Anthropic client.
func New(client *sdk.Client, opts ...Option) *Classifier {
	c := &Classifier{
		client:    client,
		model:     DefaultModel,
		maxTokens: 2048,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify extracts candidates of one memory type from the turns.
func (c *Classifier) Classify(ctx context.Context, turns []core.Message, memType core.MemoryType) ([]core.MemoryCandidate, error) {
	focus, ok := typeFocus[memType]
	if !ok {
		return nil, fmt.Errorf("unknown memory type: %s", memType)
	}

	prompt := fmt.Sprintf("Conversation:\n%s\n%s", memory.FormatTurns(turns), focus)
	text, err := c.complete(ctx, classifySystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s extraction: %w", memType, err)
	}

	cands, err := parseCandidates(text, memType)
	if err != nil {
		return nil, fmt.Errorf("parse %s extraction: %w", memType, err)
	}
	log.Printf("[CLASSIFIER] Extracted %d %s candidates", len(cands), memType)
	return cands, nil
}

// Summarize condenses the turns into a session summary.
func (c *Classifier) Summarize(ctx context.Context, turns []core.Message) (*core.SessionSummary, error) {
	prompt := fmt.Sprintf("Conversation:\n%s", memory.FormatTurns(turns))
	text, err := c.complete(ctx, summarySystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	return parseSummary(text)
}

// Insight synthesizes a recurring episodic pattern into one durable
// statement. An unparseable response is an error; there is no
// fabricated fallback.
func (c *Classifier) Insight(ctx context.Context, occurrences []core.Occurrence) (*core.PatternInsight, error) {
	var b strings.Builder
	for i, occ := range occurrences {
		fmt.Fprintf(&b, "Occurrence %d: %s\n", i+1, occ.Content)
	}

	text, err := c.complete(ctx, insightSystemPrompt, b.String())
	if err != nil {
		return nil, fmt.Errorf("insight synthesis: %w", err)
	}
	return parseInsight(text)
}

// complete sends one system+user exchange and concatenates the text
// blocks of the response.
func (c *Classifier) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []sdk.TextBlockParam{
			{Text: system},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

var typeFocus = map[core.MemoryType]string{
	core.MemoryTypeSemantic: `Extract SEMANTIC memories: durable facts about the user.
Triggers, preferences, relationships, life circumstances, recurring concerns.
Example: "Presentations at work trigger the user's anxiety"`,
	core.MemoryTypeProcedural: `Extract PROCEDURAL memories: coping strategies and techniques, and how well they worked.
Example: "4-7-8 breathing helps the user calm down before stressful events"`,
	core.MemoryTypeEpisodic: `Extract EPISODIC memories: specific events the user described, tied to a moment in time.
Example: "User felt anxious before Monday's presentation and tried breathing exercises"`,
}

const classifySystemPrompt = `You extract memories from mental-wellness conversations.

Return ONLY a JSON object:
{"memories": [{"content": "...", "confidence": 0.0-1.0, "worth_saving": true|false}]}

Rules:
- content: one self-contained statement, third person, naming the user
- confidence: how certain the memory is, based on how clearly the user stated it
- worth_saving: false for small talk, filler, or anything with no lasting value
- Return {"memories": []} when nothing qualifies`

const summarySystemPrompt = `You summarize mental-wellness conversations.

Return ONLY a JSON object:
{"summary": "under 200 words",
 "emotional_progression": {"start_state": "...", "end_state": "...", "trajectory": "improving|stable|declining"},
 "key_themes": ["..."]}`

const insightSystemPrompt = `The same kind of event has happened to a user repeatedly.
Synthesize the occurrences into ONE durable insight about the user.

Return ONLY a JSON object:
{"insight": "one sentence, third person",
 "outcome_trend": "success|mixed|failure",
 "confidence": 0.0-1.0}`

package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/HarshitMathur01/MindMitra/core"
)

// maxTurnChars caps each message's contribution to the classifier
// prompt. Long messages are truncated, not dropped.
const maxTurnChars = 300

// Pipeline runs the full memory flow for chunks of conversation:
// per-type extraction, tier routing, pattern tracking/promotion, and
// retrieval. The chat path hands turns to Submit and moves on; memory
// work never blocks a response.
type Pipeline struct {
	store      Store
	embedder   Embedder
	classifier Classifier
	config     *Config

	router    *TieredRouter
	promoter  *Promoter
	retriever *Retriever

	jobs      chan extractionJob
	done      chan struct{}
	closeOnce sync.Once
}

type extractionJob struct {
	sessionID string
	userID    string
	turns     []core.Message
}

// NewPipeline wires the subsystem together and starts the background
// extraction worker. A nil config uses DefaultConfig. Call Close to
// drain and stop the worker.
func NewPipeline(store Store, embedder Embedder, classifier Classifier, config *Config) *Pipeline {
	config = config.withDefaults()
	p := &Pipeline{
		store:      store,
		embedder:   embedder,
		classifier: classifier,
		config:     config,
		router:     NewTieredRouter(store, embedder, config),
		promoter:   NewPromoter(store, embedder, classifier, config),
		retriever:  NewRetriever(store, config),
		jobs:       make(chan extractionJob, config.QueueSize),
		done:       make(chan struct{}),
	}
	go p.worker()
	return p
}

// Submit queues an extraction round without blocking. When the queue
// is full the chunk is dropped and logged; the caller never waits.
func (p *Pipeline) Submit(sessionID, userID string, turns []core.Message) {
	if !p.config.Enabled || len(turns) == 0 {
		return
	}
	select {
	case p.jobs <- extractionJob{sessionID: sessionID, userID: userID, turns: turns}:
	default:
		log.Printf("[MEMORY] Extraction queue full, dropping chunk of %d turns for session %s", len(turns), sessionID)
	}
}

// worker drains the extraction queue until Close.
func (p *Pipeline) worker() {
	for job := range p.jobs {
		p.ProcessTurns(context.Background(), job.sessionID, job.userID, job.turns)
	}
	close(p.done)
}

// Close stops accepting submissions, drains queued jobs, and waits for
// the worker to finish.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
		<-p.done
	})
}

// ProcessTurns runs one synchronous extraction round over turns:
// classifies each memory type in parallel, routes semantic and
// procedural candidates through the tiers, logs episodic candidates
// verbatim, and tracks/promotes episodic patterns.
//
// It never fails the caller; per-type classifier errors degrade to
// zero candidates for that type.
func (p *Pipeline) ProcessTurns(ctx context.Context, sessionID, userID string, turns []core.Message) *core.ExtractionResult {
	result := &core.ExtractionResult{
		Summary:    placeholderSummary(),
		Candidates: make(map[core.MemoryType][]core.MemoryCandidate),
		Saved:      make(map[core.MemoryType]int),
	}
	if !p.config.Enabled || len(turns) == 0 {
		return result
	}

	log.Printf("[MEMORY] Extracting from %d turns (session %s)", len(turns), sessionID)

	types := core.AllMemoryTypes()
	candidates := make([][]core.MemoryCandidate, len(types))
	var summary *core.SessionSummary

	// One classifier call per memory type, bounded by the worker pool,
	// plus the session summary alongside.
	sem := make(chan struct{}, p.config.ExtractionWorkers)
	var wg sync.WaitGroup
	for i, memType := range types {
		wg.Add(1)
		go func(i int, memType core.MemoryType) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, p.config.CallTimeout)
			defer cancel()
			cands, err := p.classifier.Classify(callCtx, turns, memType)
			if err != nil {
				log.Printf("[MEMORY] %s extraction failed: %v", memType, err)
				return
			}
			candidates[i] = cands
		}(i, memType)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		callCtx, cancel := context.WithTimeout(ctx, p.config.CallTimeout)
		defer cancel()
		s, err := p.classifier.Summarize(callCtx, turns)
		if err != nil {
			log.Printf("[MEMORY] Session summary failed: %v", err)
			return
		}
		summary = s
	}()
	wg.Wait()

	if summary != nil {
		result.Summary = *summary
	}
	for i, memType := range types {
		result.Candidates[memType] = candidates[i]
	}

	// Route semantic and procedural candidates through the tiers.
	for _, memType := range []core.MemoryType{core.MemoryTypeSemantic, core.MemoryTypeProcedural} {
		for _, cand := range result.Candidates[memType] {
			callCtx, cancel := context.WithTimeout(ctx, p.config.CallTimeout)
			id := p.router.Route(callCtx, cand, sessionID, userID)
			cancel()
			if id != "" {
				result.Saved[memType]++
			}
		}
	}

	// Episodic candidates go two places: the verbatim session log that
	// retrieval surfaces, and the pattern tracker.
	for _, cand := range result.Candidates[core.MemoryTypeEpisodic] {
		callCtx, cancel := context.WithTimeout(ctx, p.config.CallTimeout)
		if err := p.store.AppendSessionEpisodic(callCtx, &core.EpisodicRecord{
			SessionID:  sessionID,
			UserID:     userID,
			Content:    cand.Content,
			Confidence: cand.Confidence,
		}); err != nil {
			log.Printf("[MEMORY] Episodic log failed: %v", err)
		} else {
			result.Saved[core.MemoryTypeEpisodic]++
		}

		if promoted := p.promoter.TrackAndPromote(callCtx, cand, sessionID, userID); promoted != nil {
			result.Promoted = append(result.Promoted, *promoted)
		}
		cancel()
	}

	log.Printf("[MEMORY] Extraction done: %d semantic, %d procedural, %d episodic saved, %d promoted",
		result.Saved[core.MemoryTypeSemantic], result.Saved[core.MemoryTypeProcedural],
		result.Saved[core.MemoryTypeEpisodic], len(result.Promoted))
	return result
}

// Retrieve embeds the query and gathers memories from all three
// sources. Embedding failure degrades to session and episodic results
// only; Retrieve never returns an error.
func (p *Pipeline) Retrieve(ctx context.Context, query string, types []core.MemoryType, confidenceThreshold float64, userID, sessionID string, topK int) *core.RetrievalResult {
	if !p.config.Enabled {
		return &core.RetrievalResult{}
	}

	var embedding []float32
	embedCtx, cancel := context.WithTimeout(ctx, p.config.CallTimeout)
	emb, err := p.embedder.Embed(embedCtx, query)
	cancel()
	if err != nil {
		log.Printf("[RAG] Query embed failed, vector search degraded: %v", err)
	} else {
		embedding = emb
	}

	return p.retriever.Retrieve(ctx, RetrieveRequest{
		Query:               query,
		QueryEmbedding:      embedding,
		Types:               types,
		ConfidenceThreshold: confidenceThreshold,
		UserID:              userID,
		SessionID:           sessionID,
		TopK:                topK,
	})
}

// FormatTurns renders conversation turns for the classifier prompt:
// numbered, role-prefixed, each message capped at 300 characters.
func FormatTurns(turns []core.Message) string {
	var b strings.Builder
	for i, turn := range turns {
		content := turn.Content
		if len(content) > maxTurnChars {
			content = content[:maxTurnChars]
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, turn.Role, content)
	}
	return b.String()
}

// placeholderSummary is the documented fallback when summarization
// fails: no fabricated content, just a stable marker.
func placeholderSummary() core.SessionSummary {
	return core.SessionSummary{
		Summary: "Summary unavailable",
		Progression: core.EmotionalProgression{
			StartState: "unknown",
			EndState:   "unknown",
			Trajectory: "stable",
		},
		KeyThemes: []string{},
	}
}

package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/HarshitMathur01/MindMitra/core"
	"github.com/HarshitMathur01/MindMitra/memory"
)

func scoredSemantic(id, content string, score float64) core.ScoredMemory {
	return core.ScoredMemory{
		Record: &core.GlobalMemoryRecord{
			ID:              id,
			UserID:          "u1",
			Type:            core.MemoryTypeSemantic,
			Content:         content,
			ConfidenceScore: 0.8,
		},
		CombinedScore: score,
	}
}

func scoredProcedural(id, content string, score float64) core.ScoredMemory {
	sm := scoredSemantic(id, content, score)
	sm.Record.Type = core.MemoryTypeProcedural
	return sm
}

func TestRetrievePartitionsByType(t *testing.T) {
	store := newFakeStore()
	store.hybridResults = []core.ScoredMemory{
		scoredSemantic("g1", "Presentations trigger the user's anxiety", 0.9),
		scoredProcedural("g2", "Breathing exercises help the user", 0.8),
	}
	store.sessionRecs = []core.SessionMemoryRecord{{
		ID:              "sm1",
		SessionID:       "s1",
		UserID:          "u1",
		Type:            core.MemoryTypeSemantic,
		Content:         "User mentioned a new job",
		ConfidenceScore: 0.5,
		CreatedAt:       time.Now(),
	}}
	store.episodics = []core.EpisodicRecord{{
		ID:        "e1",
		SessionID: "s1",
		UserID:    "u1",
		Content:   "User felt anxious this morning",
	}}
	retriever := memory.NewRetriever(store, nil)

	result := retriever.Retrieve(context.Background(), memory.RetrieveRequest{
		Query:     "anxiety",
		UserID:    "u1",
		SessionID: "s1",
	})

	if len(result.Semantic) != 2 {
		t.Fatalf("semantic bucket = %d entries, want 2 (global + session)", len(result.Semantic))
	}
	if len(result.Procedural) != 1 {
		t.Fatalf("procedural bucket = %d entries, want 1", len(result.Procedural))
	}
	if len(result.Episodic) != 1 {
		t.Fatalf("episodic bucket = %d entries, want 1", len(result.Episodic))
	}
	if result.Semantic[0].Source != core.SourceGlobal || result.Semantic[1].Source != core.SourceSession {
		t.Fatalf("semantic bucket sources wrong: %+v", result.Semantic)
	}
	if result.Episodic[0].Source != core.SourceEpisodic {
		t.Fatalf("episodic source = %s, want episodic", result.Episodic[0].Source)
	}
}

func TestRetrieveEpisodicsVerbatim(t *testing.T) {
	store := newFakeStore()
	// Low-confidence episodics still surface: the episodic log is
	// never filtered or ranked.
	store.episodics = []core.EpisodicRecord{
		{ID: "e1", SessionID: "s1", Content: "first event", Confidence: 0.1},
		{ID: "e2", SessionID: "s1", Content: "second event", Confidence: 0.05},
		{ID: "e3", SessionID: "other", Content: "other session"},
	}
	retriever := memory.NewRetriever(store, nil)

	result := retriever.Retrieve(context.Background(), memory.RetrieveRequest{
		Types:               []core.MemoryType{core.MemoryTypeEpisodic},
		ConfidenceThreshold: 0.9,
		UserID:              "u1",
		SessionID:           "s1",
	})

	if len(result.Episodic) != 2 {
		t.Fatalf("episodic bucket = %d entries, want 2", len(result.Episodic))
	}
	if result.Episodic[0].Content != "first event" || result.Episodic[1].Content != "second event" {
		t.Fatalf("episodics must keep insertion order: %+v", result.Episodic)
	}
}

func TestRetrieveSkipsGlobalSearchForEpisodicOnly(t *testing.T) {
	store := newFakeStore()
	retriever := memory.NewRetriever(store, nil)

	retriever.Retrieve(context.Background(), memory.RetrieveRequest{
		Types:     []core.MemoryType{core.MemoryTypeEpisodic},
		UserID:    "u1",
		SessionID: "s1",
	})
	if store.hybridCalls != 0 {
		t.Fatalf("global search ran %d times for an episodic-only request, want 0", store.hybridCalls)
	}

	retriever.Retrieve(context.Background(), memory.RetrieveRequest{
		Types:     []core.MemoryType{core.MemoryTypeSemantic},
		UserID:    "u1",
		SessionID: "s1",
	})
	if store.hybridCalls != 1 {
		t.Fatalf("global search ran %d times for a semantic request, want 1", store.hybridCalls)
	}
}

func TestRetrieveIsolatesSourceFailures(t *testing.T) {
	store := newFakeStore()
	store.hybridErr = fmt.Errorf("vector index offline")
	store.sessionRecs = []core.SessionMemoryRecord{{
		ID:        "sm1",
		SessionID: "s1",
		Type:      core.MemoryTypeSemantic,
		Content:   "User mentioned a new job",
	}}
	store.episodics = []core.EpisodicRecord{{ID: "e1", SessionID: "s1", Content: "event"}}
	retriever := memory.NewRetriever(store, nil)

	result := retriever.Retrieve(context.Background(), memory.RetrieveRequest{
		UserID:    "u1",
		SessionID: "s1",
	})
	if len(result.Semantic) != 1 {
		t.Fatalf("session source must survive a global failure, got %+v", result)
	}
	if len(result.Episodic) != 1 {
		t.Fatalf("episodic source must survive a global failure, got %+v", result)
	}
}

func TestRetrieveTotalFailureYieldsEmptyBuckets(t *testing.T) {
	store := newFakeStore()
	store.hybridErr = fmt.Errorf("offline")
	store.sessionGetErr = fmt.Errorf("offline")
	store.episodicErr = fmt.Errorf("offline")
	retriever := memory.NewRetriever(store, nil)

	result := retriever.Retrieve(context.Background(), memory.RetrieveRequest{
		UserID:    "u1",
		SessionID: "s1",
	})
	if result == nil {
		t.Fatal("retrieve must never return nil")
	}
	if result.Total() != 0 {
		t.Fatalf("total failure should yield empty buckets, got %d entries", result.Total())
	}
}

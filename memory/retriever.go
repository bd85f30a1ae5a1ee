package memory

import (
	"context"
	"log"

	"github.com/HarshitMathur01/MindMitra/core"
)

// RetrieveRequest describes one retrieval.
type RetrieveRequest struct {
	// Query is the text being answered; it drives keyword relevance.
	Query string

	// QueryEmbedding is the embedded query. A nil or all-zero embedding
	// still retrieves session and episodic memories.
	QueryEmbedding []float32

	// Types restricts which memory types are retrieved. Empty means all.
	Types []core.MemoryType

	// ConfidenceThreshold filters global results. Session and episodic
	// results are never confidence-filtered.
	ConfidenceThreshold float64

	UserID    string
	SessionID string

	// TopK caps global hybrid search results. Zero means the
	// configured default.
	TopK int
}

// Retriever assembles context from the three memory surfaces: the
// global tier (hybrid vector+keyword search), the session tier, and
// the raw episodic log of the current session.
//
// Each source fails independently. A broken source contributes an
// empty slice; Retrieve itself never returns an error.
type Retriever struct {
	store  Store
	config *Config
}

// NewRetriever creates a retriever. A nil config uses DefaultConfig.
func NewRetriever(store Store, config *Config) *Retriever {
	return &Retriever{
		store:  store,
		config: config.withDefaults(),
	}
}

// Retrieve gathers memories for req and partitions them into type
// buckets. Ordering inside buckets: global results by combined score
// descending, session results oldest first, episodic results in
// insertion order and always verbatim.
func (r *Retriever) Retrieve(ctx context.Context, req RetrieveRequest) *core.RetrievalResult {
	result := &core.RetrievalResult{}

	types := req.Types
	if len(types) == 0 {
		types = core.AllMemoryTypes()
	}
	topK := req.TopK
	if topK <= 0 {
		topK = r.config.DefaultTopK
	}

	// Source 1: global tier. Only semantic and procedural memories live
	// there; skip the search when neither was requested.
	globalTypes := filterTypes(types, core.MemoryTypeSemantic, core.MemoryTypeProcedural)
	if len(globalTypes) > 0 {
		scored, err := r.store.HybridSearch(ctx, req.QueryEmbedding, req.Query, req.UserID, globalTypes, req.ConfidenceThreshold, topK)
		if err != nil {
			log.Printf("[RAG] Global search failed, skipping source: %v", err)
		} else {
			for _, sm := range scored {
				appendToBucket(result, core.RetrievedMemory{
					ID:            sm.Record.ID,
					Type:          sm.Record.Type,
					Content:       sm.Record.Content,
					Confidence:    sm.Record.ConfidenceScore,
					CombinedScore: sm.CombinedScore,
					Source:        core.SourceGlobal,
					CreatedAt:     sm.Record.CreatedAt,
				})
			}
		}
	}

	// Source 2: session tier, oldest first.
	if req.SessionID != "" {
		sessionRecs, err := r.store.SessionMemories(ctx, req.SessionID, types)
		if err != nil {
			log.Printf("[RAG] Session memory fetch failed, skipping source: %v", err)
		} else {
			for _, rec := range sessionRecs {
				appendToBucket(result, core.RetrievedMemory{
					ID:         rec.ID,
					Type:       rec.Type,
					Content:    rec.Content,
					Confidence: rec.ConfidenceScore,
					Source:     core.SourceSession,
					CreatedAt:  rec.CreatedAt,
				})
			}
		}
	}

	// Source 3: every episodic memory of the current session, verbatim.
	// No type filter, no confidence filter, no ranking.
	if req.SessionID != "" {
		episodics, err := r.store.SessionEpisodics(ctx, req.SessionID)
		if err != nil {
			log.Printf("[RAG] Episodic fetch failed, skipping source: %v", err)
		} else {
			for _, ep := range episodics {
				result.Episodic = append(result.Episodic, core.RetrievedMemory{
					ID:         ep.ID,
					Type:       core.MemoryTypeEpisodic,
					Content:    ep.Content,
					Confidence: ep.Confidence,
					Source:     core.SourceEpisodic,
					CreatedAt:  ep.CreatedAt,
				})
			}
		}
	}

	log.Printf("[RAG] Retrieved %d memories (%d semantic, %d procedural, %d episodic)",
		result.Total(), len(result.Semantic), len(result.Procedural), len(result.Episodic))
	return result
}

// appendToBucket places mem into the bucket matching its type.
// Memories with unknown types are dropped.
func appendToBucket(result *core.RetrievalResult, mem core.RetrievedMemory) {
	switch mem.Type {
	case core.MemoryTypeSemantic:
		result.Semantic = append(result.Semantic, mem)
	case core.MemoryTypeProcedural:
		result.Procedural = append(result.Procedural, mem)
	case core.MemoryTypeEpisodic:
		result.Episodic = append(result.Episodic, mem)
	}
}

// filterTypes intersects requested types with the allowed set,
// preserving request order.
func filterTypes(requested []core.MemoryType, allowed ...core.MemoryType) []core.MemoryType {
	var out []core.MemoryType
	for _, t := range requested {
		for _, a := range allowed {
			if t == a {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

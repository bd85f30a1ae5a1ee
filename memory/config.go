package memory

import "time"

// Config holds the tuning knobs for the memory subsystem.
type Config struct {
	// Enabled toggles the memory system on/off.
	// Default: true.
	Enabled bool

	// SimilarityThreshold is the cosine similarity at or above which a
	// new global memory merges into an existing one instead of
	// inserting. Default: 0.85.
	SimilarityThreshold float64

	// GlobalConfidenceMin is the confidence floor for the global tier.
	// Candidates at or above it are deduplicated and stored
	// cross-session. Default: 0.6.
	GlobalConfidenceMin float64

	// SessionConfidenceMin is the confidence floor for the session
	// tier. Candidates below it are discarded entirely. Default: 0.4.
	SessionConfidenceMin float64

	// PromotionMinOccurrences is how many times an episodic pattern
	// must recur before it is promoted to a semantic memory.
	// Default: 2.
	PromotionMinOccurrences int

	// PromotionContextSize is how many recent occurrences are shown to
	// the LLM when synthesizing a promotion insight. Default: 3.
	PromotionContextSize int

	// DefaultTopK caps hybrid search results per retrieval.
	// Default: 10.
	DefaultTopK int

	// ExtractionWorkers bounds the parallel per-type classifier calls
	// in one extraction round. Default: 3 (one per memory type).
	ExtractionWorkers int

	// CallTimeout bounds each classifier, embedding, and store call.
	// Default: 30s.
	CallTimeout time.Duration

	// QueueSize is the background extraction queue capacity. Submissions
	// beyond it are dropped, never blocked on. Default: 64.
	QueueSize int
}

// DefaultConfig mirrors the production thresholds.
var DefaultConfig = &Config{
	Enabled:                 true,
	SimilarityThreshold:     0.85,
	GlobalConfidenceMin:     0.6,
	SessionConfidenceMin:    0.4,
	PromotionMinOccurrences: 2,
	PromotionContextSize:    3,
	DefaultTopK:             10,
	ExtractionWorkers:       3,
	CallTimeout:             30 * time.Second,
	QueueSize:               64,
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		cp := *DefaultConfig
		return &cp
	}
	cp := *c
	if cp.SimilarityThreshold == 0 {
		cp.SimilarityThreshold = DefaultConfig.SimilarityThreshold
	}
	if cp.GlobalConfidenceMin == 0 {
		cp.GlobalConfidenceMin = DefaultConfig.GlobalConfidenceMin
	}
	if cp.SessionConfidenceMin == 0 {
		cp.SessionConfidenceMin = DefaultConfig.SessionConfidenceMin
	}
	if cp.PromotionMinOccurrences == 0 {
		cp.PromotionMinOccurrences = DefaultConfig.PromotionMinOccurrences
	}
	if cp.PromotionContextSize == 0 {
		cp.PromotionContextSize = DefaultConfig.PromotionContextSize
	}
	if cp.DefaultTopK == 0 {
		cp.DefaultTopK = DefaultConfig.DefaultTopK
	}
	if cp.ExtractionWorkers == 0 {
		cp.ExtractionWorkers = DefaultConfig.ExtractionWorkers
	}
	if cp.CallTimeout == 0 {
		cp.CallTimeout = DefaultConfig.CallTimeout
	}
	if cp.QueueSize == 0 {
		cp.QueueSize = DefaultConfig.QueueSize
	}
	return &cp
}

package executor

import (
	"sync"
	"time"
)

// LatencyStats implements the accumulating microsecond-counter schema of
// spec.md §6. Every field is a monotonically increasing total across every
// Prefill/Decode call the owning Executor has serviced; per-call timing
// (the tuples bench.TurnRecorder needs for tokens-per-second) is reported
// separately by the caller (session), since the executor itself has no
// notion of "turns", only of individual stage calls.
type LatencyStats struct {
	mu sync.Mutex

	PrefillE2E                  time.Duration
	PrefillPrepareInput         time.Duration
	PrefillEmbedderInference    time.Duration
	PrefillRopeInference        time.Duration
	PrefillMaskInference        time.Duration
	PrefillLLMInference         time.Duration
	PrefillCacheUpdateInference time.Duration
	PrefillNumTokens            int64

	DecodeE2E                  time.Duration
	DecodePrepareInput         time.Duration
	DecodeEmbedderInference    time.Duration
	DecodeRopeInference        time.Duration
	DecodeMaskInference        time.Duration
	DecodeLLMInference         time.Duration
	DecodeCacheUpdateInference time.Duration
	DecodeSamplingLatency      time.Duration
	DecodeNumTokens            int64
}

// Snapshot returns a copy of the current accumulators, safe to read while
// the executor continues to mutate the live stats.
func (s *LatencyStats) Snapshot() LatencyStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := *s
	snap.mu = sync.Mutex{}
	return snap
}

func (s *LatencyStats) addPrefillStage(stage string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch stage {
	case "embedder":
		s.PrefillEmbedderInference += d
	case "rope":
		s.PrefillRopeInference += d
	case "mask":
		s.PrefillMaskInference += d
	case "llm":
		s.PrefillLLMInference += d
	case "cache_update":
		s.PrefillCacheUpdateInference += d
	}
}

func (s *LatencyStats) addDecodeStage(stage string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch stage {
	case "embedder":
		s.DecodeEmbedderInference += d
	case "rope":
		s.DecodeRopeInference += d
	case "mask":
		s.DecodeMaskInference += d
	case "llm":
		s.DecodeLLMInference += d
	case "cache_update":
		s.DecodeCacheUpdateInference += d
	}
}

func (s *LatencyStats) addPrefillE2E(prepareInput, e2e time.Duration, numTokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PrefillPrepareInput += prepareInput
	s.PrefillE2E += e2e
	// Resolved Open Question (spec.md §9): count the actual chunk length
	// rather than a fixed 128, so a future non-128 chunk length is
	// accounted correctly.
	s.PrefillNumTokens += int64(numTokens)
}

func (s *LatencyStats) addDecodeE2E(prepareInput, e2e, sampling time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DecodePrepareInput += prepareInput
	s.DecodeE2E += e2e
	s.DecodeSamplingLatency += sampling
	s.DecodeNumTokens++
}

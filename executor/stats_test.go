package executor

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// TestLatencyStatsSnapshotDiff exercises the accumulator with go-cmp, the
// same struct-diffing dependency the teacher's test suite reaches for when
// comparing multi-field result structs, rather than a long chain of
// require.Equal calls on individual fields.
func TestLatencyStatsSnapshotDiff(t *testing.T) {
	var s LatencyStats
	s.addPrefillStage("embedder", 2*time.Millisecond)
	s.addPrefillStage("llm", 5*time.Millisecond)
	s.addPrefillE2E(1*time.Millisecond, 8*time.Millisecond, 5)

	want := LatencyStats{
		PrefillEmbedderInference: 2 * time.Millisecond,
		PrefillLLMInference:      5 * time.Millisecond,
		PrefillPrepareInput:      1 * time.Millisecond,
		PrefillE2E:               8 * time.Millisecond,
		PrefillNumTokens:         5,
	}

	got := s.Snapshot()
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(LatencyStats{})); diff != "" {
		t.Errorf("LatencyStats mismatch (-want +got):\n%s", diff)
	}
}

func TestLatencyStatsDecodeAccumulatesAcrossCalls(t *testing.T) {
	var s LatencyStats
	s.addDecodeStage("llm", 1*time.Millisecond)
	s.addDecodeE2E(0, 1*time.Millisecond, 0)
	s.addDecodeStage("llm", 1*time.Millisecond)
	s.addDecodeE2E(0, 1*time.Millisecond, 0)

	got := s.Snapshot()
	require.Equal(t, 2*time.Millisecond, got.DecodeLLMInference)
	require.Equal(t, int64(2), got.DecodeNumTokens)
}

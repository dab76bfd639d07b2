package executor

import "github.com/edgegemma/runtime/subgraph"

// NoToken re-exports the tokenizer's carry-over-token sentinel for callers
// that only import executor.
const NoToken int32 = -1

// Settings configures Executor.Create. It mirrors spec.md §3's
// Executor-state fields that are fixed at construction time, plus the
// accelerator selection spec.md §9 calls out as a tagged variant rather
// than a class hierarchy.
type Settings struct {
	// Accelerator selects which registered subgraph.Compiler compiles
	// every sub-model.
	Accelerator subgraph.Accelerator

	// DispatchLibraryPath is an optional directory of accelerator
	// dispatch libraries, threaded through to subgraph.Environment
	// (spec.md §4.4.2 step 1).
	DispatchLibraryPath string

	// NumThreads hints the CPU accelerator's thread count. 0 means
	// accelerator-decided.
	NumThreads int

	// PrefillChunkLengths seeds prefill_signature_map: supported prefill
	// chunk lengths to the LLM signature name implementing that length.
	// Today this has exactly one entry, {128: "prefill_128"}.
	PrefillChunkLengths map[int]string

	// DtypeIncompatibleCacheTensors names KV-cache tensor pairs whose
	// element type differs between the prefill and decode signatures
	// (spec.md §4.4.1's NPU type-mismatch carve-out). These buffers get
	// fresh, independent decode-side allocations instead of being
	// aliased from the prefill-side KV cache.
	DtypeIncompatibleCacheTensors []string
}

// DefaultSettings returns the construction defaults matching the one
// concrete model this runtime currently targets: a single 128-token
// prefill chunk length, and the kv_cache_{k,v}_25 NPU carve-out from
// spec.md §4.4.1/§9.
func DefaultSettings() Settings {
	return Settings{
		Accelerator:         subgraph.CPU,
		PrefillChunkLengths: map[int]string{128: "prefill_128"},
		DtypeIncompatibleCacheTensors: []string{
			"kv_cache_k_25",
			"kv_cache_v_25",
		},
	}
}

func (s Settings) isDtypeIncompatible(name string) bool {
	for _, n := range s.DtypeIncompatibleCacheTensors {
		if n == name {
			return true
		}
	}
	return false
}

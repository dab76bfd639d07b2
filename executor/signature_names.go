package executor

import (
	"fmt"
	"strings"
)

// Decode-side signature names are fixed regardless of the chunk length the
// model was prefilled with (spec.md §6, "sub-model signature conventions").
const (
	decodeSignature            = "decode"
	decodeEmbedderSignature    = "decode_embedder"
	decodeMaskSignature        = "decode_mask"
	decodeRopeSignature        = "decode_rope"
	decodeCacheUpdateSignature = "decode_cache_update"
)

// Prefill-side signature names are parameterized by the chunk length L and
// follow a bit-exact naming convention the model bundle's compiled
// sub-models are required to implement. Settings.PrefillChunkLengths
// supplies the LLM's own name per length (so a model-specific LLM
// signature name still works); the auxiliary stages follow the fixed
// convention derived from L, since spec.md §6 lists them as bit-exact.
func embedderPrefillSignature(chunkLen int) string { return fmt.Sprintf("prefill_embedder_%d", chunkLen) }
func maskPrefillSignature(chunkLen int) string     { return fmt.Sprintf("prefill_mask_%d", chunkLen) }
func ropePrefillSignature(chunkLen int) string     { return fmt.Sprintf("prefill_rope_%d", chunkLen) }
func cacheUpdatePrefillSignature(chunkLen int) string {
	return fmt.Sprintf("prefill_cache_update_%d", chunkLen)
}

// Tensor name prefixes that sort LLM signature inputs/outputs into the
// KV-cache and KV-slice buckets (spec.md §4.4.2 steps 3 and 5).
const (
	kvCacheKeyPrefix   = "kv_cache_k_"
	kvCacheValuePrefix = "kv_cache_v_"
	kvSliceKeyPrefix   = "kv_slice_k_"
	kvSliceValuePrefix = "kv_slice_v_"
)

func isKVCacheName(name string) bool {
	return strings.HasPrefix(name, kvCacheKeyPrefix) || strings.HasPrefix(name, kvCacheValuePrefix)
}

func isKVSliceName(name string) bool {
	return strings.HasPrefix(name, kvSliceKeyPrefix) || strings.HasPrefix(name, kvSliceValuePrefix)
}

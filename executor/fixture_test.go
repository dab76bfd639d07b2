package executor

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgegemma/runtime/subgraph"
	"github.com/edgegemma/runtime/subgraph/cpu"
	"github.com/edgegemma/runtime/tensor"
)

// buildFixture assembles the three compiled-model JSON blobs for a single
// prefill chunk length, using the reference CPU compiler's Model shape. The
// tensor names and topology mirror spec.md §4.4.1's pipeline diagram at a
// deliberately small scale (chunkLen tokens, an 8-wide embedding, a 4-wide
// RoPE table) so a test run executes in microseconds.
func buildFixture(t *testing.T, chunkLen int) (Resources, Settings) {
	t.Helper()

	const (
		embedDim = 8
		ropeDim  = 4
		kvDim    = 4
		vocab    = 6
	)

	spec := func(name string, dtype tensor.DType, shape ...int) subgraph.TensorSpec {
		return subgraph.TensorSpec{Name: name, DType: dtype, Shape: shape}
	}
	L := strconv.Itoa(chunkLen)

	llmModel := cpu.Model{Signatures: map[string]subgraph.Signature{
		"prefill_" + L: {
			Inputs: []subgraph.TensorSpec{
				spec("input_embeds", tensor.Float32, 1, chunkLen, embedDim),
				spec("mask_local", tensor.Float32, 1, chunkLen, chunkLen),
				spec("mask_global", tensor.Float32, 1, chunkLen, chunkLen),
				spec("pos_emb_cos", tensor.Float32, 1, chunkLen, ropeDim),
				spec("pos_emb_sin", tensor.Float32, 1, chunkLen, ropeDim),
				spec("kv_cache_k_25", tensor.Float32, 1, chunkLen, kvDim),
				spec("kv_cache_v_25", tensor.Float32, 1, chunkLen, kvDim),
			},
			Outputs: []subgraph.TensorSpec{
				spec("kv_slice_k_25", tensor.Float32, 1, chunkLen, kvDim),
				spec("kv_slice_v_25", tensor.Float32, 1, chunkLen, kvDim),
			},
		},
		"decode": {
			Inputs: []subgraph.TensorSpec{
				spec("input_embeds", tensor.Float32, 1, 1, embedDim),
				spec("mask_local", tensor.Float32, 1, 1, chunkLen),
				spec("mask_global", tensor.Float32, 1, 1, chunkLen),
				spec("pos_emb_cos", tensor.Float32, 1, 1, ropeDim),
				spec("pos_emb_sin", tensor.Float32, 1, 1, ropeDim),
				spec("kv_cache_k_25", tensor.Int16, 1, chunkLen, kvDim),
				spec("kv_cache_v_25", tensor.Int16, 1, chunkLen, kvDim),
			},
			Outputs: []subgraph.TensorSpec{
				spec("kv_slice_k_25", tensor.Int16, 1, 1, kvDim),
				spec("kv_slice_v_25", tensor.Int16, 1, 1, kvDim),
				spec("logits", tensor.Int16, 1, 1, vocab),
			},
		},
	}}

	auxModel := cpu.Model{Signatures: map[string]subgraph.Signature{
		"prefill_mask_" + L: {
			Inputs: []subgraph.TensorSpec{
				spec("input_tokens", tensor.Int32, 1, chunkLen),
				spec("time_step", tensor.Int32, 1),
			},
			Outputs: []subgraph.TensorSpec{
				spec("mask_local", tensor.Float32, 1, chunkLen, chunkLen),
				spec("mask_global", tensor.Float32, 1, chunkLen, chunkLen),
			},
		},
		"decode_mask": {
			Inputs: []subgraph.TensorSpec{
				spec("input_tokens", tensor.Int32, 1, 1),
				spec("time_step", tensor.Int32, 1),
			},
			Outputs: []subgraph.TensorSpec{
				spec("mask_local", tensor.Float32, 1, 1, chunkLen),
				spec("mask_global", tensor.Float32, 1, 1, chunkLen),
			},
		},
		"prefill_rope_" + L: {
			Inputs: []subgraph.TensorSpec{
				spec("input_pos", tensor.Int32, 1, chunkLen),
			},
			Outputs: []subgraph.TensorSpec{
				spec("pos_emb_cos", tensor.Float32, 1, chunkLen, ropeDim),
				spec("pos_emb_sin", tensor.Float32, 1, chunkLen, ropeDim),
			},
		},
		"decode_rope": {
			Inputs: []subgraph.TensorSpec{
				spec("input_pos", tensor.Int32, 1, 1),
			},
			Outputs: []subgraph.TensorSpec{
				spec("pos_emb_cos", tensor.Float32, 1, 1, ropeDim),
				spec("pos_emb_sin", tensor.Float32, 1, 1, ropeDim),
			},
		},
		"prefill_cache_update_" + L: {
			Inputs: []subgraph.TensorSpec{
				spec("input_pos", tensor.Int32, 1, chunkLen),
				spec("kv_cache_k_25", tensor.Float32, 1, chunkLen, kvDim),
				spec("kv_cache_v_25", tensor.Float32, 1, chunkLen, kvDim),
				spec("kv_slice_k_25", tensor.Float32, 1, chunkLen, kvDim),
				spec("kv_slice_v_25", tensor.Float32, 1, chunkLen, kvDim),
			},
			Outputs: []subgraph.TensorSpec{
				spec("kv_cache_k_25", tensor.Float32, 1, chunkLen, kvDim),
				spec("kv_cache_v_25", tensor.Float32, 1, chunkLen, kvDim),
			},
		},
		"decode_cache_update": {
			Inputs: []subgraph.TensorSpec{
				spec("input_pos", tensor.Int32, 1, 1),
				spec("kv_cache_k_25", tensor.Int16, 1, chunkLen, kvDim),
				spec("kv_cache_v_25", tensor.Int16, 1, chunkLen, kvDim),
				spec("kv_slice_k_25", tensor.Int16, 1, 1, kvDim),
				spec("kv_slice_v_25", tensor.Int16, 1, 1, kvDim),
			},
			Outputs: []subgraph.TensorSpec{
				spec("kv_cache_k_25", tensor.Int16, 1, chunkLen, kvDim),
				spec("kv_cache_v_25", tensor.Int16, 1, chunkLen, kvDim),
			},
		},
	}}

	embedderModel := cpu.Model{Signatures: map[string]subgraph.Signature{
		"prefill_embedder_" + L: {
			Inputs:  []subgraph.TensorSpec{spec("tokens", tensor.Int32, 1, chunkLen)},
			Outputs: []subgraph.TensorSpec{spec("embeds", tensor.Float32, 1, chunkLen, embedDim)},
		},
		"decode_embedder": {
			Inputs:  []subgraph.TensorSpec{spec("tokens", tensor.Int32, 1, 1)},
			Outputs: []subgraph.TensorSpec{spec("embeds", tensor.Float32, 1, 1, embedDim)},
		},
	}}

	marshal := func(m cpu.Model) []byte {
		b, err := json.Marshal(m)
		require.NoError(t, err)
		return b
	}

	resources := Resources{
		LLMModel:      marshal(llmModel),
		AuxModel:      marshal(auxModel),
		EmbedderModel: marshal(embedderModel),
	}
	settings := Settings{
		Accelerator:         subgraph.CPU,
		PrefillChunkLengths: map[int]string{chunkLen: "prefill_" + L},
		DtypeIncompatibleCacheTensors: []string{
			"kv_cache_k_25",
			"kv_cache_v_25",
		},
	}
	return resources, settings
}

package cpu

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgegemma/runtime/subgraph"
	"github.com/edgegemma/runtime/tensor"
)

func marshalModel(t *testing.T, m Model) []byte {
	t.Helper()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

func TestCompileAndSignatureLookup(t *testing.T) {
	model := Model{Signatures: map[string]subgraph.Signature{
		"decode": {
			Inputs:  []subgraph.TensorSpec{{Name: "tokens", DType: tensor.Int32, Shape: []int{1, 1}}},
			Outputs: []subgraph.TensorSpec{{Name: "embeds", DType: tensor.Float32, Shape: []int{1, 1, 4}}},
		},
	}}

	h, err := Compile(marshalModel(t, model), subgraph.CompileOptions{})
	require.NoError(t, err)
	defer h.Close()

	sig, ok := h.Signature("decode")
	require.True(t, ok)
	require.Len(t, sig.Inputs, 1)

	_, ok = h.Signature("missing")
	require.False(t, ok)
}

func TestRunEmbedderTransformCastsTokensToEmbeds(t *testing.T) {
	model := Model{Signatures: map[string]subgraph.Signature{
		"decode_embedder": {
			Inputs:  []subgraph.TensorSpec{{Name: "tokens", DType: tensor.Int32, Shape: []int{1, 1}}},
			Outputs: []subgraph.TensorSpec{{Name: "embeds", DType: tensor.Float32, Shape: []int{1, 1, 4}}},
		},
	}}
	h, err := Compile(marshalModel(t, model), subgraph.CompileOptions{})
	require.NoError(t, err)
	defer h.Close()

	ctx := tensor.NewContext()
	defer ctx.Close()

	tokens := ctx.FromInts([]int32{7}, 1, 1)
	embeds := ctx.Empty(tensor.Float32, 1, 1, 4)

	require.NoError(t, h.Run(context.Background(), "decode_embedder",
		map[string]*tensor.Buffer{"tokens": tokens},
		map[string]*tensor.Buffer{"embeds": embeds}))

	for _, v := range embeds.Floats() {
		require.Equal(t, float32(7), v)
	}
}

func TestRunRejectsMissingInput(t *testing.T) {
	model := Model{Signatures: map[string]subgraph.Signature{
		"decode": {
			Inputs: []subgraph.TensorSpec{{Name: "tokens", DType: tensor.Int32, Shape: []int{1, 1}}},
		},
	}}
	h, err := Compile(marshalModel(t, model), subgraph.CompileOptions{})
	require.NoError(t, err)
	defer h.Close()

	err = h.Run(context.Background(), "decode", map[string]*tensor.Buffer{}, map[string]*tensor.Buffer{})
	require.Error(t, err)
}

func TestRunRejectsUnknownSignature(t *testing.T) {
	h, err := Compile(marshalModel(t, Model{}), subgraph.CompileOptions{})
	require.NoError(t, err)
	defer h.Close()

	err = h.Run(context.Background(), "nope", nil, nil)
	require.Error(t, err)
}

func TestCompileRejectsInvalidJSON(t *testing.T) {
	_, err := Compile([]byte("not json"), subgraph.CompileOptions{})
	require.Error(t, err)
}

// Package cpu implements subgraph.Compiler for the CPU accelerator: a
// reference stand-in that validates the signature contract declared by a
// compiled model and performs one deterministic, named-tensor transform
// (the embedder's tokens-to-embeds cast). It does not implement real
// neural-network arithmetic — doing so is explicitly the concern of "the
// underlying tensor-buffer library", which this runtime treats as an
// external interface. What it does implement is the contract the executor
// depends on: a Handle that knows its declared signatures and rejects a Run
// call that lacks an input or output they declare. Shapes, dtypes and
// extra undeclared names are not checked.
package cpu

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edgegemma/runtime/subgraph"
	"github.com/edgegemma/runtime/tensor"
)

func init() {
	subgraph.RegisterCompiler(subgraph.CPU, Compile)
}

// Model is the on-disk shape this reference compiler expects: a JSON map of
// signature name to its declared input/output tensor contract. Real
// sub-model files (.tflite) are opaque to this runtime; Model exists so the
// CPU accelerator has something concrete to compile in tests and examples
// that don't carry a real compiled network.
type Model struct {
	Signatures map[string]subgraph.Signature `json:"signatures"`
}

type handle struct {
	model Model
}

// Compile parses modelBytes as a Model and returns a Handle for it.
func Compile(modelBytes []byte, _ subgraph.CompileOptions) (subgraph.Handle, error) {
	var m Model
	if err := json.Unmarshal(modelBytes, &m); err != nil {
		return nil, fmt.Errorf("cpu: decode model: %w", err)
	}
	return &handle{model: m}, nil
}

func (h *handle) Signature(name string) (subgraph.Signature, bool) {
	sig, ok := h.model.Signatures[name]
	return sig, ok
}

func (h *handle) Close() error { return nil }

func (h *handle) Run(_ context.Context, signature string, inputs, outputs map[string]*tensor.Buffer) error {
	sig, ok := h.model.Signatures[signature]
	if !ok {
		return fmt.Errorf("cpu: unknown signature %q", signature)
	}

	for _, in := range sig.Inputs {
		if _, ok := inputs[in.Name]; !ok {
			return fmt.Errorf("cpu: signature %q missing input %q", signature, in.Name)
		}
	}
	for _, out := range sig.Outputs {
		if _, ok := outputs[out.Name]; !ok {
			return fmt.Errorf("cpu: signature %q missing output %q", signature, out.Name)
		}
	}

	// The one transform worth performing deterministically: the embedder's
	// "embeds" output as a cast of its "tokens" input, so a caller can
	// observe that the embedder stage actually ran and that its output is
	// visible through the alias wired into the LLM's input_embeds.
	if toks, ok := inputs["tokens"]; ok {
		if embeds, ok := outputs["embeds"]; ok {
			ids := toks.Ints()
			embedDim := 0
			if d := embeds.Dims(); len(d) > 0 {
				embedDim = d[len(d)-1]
			}
			vals := make([]float32, len(ids)*max(embedDim, 1))
			for i, id := range ids {
				for d := 0; d < max(embedDim, 1); d++ {
					vals[i*max(embedDim, 1)+d] = float32(id)
				}
			}
			if embedDim > 0 {
				_ = embeds.WriteFloats(vals)
			}
		}
	}

	return nil
}

// Package subgraph defines the opaque compiled-subgraph abstraction: a
// handle identified by a signature name, exposing Run(signature,
// inputs, outputs). The actual accelerator dispatch (CPU kernel, GPU
// delegate, NPU driver) lives behind this interface and is deliberately
// not modeled in detail here — "the details of the underlying
// tensor-buffer library" are an external interface to this runtime.
package subgraph

import (
	"context"

	"github.com/edgegemma/runtime/tensor"
)

// Accelerator is the tagged variant of hardware targets a subgraph can be
// compiled for.
type Accelerator int

const (
	CPU Accelerator = iota
	GPU
	NPU
)

func (a Accelerator) String() string {
	switch a {
	case GPU:
		return "gpu"
	case NPU:
		return "npu"
	default:
		return "cpu"
	}
}

// TensorSpec describes one named input or output of a signature: its shape
// and element type, as declared by the compiled model.
type TensorSpec struct {
	Name  string
	DType tensor.DType
	Shape []int
}

// Signature is the input/output tensor-name contract of one entry point of
// a compiled model (e.g. "prefill_128", "decode").
type Signature struct {
	Name    string
	Inputs  []TensorSpec
	Outputs []TensorSpec
}

// Handle is an opaque compiled model. Signatures are looked up by name;
// Run blocks the calling goroutine until the accelerator returns, per the
// single-threaded cooperative scheduling model this runtime assumes.
type Handle interface {
	// Signature returns the declared input/output contract for a
	// signature name, or (Signature{}, false) if the handle doesn't
	// implement it.
	Signature(name string) (Signature, bool)

	// Run executes one signature, reading from inputs and writing into
	// outputs. Every tensor named in the signature's contract must be
	// present in the corresponding map.
	Run(ctx context.Context, signature string, inputs, outputs map[string]*tensor.Buffer) error

	// Close releases any accelerator-side resources held by the handle.
	Close() error
}

// CompileOptions carries the construction-time parameters a Compiler needs:
// the dispatch-library directory (§4.4.2 step 1) and a thread-count hint for
// CPU execution.
type CompileOptions struct {
	DispatchLibraryPath string
	NumThreads          int
}

// Compiler compiles a sub-model's raw bytes (as read from an asset-bundle
// entry) into a Handle for one accelerator.
type Compiler func(modelBytes []byte, opts CompileOptions) (Handle, error)

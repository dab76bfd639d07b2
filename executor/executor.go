// Package executor implements the core of the runtime: the component that
// owns the compiled model handles, the KV-cache tensors, and the web of
// shared tensor buffers, and that orchestrates per-step execution across
// the embedder, RoPE, mask, LLM, and cache-update subgraphs so that the
// output of stage i is the input of stage i+1 without any intermediate
// copies (spec.md §1, §4.4).
package executor

import (
	"context"
	"fmt"
	"sort"

	"github.com/edgegemma/runtime/kerrors"
	"github.com/edgegemma/runtime/subgraph"
	"github.com/edgegemma/runtime/tensor"
)

// stageContext is the four-map inference context bundle of spec.md §3:
// one exists per pipeline stage (embedder, mask, RoPE, cache-update); the
// LLM's own is built the same shape but is the hub everything else aliases
// into.
type stageContext struct {
	prefillInputs  map[string]*tensor.Buffer
	prefillOutputs map[string]*tensor.Buffer
	decodeInputs   map[string]*tensor.Buffer
	decodeOutputs  map[string]*tensor.Buffer
}

// Executor drives the five-subgraph decode pipeline for a single session.
// It is single-threaded cooperative (spec.md §5): callers must not invoke
// Prefill/Decode concurrently or reentrantly.
type Executor struct {
	settings Settings
	env      *subgraph.Environment
	ctx      *tensor.Context

	llm      subgraph.Handle
	aux      subgraph.Handle
	embedder subgraph.Handle

	llmCtx         stageContext
	maskCtx        stageContext
	ropeCtx        stageContext
	embedderCtx    stageContext
	cacheUpdateCtx stageContext

	// inputKVCache holds the long-lived, model-owned KV-cache tensors,
	// aliased into the LLM's input map and the cache-update's in-place
	// input/output maps (spec.md §4.4.1).
	inputKVCache map[string]*tensor.Buffer

	// decodeOnlyCache holds the NPU dtype-incompatible carve-out
	// tensors (spec.md §4.4.1): fresh decode-side buffers that are never
	// aliased to the prefill-side cache because the element type
	// differs between signatures.
	decodeOnlyCache map[string]*tensor.Buffer

	// gemmaPrefillInputs / gemmaDecodeInputs hold the LLM's own input
	// buffers excluding the KV cache (spec.md §4.4.2 steps 3-4); mask
	// and RoPE outputs alias directly into these maps so there is no
	// copy between stages. prefillOutKVSlices / decodeOutKVSlices hold
	// the LLM's KV-slice outputs (step 5), aliased into cache-update's
	// inputs.
	gemmaPrefillInputs map[string]*tensor.Buffer
	gemmaDecodeInputs  map[string]*tensor.Buffer
	prefillOutKVSlices map[string]*tensor.Buffer
	decodeOutKVSlices  map[string]*tensor.Buffer

	prefillChunkLengths []int // sorted largest-first

	currentStep      int
	nextInputTokenID int32

	stats LatencyStats
}

// Create performs the full construction sequence of spec.md §4.4.2:
// compile the LLM, allocate and bucket its buffers, build every auxiliary
// stage's inference context by aliasing into the LLM's maps, warm up every
// signature once, and populate the prefill signature map.
func Create(ctx context.Context, settings Settings, resources Resources) (*Executor, error) {
	if len(settings.PrefillChunkLengths) == 0 {
		return nil, kerrors.New(kerrors.InvalidArgument, "executor.Create", "settings.PrefillChunkLengths must have at least one entry")
	}

	env := subgraph.NewEnvironment(settings.DispatchLibraryPath, settings.NumThreads)

	llm, err := env.Compile(settings.Accelerator, resources.LLMModel)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.Internal, "executor.Create: compile llm", err)
	}

	e := &Executor{
		settings:         settings,
		env:              env,
		ctx:              tensor.NewContext(),
		llm:              llm,
		inputKVCache:     map[string]*tensor.Buffer{},
		decodeOnlyCache:  map[string]*tensor.Buffer{},
		nextInputTokenID: NoToken,
	}
	e.prefillChunkLengths = sortedLengthsDesc(settings.PrefillChunkLengths)

	if err := e.buildLLM(settings.PrefillChunkLengths[e.prefillChunkLengths[0]]); err != nil {
		return nil, err
	}

	aux, err := env.Compile(settings.Accelerator, resources.AuxModel)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.Internal, "executor.Create: compile aux", err)
	}
	e.aux = aux

	chunkLen := e.prefillChunkLengths[0]
	if err := e.buildMaskAndRope(chunkLen); err != nil {
		return nil, err
	}
	if err := e.buildCacheUpdate(chunkLen); err != nil {
		return nil, err
	}

	embedder, err := env.Compile(settings.Accelerator, resources.EmbedderModel)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.Internal, "executor.Create: compile embedder", err)
	}
	e.embedder = embedder
	if err := e.buildEmbedder(chunkLen); err != nil {
		return nil, err
	}

	if err := e.warmup(ctx, chunkLen); err != nil {
		return nil, err
	}

	return e, nil
}

// CurrentStep returns the count of tokens already absorbed into the KV
// cache (spec.md §3).
func (e *Executor) CurrentStep() int { return e.currentStep }

// NextInputTokenID returns the pending carry-over token, or NoToken if
// none is pending (spec.md §3).
func (e *Executor) NextInputTokenID() int32 { return e.nextInputTokenID }

// Context returns the tensor allocation scope this executor was built
// with, so callers (the session façade) can build the input/output
// buffers Prefill and Decode expect without reaching into private fields.
func (e *Executor) Context() *tensor.Context { return e.ctx }

// Stats returns a snapshot of the accumulated latency counters.
func (e *Executor) Stats() LatencyStats {
	return e.stats.Snapshot()
}

// Close releases the compiled subgraph handles and every buffer this
// executor allocated.
func (e *Executor) Close() error {
	var firstErr error
	for _, h := range []subgraph.Handle{e.llm, e.aux, e.embedder} {
		if h == nil {
			continue
		}
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.ctx.Close()
	return firstErr
}

func sortedLengthsDesc(m map[int]string) []int {
	lens := make([]int, 0, len(m))
	for l := range m {
		lens = append(lens, l)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(lens)))
	return lens
}

func wrapStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return kerrors.Wrap(kerrors.Internal, fmt.Sprintf("executor: stage %q", stage), err)
}

package executor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/edgegemma/runtime/kerrors"
	"github.com/edgegemma/runtime/subgraph"
	"github.com/edgegemma/runtime/tensor"
)

type warmupCall struct {
	handle    subgraph.Handle
	signature string
	inputs    map[string]*tensor.Buffer
	outputs   map[string]*tensor.Buffer
}

// warmup invokes every signature once against the currently-zeroed buffers
// (spec.md §4.4.2 step 11), forcing lazy device initialization and
// surfacing any compile/shape mismatch before the executor is handed to a
// session. Calls run through an errgroup.Group capped at concurrency 1
// (golang.org/x/sync/errgroup, already a teacher dependency) rather than a
// hand-rolled loop-with-break, so that a failing warmup short-circuits the
// rest while still giving a future cancellable-context caller real
// cancellation for free.
func (e *Executor) warmup(ctx context.Context, chunkLen int) error {
	calls := []warmupCall{
		{e.embedder, embedderPrefillSignature(chunkLen), e.embedderCtx.prefillInputs, e.embedderCtx.prefillOutputs},
		{e.aux, ropePrefillSignature(chunkLen), e.ropeCtx.prefillInputs, e.ropeCtx.prefillOutputs},
		{e.aux, maskPrefillSignature(chunkLen), e.maskCtx.prefillInputs, e.maskCtx.prefillOutputs},
		{e.llm, e.prefillSignatureName(chunkLen), e.llmCtx.prefillInputs, e.llmCtx.prefillOutputs},
		{e.aux, cacheUpdatePrefillSignature(chunkLen), e.cacheUpdateCtx.prefillInputs, e.cacheUpdateCtx.prefillOutputs},
		{e.embedder, decodeEmbedderSignature, e.embedderCtx.decodeInputs, e.embedderCtx.decodeOutputs},
		{e.aux, decodeRopeSignature, e.ropeCtx.decodeInputs, e.ropeCtx.decodeOutputs},
		{e.aux, decodeMaskSignature, e.maskCtx.decodeInputs, e.maskCtx.decodeOutputs},
		{e.llm, decodeSignature, e.llmCtx.decodeInputs, e.llmCtx.decodeOutputs},
		{e.aux, decodeCacheUpdateSignature, e.cacheUpdateCtx.decodeInputs, e.cacheUpdateCtx.decodeOutputs},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(1)
	for _, c := range calls {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := c.handle.Run(gctx, c.signature, c.inputs, c.outputs); err != nil {
				return kerrors.Wrap(kerrors.Internal, "executor.Create: warmup "+c.signature, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// prefillSignatureName is the LLM's own signature name for chunkLen,
// sourced from settings.PrefillChunkLengths (spec.md §3
// prefill_signature_map).
func (e *Executor) prefillSignatureName(chunkLen int) string {
	return e.settings.PrefillChunkLengths[chunkLen]
}

package executor

import (
	"context"
	"time"

	"github.com/edgegemma/runtime/kerrors"
	"github.com/edgegemma/runtime/subgraph"
	"github.com/edgegemma/runtime/tensor"
)

// PrefillChunk is one element of the work-group decomposition returned by
// GetOptimizedPrefillWorkGroups: a chunk of Len token ids starting at
// Start within the caller's input sequence.
type PrefillChunk struct {
	Start int
	Len   int
}

// GetOptimizedPrefillWorkGroups decomposes n token ids into chunks whose
// lengths are drawn from the supported prefill chunk lengths, using a
// greedy largest-first fit (spec.md §4.4.3). It fails with Internal if the
// greedy fit does not cover n exactly; it does not backtrack, so an n that
// only a non-greedy mix of lengths would cover also fails.
func (e *Executor) GetOptimizedPrefillWorkGroups(n int) ([]PrefillChunk, error) {
	if n <= 0 {
		return nil, kerrors.New(kerrors.InvalidArgument, "executor.GetOptimizedPrefillWorkGroups", "n must be positive")
	}

	var chunks []PrefillChunk
	start, remaining := 0, n
	for remaining > 0 {
		placed := false
		for _, l := range e.prefillChunkLengths {
			if l <= remaining {
				chunks = append(chunks, PrefillChunk{Start: start, Len: l})
				start += l
				remaining -= l
				placed = true
				break
			}
		}
		if !placed {
			return nil, kerrors.Wrap(kerrors.Internal, "executor.GetOptimizedPrefillWorkGroups", kerrors.ErrDecompositionIncomplete)
		}
	}
	return chunks, nil
}

// Prefill absorbs a shape-[1, N] token-id tensor into the KV cache, one
// work-group chunk at a time (spec.md §4.4.3).
func (e *Executor) Prefill(ctx context.Context, inputIDs *tensor.Buffer) error {
	dims := inputIDs.Dims()
	if len(dims) != 2 || dims[0] != 1 {
		return kerrors.Newf(kerrors.InvalidArgument, "executor.Prefill", "expected shape [1, N], got %v", dims)
	}
	n := dims[1]
	if n == 0 {
		return kerrors.New(kerrors.InvalidArgument, "executor.Prefill", "N must be >= 1")
	}

	ids := inputIDs.Ints()
	chunks, err := e.GetOptimizedPrefillWorkGroups(n)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		if err := e.prefillInternal(ctx, c.Len, ids[c.Start:c.Start+c.Len]); err != nil {
			return err
		}
	}
	return nil
}

// prefillInternal runs one work-group chunk: it writes token ids and
// position indices into the mask/RoPE input buffers, letting a pending
// carry-over token (from a previous Prefill/Decode call) occupy the first
// slot when present, then runs the five stages in order. On any stage
// failure, current_step and next_input_token_id are rolled back to their
// value before this chunk, per spec.md §7's no-partial-commit rule.
func (e *Executor) prefillInternal(ctx context.Context, chunkLen int, ids []int32) error {
	if len(ids) != chunkLen {
		return kerrors.Newf(kerrors.InvalidArgument, "executor.prefillInternal", "chunk declared length %d but got %d ids", chunkLen, len(ids))
	}

	savedStep, savedToken := e.currentStep, e.nextInputTokenID
	prepareStart := time.Now()

	maskTokens, ok := e.maskCtx.prefillInputs["input_tokens"]
	if !ok {
		return kerrors.New(kerrors.Internal, "executor.prefillInternal", "mask prefill context missing input_tokens")
	}
	ropePos, ok := e.ropeCtx.prefillInputs["input_pos"]
	if !ok {
		return kerrors.New(kerrors.Internal, "executor.prefillInternal", "rope prefill context missing input_pos")
	}
	maskTimeStep, ok := e.maskCtx.prefillInputs["time_step"]
	if !ok {
		return kerrors.New(kerrors.Internal, "executor.prefillInternal", "mask prefill context missing time_step")
	}

	if err := maskTokens.Zero(); err != nil {
		return err
	}
	if err := ropePos.Zero(); err != nil {
		return err
	}
	if err := maskTimeStep.Zero(); err != nil {
		return err
	}
	if err := maskTimeStep.WriteInts([]int32{int32(e.currentStep)}); err != nil {
		return err
	}

	tokens := make([]int32, chunkLen)
	positions := make([]int32, chunkLen)
	slot := 0

	if e.nextInputTokenID != NoToken {
		tokens[slot] = e.nextInputTokenID
		positions[slot] = int32(e.currentStep)
		e.currentStep++
		e.nextInputTokenID = NoToken
		slot++
	}
	for i := 0; i <= chunkLen-2; i++ {
		tokens[slot] = ids[i]
		positions[slot] = int32(e.currentStep)
		e.currentStep++
		slot++
	}
	e.nextInputTokenID = ids[chunkLen-1]

	if err := maskTokens.WriteInts(tokens); err != nil {
		e.currentStep, e.nextInputTokenID = savedStep, savedToken
		return err
	}
	if err := ropePos.WriteInts(positions); err != nil {
		e.currentStep, e.nextInputTokenID = savedStep, savedToken
		return err
	}

	prepareDuration := time.Since(prepareStart)
	e2eStart := time.Now()

	stages := []struct {
		name      string
		handle    subgraph.Handle
		signature string
		in, out   map[string]*tensor.Buffer
	}{
		{"embedder", e.embedder, embedderPrefillSignature(chunkLen), e.embedderCtx.prefillInputs, e.embedderCtx.prefillOutputs},
		{"rope", e.aux, ropePrefillSignature(chunkLen), e.ropeCtx.prefillInputs, e.ropeCtx.prefillOutputs},
		{"mask", e.aux, maskPrefillSignature(chunkLen), e.maskCtx.prefillInputs, e.maskCtx.prefillOutputs},
		{"llm", e.llm, e.prefillSignatureName(chunkLen), e.llmCtx.prefillInputs, e.llmCtx.prefillOutputs},
		{"cache_update", e.aux, cacheUpdatePrefillSignature(chunkLen), e.cacheUpdateCtx.prefillInputs, e.cacheUpdateCtx.prefillOutputs},
	}

	for _, s := range stages {
		stageStart := time.Now()
		err := s.handle.Run(ctx, s.signature, s.in, s.out)
		e.stats.addPrefillStage(s.name, time.Since(stageStart))
		if err != nil {
			e.currentStep, e.nextInputTokenID = savedStep, savedToken
			return wrapStage(s.name, err)
		}
	}

	e.stats.addPrefillE2E(prepareDuration, time.Since(e2eStart), chunkLen)
	return nil
}

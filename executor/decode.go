package executor

import (
	"context"
	"time"

	"github.com/edgegemma/runtime/kerrors"
	"github.com/edgegemma/runtime/subgraph"
	"github.com/edgegemma/runtime/tensor"
)

// Decode greedy-samples one token and writes it into output (spec.md
// §4.4.4). If inputTokenIDs is non-empty it must name exactly one id;
// otherwise the pending carry-over token from the previous Prefill/Decode
// call is consumed. Decode returns the sampled id and also writes it into
// output.
func (e *Executor) Decode(ctx context.Context, inputTokenIDs []int32, output *tensor.Buffer) (int32, error) {
	if len(inputTokenIDs) > 1 {
		return 0, kerrors.New(kerrors.InvalidArgument, "executor.Decode", "at most one input token id may be supplied")
	}

	var id int32
	switch {
	case len(inputTokenIDs) == 1:
		id = inputTokenIDs[0]
	case e.nextInputTokenID != NoToken:
		id = e.nextInputTokenID
	default:
		return 0, kerrors.Wrap(kerrors.InvalidArgument, "executor.Decode", kerrors.ErrNoCarryToken)
	}

	savedStep, savedToken := e.currentStep, e.nextInputTokenID
	e.nextInputTokenID = NoToken // invalidated unconditionally (spec.md §4.4.4 step 2)

	prepareStart := time.Now()

	maskTokens, ok := e.maskCtx.decodeInputs["input_tokens"]
	if !ok {
		return 0, kerrors.New(kerrors.Internal, "executor.Decode", "mask decode context missing input_tokens")
	}
	maskTimeStep, ok := e.maskCtx.decodeInputs["time_step"]
	if !ok {
		return 0, kerrors.New(kerrors.Internal, "executor.Decode", "mask decode context missing time_step")
	}
	ropePos, ok := e.ropeCtx.decodeInputs["input_pos"]
	if !ok {
		return 0, kerrors.New(kerrors.Internal, "executor.Decode", "rope decode context missing input_pos")
	}

	if err := maskTokens.WriteInts([]int32{id}); err != nil {
		e.currentStep, e.nextInputTokenID = savedStep, savedToken
		return 0, err
	}
	if err := maskTimeStep.WriteInts([]int32{int32(e.currentStep)}); err != nil {
		e.currentStep, e.nextInputTokenID = savedStep, savedToken
		return 0, err
	}
	if err := ropePos.WriteInts([]int32{int32(e.currentStep)}); err != nil {
		e.currentStep, e.nextInputTokenID = savedStep, savedToken
		return 0, err
	}

	prepareDuration := time.Since(prepareStart)
	e2eStart := time.Now()

	stages := []struct {
		name      string
		handle    subgraph.Handle
		signature string
		in, out   map[string]*tensor.Buffer
	}{
		{"embedder", e.embedder, decodeEmbedderSignature, e.embedderCtx.decodeInputs, e.embedderCtx.decodeOutputs},
		{"rope", e.aux, decodeRopeSignature, e.ropeCtx.decodeInputs, e.ropeCtx.decodeOutputs},
		{"mask", e.aux, decodeMaskSignature, e.maskCtx.decodeInputs, e.maskCtx.decodeOutputs},
		{"llm", e.llm, decodeSignature, e.llmCtx.decodeInputs, e.llmCtx.decodeOutputs},
		{"cache_update", e.aux, decodeCacheUpdateSignature, e.cacheUpdateCtx.decodeInputs, e.cacheUpdateCtx.decodeOutputs},
	}

	for _, s := range stages {
		stageStart := time.Now()
		err := s.handle.Run(ctx, s.signature, s.in, s.out)
		e.stats.addDecodeStage(s.name, time.Since(stageStart))
		if err != nil {
			e.currentStep, e.nextInputTokenID = savedStep, savedToken
			return 0, wrapStage(s.name, err)
		}
	}

	samplingStart := time.Now()
	logits, ok := e.llmCtx.decodeOutputs["logits"]
	if !ok {
		e.currentStep, e.nextInputTokenID = savedStep, savedToken
		return 0, kerrors.New(kerrors.Internal, "executor.Decode", "llm decode context missing output logits")
	}
	next := argmaxInt16(logits.Int16s())
	samplingDuration := time.Since(samplingStart)

	if err := output.WriteInts([]int32{next}); err != nil {
		e.currentStep, e.nextInputTokenID = savedStep, savedToken
		return 0, err
	}

	e.nextInputTokenID = next
	e.currentStep++
	e.stats.addDecodeE2E(prepareDuration, time.Since(e2eStart), samplingDuration)

	return next, nil
}

// argmaxInt16 returns the index of the largest element, ties broken to the
// lowest index (spec.md §8 property 7).
func argmaxInt16(logits []int16) int32 {
	best := 0
	for i := 1; i < len(logits); i++ {
		if logits[i] > logits[best] {
			best = i
		}
	}
	return int32(best)
}

package executor

import (
	"github.com/edgegemma/runtime/kerrors"
	"github.com/edgegemma/runtime/subgraph"
	"github.com/edgegemma/runtime/tensor"
)

// findSpec looks up a named tensor spec in a signature's input or output
// list.
func findSpec(specs []subgraph.TensorSpec, name string) (subgraph.TensorSpec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return subgraph.TensorSpec{}, false
}

func (e *Executor) allocate(spec subgraph.TensorSpec) *tensor.Buffer {
	return e.ctx.Empty(spec.DType, spec.Shape...)
}

func duplicateAll(m map[string]*tensor.Buffer) map[string]*tensor.Buffer {
	out := make(map[string]*tensor.Buffer, len(m))
	for name, buf := range m {
		out[name] = buf.Duplicate()
	}
	return out
}

// buildLLM implements spec.md §4.4.2 steps 3, 4, 5 and 6: allocate the
// LLM's own input/output buffers, bucket them by name, and assemble its
// four-map inference context.
func (e *Executor) buildLLM(prefillSignature string) error {
	prefillSig, ok := e.llm.Signature(prefillSignature)
	if !ok {
		return kerrors.Newf(kerrors.NotFound, "executor.Create", "llm signature %q not found", prefillSignature)
	}
	decodeSig, ok := e.llm.Signature(decodeSignature)
	if !ok {
		return kerrors.Newf(kerrors.NotFound, "executor.Create", "llm signature %q not found", decodeSignature)
	}

	e.gemmaPrefillInputs = map[string]*tensor.Buffer{}
	for _, in := range prefillSig.Inputs {
		buf := e.allocate(in)
		if isKVCacheName(in.Name) {
			e.inputKVCache[in.Name] = buf
		} else {
			e.gemmaPrefillInputs[in.Name] = buf
		}
	}

	e.gemmaDecodeInputs = map[string]*tensor.Buffer{}
	for _, in := range decodeSig.Inputs {
		if isKVCacheName(in.Name) {
			continue // shared from the prefill allocation above (step 4).
		}
		e.gemmaDecodeInputs[in.Name] = e.allocate(in)
	}

	e.prefillOutKVSlices = map[string]*tensor.Buffer{}
	for _, out := range prefillSig.Outputs {
		if isKVSliceName(out.Name) {
			e.prefillOutKVSlices[out.Name] = e.allocate(out)
		}
	}
	e.decodeOutKVSlices = map[string]*tensor.Buffer{}
	for _, out := range decodeSig.Outputs {
		if isKVSliceName(out.Name) {
			e.decodeOutKVSlices[out.Name] = e.allocate(out)
		}
	}

	decodeInputs := duplicateAll(e.gemmaDecodeInputs)
	for name, buf := range e.inputKVCache {
		if e.settings.isDtypeIncompatible(name) {
			spec, ok := findSpec(decodeSig.Inputs, name)
			if !ok {
				return kerrors.Newf(kerrors.NotFound, "executor.Create", "decode signature missing dtype-incompatible input %q", name)
			}
			fresh := e.allocate(spec)
			e.decodeOnlyCache[name] = fresh
			decodeInputs[name] = fresh.Duplicate()
			continue
		}
		decodeInputs[name] = buf.Duplicate()
	}

	decodeOutputs := duplicateAll(e.decodeOutKVSlices)
	logitsSpec, ok := findSpec(decodeSig.Outputs, "logits")
	if !ok {
		return kerrors.New(kerrors.NotFound, "executor.Create", "decode signature missing output \"logits\"")
	}
	decodeOutputs["logits"] = e.allocate(logitsSpec)

	e.llmCtx = stageContext{
		prefillInputs:  mergeBuffers(duplicateAll(e.gemmaPrefillInputs), duplicateAll(e.inputKVCache)),
		prefillOutputs: duplicateAll(e.prefillOutKVSlices),
		decodeInputs:   decodeInputs,
		decodeOutputs:  decodeOutputs,
	}
	return nil
}

// buildMaskAndRope implements spec.md §4.4.2 step 7: compile-time wiring
// for the mask and RoPE stages, aliasing their outputs directly into the
// LLM's already-allocated input buffers.
func (e *Executor) buildMaskAndRope(chunkLen int) error {
	maskPrefillSig, ok := e.aux.Signature(maskPrefillSignature(chunkLen))
	if !ok {
		return kerrors.Newf(kerrors.NotFound, "executor.Create", "mask signature %q not found", maskPrefillSignature(chunkLen))
	}
	maskDecodeSig, ok := e.aux.Signature(decodeMaskSignature)
	if !ok {
		return kerrors.Newf(kerrors.NotFound, "executor.Create", "mask signature %q not found", decodeMaskSignature)
	}

	prefillInputs := map[string]*tensor.Buffer{}
	for _, in := range maskPrefillSig.Inputs {
		prefillInputs[in.Name] = e.allocate(in)
	}
	decodeInputs := map[string]*tensor.Buffer{}
	for _, in := range maskDecodeSig.Inputs {
		decodeInputs[in.Name] = e.allocate(in)
	}

	prefillOutputs, err := aliasOutputsInto(maskPrefillSig.Outputs, e.gemmaPrefillInputs)
	if err != nil {
		return err
	}
	decodeOutputs, err := aliasOutputsInto(maskDecodeSig.Outputs, e.gemmaDecodeInputs)
	if err != nil {
		return err
	}

	e.maskCtx = stageContext{
		prefillInputs:  prefillInputs,
		prefillOutputs: prefillOutputs,
		decodeInputs:   decodeInputs,
		decodeOutputs:  decodeOutputs,
	}

	ropePrefillSig, ok := e.aux.Signature(ropePrefillSignature(chunkLen))
	if !ok {
		return kerrors.Newf(kerrors.NotFound, "executor.Create", "rope signature %q not found", ropePrefillSignature(chunkLen))
	}
	ropeDecodeSig, ok := e.aux.Signature(decodeRopeSignature)
	if !ok {
		return kerrors.Newf(kerrors.NotFound, "executor.Create", "rope signature %q not found", decodeRopeSignature)
	}

	ropePrefillInputs := map[string]*tensor.Buffer{}
	for _, in := range ropePrefillSig.Inputs {
		ropePrefillInputs[in.Name] = e.allocate(in)
	}
	ropeDecodeInputs := map[string]*tensor.Buffer{}
	for _, in := range ropeDecodeSig.Inputs {
		ropeDecodeInputs[in.Name] = e.allocate(in)
	}

	ropePrefillOutputs, err := aliasOutputsInto(ropePrefillSig.Outputs, e.gemmaPrefillInputs)
	if err != nil {
		return err
	}
	ropeDecodeOutputs, err := aliasOutputsInto(ropeDecodeSig.Outputs, e.gemmaDecodeInputs)
	if err != nil {
		return err
	}

	e.ropeCtx = stageContext{
		prefillInputs:  ropePrefillInputs,
		prefillOutputs: ropePrefillOutputs,
		decodeInputs:   ropeDecodeInputs,
		decodeOutputs:  ropeDecodeOutputs,
	}
	return nil
}

// aliasOutputsInto builds an output map for a stage by duplicating the
// matching buffer out of dest for each declared output name — this is the
// no-copy aliasing mechanism at the heart of the pipeline (spec.md §4.4.1).
func aliasOutputsInto(outputs []subgraph.TensorSpec, dest map[string]*tensor.Buffer) (map[string]*tensor.Buffer, error) {
	out := make(map[string]*tensor.Buffer, len(outputs))
	for _, o := range outputs {
		buf, ok := dest[o.Name]
		if !ok {
			return nil, kerrors.Newf(kerrors.NotFound, "executor.Create", "no LLM input buffer named %q to alias output into", o.Name)
		}
		out[o.Name] = buf.Duplicate()
	}
	return out, nil
}

// aliasOutputsRenamed is aliasOutputsInto for the one pipeline edge whose
// producer and consumer use different tensor names for the same buffer
// (the embedder's "embeds" vs the LLM's "input_embeds"). rename maps an
// output's own name to the name it should be looked up under in dest; an
// output absent from rename uses its own name unchanged.
func aliasOutputsRenamed(outputs []subgraph.TensorSpec, rename map[string]string, dest map[string]*tensor.Buffer) (map[string]*tensor.Buffer, error) {
	out := make(map[string]*tensor.Buffer, len(outputs))
	for _, o := range outputs {
		destName := o.Name
		if renamed, ok := rename[o.Name]; ok {
			destName = renamed
		}
		buf, ok := dest[destName]
		if !ok {
			return nil, kerrors.Newf(kerrors.NotFound, "executor.Create", "no LLM input buffer named %q to alias output %q into", destName, o.Name)
		}
		out[o.Name] = buf.Duplicate()
	}
	return out, nil
}

// buildCacheUpdate implements spec.md §4.4.2 step 10 and the RoPE half of
// step 8: duplicate RoPE's input_pos for the cache-update context, then
// build the cache-update context from the KV-cache, KV-slice, and position
// buffers already allocated. The mask input_tokens half of step 8 is done
// in buildEmbedder.
func (e *Executor) buildCacheUpdate(chunkLen int) error {
	cuPrefillSig, ok := e.aux.Signature(cacheUpdatePrefillSignature(chunkLen))
	if !ok {
		return kerrors.Newf(kerrors.NotFound, "executor.Create", "cache-update signature %q not found", cacheUpdatePrefillSignature(chunkLen))
	}
	cuDecodeSig, ok := e.aux.Signature(decodeCacheUpdateSignature)
	if !ok {
		return kerrors.Newf(kerrors.NotFound, "executor.Create", "cache-update signature %q not found", decodeCacheUpdateSignature)
	}

	prefillInputPos, ok := e.ropeCtx.prefillInputs["input_pos"]
	if !ok {
		return kerrors.New(kerrors.NotFound, "executor.Create", "rope prefill context missing input_pos")
	}
	decodeInputPos, ok := e.ropeCtx.decodeInputs["input_pos"]
	if !ok {
		return kerrors.New(kerrors.NotFound, "executor.Create", "rope decode context missing input_pos")
	}

	prefillInputs := map[string]*tensor.Buffer{"input_pos": prefillInputPos.Duplicate()}
	for name, buf := range e.inputKVCache {
		prefillInputs[name] = buf.Duplicate()
	}
	for name, buf := range e.prefillOutKVSlices {
		prefillInputs[name] = buf.Duplicate()
	}
	prefillOutputs := map[string]*tensor.Buffer{}
	for name, buf := range e.inputKVCache {
		prefillOutputs[name] = buf.Duplicate()
	}

	decodeInputs := map[string]*tensor.Buffer{"input_pos": decodeInputPos.Duplicate()}
	for name, buf := range e.inputKVCache {
		if e.settings.isDtypeIncompatible(name) {
			continue
		}
		decodeInputs[name] = buf.Duplicate()
	}
	for name, buf := range e.decodeOnlyCache {
		decodeInputs[name] = buf.Duplicate()
	}
	for name, buf := range e.decodeOutKVSlices {
		decodeInputs[name] = buf.Duplicate()
	}
	decodeOutputs := map[string]*tensor.Buffer{}
	for name, buf := range e.inputKVCache {
		if e.settings.isDtypeIncompatible(name) {
			continue
		}
		decodeOutputs[name] = buf.Duplicate()
	}
	for name, buf := range e.decodeOnlyCache {
		decodeOutputs[name] = buf.Duplicate()
	}

	if err := requireInputs(cuPrefillSig.Inputs, prefillInputs); err != nil {
		return err
	}
	if err := requireInputs(cuDecodeSig.Inputs, decodeInputs); err != nil {
		return err
	}

	e.cacheUpdateCtx = stageContext{
		prefillInputs:  prefillInputs,
		prefillOutputs: prefillOutputs,
		decodeInputs:   decodeInputs,
		decodeOutputs:  decodeOutputs,
	}
	return nil
}

func requireInputs(specs []subgraph.TensorSpec, have map[string]*tensor.Buffer) error {
	for _, s := range specs {
		if _, ok := have[s.Name]; !ok {
			return kerrors.Newf(kerrors.NotFound, "executor.Create", "missing wired input %q", s.Name)
		}
	}
	return nil
}

// buildEmbedder implements spec.md §4.4.2 step 9: the embedder's "tokens"
// input is the duplicate of mask's input_tokens handed over in step 8; its
// "embeds" output aliases directly into the LLM's input_embeds.
func (e *Executor) buildEmbedder(chunkLen int) error {
	prefillSig, ok := e.embedder.Signature(embedderPrefillSignature(chunkLen))
	if !ok {
		return kerrors.Newf(kerrors.NotFound, "executor.Create", "embedder signature %q not found", embedderPrefillSignature(chunkLen))
	}
	decodeSig, ok := e.embedder.Signature(decodeEmbedderSignature)
	if !ok {
		return kerrors.Newf(kerrors.NotFound, "executor.Create", "embedder signature %q not found", decodeEmbedderSignature)
	}

	prefillTokens, ok := e.maskCtx.prefillInputs["input_tokens"]
	if !ok {
		return kerrors.New(kerrors.NotFound, "executor.Create", "mask prefill context missing input_tokens")
	}
	decodeTokens, ok := e.maskCtx.decodeInputs["input_tokens"]
	if !ok {
		return kerrors.New(kerrors.NotFound, "executor.Create", "mask decode context missing input_tokens")
	}

	prefillInputs := map[string]*tensor.Buffer{"tokens": prefillTokens.Duplicate()}
	decodeInputs := map[string]*tensor.Buffer{"tokens": decodeTokens.Duplicate()}

	// The embedder's own output tensor is named "embeds"; the LLM's
	// matching input is named "input_embeds" (spec.md §4.4.1). Every
	// other aliased pair in the topology shares one name on both sides,
	// so this rename is the one exception.
	prefillOutputs, err := aliasOutputsRenamed(prefillSig.Outputs, map[string]string{"embeds": "input_embeds"}, e.gemmaPrefillInputs)
	if err != nil {
		return err
	}
	decodeOutputs, err := aliasOutputsRenamed(decodeSig.Outputs, map[string]string{"embeds": "input_embeds"}, e.gemmaDecodeInputs)
	if err != nil {
		return err
	}

	e.embedderCtx = stageContext{
		prefillInputs:  prefillInputs,
		prefillOutputs: prefillOutputs,
		decodeInputs:   decodeInputs,
		decodeOutputs:  decodeOutputs,
	}
	return nil
}

func mergeBuffers(maps ...map[string]*tensor.Buffer) map[string]*tensor.Buffer {
	out := map[string]*tensor.Buffer{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

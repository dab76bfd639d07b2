package executor

import "github.com/edgegemma/runtime/asset"

// Resources bundles the raw compiled sub-model bytes Executor.Create
// compiles into subgraph.Handles. Names match the asset-bundle's
// conventional entries (spec.md §6).
type Resources struct {
	LLMModel      []byte
	AuxModel      []byte
	EmbedderModel []byte
}

// Conventional asset-bundle entry names (spec.md §6).
const (
	LLMModelEntry      = "prefill_decode.tflite"
	AuxModelEntry      = "aux.tflite"
	EmbedderModelEntry = "embedder.tflite"
)

// LoadResources reads the three conventional sub-model entries out of an
// opened asset bundle.
func LoadResources(bundle *asset.Bundle) (Resources, error) {
	llm, err := bundle.GetFile(LLMModelEntry)
	if err != nil {
		return Resources{}, err
	}
	aux, err := bundle.GetFile(AuxModelEntry)
	if err != nil {
		return Resources{}, err
	}
	embedder, err := bundle.GetFile(EmbedderModelEntry)
	if err != nil {
		return Resources{}, err
	}
	return Resources{
		LLMModel:      llm.Data,
		AuxModel:      aux.Data,
		EmbedderModel: embedder.Data,
	}, nil
}

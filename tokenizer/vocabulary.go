// Package tokenizer implements text-to-token-id and token-id-to-text
// conversion for the runtime. It loads a GPT-2-style byte-level BPE
// vocabulary from the asset bundle's tokenizer JSON entry and exposes the
// incomplete-BPE-sequence signal that lets streaming decode accumulate
// partial UTF-8 across token boundaries.
package tokenizer

import (
	"encoding/json"

	"github.com/edgegemma/runtime/kerrors"
)

// NoToken is the sentinel marking "no carry-over token" throughout the
// executor and session bookkeeping.
const NoToken int32 = -1

// vocabulary is the bundle-resident tokenizer description: token strings
// indexed by id, their scores, the BPE merge ranks, and the handful of
// special-token ids the executor and session care about.
type vocabulary struct {
	Tokens  []string       `json:"tokens"`
	Scores  []float32      `json:"scores"`
	Merges  map[string]int `json:"merges"`
	BOSID   int32          `json:"bos_id"`
	EOSID   int32          `json:"eos_id"`
	UnkID   int32          `json:"unk_id"`
	HasBOS  bool           `json:"has_bos"`
	HasEOS  bool           `json:"has_eos"`

	reverse map[string]int32
}

// parseVocabulary decodes a bundle tokenizer JSON entry and builds the
// reverse lookup used by encoding.
func parseVocabulary(data []byte) (*vocabulary, error) {
	var v vocabulary
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, kerrors.Wrap(kerrors.DataLoss, "tokenizer.parseVocabulary", err)
	}
	if len(v.Tokens) == 0 {
		return nil, kerrors.New(kerrors.DataLoss, "tokenizer.parseVocabulary", "vocabulary has no tokens")
	}

	v.reverse = make(map[string]int32, len(v.Tokens))
	for i, tok := range v.Tokens {
		if _, ok := v.reverse[tok]; !ok {
			v.reverse[tok] = int32(i)
		}
	}
	return &v, nil
}

func (v *vocabulary) piece(id int32) (string, bool) {
	if id < 0 || int(id) >= len(v.Tokens) {
		return "", false
	}
	return v.Tokens[id], true
}

package tokenizer

import "strings"

// encodeBPEMerge repeatedly merges the adjacent pair with the lowest merge
// rank until no further merge applies, then maps the resulting parts back
// to token ids (falling back to the unknown-token id for an unmapped
// part). Grounded on the GPT-2/SentencePiece merge loop used throughout
// the pack's tokenizer implementations, generalized to read merge ranks
// from the bundle's vocabulary instead of a package-global table.
func (t *Tokenizer) encodeBPEMerge(encoded string, ids []int32) []int32 {
	runes := []rune(encoded)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}

	for len(parts) > 1 {
		minRank := int(^uint(0) >> 1)
		minIdx := -1
		for i := 0; i < len(parts)-1; i++ {
			if rank, ok := t.vocab.Merges[parts[i]+" "+parts[i+1]]; ok && rank < minRank {
				minRank = rank
				minIdx = i
			}
		}
		if minIdx < 0 {
			break
		}
		parts[minIdx] += parts[minIdx+1]
		parts = append(parts[:minIdx+1], parts[minIdx+2:]...)
	}

	for _, part := range parts {
		if id, ok := t.vocab.reverse[part]; ok {
			ids = append(ids, id)
			continue
		}
		if t.vocab.UnkID >= 0 {
			ids = append(ids, t.vocab.UnkID)
		}
	}
	return ids
}

// encodeChunk byte-level-encodes a run of ordinary text and BPE-merges it.
func (t *Tokenizer) encodeChunk(s string, ids []int32) []int32 {
	if s == "" {
		return ids
	}

	encodeTable, _ := byteLevelTable()
	var sb strings.Builder
	sb.Grow(len(s) * 2)
	for i := 0; i < len(s); i++ {
		sb.WriteRune(encodeTable[s[i]])
	}
	encoded := sb.String()

	if id, ok := t.vocab.reverse[encoded]; ok {
		return append(ids, id)
	}
	return t.encodeBPEMerge(encoded, ids)
}

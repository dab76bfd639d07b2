package tokenizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgegemma/runtime/kerrors"
)

// newTestVocabulary builds a minimal tokenizer.json fixture. The real
// bundle's vocabulary (built by the model's training pipeline) is not part
// of the retrieved pack, so these tests exercise the BPE merge loop and
// round-trip behaviour against a small synthetic vocabulary rather than the
// literal ids a real tokenizer would produce for a given sentence.
func newTestVocabulary(t *testing.T) *Tokenizer {
	t.Helper()
	encodeTable, _ := byteLevelTable()
	encodedSpace := string(encodeTable[' '])

	v := vocabulary{
		// Every plain ASCII letter below is already its own byte-level
		// encoding (they fall in the '!'-'~' range bytesToUnicode keeps
		// fixed); the space character does not, so its token is built from
		// the real encode table rather than the literal " " byte, exactly
		// as a real GPT-2 vocabulary file spells its word-boundary marker.
		Tokens: []string{"a", "b", "c", "ab", encodedSpace, "w", "o", "r", "l", "d", "e", "h", "hello"},
		Merges: map[string]int{
			"a b": 0,
		},
		UnkID:  -1,
		BOSID:  0,
		EOSID:  1,
		HasBOS: true,
		HasEOS: true,
	}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	tok, err := New(data)
	require.NoError(t, err)
	return tok
}

func TestEncodeChunkUsesLowestRankMergeFirst(t *testing.T) {
	tok := newTestVocabulary(t)

	ids := tok.TextToTokenIds("abc")
	require.Len(t, ids, 2, "\"a b\" must merge into \"ab\" before falling back to per-character ids")

	text, err := tok.TokenIdsToText(ids)
	require.NoError(t, err)
	require.Equal(t, "abc", text)
}

func TestEncodeChunkWholeWordShortcut(t *testing.T) {
	tok := newTestVocabulary(t)

	ids := tok.TextToTokenIds("hello")
	require.Equal(t, []int32{12}, ids, "a whole-word vocabulary entry must short-circuit the merge loop")

	text, err := tok.TokenIdsToText(ids)
	require.NoError(t, err)
	require.Equal(t, "hello", text)
}

func TestTextToTokenIdsRoundTripsMultiplePretokenizeChunks(t *testing.T) {
	tok := newTestVocabulary(t)

	ids := tok.TextToTokenIds("hello world")
	text, err := tok.TokenIdsToText(ids)
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
}

func TestUnknownByteFallsBackToUnkId(t *testing.T) {
	v := vocabulary{
		Tokens: []string{"a", "<unk>"},
		UnkID:  1,
	}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	tok, err := New(data)
	require.NoError(t, err)

	ids := tok.TextToTokenIds("z")
	require.Equal(t, []int32{1}, ids)
}

func TestBosEosIds(t *testing.T) {
	tok := newTestVocabulary(t)

	bos, err := tok.BosId()
	require.NoError(t, err)
	require.Equal(t, int32(0), bos)

	eos, err := tok.EosId()
	require.NoError(t, err)
	require.Equal(t, int32(1), eos)
}

func TestBosIdUnimplementedWithoutDeclaration(t *testing.T) {
	v := vocabulary{Tokens: []string{"a"}}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	tok, err := New(data)
	require.NoError(t, err)

	_, err = tok.BosId()
	require.Error(t, err)
	require.True(t, kerrors.Is(err, kerrors.Unimplemented))
}

// TestTokenIdsToTextFlagsTruncatedMultiByteSequence exercises scenario S5:
// decoding a prefix of the token ids that make up a multi-byte UTF-8
// character must surface kerrors.IncompleteBPE, alongside the partial
// string, rather than silently emitting invalid UTF-8.
func TestTokenIdsToTextFlagsTruncatedMultiByteSequence(t *testing.T) {
	encodeTable, _ := byteLevelTable()

	full := "é" // 2-byte UTF-8 codepoint (0xC3 0xA9)
	firstByte, secondByte := full[0], full[1]

	firstPiece := string(encodeTable[firstByte])
	secondPiece := string(encodeTable[secondByte])

	v := vocabulary{Tokens: []string{firstPiece, secondPiece}}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	tok, err := New(data)
	require.NoError(t, err)

	_, err = tok.TokenIdsToText([]int32{0})
	require.Error(t, err, "the first byte alone is an incomplete 2-byte sequence")
	require.True(t, kerrors.Is(err, kerrors.IncompleteBPE))

	text, err := tok.TokenIdsToText([]int32{0, 1})
	require.NoError(t, err)
	require.Equal(t, full, text)
}

func TestTextToTokenIdsStripsLeadingBOM(t *testing.T) {
	tok := newTestVocabulary(t)

	withBOM := tok.TextToTokenIds("\ufeffhello")
	without := tok.TextToTokenIds("hello")
	require.Equal(t, without, withBOM)
}

func TestMergeTokenIds(t *testing.T) {
	merged, err := MergeTokenIds([][]int32{{1, 2}, {3}}, [][]int32{{9}, {8, 7}})
	require.NoError(t, err)
	require.Equal(t, [][]int32{{1, 2, 9}, {3, 8, 7}}, merged)
}

func TestMergeTokenIdsRowCountMismatch(t *testing.T) {
	_, err := MergeTokenIds([][]int32{{1}}, [][]int32{{1}, {2}})
	require.Error(t, err)
	require.True(t, kerrors.Is(err, kerrors.InvalidArgument))
}

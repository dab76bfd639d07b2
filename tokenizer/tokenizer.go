package tokenizer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/edgegemma/runtime/asset"
	"github.com/edgegemma/runtime/kerrors"
)

// pretokenizePattern splits text into the chunks GPT-2-style BPE merges
// independently: contractions, runs of letters, runs of digits, runs of
// other non-space characters, and runs of whitespace. Go's regexp package
// has no lookahead, so the trailing-whitespace-keeps-its-leading-space
// behaviour of the original pattern collapses into a plain \s+ branch, the
// same simplification the pack's other GPT-2 tokenizers make.
var pretokenizePattern = regexp.MustCompile(`'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+`)

// Tokenizer converts between text and token-id sequences using a
// byte-level BPE vocabulary loaded from a model-asset bundle.
type Tokenizer struct {
	vocab *vocabulary
}

// tokenizerEntryName is the conventional name of the tokenizer JSON entry
// inside a model-asset bundle (spec.md §6).
const tokenizerEntryName = "tokenizer.json"

// Load reads the tokenizer entry out of an opened asset bundle and builds
// a Tokenizer from it.
func Load(bundle *asset.Bundle) (*Tokenizer, error) {
	entry, err := bundle.GetFile(tokenizerEntryName)
	if err != nil {
		return nil, err
	}
	return New(entry.Data)
}

// New builds a Tokenizer directly from a tokenizer JSON byte span, for
// callers (tests) that don't have a full asset bundle.
func New(tokenizerJSON []byte) (*Tokenizer, error) {
	v, err := parseVocabulary(tokenizerJSON)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{vocab: v}, nil
}

// BosId returns the tokenizer's beginning-of-sequence id, or
// Unimplemented if the vocabulary doesn't declare one.
func (t *Tokenizer) BosId() (int32, error) {
	if !t.vocab.HasBOS {
		return 0, kerrors.New(kerrors.Unimplemented, "tokenizer.BosId", "vocabulary has no BOS token")
	}
	return t.vocab.BOSID, nil
}

// EosId returns the tokenizer's end-of-sequence id, or Unimplemented if
// the vocabulary doesn't declare one.
func (t *Tokenizer) EosId() (int32, error) {
	if !t.vocab.HasEOS {
		return 0, kerrors.New(kerrors.Unimplemented, "tokenizer.EosId", "vocabulary has no EOS token")
	}
	return t.vocab.EOSID, nil
}

// TextToTokenIds tokenizes text into a sequence of token ids. A leading
// UTF-8 byte-order mark, which a prompt read from a file may still carry, is
// stripped first using the same unicode.BOMOverride decoder the teacher
// uses to read model-asset text files (parser/parser.go), applied here via
// transform.String instead of transform.NewReader since the input is
// already an in-memory string.
func (t *Tokenizer) TextToTokenIds(text string) []int32 {
	text = stripBOM(text)

	var ids []int32
	for _, loc := range pretokenizePattern.FindAllStringIndex(text, -1) {
		ids = t.encodeChunk(text[loc[0]:loc[1]], ids)
	}
	return ids
}

func stripBOM(text string) string {
	out, _, err := transform.String(unicode.BOMOverride(unicode.UTF8.NewDecoder()), text)
	if err != nil {
		return text
	}
	return out
}

// TokenIdsToText renders a sequence of token ids back to text. Each token's
// piece is itself byte-level encoded (spec.md §4.1), so concatenating their
// decoded bytes can legitimately leave a multi-byte UTF-8 codepoint split
// across a token boundary the caller hasn't supplied yet — the common case
// while streaming a generation turn one token at a time. TokenIdsToText
// detects this by decoding the trailing rune of the assembled bytes with
// unicode/utf8: a lone invalid byte at the very end (RuneError with width 1)
// means the sequence is truncated, not malformed, and TokenIdsToText returns
// it wrapped in kerrors.IncompleteBPE alongside the partial string so the
// caller can hold it and retry once more ids arrive (spec.md §4.2).
func (t *Tokenizer) TokenIdsToText(ids []int32) (string, error) {
	_, decodeTable := byteLevelTable()

	var sb strings.Builder
	for _, id := range ids {
		piece, ok := t.vocab.piece(id)
		if !ok {
			continue
		}
		for _, r := range piece {
			if b, ok := decodeTable[r]; ok {
				sb.WriteByte(b)
			}
		}
	}
	out := sb.String()

	if r, size := utf8.DecodeLastRuneInString(out); r == utf8.RuneError && size == 1 {
		return out, kerrors.New(kerrors.IncompleteBPE, "tokenizer.TokenIdsToText", "decoded text ends in a split UTF-8 sequence")
	}
	return out, nil
}

// MergeTokenIds concatenates prev and next row-by-row. It fails with
// InvalidArgument if the two batches don't have the same number of rows.
func MergeTokenIds(prev, next [][]int32) ([][]int32, error) {
	if len(prev) != len(next) {
		return nil, kerrors.Newf(kerrors.InvalidArgument, "tokenizer.MergeTokenIds", "row count mismatch: %d vs %d", len(prev), len(next))
	}
	merged := make([][]int32, len(prev))
	for i := range prev {
		row := make([]int32, 0, len(prev[i])+len(next[i]))
		row = append(row, prev[i]...)
		row = append(row, next[i]...)
		merged[i] = row
	}
	return merged, nil
}

package tokenizer

import "sync"

// bytesToUnicode builds the GPT-2 byte-to-unicode remap table: every byte
// value 0-255 maps to a printable rune, so that BPE can operate over a
// string of runes without ever producing an unprintable or ambiguous
// intermediate codepoint. Grounded on the same construction used by every
// GPT-2-style tokenizer in the pack (printable ASCII/Latin-1 ranges keep
// their own codepoint, everything else shifts into the 256+ range).
func bytesToUnicode() (encode [256]rune, decode map[rune]byte) {
	bs := make([]int, 0, 256)
	for i := int('!'); i <= int('~'); i++ {
		bs = append(bs, i)
	}
	for i := int('¡'); i <= int('¬'); i++ {
		bs = append(bs, i)
	}
	for i := int('®'); i <= int('ÿ'); i++ {
		bs = append(bs, i)
	}

	has := make(map[int]bool, len(bs))
	for _, b := range bs {
		has[b] = true
	}

	cs := append([]int(nil), bs...)
	n := 0
	for b := 0; b < 256; b++ {
		if has[b] {
			continue
		}
		bs = append(bs, b)
		cs = append(cs, 256+n)
		n++
	}

	decode = make(map[rune]byte, 256)
	for i, b := range bs {
		encode[b] = rune(cs[i])
		decode[rune(cs[i])] = byte(b)
	}
	return encode, decode
}

var (
	byteLevelOnce   sync.Once
	byteLevelEncode [256]rune
	byteLevelDecode map[rune]byte
)

func byteLevelTable() ([256]rune, map[rune]byte) {
	byteLevelOnce.Do(func() {
		byteLevelEncode, byteLevelDecode = bytesToUnicode()
	})
	return byteLevelEncode, byteLevelDecode
}

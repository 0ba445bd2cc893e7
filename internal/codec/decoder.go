// Package codec provides the UTF-8 text codec used by the buffered text
// adapters.
package codec

import "unicode/utf8"

// Decoder is an incremental UTF-8 decoder.
//
// Bytes handed to Decode are consumed into an internal carry until they form
// a complete sequence, so a multi-byte character whose bytes arrive in
// separate calls decodes exactly as if it had arrived at once. The carry is
// only discarded by Reset.
//
// Ill-formed input decodes to utf8.RuneError (U+FFFD), consuming one byte.
type Decoder struct {
	carry   [utf8.UTFMax]byte
	pending int
}

// NewDecoder creates a Decoder with no pending bytes.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes at most one rune. It consumes bytes from src until a rune
// is complete, returning the rune, the number of bytes of src consumed and
// true. If src runs out first, every byte of src has been moved into the
// carry and ok is false.
func (d *Decoder) Decode(src []byte) (r rune, consumed int, ok bool) {
	for {
		if d.pending > 0 && utf8.FullRune(d.carry[:d.pending]) {
			r, size := utf8.DecodeRune(d.carry[:d.pending])
			// size < pending only after an ill-formed lead; the remaining
			// bytes start the next sequence.
			copy(d.carry[:], d.carry[size:d.pending])
			d.pending -= size
			return r, consumed, true
		}
		if consumed == len(src) {
			return 0, consumed, false
		}
		// Fast path for ASCII with an empty carry.
		if d.pending == 0 && src[consumed] < utf8.RuneSelf {
			return rune(src[consumed]), consumed + 1, true
		}
		d.carry[d.pending] = src[consumed]
		d.pending++
		consumed++
	}
}

// DecodeRunes decodes as many runes as fit in dst. It returns the number of
// runes written and bytes of src consumed. Trailing bytes of an incomplete
// sequence are kept in the carry.
func (d *Decoder) DecodeRunes(dst []rune, src []byte) (runes, consumed int) {
	for runes < len(dst) {
		r, n, ok := d.Decode(src[consumed:])
		consumed += n
		if !ok {
			break
		}
		dst[runes] = r
		runes++
	}
	return runes, consumed
}

// Pending returns the number of bytes held in the carry.
func (d *Decoder) Pending() int {
	return d.pending
}

// Flush ends the input. If bytes of an incomplete sequence are pending it
// discards them and returns utf8.RuneError and true.
func (d *Decoder) Flush() (rune, bool) {
	if d.pending == 0 {
		return 0, false
	}
	d.pending = 0
	return utf8.RuneError, true
}

// Reset discards any pending bytes.
func (d *Decoder) Reset() {
	d.pending = 0
}

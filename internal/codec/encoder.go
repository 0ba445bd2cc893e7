package codec

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewLine is the default line terminator emitted by writers.
const NewLine = "\r\n"

// Encoder encodes text as UTF-8. Ill-formed input is replaced with U+FFFD.
type Encoder struct {
	enc *encoding.Encoder
}

// NewEncoder creates a UTF-8 Encoder.
func NewEncoder() *Encoder {
	return &Encoder{enc: unicode.UTF8.NewEncoder()}
}

// AppendString appends the encoding of s to dst.
func (e *Encoder) AppendString(dst []byte, s string) ([]byte, error) {
	if utf8.ValidString(s) {
		return append(dst, s...), nil
	}
	out, _, err := transform.Append(e.enc, dst, []byte(s))
	return out, err
}

// AppendRune appends the encoding of r to dst. Invalid runes and surrogate
// halves encode as U+FFFD.
func (e *Encoder) AppendRune(dst []byte, r rune) []byte {
	return utf8.AppendRune(dst, r)
}

// AppendRunes appends the encoding of runes to dst.
func (e *Encoder) AppendRunes(dst []byte, runes []rune) []byte {
	for _, r := range runes {
		dst = utf8.AppendRune(dst, r)
	}
	return dst
}

// Bytes returns the encoding of s in a new slice.
func (e *Encoder) Bytes(s string) ([]byte, error) {
	return e.AppendString(make([]byte, 0, len(s)), s)
}

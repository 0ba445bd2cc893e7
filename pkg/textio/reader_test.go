package textio

import (
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/blockberries/streamio/pkg/stream"
)

func newTestReader(t *testing.T, s stream.Stream, bufferSize int) *Reader {
	t.Helper()
	r, err := NewReaderWithOptions(s, ReaderOptions{BufferSize: bufferSize})
	if err != nil {
		t.Fatalf("NewReaderWithOptions() error: %v", err)
	}
	return r
}

func readAllRunes(t *testing.T, r *Reader) string {
	t.Helper()
	var sb strings.Builder
	for {
		ch, _, err := r.ReadRune()
		if err == io.EOF {
			return sb.String()
		}
		if err != nil {
			t.Fatalf("ReadRune() error: %v", err)
		}
		sb.WriteRune(ch)
	}
}

func TestNewReaderErrors(t *testing.T) {
	if _, err := NewReader(nil); !errors.Is(err, stream.ErrInvalidArgument) {
		t.Errorf("NewReader(nil) error = %v, want ErrInvalidArgument", err)
	}

	closed := stream.NewMemoryStream()
	closed.Close()
	if _, err := NewReader(closed); !errors.Is(err, stream.ErrInvalidArgument) {
		t.Errorf("NewReader(closed) error = %v, want ErrInvalidArgument", err)
	}
}

func TestReaderOptionsNormalize(t *testing.T) {
	r, err := NewReaderWithOptions(memory(""), ReaderOptions{BufferSize: 1})
	if err != nil {
		t.Fatalf("NewReaderWithOptions() error: %v", err)
	}
	opts := r.Options()
	if opts.BufferSize != DefaultReaderBufferSize {
		t.Errorf("BufferSize = %d, want %d", opts.BufferSize, DefaultReaderBufferSize)
	}
	if opts.MaxLineLength != DefaultMaxLineLength {
		t.Errorf("MaxLineLength = %d, want %d", opts.MaxLineLength, DefaultMaxLineLength)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a no-op logger")
	}
}

func TestReaderReadRune(t *testing.T) {
	r := newTestReader(t, memory("a€😀"), 0)

	tests := []struct {
		ch   rune
		size int
	}{
		{'a', 1},
		{'€', 3},
		{'😀', 4},
	}
	for _, tc := range tests {
		ch, size, err := r.ReadRune()
		if err != nil {
			t.Fatalf("ReadRune() error: %v", err)
		}
		if ch != tc.ch || size != tc.size {
			t.Errorf("ReadRune() = (%q, %d), want (%q, %d)", ch, size, tc.ch, tc.size)
		}
	}
	if _, _, err := r.ReadRune(); err != io.EOF {
		t.Errorf("ReadRune() at end error = %v, want EOF", err)
	}
}

func TestReaderSplitAcrossRefills(t *testing.T) {
	input := strings.Repeat("a€😀b日ü", 50)

	for size := MinBufferSize; size <= 11; size++ {
		r := newTestReader(t, memory(input), size)
		if got := readAllRunes(t, r); got != input {
			t.Errorf("buffer %d: decoded %d runes, want %d", size, utf8.RuneCountInString(got), utf8.RuneCountInString(input))
		}
	}

	r := newTestReader(t, trickle{memory(input)}, MinBufferSize)
	if got := readAllRunes(t, r); got != input {
		t.Error("single-byte reads decoded differently")
	}
}

func TestReaderIllFormed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad_byte", "a\xffb", "a�b"},
		{"truncated_at_end", "ab\xe2\x82", "ab�"},
		{"interrupted", "\xe2x", "�x"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestReader(t, memory(tc.input), MinBufferSize)
			if got := readAllRunes(t, r); got != tc.want {
				t.Errorf("decoded %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReaderPeekRune(t *testing.T) {
	r := newTestReader(t, memory("x€y"), MinBufferSize)

	for i := 0; i < 3; i++ {
		ch, err := r.PeekRune()
		if err != nil || ch != 'x' {
			t.Fatalf("PeekRune() = (%q, %v), want ('x', nil)", ch, err)
		}
	}
	r.ReadRune()

	ch, err := r.PeekRune()
	if err != nil || ch != '€' {
		t.Fatalf("PeekRune() = (%q, %v), want ('€', nil)", ch, err)
	}
	if got := readAllRunes(t, r); got != "€y" {
		t.Errorf("remaining = %q, want %q", got, "€y")
	}

	if _, err := r.PeekRune(); err != io.EOF {
		t.Errorf("PeekRune() at end error = %v, want EOF", err)
	}
}

func TestReaderPeekAcrossRefill(t *testing.T) {
	// With a 4 byte buffer the second character straddles a refill.
	r := newTestReader(t, memory("abc€d"), MinBufferSize)
	for _, want := range "abc" {
		ch, _, _ := r.ReadRune()
		if ch != want {
			t.Fatalf("ReadRune() = %q, want %q", ch, want)
		}
	}

	ch, err := r.PeekRune()
	if err != nil || ch != '€' {
		t.Fatalf("PeekRune() = (%q, %v), want ('€', nil)", ch, err)
	}
	if got := readAllRunes(t, r); got != "€d" {
		t.Errorf("remaining = %q, want %q", got, "€d")
	}
}

func TestReaderRead(t *testing.T) {
	r := newTestReader(t, memory("héllo wörld"), MinBufferSize)
	dst := make([]rune, 5)

	n, err := r.Read(dst)
	if err != nil || n != 5 || string(dst) != "héllo" {
		t.Errorf("Read() = (%d, %v, %q), want (5, nil, \"héllo\")", n, err, string(dst[:n]))
	}

	dst = make([]rune, 20)
	n, err = r.Read(dst)
	if err != nil || string(dst[:n]) != " wörld" {
		t.Errorf("Read() = (%d, %v, %q), want (6, nil, \" wörld\")", n, err, string(dst[:n]))
	}

	if n, err := r.Read(dst); n != 0 || err != io.EOF {
		t.Errorf("Read() at end = (%d, %v), want (0, EOF)", n, err)
	}
	if n, err := r.Read(nil); n != 0 || err != nil {
		t.Errorf("Read(nil) = (%d, %v), want (0, nil)", n, err)
	}
}

func TestReaderReadBlock(t *testing.T) {
	r := newTestReader(t, trickle{memory("日本語テキスト")}, MinBufferSize)
	dst := make([]rune, 8)

	n, err := r.ReadBlock(dst, 2, 4)
	if err != nil {
		t.Fatalf("ReadBlock() error: %v", err)
	}
	if n != 4 || string(dst[2:6]) != "日本語テ" {
		t.Errorf("ReadBlock() = (%d, %q), want (4, \"日本語テ\")", n, string(dst[2:6]))
	}

	n, err = r.ReadBlock(dst, 0, 8)
	if err != nil || n != 3 || string(dst[:3]) != "キスト" {
		t.Errorf("ReadBlock() short = (%d, %v, %q), want (3, nil, \"キスト\")", n, err, string(dst[:n]))
	}

	if _, err := r.ReadBlock(dst, 0, 1); err != io.EOF {
		t.Errorf("ReadBlock() at end error = %v, want EOF", err)
	}

	tests := []struct {
		name   string
		dst    []rune
		offset int
		count  int
	}{
		{"nil_buffer", nil, 0, 0},
		{"negative_offset", dst, -1, 1},
		{"negative_count", dst, 0, -1},
		{"overflow", dst, 5, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := r.ReadBlock(tc.dst, tc.offset, tc.count); !errors.Is(err, stream.ErrInvalidArgument) {
				t.Errorf("ReadBlock() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestReaderReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"crlf", "a\r\nb", []string{"a", "b"}},
		{"cr", "a\rb", []string{"a", "b"}},
		{"lf", "a\nb", []string{"a", "b"}},
		{"mixed", "one\rtwo\nthree\r\nfour", []string{"one", "two", "three", "four"}},
		{"empty_lines", "a\n\nb", []string{"a", "", "b"}},
		{"cr_cr", "a\r\rb", []string{"a", "", "b"}},
		{"lf_cr", "a\n\rb", []string{"a", "", "b"}},
		{"only_terminator", "\r\n", []string{""}},
		{"trailing_terminator", "a\n", []string{"a"}},
		{"trailing_cr", "a\r", []string{"a"}},
		{"no_terminator", "abc", []string{"abc"}},
		{"empty", "", nil},
		{"multibyte", "日本\r\n語", []string{"日本", "語"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, size := range []int{MinBufferSize, 5, DefaultReaderBufferSize} {
				r := newTestReader(t, memory(tc.input), size)
				var got []string
				for {
					line, err := r.ReadLine()
					if err == io.EOF {
						break
					}
					if err != nil {
						t.Fatalf("ReadLine() error: %v", err)
					}
					got = append(got, line)
				}
				if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
					t.Errorf("buffer %d: lines = %q, want %q", size, got, tc.want)
				}
			}
		})
	}
}

func TestReaderReadLineCRLFAtBoundary(t *testing.T) {
	// "abc\r" fills the first 4 byte refill; "\n" arrives in the next.
	r := newTestReader(t, memory("abc\r\ndef"), MinBufferSize)
	line, err := r.ReadLine()
	if err != nil || line != "abc" {
		t.Fatalf("ReadLine() = (%q, %v), want (\"abc\", nil)", line, err)
	}
	line, err = r.ReadLine()
	if err != nil || line != "def" {
		t.Fatalf("ReadLine() = (%q, %v), want (\"def\", nil)", line, err)
	}
}

func TestReaderReadLineMaxLength(t *testing.T) {
	r, err := NewReaderWithOptions(memory("abcde\nabcdefgh\n"), ReaderOptions{
		BufferSize:    MinBufferSize,
		MaxLineLength: 5,
	})
	if err != nil {
		t.Fatalf("NewReaderWithOptions() error: %v", err)
	}

	line, err := r.ReadLine()
	if err != nil || line != "abcde" {
		t.Fatalf("ReadLine() = (%q, %v), want (\"abcde\", nil)", line, err)
	}
	if _, err := r.ReadLine(); !stream.IsRangeExceeded(err) {
		t.Errorf("ReadLine() error = %v, want ErrRangeExceeded", err)
	}
}

func TestReaderReadLineLong(t *testing.T) {
	long := strings.Repeat("ß", 3000)
	r := newTestReader(t, memory(long+"\nend"), 16)
	line, err := r.ReadLine()
	if err != nil || line != long {
		t.Fatalf("ReadLine() returned %d runes, err %v; want 3000", utf8.RuneCountInString(line), err)
	}
	line, _ = r.ReadLine()
	if line != "end" {
		t.Errorf("ReadLine() = %q, want %q", line, "end")
	}
}

func TestReaderReadToEnd(t *testing.T) {
	input := strings.Repeat("line ünïcødé 😀\r\n", 200)

	tests := []struct {
		name string
		s    func() stream.Stream
	}{
		{"seekable", func() stream.Stream { return memory(input) }},
		{"unseekable", func() stream.Stream { return unseekable{memory(input)} }},
		{"trickle", func() stream.Stream { return trickle{memory(input)} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, size := range []int{MinBufferSize, 7, DefaultReaderBufferSize} {
				r := newTestReader(t, tc.s(), size)

				// Consume a little first so buffered bytes count.
				r.ReadRune()
				r.PeekRune()

				got, err := r.ReadToEnd()
				if err != nil {
					t.Fatalf("ReadToEnd() error: %v", err)
				}
				if got != input[1:] {
					t.Errorf("buffer %d: ReadToEnd() returned %d bytes, want %d", size, len(got), len(input)-1)
				}

				got, err = r.ReadToEnd()
				if err != nil || got != "" {
					t.Errorf("second ReadToEnd() = (%q, %v), want (\"\", nil)", got, err)
				}
			}
		})
	}
}

func TestReaderReadToEndPendingCarry(t *testing.T) {
	// The interrupted sequence leaves "x" in the decoder carry.
	r := newTestReader(t, memory("\xe2x€"), MinBufferSize)
	if ch, _, _ := r.ReadRune(); ch != utf8.RuneError {
		t.Fatalf("ReadRune() = %q, want RuneError", ch)
	}
	got, err := r.ReadToEnd()
	if err != nil || got != "x€" {
		t.Errorf("ReadToEnd() = (%q, %v), want (\"x€\", nil)", got, err)
	}
}

func TestReaderEndOfStream(t *testing.T) {
	r := newTestReader(t, memory("z"), 0)
	if r.EndOfStream() {
		t.Error("EndOfStream() = true before reading")
	}
	r.ReadRune()
	if !r.EndOfStream() {
		t.Error("EndOfStream() = false after last character")
	}

	r.Close()
	if !r.EndOfStream() {
		t.Error("EndOfStream() = false after Close")
	}
}

func TestReaderRefillFailure(t *testing.T) {
	src := &failing{MemoryStream: memory("abcdefgh"), budget: 5}
	r := newTestReader(t, src, MinBufferSize)

	got := ""
	var err error
	for {
		var ch rune
		ch, _, err = r.ReadRune()
		if err != nil {
			break
		}
		got += string(ch)
	}
	if got != "abcd" {
		t.Errorf("read %q before failure, want %q", got, "abcd")
	}
	if !errors.Is(err, stream.ErrIO) {
		t.Errorf("ReadRune() error = %v, want ErrIO", err)
	}
	if !errors.Is(err, errBackend) {
		t.Errorf("ReadRune() error = %v, want cause %v", err, errBackend)
	}
	if !stream.IsRetryable(err) {
		t.Error("refill failure should be retryable")
	}

	// The byte read before the failure stays buffered.
	ch, _, err := r.ReadRune()
	if err != nil || ch != 'e' {
		t.Errorf("ReadRune() after failure = (%q, %v), want ('e', nil)", ch, err)
	}
	if _, _, err := r.ReadRune(); !errors.Is(err, errBackend) {
		t.Errorf("ReadRune() error = %v, want %v", err, errBackend)
	}
}

func TestReaderClose(t *testing.T) {
	m := memory("data")
	r := newTestReader(t, m, 0)
	if r.BaseStream() != stream.Stream(m) {
		t.Error("BaseStream() should return the wrapped stream")
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if m.CanRead() {
		t.Error("Close() should close the stream")
	}
	if r.BaseStream() != nil {
		t.Error("BaseStream() should be nil after Close")
	}

	ops := map[string]func() error{
		"ReadRune":  func() error { _, _, err := r.ReadRune(); return err },
		"PeekRune":  func() error { _, err := r.PeekRune(); return err },
		"Read":      func() error { _, err := r.Read(make([]rune, 1)); return err },
		"ReadBlock": func() error { _, err := r.ReadBlock(make([]rune, 1), 0, 1); return err },
		"ReadLine":  func() error { _, err := r.ReadLine(); return err },
		"ReadToEnd": func() error { _, err := r.ReadToEnd(); return err },
	}
	for name, op := range ops {
		if err := op(); !stream.IsDisposed(err) {
			t.Errorf("%s() after Close error = %v, want ErrDisposed", name, err)
		}
	}
}

func TestReaderCloseLeaveOpen(t *testing.T) {
	m := memory("first\nsecond\n")
	r, _ := NewReaderWithOptions(m, ReaderOptions{LeaveOpen: true})
	r.ReadLine()
	r.Close()

	if !m.CanRead() {
		t.Fatal("LeaveOpen reader closed the stream")
	}

	// The stream is shared serially: rewind and read again.
	m.SetPosition(0)
	r2, _ := NewReader(m)
	defer r2.Close()
	line, err := r2.ReadLine()
	if err != nil || line != "first" {
		t.Errorf("ReadLine() = (%q, %v), want (\"first\", nil)", line, err)
	}
}

func TestReaderCloseReportsStreamError(t *testing.T) {
	src := &failing{MemoryStream: memory("x"), budget: 10}
	r := newTestReader(t, src, 0)
	if err := r.Close(); !errors.Is(err, errBackend) {
		t.Errorf("Close() error = %v, want %v", err, errBackend)
	}
	if src.closed != 1 {
		t.Errorf("stream closed %d times, want 1", src.closed)
	}
	r.Close()
	if src.closed != 1 {
		t.Errorf("second Close() closed the stream again")
	}
}

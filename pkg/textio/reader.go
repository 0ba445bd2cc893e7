package textio

import (
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/blockberries/streamio/internal/codec"
	"github.com/blockberries/streamio/pkg/stream"
)

// Reader reads characters from a byte stream, decoding UTF-8 through a
// fixed-size lookahead buffer.
//
// A character whose encoded bytes straddle a refill is carried by the
// decoder across the refill, so it decodes exactly as if read unsplit.
//
// Reader is not safe for concurrent use. The stream may be shared with
// other adapters only serially; bytes already buffered by the Reader are
// not visible to them.
type Reader struct {
	s    stream.Stream
	dec  codec.Decoder
	buf  []byte
	pos  int // next unconsumed byte in buf
	n    int // end of valid bytes in buf
	mark int // start of bytes a peek may rewind to, -1 if none

	opts   ReaderOptions
	closed bool
}

var _ io.RuneReader = (*Reader)(nil)

// NewReader creates a Reader over s with default options.
func NewReader(s stream.Stream) (*Reader, error) {
	return NewReaderWithOptions(s, DefaultReaderOptions)
}

// NewReaderWithOptions creates a Reader over s.
// It fails with stream.ErrInvalidArgument if s is nil or not readable.
func NewReaderWithOptions(s stream.Stream, opts ReaderOptions) (*Reader, error) {
	if s == nil {
		return nil, stream.NewError("new reader", stream.ErrInvalidArgument, "nil stream")
	}
	if !s.CanRead() {
		return nil, stream.NewError("new reader", stream.ErrInvalidArgument, "stream is not readable")
	}
	opts = opts.normalize()
	return &Reader{
		s:    s,
		buf:  stream.GetBuffer(opts.BufferSize),
		mark: -1,
		opts: opts,
	}, nil
}

// BaseStream returns the underlying stream, or nil once the Reader is
// closed.
func (r *Reader) BaseStream() stream.Stream {
	return r.s
}

// Options returns the reader's options.
func (r *Reader) Options() ReaderOptions {
	return r.opts
}

// Buffered returns the number of bytes held in the lookahead buffer.
func (r *Reader) Buffered() int {
	return r.n - r.pos
}

// ReadRune reads one character. It returns io.EOF at the end of the stream.
// The size is the UTF-8 length of the returned rune.
func (r *Reader) ReadRune() (rune, int, error) {
	if r.closed {
		return 0, 0, stream.NewError("read", stream.ErrDisposed, "")
	}
	ch, err := r.readRune()
	if err != nil {
		return 0, 0, err
	}
	if ch == utf8.RuneError {
		return ch, 1, nil
	}
	return ch, utf8.RuneLen(ch), nil
}

func (r *Reader) readRune() (rune, error) {
	for {
		ch, used, ok := r.dec.Decode(r.buf[r.pos:r.n])
		r.pos += used
		if ok {
			return ch, nil
		}
		got, err := r.fill(r.refillSize())
		if err != nil {
			return 0, err
		}
		if got == 0 {
			if ch, ok := r.dec.Flush(); ok {
				return ch, nil
			}
			return 0, io.EOF
		}
	}
}

// PeekRune returns the next character without consuming it.
//
// Peeking may refill and compact the lookahead buffer; the buffered bytes
// and decoder state are preserved so the next read returns the same
// character.
func (r *Reader) PeekRune() (rune, error) {
	if r.closed {
		return 0, stream.NewError("peek", stream.ErrDisposed, "")
	}
	saved := r.dec
	r.mark = r.pos
	ch, err := r.readRune()
	r.pos = r.mark
	r.mark = -1
	r.dec = saved
	return ch, err
}

// Read decodes up to len(dst) characters into dst and returns the number
// decoded. It stops early only at the end of the stream, returning io.EOF
// when no characters were decoded.
func (r *Reader) Read(dst []rune) (int, error) {
	if r.closed {
		return 0, stream.NewError("read", stream.ErrDisposed, "")
	}
	if len(dst) == 0 {
		return 0, nil
	}
	total := 0
	for total < len(dst) {
		k, used := r.dec.DecodeRunes(dst[total:], r.buf[r.pos:r.n])
		r.pos += used
		total += k
		if total == len(dst) {
			break
		}
		got, err := r.fill(r.refillSize())
		if err != nil {
			return total, err
		}
		if got == 0 {
			if ch, ok := r.dec.Flush(); ok {
				dst[total] = ch
				total++
			}
			break
		}
	}
	if total == 0 {
		return 0, io.EOF
	}
	return total, nil
}

// ReadBlock reads count characters into dst[offset:], looping until count
// characters are read or the stream ends. It returns the number read.
func (r *Reader) ReadBlock(dst []rune, offset, count int) (int, error) {
	if dst == nil {
		return 0, stream.NewError("read block", stream.ErrInvalidArgument, "nil buffer")
	}
	if offset < 0 || count < 0 {
		return 0, stream.NewError("read block", stream.ErrInvalidArgument, "negative offset or count")
	}
	if len(dst)-offset < count {
		return 0, stream.NewError("read block", stream.ErrInvalidArgument, "offset and count exceed buffer length")
	}
	n := 0
	for n < count {
		i, err := r.Read(dst[offset+n : offset+count])
		n += i
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
	}
	if n == 0 && count > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadLine reads a line of characters. "\n", "\r" and "\r\n" all terminate
// a line; the terminator is not returned. At the end of the stream it
// returns the remaining characters, or io.EOF if there are none.
//
// Lines longer than MaxLineLength characters fail with
// stream.ErrRangeExceeded.
func (r *Reader) ReadLine() (string, error) {
	if r.closed {
		return "", stream.NewError("read line", stream.ErrDisposed, "")
	}
	size := r.opts.BufferSize
	if size > r.opts.MaxLineLength {
		size = r.opts.MaxLineLength
	}
	line := make([]rune, 0, size)
	for {
		ch, err := r.readRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch ch {
		case '\n':
			return string(line), nil
		case '\r':
			next, err := r.PeekRune()
			if err != nil && err != io.EOF {
				return "", err
			}
			if err == nil && next == '\n' {
				if _, err := r.readRune(); err != nil {
					return "", err
				}
			}
			return string(line), nil
		}
		if len(line) == cap(line) {
			if len(line) >= r.opts.MaxLineLength {
				return "", stream.NewError("read line", stream.ErrRangeExceeded, "line exceeds maximum length")
			}
			grown := cap(line) * 2
			if grown > r.opts.MaxLineLength {
				grown = r.opts.MaxLineLength
			}
			next := make([]rune, len(line), grown)
			copy(next, line)
			line = next
		}
		line = append(line, ch)
	}
	if len(line) == 0 {
		return "", io.EOF
	}
	return string(line), nil
}

// ReadToEnd reads all remaining characters.
//
// A seekable stream reports its remaining length, so the result is decoded
// into a single buffer of that size. Other streams are read in chunks of
// BufferSize characters until a short read.
func (r *Reader) ReadToEnd() (string, error) {
	if r.closed {
		return "", stream.NewError("read to end", stream.ErrDisposed, "")
	}
	if r.s.CanSeek() {
		return r.readSeekable()
	}
	return r.readNonSeekable()
}

func (r *Reader) readSeekable() (string, error) {
	remaining, err := r.remaining()
	if err != nil {
		return "", stream.WrapIO("read to end", err)
	}
	// Every character takes at least one byte.
	size := int(remaining) + r.Buffered() + r.dec.Pending()
	if size == 0 {
		return "", nil
	}
	chars := make([]rune, size)
	n, err := r.ReadBlock(chars, 0, size)
	if err != nil && err != io.EOF {
		return "", err
	}
	return string(chars[:n]), nil
}

func (r *Reader) readNonSeekable() (string, error) {
	var sb strings.Builder
	chunk := make([]rune, r.opts.BufferSize)
	for {
		n, err := r.Read(chunk)
		for _, ch := range chunk[:n] {
			sb.WriteRune(ch)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if n < len(chunk) {
			break
		}
	}
	return sb.String(), nil
}

// EndOfStream reports whether no characters remain. It returns true on
// any read failure, including a closed Reader.
func (r *Reader) EndOfStream() bool {
	_, err := r.PeekRune()
	return err != nil
}

// remaining returns the number of bytes left in a seekable stream.
func (r *Reader) remaining() (int64, error) {
	length, err := r.s.Length()
	if err != nil {
		return 0, err
	}
	pos, err := r.s.Position()
	if err != nil {
		return 0, err
	}
	if pos >= length {
		return 0, nil
	}
	return length - pos, nil
}

// refillSize returns how many bytes to request from the stream: the buffer
// size, capped by the remaining length when the stream can report it, and
// at least 1.
func (r *Reader) refillSize() int {
	size := len(r.buf)
	if r.s.CanSeek() {
		if remaining, err := r.remaining(); err == nil && remaining < int64(size) {
			size = int(remaining)
		}
	}
	if size <= 0 {
		size = 1
	}
	return size
}

// fill compacts unconsumed bytes to the front of the buffer and reads up to
// count more bytes from the stream. It returns the number of bytes read.
// Bytes after an active peek mark are kept as well.
func (r *Reader) fill(count int) (int, error) {
	start := r.pos
	if r.mark >= 0 {
		start = r.mark
	}
	if start != 0 {
		copy(r.buf, r.buf[start:r.n])
		r.n -= start
		r.pos -= start
		if r.mark >= 0 {
			r.mark = 0
		}
	}

	total := 0
	for count > 0 && r.n < len(r.buf) {
		space := len(r.buf) - r.n
		if count > space {
			count = space
		}
		read, err := r.s.Read(r.buf[r.n : r.n+count])
		r.n += read
		total += read
		count -= read
		if err == io.EOF {
			break
		}
		if err != nil {
			r.opts.Logger.Debug("stream refill failed", zap.Int("buffered", r.n-r.pos), zap.Error(err))
			return total, stream.WrapIO("refill", err)
		}
		if read == 0 {
			break
		}
	}
	return total, nil
}

// Close releases the lookahead buffer and closes the stream unless the
// Reader was created with LeaveOpen. Close is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if !r.opts.LeaveOpen {
		err = r.s.Close()
	}
	stream.PutBuffer(r.buf)
	r.buf = nil
	r.pos, r.n, r.mark = 0, 0, -1
	r.dec.Reset()
	r.s = nil
	return err
}

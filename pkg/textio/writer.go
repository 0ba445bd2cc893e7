package textio

import (
	"io"

	"go.uber.org/zap"

	"github.com/blockberries/streamio/internal/codec"
	"github.com/blockberries/streamio/pkg/stream"
)

// Writer encodes text as UTF-8 into a fixed-size buffer and writes the
// buffer to a stream when it fills or on Flush.
//
// Writer is not safe for concurrent use. Buffered output is invisible to
// other users of the stream until flushed.
type Writer struct {
	s       stream.Stream
	enc     *codec.Encoder
	buf     []byte
	used    int
	scratch []byte
	newLine string

	opts   WriterOptions
	closed bool
}

var (
	_ io.Writer       = (*Writer)(nil)
	_ io.StringWriter = (*Writer)(nil)
)

// NewWriter creates a Writer over s with default options.
func NewWriter(s stream.Stream) (*Writer, error) {
	return NewWriterWithOptions(s, DefaultWriterOptions)
}

// NewWriterWithOptions creates a Writer over s.
// It fails with stream.ErrInvalidArgument if s is nil or not writable.
func NewWriterWithOptions(s stream.Stream, opts WriterOptions) (*Writer, error) {
	if s == nil {
		return nil, stream.NewError("new writer", stream.ErrInvalidArgument, "nil stream")
	}
	if !s.CanWrite() {
		return nil, stream.NewError("new writer", stream.ErrInvalidArgument, "stream is not writable")
	}
	opts = opts.normalize()
	return &Writer{
		s:       s,
		enc:     codec.NewEncoder(),
		buf:     stream.GetBuffer(opts.BufferSize),
		newLine: opts.NewLine,
		opts:    opts,
	}, nil
}

// BaseStream returns the underlying stream, or nil once the Writer is
// closed.
func (w *Writer) BaseStream() stream.Stream {
	return w.s
}

// Options returns the writer's options.
func (w *Writer) Options() WriterOptions {
	return w.opts
}

// Buffered returns the number of bytes waiting to be flushed.
func (w *Writer) Buffered() int {
	return w.used
}

// NewLine returns the line terminator written by WriteLine.
func (w *Writer) NewLine() string {
	return w.newLine
}

// SetNewLine sets the line terminator written by WriteLine. An empty
// terminator restores the default "\r\n".
func (w *Writer) SetNewLine(nl string) {
	if nl == "" {
		nl = codec.NewLine
	}
	w.newLine = nl
}

// Write appends raw bytes to the output.
func (w *Writer) Write(p []byte) (int, error) {
	if err := w.writeBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString encodes s and appends it to the output. It returns the
// number of encoded bytes.
func (w *Writer) WriteString(s string) (int, error) {
	if w.closed {
		return 0, stream.NewError("write", stream.ErrDisposed, "")
	}
	var err error
	w.scratch, err = w.enc.AppendString(w.scratch[:0], s)
	if err != nil {
		return 0, stream.NewError("write", stream.ErrInvalidArgument, err.Error())
	}
	if err := w.writeBytes(w.scratch); err != nil {
		return 0, err
	}
	return len(w.scratch), nil
}

// WriteRune encodes r and appends it to the output. It returns the number
// of encoded bytes.
func (w *Writer) WriteRune(r rune) (int, error) {
	if w.closed {
		return 0, stream.NewError("write", stream.ErrDisposed, "")
	}
	w.scratch = w.enc.AppendRune(w.scratch[:0], r)
	if err := w.writeBytes(w.scratch); err != nil {
		return 0, err
	}
	return len(w.scratch), nil
}

// WriteRunes encodes count characters of runes starting at offset.
func (w *Writer) WriteRunes(runes []rune, offset, count int) error {
	if runes == nil {
		return stream.NewError("write", stream.ErrInvalidArgument, "nil buffer")
	}
	if offset < 0 || count < 0 {
		return stream.NewError("write", stream.ErrInvalidArgument, "negative offset or count")
	}
	if len(runes)-offset < count {
		return stream.NewError("write", stream.ErrInvalidArgument, "offset and count exceed buffer length")
	}
	if w.closed {
		return stream.NewError("write", stream.ErrDisposed, "")
	}
	w.scratch = w.enc.AppendRunes(w.scratch[:0], runes[offset:offset+count])
	return w.writeBytes(w.scratch)
}

// WriteLine writes s followed by the line terminator.
func (w *Writer) WriteLine(s string) error {
	if w.closed {
		return stream.NewError("write line", stream.ErrDisposed, "")
	}
	var err error
	w.scratch, err = w.enc.AppendString(w.scratch[:0], s)
	if err != nil {
		return stream.NewError("write line", stream.ErrInvalidArgument, err.Error())
	}
	w.scratch = append(w.scratch, w.newLine...)
	return w.writeBytes(w.scratch)
}

// writeBytes appends p to the buffer. If p would fill the buffer, pending
// bytes are written to the stream and p is written directly after them.
func (w *Writer) writeBytes(p []byte) error {
	if w.closed {
		return stream.NewError("write", stream.ErrDisposed, "")
	}
	if w.used+len(p) >= len(w.buf) {
		if w.used > 0 {
			if _, err := w.s.Write(w.buf[:w.used]); err != nil {
				return stream.WrapIO("write", err)
			}
			w.used = 0
		}
		if _, err := w.s.Write(p); err != nil {
			return stream.WrapIO("write", err)
		}
		return nil
	}
	w.used += copy(w.buf[w.used:], p)
	return nil
}

// Flush writes buffered bytes to the stream and flushes the stream.
func (w *Writer) Flush() error {
	if w.closed {
		return stream.NewError("flush", stream.ErrDisposed, "")
	}
	return w.flush()
}

func (w *Writer) flush() error {
	if w.used > 0 {
		if _, err := w.s.Write(w.buf[:w.used]); err != nil {
			return stream.WrapIO("flush", err)
		}
		w.used = 0
	}
	if err := w.s.Flush(); err != nil {
		return stream.WrapIO("flush", err)
	}
	return nil
}

// Close flushes buffered output and closes the stream unless the Writer was
// created with LeaveOpen. Failures during Close are logged and suppressed so
// cleanup always completes. Close is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	logger := w.opts.Logger
	if w.s.CanWrite() {
		if err := w.flush(); err != nil {
			logger.Debug("flush on close failed", zap.Int("pending", w.used), zap.Error(err))
		}
	}
	if !w.opts.LeaveOpen {
		if err := w.s.Close(); err != nil {
			logger.Debug("stream close failed", zap.Error(err))
		}
	}
	stream.PutBuffer(w.buf)
	w.buf = nil
	w.scratch = nil
	w.used = 0
	w.s = nil
	return nil
}

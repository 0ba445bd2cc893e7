// Package textio provides buffered text adapters over a stream.Stream: a
// Reader that decodes UTF-8 incrementally and a Writer that accumulates
// encoded text and flushes it to the stream in blocks.
package textio

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/blockberries/streamio/internal/codec"
)

const (
	// DefaultReaderBufferSize is the default lookahead buffer size in bytes.
	DefaultReaderBufferSize = 512

	// DefaultWriterBufferSize is the default pending-output buffer size in
	// bytes.
	DefaultWriterBufferSize = 0xFFF

	// DefaultMaxLineLength is the default maximum number of characters
	// ReadLine accepts.
	DefaultMaxLineLength = 0xFFFF

	// MinBufferSize is the smallest accepted buffer size. A lookahead buffer
	// must hold at least one complete encoded character.
	MinBufferSize = utf8.UTFMax
)

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// BufferSize is the lookahead buffer size in bytes.
	// Values below MinBufferSize select the default.
	BufferSize int

	// MaxLineLength is the maximum number of characters in a line returned
	// by ReadLine. Zero selects the default.
	MaxLineLength int

	// LeaveOpen keeps the stream open when the Reader is closed.
	LeaveOpen bool

	// Logger receives debug diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// DefaultReaderOptions are the default Reader options.
var DefaultReaderOptions = ReaderOptions{
	BufferSize:    DefaultReaderBufferSize,
	MaxLineLength: DefaultMaxLineLength,
}

func (o ReaderOptions) normalize() ReaderOptions {
	if o.BufferSize < MinBufferSize {
		o.BufferSize = DefaultReaderBufferSize
	}
	if o.MaxLineLength <= 0 {
		o.MaxLineLength = DefaultMaxLineLength
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	// BufferSize is the pending-output buffer size in bytes.
	// Values below MinBufferSize select the default.
	BufferSize int

	// NewLine is the terminator written by WriteLine. Empty selects "\r\n".
	NewLine string

	// LeaveOpen keeps the stream open when the Writer is closed.
	LeaveOpen bool

	// Logger receives debug diagnostics, including failures suppressed
	// during Close. Nil disables logging.
	Logger *zap.Logger
}

// DefaultWriterOptions are the default Writer options.
var DefaultWriterOptions = WriterOptions{
	BufferSize: DefaultWriterBufferSize,
	NewLine:    codec.NewLine,
}

func (o WriterOptions) normalize() WriterOptions {
	if o.BufferSize < MinBufferSize {
		o.BufferSize = DefaultWriterBufferSize
	}
	if o.NewLine == "" {
		o.NewLine = codec.NewLine
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

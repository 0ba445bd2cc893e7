package stream

import (
	"io"
)

// copyBufferSize is the scratch buffer size used by Copy.
const copyBufferSize = 2048

// Stream is a byte stream over the capability set {read, write, seek}.
//
// Read returns (0, io.EOF) only at end-of-stream and never blocks. Write
// either consumes all of p or fails; partial writes are never silent.
// Seek accepts io.SeekStart, io.SeekCurrent and io.SeekEnd.
//
// Every operation except the capability checks fails with ErrDisposed once
// the stream is closed. Close is idempotent.
//
// Implementations are not safe for concurrent use.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	io.ByteReader
	io.ByteWriter
	io.Closer

	// CanRead reports whether the stream supports reading.
	CanRead() bool
	// CanWrite reports whether the stream supports writing.
	CanWrite() bool
	// CanSeek reports whether the stream supports seeking.
	CanSeek() bool

	// Length returns the logical length of the stream in bytes.
	Length() (int64, error)
	// Position returns the logical read/write cursor.
	Position() (int64, error)
	// SetPosition moves the cursor to an absolute logical position.
	SetPosition(pos int64) error
	// SetLength truncates or extends the stream.
	SetLength(length int64) error
	// Flush forces any buffered data to the backing store.
	Flush() error
}

// Capabilities describes what a stream supports at a point in time.
type Capabilities struct {
	Read  bool
	Write bool
	Seek  bool
}

// CapabilitiesOf returns the capability descriptor of s.
func CapabilitiesOf(s Stream) Capabilities {
	return Capabilities{
		Read:  s.CanRead(),
		Write: s.CanWrite(),
		Seek:  s.CanSeek(),
	}
}

// checkRange validates a (buf, offset, count) triple.
func checkRange(op string, buf []byte, offset, count int) error {
	if buf == nil {
		return invalidArgument(op, "nil buffer")
	}
	if offset < 0 || count < 0 {
		return invalidArgument(op, "negative offset or count")
	}
	if len(buf)-offset < count {
		return invalidArgument(op, "offset and count exceed buffer length")
	}
	return nil
}

// ReadRange reads up to count bytes from s into buf starting at offset.
func ReadRange(s Stream, buf []byte, offset, count int) (int, error) {
	if err := checkRange("read", buf, offset, count); err != nil {
		return 0, err
	}
	return s.Read(buf[offset : offset+count])
}

// WriteRange writes count bytes of buf starting at offset to s.
func WriteRange(s Stream, buf []byte, offset, count int) error {
	if err := checkRange("write", buf, offset, count); err != nil {
		return err
	}
	_, err := s.Write(buf[offset : offset+count])
	return err
}

// Copy reads from src until end-of-stream and writes everything to dst.
// It returns the number of bytes copied.
func Copy(dst, src Stream) (int64, error) {
	if dst == nil {
		return 0, invalidArgument("copy", "nil destination")
	}
	if src == nil {
		return 0, invalidArgument("copy", "nil source")
	}
	if !src.CanRead() && !src.CanWrite() {
		return 0, disposed("copy")
	}
	if !dst.CanRead() && !dst.CanWrite() {
		return 0, disposed("copy")
	}
	if !src.CanRead() {
		return 0, unsupported("copy", "source is not readable")
	}
	if !dst.CanWrite() {
		return 0, unsupported("copy", "destination is not writable")
	}

	buf := GetBuffer(copyBufferSize)
	defer PutBuffer(buf)

	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err == io.EOF || (n == 0 && err == nil) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

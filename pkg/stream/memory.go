package stream

import (
	"io"
)

const (
	// MaxLength is the size ceiling of a MemoryStream: the largest logical
	// length or position it can reach. It reflects the 16-bit addressing of
	// the targets this package was built for and is enforced regardless of
	// host memory.
	MaxLength = 0xFFFF

	// DefaultCapacity is the initial capacity of a growable MemoryStream and
	// the minimum capacity of any reallocation.
	DefaultCapacity = 256
)

// storageKind tags who owns a MemoryStream's buffer.
type storageKind uint8

const (
	// ownedStorage is allocated by the stream and may be reallocated.
	ownedStorage storageKind = iota
	// borrowedStorage is supplied by the caller and is never reallocated.
	borrowedStorage
)

// storage is the ownership-tagged buffer of a MemoryStream.
type storage struct {
	kind storageKind
	buf  []byte
}

// resize replaces the buffer with one of newCap bytes, preserving the first
// keep bytes. Borrowed buffers refuse.
func (s *storage) resize(newCap, keep int) error {
	switch s.kind {
	case borrowedStorage:
		return unsupported("grow", "cannot expand a caller-supplied buffer")
	default:
		if newCap == 0 {
			s.buf = nil
			return nil
		}
		buf := make([]byte, newCap)
		copy(buf, s.buf[:keep])
		s.buf = buf
		return nil
	}
}

// MemoryStream is a Stream whose backing store is memory.
//
// A stream created with NewMemoryStream owns its buffer and grows it on
// demand, up to MaxLength bytes. A stream created over a caller buffer has a
// fixed capacity equal to the buffer length; writes that would need more
// room fail with ErrUnsupported and the caller's buffer is never replaced.
//
// All indices below are absolute offsets into the buffer; the exported
// Length and Position are relative to origin.
//
// MemoryStream is not safe for concurrent use.
type MemoryStream struct {
	store    storage
	origin   int
	position int
	length   int
	capacity int
	writable bool
	open     bool
}

var _ Stream = (*MemoryStream)(nil)

// NewMemoryStream creates an empty, growable stream with DefaultCapacity.
func NewMemoryStream() *MemoryStream {
	return &MemoryStream{
		store: storage{
			kind: ownedStorage,
			buf:  make([]byte, DefaultCapacity),
		},
		capacity: DefaultCapacity,
		writable: true,
		open:     true,
	}
}

// NewMemoryStreamFrom creates a writable, fixed-capacity stream over buf.
// The stream's length and capacity are len(buf). Writes go directly into buf.
func NewMemoryStreamFrom(buf []byte) (*MemoryStream, error) {
	return NewMemoryStreamWithOptions(buf, true)
}

// NewMemoryStreamReadOnly creates a read-only, fixed-capacity stream over buf.
func NewMemoryStreamReadOnly(buf []byte) (*MemoryStream, error) {
	return NewMemoryStreamWithOptions(buf, false)
}

// NewMemoryStreamWithOptions creates a fixed-capacity stream over buf with
// the given writability.
func NewMemoryStreamWithOptions(buf []byte, writable bool) (*MemoryStream, error) {
	return newMemoryStreamWindow(buf, 0, writable)
}

// newMemoryStreamWindow creates a borrowed stream whose logical start is at
// origin within buf.
func newMemoryStreamWindow(buf []byte, origin int, writable bool) (*MemoryStream, error) {
	if buf == nil {
		return nil, invalidArgument("new", "nil buffer")
	}
	if origin < 0 || origin > len(buf) {
		return nil, invalidArgument("new", "origin outside buffer")
	}
	if len(buf)-origin > MaxLength {
		return nil, rangeExceeded("new", "buffer exceeds maximum stream length")
	}
	return &MemoryStream{
		store: storage{
			kind: borrowedStorage,
			buf:  buf,
		},
		origin:   origin,
		position: origin,
		length:   len(buf),
		capacity: len(buf),
		writable: writable,
		open:     true,
	}, nil
}

// CanRead reports whether the stream is open.
func (m *MemoryStream) CanRead() bool {
	return m.open
}

// CanSeek reports whether the stream is open.
func (m *MemoryStream) CanSeek() bool {
	return m.open
}

// CanWrite reports whether the stream was created writable.
// It does not change on Close.
func (m *MemoryStream) CanWrite() bool {
	return m.writable
}

// Expandable reports whether the stream owns its buffer and may grow it.
func (m *MemoryStream) Expandable() bool {
	return m.store.kind == ownedStorage
}

func (m *MemoryStream) ensureOpen(op string) error {
	if !m.open {
		return disposed(op)
	}
	return nil
}

// Length returns the number of bytes in the stream.
func (m *MemoryStream) Length() (int64, error) {
	if err := m.ensureOpen("length"); err != nil {
		return 0, err
	}
	return int64(m.length - m.origin), nil
}

// Capacity returns the number of bytes the stream can hold without
// reallocating.
func (m *MemoryStream) Capacity() (int, error) {
	if err := m.ensureOpen("capacity"); err != nil {
		return 0, err
	}
	return m.capacity - m.origin, nil
}

// Position returns the current read/write position.
func (m *MemoryStream) Position() (int64, error) {
	if err := m.ensureOpen("position"); err != nil {
		return 0, err
	}
	return int64(m.position - m.origin), nil
}

// SetPosition sets the read/write position. Positions beyond the length are
// allowed; the gap is zero-filled by the next write.
func (m *MemoryStream) SetPosition(pos int64) error {
	if err := m.ensureOpen("position"); err != nil {
		return err
	}
	if pos < 0 || pos > MaxLength {
		return rangeExceeded("position", "position outside [0, MaxLength]")
	}
	m.position = m.origin + int(pos)
	return nil
}

// Read reads up to len(p) bytes. Requests larger than the remaining data are
// clamped. It returns io.EOF at or past the end of the stream.
func (m *MemoryStream) Read(p []byte) (int, error) {
	if err := m.ensureOpen("read"); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	n := m.length - m.position
	if n > len(p) {
		n = len(p)
	}
	if n <= 0 {
		return 0, io.EOF
	}
	copy(p, m.store.buf[m.position:m.position+n])
	m.position += n
	return n, nil
}

// ReadByte reads one byte, returning io.EOF at the end of the stream.
func (m *MemoryStream) ReadByte() (byte, error) {
	if err := m.ensureOpen("read"); err != nil {
		return 0, err
	}
	if m.position >= m.length {
		return 0, io.EOF
	}
	b := m.store.buf[m.position]
	m.position++
	return b, nil
}

// Write writes all of p at the current position, growing the stream as
// needed. It fails without modifying the stream if the stream is read-only,
// the buffer is borrowed and too small, or the ceiling would be exceeded.
func (m *MemoryStream) Write(p []byte) (int, error) {
	if err := m.write("write", p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteByte writes a single byte at the current position.
func (m *MemoryStream) WriteByte(b byte) error {
	var one [1]byte
	one[0] = b
	return m.write("write byte", one[:])
}

func (m *MemoryStream) write(op string, p []byte) error {
	if err := m.ensureOpen(op); err != nil {
		return err
	}
	if !m.writable {
		return unsupported(op, "stream is read-only")
	}
	end := m.position + len(p)
	if end > m.length {
		if end > m.capacity {
			if _, err := m.ensureCapacity(end); err != nil {
				return err
			}
		}
		if m.position > m.length {
			clear(m.store.buf[m.length:m.position])
		}
		m.length = end
	}
	copy(m.store.buf[m.position:end], p)
	m.position = end
	return nil
}

// Seek sets the position relative to whence and returns the new position.
// Seeking before the start fails with ErrIO; offsets whose magnitude exceeds
// MaxLength, or targets beyond it, fail with ErrRangeExceeded.
func (m *MemoryStream) Seek(offset int64, whence int) (int64, error) {
	if err := m.ensureOpen("seek"); err != nil {
		return 0, err
	}
	if offset > MaxLength || offset < -MaxLength {
		return 0, rangeExceeded("seek", "offset exceeds maximum stream length")
	}

	var base int
	switch whence {
	case io.SeekStart:
		base = m.origin
	case io.SeekCurrent:
		base = m.position
	case io.SeekEnd:
		base = m.length
	default:
		return 0, invalidArgument("seek", "invalid whence")
	}

	target := int64(base) + offset
	if target < int64(m.origin) {
		return 0, NewError("seek", ErrIO, "attempt to seek before beginning of stream")
	}
	if target-int64(m.origin) > MaxLength {
		return 0, rangeExceeded("seek", "position exceeds maximum stream length")
	}
	m.position = int(target)
	return target - int64(m.origin), nil
}

// SetLength truncates or extends the stream to length bytes. Extended bytes
// are zero. The position is clamped to the new length.
func (m *MemoryStream) SetLength(length int64) error {
	if err := m.ensureOpen("set length"); err != nil {
		return err
	}
	if !m.writable {
		return unsupported("set length", "stream is read-only")
	}
	if length < 0 || length > MaxLength {
		return rangeExceeded("set length", "length outside [0, MaxLength]")
	}
	newLength := m.origin + int(length)
	reallocated, err := m.ensureCapacity(newLength)
	if err != nil {
		return err
	}
	if !reallocated && newLength > m.length {
		clear(m.store.buf[m.length:newLength])
	}
	m.length = newLength
	if m.position > newLength {
		m.position = newLength
	}
	return nil
}

// ensureCapacity grows the buffer to hold value bytes. It reports whether a
// new buffer was allocated. Growth at least doubles the capacity, never goes
// below DefaultCapacity and never exceeds MaxLength.
func (m *MemoryStream) ensureCapacity(value int) (bool, error) {
	if value <= m.capacity {
		return false, nil
	}
	if value > MaxLength {
		return false, rangeExceeded("grow", "capacity exceeds maximum stream length")
	}
	newCapacity := value
	if newCapacity < DefaultCapacity {
		newCapacity = DefaultCapacity
	}
	if newCapacity < m.capacity*2 {
		newCapacity = m.capacity * 2
	}
	if newCapacity > MaxLength {
		newCapacity = MaxLength
	}
	if err := m.store.resize(newCapacity, m.length); err != nil {
		return false, err
	}
	m.capacity = newCapacity
	return true, nil
}

// Flush does nothing; a MemoryStream has no pending data.
func (m *MemoryStream) Flush() error {
	return m.ensureOpen("flush")
}

// ToArray returns a copy of the stream contents, independent of the
// stream's buffer.
func (m *MemoryStream) ToArray() ([]byte, error) {
	if err := m.ensureOpen("to array"); err != nil {
		return nil, err
	}
	out := make([]byte, m.length-m.origin)
	copy(out, m.store.buf[m.origin:m.length])
	return out, nil
}

// Bytes returns the stream's underlying buffer, including unused capacity.
// The slice aliases the stream and is invalidated by growth or Close.
func (m *MemoryStream) Bytes() ([]byte, error) {
	if err := m.ensureOpen("bytes"); err != nil {
		return nil, err
	}
	return m.store.buf, nil
}

// WriteContentTo writes the whole stream contents to dst in one call. The
// stream's own position is not changed.
func (m *MemoryStream) WriteContentTo(dst Stream) error {
	if err := m.ensureOpen("write to"); err != nil {
		return err
	}
	if dst == nil {
		return invalidArgument("write to", "nil destination")
	}
	_, err := dst.Write(m.store.buf[m.origin:m.length])
	return err
}

// CopyTo copies the stream from its current position to dst.
func (m *MemoryStream) CopyTo(dst Stream) (int64, error) {
	if err := m.ensureOpen("copy"); err != nil {
		return 0, err
	}
	return Copy(dst, m)
}

// Close releases the stream's buffer. Subsequent operations fail with
// ErrDisposed. Close is idempotent.
func (m *MemoryStream) Close() error {
	if !m.open {
		return nil
	}
	m.open = false
	m.store.buf = nil
	m.position = 0
	m.length = 0
	m.capacity = 0
	m.origin = 0
	return nil
}

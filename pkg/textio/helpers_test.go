package textio

import (
	"errors"

	"github.com/blockberries/streamio/pkg/stream"
)

var errBackend = errors.New("backend failure")

// memory returns a growable stream holding s, positioned at the start.
func memory(s string) *stream.MemoryStream {
	m := stream.NewMemoryStream()
	m.Write([]byte(s))
	m.SetPosition(0)
	return m
}

// contents returns everything written to m.
func contents(m *stream.MemoryStream) string {
	b, err := m.ToArray()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(b)
}

// unseekable hides the seek capability of a memory stream.
type unseekable struct {
	*stream.MemoryStream
}

func (u unseekable) CanSeek() bool { return false }

// trickle returns at most one byte per read.
type trickle struct {
	*stream.MemoryStream
}

func (t trickle) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return t.MemoryStream.Read(p)
}

// failing reads and writes through a memory stream until its byte budget is
// spent, then fails every call.
type failing struct {
	*stream.MemoryStream
	budget int
	closed int
}

func (f *failing) Read(p []byte) (int, error) {
	if f.budget <= 0 {
		return 0, errBackend
	}
	if len(p) > f.budget {
		p = p[:f.budget]
	}
	n, err := f.MemoryStream.Read(p)
	f.budget -= n
	return n, err
}

func (f *failing) Write(p []byte) (int, error) {
	if len(p) > f.budget {
		return 0, errBackend
	}
	f.budget -= len(p)
	return f.MemoryStream.Write(p)
}

func (f *failing) Close() error {
	f.closed++
	f.MemoryStream.Close()
	return errBackend
}

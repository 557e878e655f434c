package repair

import (
	"strings"
	"sync"

	"markdown-repair/internal/types"
)

// ErrStreamClosed is returned by Write after Close.
var ErrStreamClosed = types.NewAppError(types.ErrInvalidInput, "stream already closed", nil)

// RepaintFunc receives the repaired view of the buffer. final is true for the
// single call made by Close.
type RepaintFunc func(r Result, final bool)

// Stream accumulates a streamed answer and repaints after every chunk. Each
// repaint repairs the whole buffer from scratch. Writes may come from several
// goroutines; repaints are serialized and never run concurrently.
type Stream struct {
	p       *Pipeline
	repaint RepaintFunc

	mu     sync.Mutex
	buf    strings.Builder
	last   Result
	closed bool
}

// NewStream starts a stream rendered by p. repaint may be nil.
func (p *Pipeline) NewStream(repaint RepaintFunc) *Stream {
	return &Stream{p: p, repaint: repaint}
}

// Write appends chunk and repaints. It implements io.Writer; a chunk may end
// in the middle of a fence or a formula.
func (s *Stream) Write(chunk []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStreamClosed
	}
	s.buf.Write(chunk)
	if r, ok := s.p.View(s.buf.String(), false); ok {
		s.show(r, false)
	}
	return len(chunk), nil
}

// WriteString is Write for strings.
func (s *Stream) WriteString(chunk string) (int, error) {
	return s.Write([]byte(chunk))
}

// Close finishes the stream and makes the final repaint. In intermediate mode
// the final repaint shows only the final answer. Closing twice is a no-op.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	r, _ := s.p.View(s.buf.String(), true)
	s.show(r, true)
	return nil
}

// Raw returns the unrepaired text received so far.
func (s *Stream) Raw() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Last returns the most recent repaint.
func (s *Stream) Last() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Stream) show(r Result, final bool) {
	s.last = r
	if s.repaint != nil {
		s.repaint(r, final)
	}
}

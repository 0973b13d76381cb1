package render

import (
	"sync"

	"github.com/opd-ai/livehost/video"
)

// Surface holds the most recently rendered frame.
//
// The render loop is the single writer. Readers such as the snapshot
// transport or the peer video track receive copies, so they never observe
// a frame that is being composited.
type Surface struct {
	mu    sync.RWMutex
	frame video.Frame
	seq   uint64
}

// NewSurface returns an empty surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Publish copies f into the surface.
func (s *Surface) Publish(f *video.Frame) {
	if f.Empty() {
		return
	}
	s.mu.Lock()
	s.frame.CopyFrom(f)
	s.seq++
	s.mu.Unlock()
}

// Snapshot returns a copy of the current frame, or false if nothing has
// been rendered yet.
func (s *Surface) Snapshot() (*video.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.seq == 0 {
		return nil, false
	}
	return s.frame.Clone(), true
}

// SnapshotInto copies the current frame into dst, reusing its buffer, and
// returns the frame sequence number. It returns 0 when nothing has been
// rendered yet.
func (s *Surface) SnapshotInto(dst *video.Frame) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.seq == 0 {
		return 0
	}
	dst.CopyFrom(&s.frame)
	return s.seq
}

// Size returns the dimensions of the current frame.
func (s *Surface) Size() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame.Width, s.frame.Height
}

// Sequence returns the number of frames published so far.
func (s *Surface) Sequence() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// Reset clears the surface.
func (s *Surface) Reset() {
	s.mu.Lock()
	s.frame = video.Frame{}
	s.seq = 0
	s.mu.Unlock()
}

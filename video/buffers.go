package video

// BufferSet owns the reusable intermediate buffers for one frame size.
//
// Buffers are reallocated if and only if the requested dimensions differ
// from the previous call to EnsureCapacity; otherwise they are overwritten
// in place. A BufferSet is owned by exactly one Engine or Compositor and is
// never shared across concurrent invocations.
type BufferSet struct {
	width  int
	height int

	// Gray is the per-pixel luma plane (w*h).
	Gray []byte
	// Edges is the binary Sobel edge mask (w*h).
	Edges []byte
	// Dilated is the edge mask after one round of 3x3 dilation (w*h).
	Dilated []byte
	// Work holds the processed RGBA output (w*h*4).
	Work []byte
	// Scratch and Temp are RGBA-sized scratch areas for blur passes (w*h*4).
	Scratch []byte
	Temp    []byte

	small       []byte
	allocations int
}

// NewBufferSet returns an empty BufferSet. No memory is allocated until the
// first EnsureCapacity call.
func NewBufferSet() *BufferSet {
	return &BufferSet{}
}

// EnsureCapacity sizes every buffer for a width×height frame. It returns
// true when the call reallocated, which happens exactly once per size change.
func (b *BufferSet) EnsureCapacity(width, height int) bool {
	if width == b.width && height == b.height && b.Work != nil {
		return false
	}

	n := width * height
	b.Gray = make([]byte, n)
	b.Edges = make([]byte, n)
	b.Dilated = make([]byte, n)
	b.Work = make([]byte, n*4)
	b.Scratch = make([]byte, n*4)
	b.Temp = make([]byte, n*4)
	b.small = nil
	b.width = width
	b.height = height
	b.allocations++
	return true
}

// Size returns the dimensions the buffers are currently sized for.
func (b *BufferSet) Size() (width, height int) {
	return b.width, b.height
}

// Allocations returns how many times EnsureCapacity has reallocated.
func (b *BufferSet) Allocations() int {
	return b.allocations
}

// Small returns a reusable buffer of at least n bytes for downscaled
// intermediates. It only grows; shrinking reuses the existing backing array.
func (b *BufferSet) Small(n int) []byte {
	if cap(b.small) < n {
		b.small = make([]byte, n)
	}
	return b.small[:n]
}

// fits reports whether the buffers match a frame.
func (b *BufferSet) fits(f *Frame) bool {
	return b.width == f.Width && b.height == f.Height && b.Work != nil
}

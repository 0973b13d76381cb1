package video

import (
	"fmt"
	"image"
)

// Frame is a rectangular RGBA pixel buffer with 8 bits per channel.
//
// Pix holds Width*Height*4 bytes in row-major order with no row padding.
// The dimensions are fixed for the lifetime of a Frame value; the
// pipeline reallocates rather than reshapes when the source size changes.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// NewFrame allocates an opaque black frame of the given size.
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	f := &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
	for i := 3; i < len(f.Pix); i += 4 {
		f.Pix[i] = 255
	}
	return f
}

// FrameFromImage converts any image.Image to a Frame. *image.RGBA values
// with a tight stride are copied directly.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := &Frame{Width: b.Dx(), Height: b.Dy(), Pix: make([]byte, b.Dx()*b.Dy()*4)}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*b.Dx() && b.Min == (image.Point{}) {
		copy(f.Pix, rgba.Pix)
		return f
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			f.Pix[i] = byte(r >> 8)
			f.Pix[i+1] = byte(g >> 8)
			f.Pix[i+2] = byte(bl >> 8)
			f.Pix[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return f
}

// Empty reports whether the frame has zero area or is missing pixel data.
// An empty frame is a transient "not ready" condition, not a fault.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height*4
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	return &Frame{
		Width:  f.Width,
		Height: f.Height,
		Pix:    append([]byte(nil), f.Pix...),
	}
}

// CopyFrom overwrites f with the contents of src. The receiver's buffer is
// reused when it is large enough.
func (f *Frame) CopyFrom(src *Frame) {
	n := src.Width * src.Height * 4
	if cap(f.Pix) < n {
		f.Pix = make([]byte, n)
	}
	f.Pix = f.Pix[:n]
	copy(f.Pix, src.Pix[:n])
	f.Width = src.Width
	f.Height = src.Height
}

// SameSize reports whether two frames have identical dimensions.
func (f *Frame) SameSize(o *Frame) bool {
	return f.Width == o.Width && f.Height == o.Height
}

// Image exposes the frame as an *image.RGBA sharing the same pixel memory.
func (f *Frame) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// String returns a short description for logging.
func (f *Frame) String() string {
	if f == nil {
		return "Frame(nil)"
	}
	return fmt.Sprintf("Frame(%dx%d)", f.Width, f.Height)
}

// Mask is an image-shaped alpha surface produced by a segmentation model.
// Alpha 255 marks foreground, 0 marks background. A mask may be smaller or
// larger than the frame it is applied to; it is sampled nearest-neighbor.
type Mask struct {
	Width  int
	Height int
	Alpha  []byte
}

// NewMask allocates a fully transparent mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Alpha: make([]byte, width*height)}
}

// AlphaAt returns the mask alpha for pixel (x, y) of a frame of size w×h.
func (m *Mask) AlphaAt(x, y, w, h int) byte {
	if m.Width == w && m.Height == h {
		return m.Alpha[y*w+x]
	}
	mx := x * m.Width / w
	my := y * m.Height / h
	return m.Alpha[my*m.Width+mx]
}

// valid reports whether the mask can be sampled.
func (m *Mask) valid() bool {
	return m != nil && m.Width > 0 && m.Height > 0 && len(m.Alpha) >= m.Width*m.Height
}

package video

import (
	"fmt"
)

const (
	pixelBackgroundBlock = 80
	blurBackgroundRadius = 10
)

// Gradient stops for BackgroundGradient, drawn from the top-left corner to
// the bottom-right corner.
var (
	gradientFrom = [3]float64{0x19, 0x19, 0x70}
	gradientTo   = [3]float64{0x8a, 0x2b, 0xe2}
)

// Compositor draws backgrounds and merges processed frames over them.
// Like Engine it owns its scratch buffers and is not safe for concurrent use.
type Compositor struct {
	bufs *BufferSet
}

// NewCompositor creates a compositor with its own buffer set.
func NewCompositor() *Compositor {
	return &Compositor{bufs: NewBufferSet()}
}

// DrawBackground fills dst with the chosen background derived from raw.
// Unknown kinds draw the raw frame.
func (c *Compositor) DrawBackground(dst, raw *Frame, kind BackgroundKind) error {
	if dst == nil || raw == nil {
		return ErrNilFrame
	}
	if !dst.SameSize(raw) {
		return fmt.Errorf("%w: background %s vs raw %s", ErrSizeMismatch, dst, raw)
	}
	w, h := raw.Width, raw.Height
	n := w * h * 4
	c.bufs.EnsureCapacity(w, h)

	switch kind {
	case BackgroundGray:
		GrayBT601(dst.Pix[:n], raw.Pix[:n])
	case BackgroundPixel:
		Pixelate(dst.Pix[:n], raw.Pix[:n], w, h, pixelBackgroundBlock, c.bufs)
	case BackgroundBlur:
		BoxBlur(dst.Pix[:n], raw.Pix[:n], c.bufs.Temp, w, h, blurBackgroundRadius)
	case BackgroundGradient:
		drawGradient(dst.Pix[:n], w, h)
	default:
		copy(dst.Pix[:n], raw.Pix[:n])
	}
	return nil
}

func drawGradient(pix []byte, w, h int) {
	fw, fh := float64(w), float64(h)
	norm := fw*fw + fh*fh
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := ((float64(x)+0.5)*fw + (float64(y)+0.5)*fh) / norm
			if t > 1 {
				t = 1
			}
			o := (y*w + x) * 4
			for ch := 0; ch < 3; ch++ {
				pix[o+ch] = clampByte(gradientFrom[ch] + (gradientTo[ch]-gradientFrom[ch])*t)
			}
			pix[o+3] = 255
		}
	}
}

// Composite merges processed into dst, which already holds the background.
//
// With maskEnabled false or no usable mask the processed frame overwrites
// dst entirely. Otherwise each pixel is blended by its mask alpha, so
// foreground (255) keeps the processed pixel and background (0) keeps dst.
func (c *Compositor) Composite(dst, processed *Frame, mask *Mask, maskEnabled bool) error {
	if dst == nil || processed == nil {
		return ErrNilFrame
	}
	if !dst.SameSize(processed) {
		return fmt.Errorf("%w: destination %s vs processed %s", ErrSizeMismatch, dst, processed)
	}
	w, h := dst.Width, dst.Height

	if !maskEnabled || !mask.valid() {
		copy(dst.Pix[:w*h*4], processed.Pix[:w*h*4])
		return nil
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := mask.AlphaAt(x, y, w, h)
			if a == 0 {
				continue
			}
			o := (y*w + x) * 4
			if a == 255 {
				copy(dst.Pix[o:o+4], processed.Pix[o:o+4])
				continue
			}
			fa := float64(a) / 255
			inv := 1 - fa
			for ch := 0; ch < 4; ch++ {
				dst.Pix[o+ch] = clampByte(float64(processed.Pix[o+ch])*fa + float64(dst.Pix[o+ch])*inv)
			}
		}
	}
	return nil
}

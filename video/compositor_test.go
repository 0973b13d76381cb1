package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func halfMask(w, h int) *Mask {
	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			m.Alpha[y*w+x] = 255
		}
	}
	return m
}

func TestCompositeMaskedHalves(t *testing.T) {
	const w, h = 16, 8
	tests := []struct {
		name string
		mask *Mask
	}{
		{"full size mask", halfMask(w, h)},
		{"scaled mask", halfMask(2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := solidFrame(w, h, 0, 0, 0)
			processed := solidFrame(w, h, 255, 255, 255)

			require.NoError(t, NewCompositor().Composite(dst, processed, tt.mask, true))
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					want := byte(0)
					if x < w/2 {
						want = 255
					}
					o := (y*w + x) * 4
					assert.Equal(t, []byte{want, want, want}, dst.Pix[o:o+3], "(%d,%d)", x, y)
				}
			}
		})
	}
}

func TestCompositeFullFrame(t *testing.T) {
	const w, h = 8, 8
	c := NewCompositor()
	processed := solidFrame(w, h, 255, 255, 255)

	dst := solidFrame(w, h, 0, 0, 0)
	require.NoError(t, c.Composite(dst, processed, halfMask(w, h), false))
	assert.Equal(t, processed.Pix, dst.Pix, "mask disabled")

	dst = solidFrame(w, h, 0, 0, 0)
	require.NoError(t, c.Composite(dst, processed, nil, true))
	assert.Equal(t, processed.Pix, dst.Pix, "mask absent")
}

func TestCompositePartialAlpha(t *testing.T) {
	dst := solidFrame(1, 1, 0, 0, 0)
	processed := solidFrame(1, 1, 255, 255, 255)
	mask := NewMask(1, 1)
	mask.Alpha[0] = 51

	require.NoError(t, NewCompositor().Composite(dst, processed, mask, true))
	assert.Equal(t, []byte{51, 51, 51, 255}, dst.Pix)
}

func TestCompositeSizeMismatch(t *testing.T) {
	err := NewCompositor().Composite(NewFrame(4, 4), NewFrame(4, 5), nil, false)
	assert.ErrorIs(t, err, ErrSizeMismatch)

	err = NewCompositor().Composite(nil, NewFrame(4, 5), nil, false)
	assert.ErrorIs(t, err, ErrNilFrame)
}

func TestDrawBackground(t *testing.T) {
	const w, h = 160, 90
	raw := solidFrame(w, h, 0, 0, 255)
	c := NewCompositor()

	t.Run("origin", func(t *testing.T) {
		dst := NewFrame(w, h)
		require.NoError(t, c.DrawBackground(dst, raw, BackgroundOrigin))
		assert.Equal(t, raw.Pix, dst.Pix)
	})

	t.Run("gray", func(t *testing.T) {
		dst := NewFrame(w, h)
		require.NoError(t, c.DrawBackground(dst, raw, BackgroundGray))
		assert.Equal(t, []byte{29, 29, 29, 255}, dst.Pix[:4])
	})

	t.Run("pixel", func(t *testing.T) {
		src := NewFrame(w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				src.Pix[(y*w+x)*4] = byte(x)
			}
		}
		dst := NewFrame(w, h)
		require.NoError(t, c.DrawBackground(dst, src, BackgroundPixel))
		// 160x90 at block 80 is a 2x1 grid sampled at x=40 and x=120
		assert.Equal(t, byte(40), dst.Pix[0])
		assert.Equal(t, byte(40), dst.Pix[(89*w+79)*4])
		assert.Equal(t, byte(120), dst.Pix[(45*w+80)*4])
	})

	t.Run("blur", func(t *testing.T) {
		dst := NewFrame(w, h)
		require.NoError(t, c.DrawBackground(dst, raw, BackgroundBlur))
		assert.Equal(t, raw.Pix, dst.Pix, "uniform field")
	})

	t.Run("gradient", func(t *testing.T) {
		dst := NewFrame(w, h)
		require.NoError(t, c.DrawBackground(dst, raw, BackgroundGradient))
		first := dst.Pix[:4]
		last := dst.Pix[len(dst.Pix)-4:]
		assert.InDelta(t, 0x19, int(first[0]), 2)
		assert.InDelta(t, 0x70, int(first[2]), 2)
		assert.InDelta(t, 0x8a, int(last[0]), 2)
		assert.InDelta(t, 0xe2, int(last[2]), 2)
		assert.Equal(t, byte(255), last[3])
	})

	t.Run("size mismatch", func(t *testing.T) {
		err := c.DrawBackground(NewFrame(10, 10), raw, BackgroundOrigin)
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})
}

func TestFrameHelpers(t *testing.T) {
	f := solidFrame(3, 2, 1, 2, 3)
	assert.Equal(t, "Frame(3x2)", f.String())
	assert.False(t, f.Empty())

	img := f.Image()
	img.Pix[0] = 99
	assert.Equal(t, byte(99), f.Pix[0], "Image shares memory")

	back := FrameFromImage(img)
	assert.Equal(t, f.Pix, back.Pix)

	var dst Frame
	dst.CopyFrom(f)
	assert.True(t, dst.SameSize(f))
	assert.Equal(t, f.Pix, dst.Pix)

	m := NewMask(2, 1)
	m.Alpha[1] = 7
	assert.Equal(t, byte(7), m.AlphaAt(3, 0, 4, 4))
	assert.Equal(t, byte(0), m.AlphaAt(1, 3, 4, 4))
}

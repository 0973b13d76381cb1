package video

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidFrame(w, h int, r, g, b byte) *Frame {
	f := NewFrame(w, h)
	for i := 0; i < len(f.Pix); i += 4 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
	}
	return f
}

func allValuesPix() []byte {
	pix := make([]byte, 256*4)
	for v := 0; v < 256; v++ {
		pix[v*4] = byte(v)
		pix[v*4+1] = byte(255 - v)
		pix[v*4+2] = byte(v * 7)
		pix[v*4+3] = 255
	}
	return pix
}

func TestClampByte(t *testing.T) {
	tests := []struct {
		in   float64
		want byte
	}{
		{-3, 0},
		{0, 0},
		{math.NaN(), 0},
		{0.4, 0},
		{127.5, 128},
		{128.5, 128},
		{254.6, 255},
		{300, 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampByte(tt.in), "clampByte(%v)", tt.in)
	}
}

func TestPosterizeIdempotent(t *testing.T) {
	for _, step := range []int{2, 18, 21, 28, 64, 128} {
		once := allValuesPix()
		Posterize(once, step)
		twice := append([]byte(nil), once...)
		Posterize(twice, step)
		assert.Equal(t, once, twice, "step %d", step)

		for i := 0; i < len(once); i += 4 {
			assert.Zero(t, int(once[i])%step)
			assert.Equal(t, byte(255), once[i+3], "alpha must be untouched")
		}
	}
}

func TestPosterizeMidGray(t *testing.T) {
	pix := []byte{128, 128, 128, 255, 127, 63, 200, 255}
	Posterize(pix, 64)
	assert.Equal(t, []byte{128, 128, 128, 255, 64, 0, 192, 255}, pix)
}

func TestInvertInvolution(t *testing.T) {
	orig := allValuesPix()
	pix := append([]byte(nil), orig...)
	Invert(pix)
	assert.Equal(t, byte(255), pix[0])
	assert.Equal(t, byte(0), pix[255*4])
	Invert(pix)
	assert.Equal(t, orig, pix)
}

func TestSepiaDeterministic(t *testing.T) {
	pix := []byte{255, 255, 255, 255, 0, 0, 0, 255, 100, 50, 25, 128}
	Sepia(pix)
	assert.Equal(t, []byte{255, 255, 239, 255, 0, 0, 0, 255}, pix[:8])
	// 0.393*100 + 0.769*50 + 0.189*25 = 82.475
	assert.Equal(t, byte(82), pix[8])
	assert.Equal(t, byte(128), pix[11])

	again := []byte{100, 50, 25, 128}
	Sepia(again)
	assert.Equal(t, pix[8:], again)
}

func TestGrayWeightsDiffer(t *testing.T) {
	legacy := []byte{0, 0, 255, 255}
	GrayLegacy(legacy)
	assert.Equal(t, []byte{28, 28, 28, 255}, legacy)

	bt := make([]byte, 4)
	GrayBT601(bt, []byte{0, 0, 255, 200})
	assert.Equal(t, []byte{29, 29, 29, 200}, bt)
}

func TestSobelEdges(t *testing.T) {
	const w, h = 8, 6
	gray := make([]byte, w*h)
	edges := make([]byte, w*h)

	t.Run("uniform field has no edges", func(t *testing.T) {
		for i := range gray {
			gray[i] = 128
		}
		SobelEdges(edges, gray, w, h, 110)
		assert.Equal(t, make([]byte, w*h), edges)
	})

	t.Run("vertical step", func(t *testing.T) {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if x >= w/2 {
					gray[y*w+x] = 255
				} else {
					gray[y*w+x] = 0
				}
			}
		}
		SobelEdges(edges, gray, w, h, 110)
		for y := 1; y < h-1; y++ {
			assert.Equal(t, byte(1), edges[y*w+w/2-1], "row %d left of step", y)
			assert.Equal(t, byte(1), edges[y*w+w/2], "row %d right of step", y)
			assert.Equal(t, byte(0), edges[y*w+1], "row %d far left", y)
		}
		for x := 0; x < w; x++ {
			assert.Equal(t, byte(0), edges[x], "top border")
			assert.Equal(t, byte(0), edges[(h-1)*w+x], "bottom border")
		}
	})
}

func TestDilate3x3(t *testing.T) {
	const w, h = 7, 7
	src := make([]byte, w*h)
	src[3*w+3] = 1
	dst := make([]byte, w*h)
	Dilate3x3(dst, src, w, h)

	count := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := byte(0)
			if x >= 2 && x <= 4 && y >= 2 && y <= 4 {
				want = 1
			}
			assert.Equal(t, want, dst[y*w+x], "(%d,%d)", x, y)
			count += int(dst[y*w+x])
		}
	}
	assert.Equal(t, 9, count)
}

func TestInk(t *testing.T) {
	pix := []byte{200, 200, 200, 255, 200, 200, 200, 255}
	Ink(pix, []byte{0, 1})
	assert.Equal(t, []byte{200, 200, 200, 255, 18, 18, 18, 255}, pix)
}

func TestBoxBlurUniform(t *testing.T) {
	f := solidFrame(9, 5, 90, 140, 33)
	dst := make([]byte, len(f.Pix))
	tmp := make([]byte, len(f.Pix))
	BoxBlur(dst, f.Pix, tmp, f.Width, f.Height, 3)
	assert.Equal(t, f.Pix, dst)

	BoxBlur(f.Pix, f.Pix, tmp, f.Width, f.Height, 10)
	assert.Equal(t, dst, f.Pix, "in-place blur of a uniform field")
}

func TestBoxBlurSmoothsStep(t *testing.T) {
	const w, h = 6, 1
	src := []byte{
		0, 0, 0, 255, 0, 0, 0, 255, 0, 0, 0, 255,
		255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255,
	}
	dst := make([]byte, len(src))
	BoxBlur(dst, src, make([]byte, len(src)), w, h, 1)
	assert.Equal(t, byte(0), dst[0])
	assert.Equal(t, byte(85), dst[2*4])
	assert.Equal(t, byte(170), dst[3*4])
	assert.Equal(t, byte(255), dst[5*4])
}

func TestVignette(t *testing.T) {
	f := solidFrame(100, 100, 200, 200, 200)
	Vignette(f.Pix, f.Width, f.Height)

	center := (50*100 + 50) * 4
	assert.Equal(t, byte(200), f.Pix[center])
	// corner distance 70 of a 40..80 ramp: keep = 1 - 0.7*0.75
	assert.Equal(t, byte(95), f.Pix[0])
	assert.Equal(t, byte(255), f.Pix[3])
}

func TestPixelate(t *testing.T) {
	const w, h = 12, 12
	f := NewFrame(w, h)
	for i := 0; i < w*h; i++ {
		f.Pix[i*4] = byte(i)
	}
	bufs := NewBufferSet()
	require.True(t, bufs.EnsureCapacity(w, h))
	Pixelate(f.Pix, f.Pix, w, h, 6, bufs)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := (x/6)*6 + 3
			sy := (y/6)*6 + 3
			assert.Equal(t, byte(sy*w+sx), f.Pix[(y*w+x)*4], "(%d,%d)", x, y)
		}
	}
}

func TestPixelGrid(t *testing.T) {
	tw, th := PixelGrid(1280, 720, 80)
	assert.Equal(t, 16, tw)
	assert.Equal(t, 9, th)

	tw, th = PixelGrid(10, 3, 80)
	assert.Equal(t, 1, tw)
	assert.Equal(t, 1, th)
}

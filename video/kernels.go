package video

import "math"

// Posterize quantizes the RGB channels of an RGBA buffer to multiples of
// step. Alpha is untouched. Bucketing is a projection, so applying it twice
// with the same step is the same as applying it once.
func Posterize(pix []byte, step int) {
	if step < 1 {
		return
	}
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = byte(int(pix[i]) / step * step)
		pix[i+1] = byte(int(pix[i+1]) / step * step)
		pix[i+2] = byte(int(pix[i+2]) / step * step)
	}
}

// ContrastSaturation applies contrast around 128 and then pushes each
// channel away from the post-contrast luma by sat. Every intermediate is
// stored as a clamped byte before the next step reads it.
func ContrastSaturation(pix []byte, con, sat float64) {
	for i := 0; i+3 < len(pix); i += 4 {
		r := clampByte((float64(pix[i])-128)*con + 128)
		g := clampByte((float64(pix[i+1])-128)*con + 128)
		b := clampByte((float64(pix[i+2])-128)*con + 128)

		l := luma(r, g, b)
		pix[i] = clampByte(l + (float64(r)-l)*sat)
		pix[i+1] = clampByte(l + (float64(g)-l)*sat)
		pix[i+2] = clampByte(l + (float64(b)-l)*sat)
	}
}

// LumaPlane writes the 0.299/0.587/0.114 luma of each pixel into gray.
func LumaPlane(gray, pix []byte) {
	for i, p := 0, 0; i+3 < len(pix) && p < len(gray); i, p = i+4, p+1 {
		gray[p] = clampByte(luma(pix[i], pix[i+1], pix[i+2]))
	}
}

var (
	sobelX = [9]float64{-1, 0, 1, -2, 0, 2, -1, 0, 1}
	sobelY = [9]float64{-1, -2, -1, 0, 0, 0, 1, 2, 1}
)

// SobelEdges marks every interior pixel whose gradient magnitude exceeds
// threshold. Border pixels are always cleared.
func SobelEdges(edges, gray []byte, w, h int, threshold float64) {
	clear(edges[:w*h])
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			idx := y*w + x
			var gx, gy float64
			k := 0
			for yy := -1; yy <= 1; yy++ {
				row := idx + yy*w
				for xx := -1; xx <= 1; xx++ {
					v := float64(gray[row+xx])
					gx += sobelX[k] * v
					gy += sobelY[k] * v
					k++
				}
			}
			if math.Hypot(gx, gy) > threshold {
				edges[idx] = 1
			}
		}
	}
}

// Dilate3x3 sets every interior pixel of dst that has any set neighbor in
// the 3x3 window of src. Border pixels are always cleared.
func Dilate3x3(dst, src []byte, w, h int) {
	clear(dst[:w*h])
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			on := byte(0)
		window:
			for yy := -1; yy <= 1; yy++ {
				row := (y+yy)*w + x
				for xx := -1; xx <= 1; xx++ {
					if src[row+xx] != 0 {
						on = 1
						break window
					}
				}
			}
			dst[y*w+x] = on
		}
	}
}

// inkLevel is the near-black value drawn over edge pixels.
const inkLevel = 18

// Ink forces the RGB channels of every pixel set in mask to inkLevel.
func Ink(pix, mask []byte) {
	for p, on := range mask {
		if on == 0 {
			continue
		}
		o := p * 4
		if o+2 >= len(pix) {
			return
		}
		pix[o] = inkLevel
		pix[o+1] = inkLevel
		pix[o+2] = inkLevel
	}
}

// BlendOver draws src over dst with a constant opacity, RGB only.
func BlendOver(dst, src []byte, alpha float64) {
	inv := 1 - alpha
	for i := 0; i+3 < len(dst) && i+3 < len(src); i += 4 {
		dst[i] = clampByte(float64(src[i])*alpha + float64(dst[i])*inv)
		dst[i+1] = clampByte(float64(src[i+1])*alpha + float64(dst[i+1])*inv)
		dst[i+2] = clampByte(float64(src[i+2])*alpha + float64(dst[i+2])*inv)
	}
}

// GrayLegacy replicates 0.3/0.59/0.11 luma across the RGB channels.
func GrayLegacy(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		g := clampByte(grayR*float64(pix[i]) + grayG*float64(pix[i+1]) + grayB*float64(pix[i+2]))
		pix[i], pix[i+1], pix[i+2] = g, g, g
	}
}

// GrayBT601 replicates 0.299/0.587/0.114 luma across the RGB channels.
func GrayBT601(dst, src []byte) {
	for i := 0; i+3 < len(src) && i+3 < len(dst); i += 4 {
		g := clampByte(luma(src[i], src[i+1], src[i+2]))
		dst[i], dst[i+1], dst[i+2], dst[i+3] = g, g, g, src[i+3]
	}
}

// Invert replaces each RGB channel with 255 minus its value.
func Invert(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = 255 - pix[i]
		pix[i+1] = 255 - pix[i+1]
		pix[i+2] = 255 - pix[i+2]
	}
}

// Sepia applies the standard sepia matrix, saturating at 255.
func Sepia(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		r, g, b := float64(pix[i]), float64(pix[i+1]), float64(pix[i+2])
		pix[i] = clampByte(0.393*r + 0.769*g + 0.189*b)
		pix[i+1] = clampByte(0.349*r + 0.686*g + 0.168*b)
		pix[i+2] = clampByte(0.272*r + 0.534*g + 0.131*b)
	}
}

// vignetteMaxAlpha is the overlay opacity at and beyond the outer radius.
const vignetteMaxAlpha = 0.7

// Vignette darkens pixels with a radial black overlay whose opacity ramps
// from 0 at 40% of max(w,h) to 0.7 at 80% of max(w,h), measured from the
// frame center.
func Vignette(pix []byte, w, h int) {
	span := float64(maxInt(w, h))
	inner, outer := span*0.4, span*0.8
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		dy := float64(y) + 0.5 - cy
		for x := 0; x < w; x++ {
			dx := float64(x) + 0.5 - cx
			d := math.Hypot(dx, dy)
			if d <= inner {
				continue
			}
			t := (d - inner) / (outer - inner)
			if t > 1 {
				t = 1
			}
			keep := 1 - vignetteMaxAlpha*t
			o := (y*w + x) * 4
			pix[o] = clampByte(float64(pix[o]) * keep)
			pix[o+1] = clampByte(float64(pix[o+1]) * keep)
			pix[o+2] = clampByte(float64(pix[o+2]) * keep)
		}
	}
}

// BrightnessContrast scales each channel by brightness and then applies
// contrast around the channel midpoint, as one composed pass.
func BrightnessContrast(pix []byte, brightness, contrast float64) {
	for i := 0; i+3 < len(pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(pix[i+c]) * brightness
			pix[i+c] = clampByte((v-127.5)*contrast + 127.5)
		}
	}
}

// ChannelBias multiplies red and blue by independent gains, saturating at 255.
func ChannelBias(pix []byte, red, blue float64) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = clampByte(math.Min(255, float64(pix[i])*red))
		pix[i+2] = clampByte(math.Min(255, float64(pix[i+2])*blue))
	}
}

package video

import "math"

// Luma weights. The engine's gray filter and the background/edge paths use
// different constants; both are kept because unifying them changes output.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114

	grayR = 0.3
	grayG = 0.59
	grayB = 0.11
)

// clampByte stores a float channel value the way an 8-bit clamped pixel
// array does: clamp to [0,255], then round half to even.
func clampByte(v float64) byte {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(math.RoundToEven(v))
}

// roundHalfUp rounds like a browser Math.round for the non-negative
// parameters derived from strength.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func luma(r, g, b byte) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// fraction converts a strength in [0,100] to [0,1].
func fraction(strength int) float64 {
	return float64(strength) / 100
}

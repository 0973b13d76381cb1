package video

import (
	"fmt"
	"strings"
)

// FilterKind selects the transform applied by the Engine.
type FilterKind string

const (
	// FilterNone renders the raw frame unchanged
	FilterNone FilterKind = "none"
	// FilterAnime is the stylized-edge filter
	FilterAnime FilterKind = "anime"
	// FilterAvatar is the cartoon filter without an edge stage
	FilterAvatar FilterKind = "avatar"
	// FilterBeautify is a soft-focus blur with brightness and contrast lift
	FilterBeautify FilterKind = "beautify"
	// FilterPixelate is a blocky nearest-neighbor mosaic
	FilterPixelate FilterKind = "pixelate"
	// FilterGray replicates luma (0.3/0.59/0.11 weights) across channels
	FilterGray FilterKind = "gray"
	// FilterInvert replaces each channel with 255 minus its value
	FilterInvert FilterKind = "invert"
	// FilterSepia applies the standard sepia matrix
	FilterSepia FilterKind = "sepia"
	// FilterVignette darkens the frame towards its corners
	FilterVignette FilterKind = "vignette"
)

// BackgroundKind selects what occupies the destination before compositing.
type BackgroundKind string

const (
	// BackgroundOrigin is the raw camera frame
	BackgroundOrigin BackgroundKind = "origin"
	// BackgroundGray is the raw frame in grayscale (0.299/0.587/0.114 weights)
	BackgroundGray BackgroundKind = "gray"
	// BackgroundPixel is a heavily pixelated raw frame
	BackgroundPixel BackgroundKind = "pixel"
	// BackgroundBlur is a blurred raw frame
	BackgroundBlur BackgroundKind = "blur"
	// BackgroundGradient is a static two-stop gradient with no camera content
	BackgroundGradient BackgroundKind = "grad"
)

var filterKinds = []FilterKind{
	FilterNone, FilterAnime, FilterAvatar, FilterBeautify, FilterPixelate,
	FilterGray, FilterInvert, FilterSepia, FilterVignette,
}

var backgroundKinds = []BackgroundKind{
	BackgroundOrigin, BackgroundGray, BackgroundPixel, BackgroundBlur, BackgroundGradient,
}

// ParseFilterKind validates a filter name.
func ParseFilterKind(s string) (FilterKind, error) {
	k := FilterKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range filterKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: filter %q", ErrUnknownKind, s)
}

// ParseBackgroundKind validates a background name.
func ParseBackgroundKind(s string) (BackgroundKind, error) {
	k := BackgroundKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range backgroundKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: background %q", ErrUnknownKind, s)
}

// Config is the filter selection read once per render tick.
//
// A Config is a value: the render loop takes a snapshot at the start of a
// tick, so changes made mid-tick apply on the next tick only.
type Config struct {
	Filter      FilterKind
	Strength    int // 0..100
	Background  BackgroundKind
	MaskEnabled bool
}

// DefaultConfig mirrors the host page defaults.
func DefaultConfig() Config {
	return Config{
		Filter:      FilterAnime,
		Strength:    75,
		Background:  BackgroundOrigin,
		MaskEnabled: true,
	}
}

// Normalized returns a copy with Strength clamped to [0,100] and empty kinds
// replaced by their defaults.
func (c Config) Normalized() Config {
	if c.Strength < 0 {
		c.Strength = 0
	}
	if c.Strength > 100 {
		c.Strength = 100
	}
	if c.Filter == "" {
		c.Filter = FilterNone
	}
	if c.Background == "" {
		c.Background = BackgroundOrigin
	}
	return c
}

package render

import (
	"math"
	"sync"

	"github.com/opd-ai/livehost/video"
)

// Source supplies the current raw camera frame.
//
// CurrentFrame may be polled before any frame exists and returns false in
// that case. Dimensions may change between calls. The returned frame is
// only read until the next call.
type Source interface {
	CurrentFrame() (*video.Frame, bool)
}

// Presenter receives every composited frame, for example a local preview.
// The frame is only valid for the duration of the call.
type Presenter interface {
	Present(frame *video.Frame)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(frame *video.Frame)

// Present calls f(frame).
func (f PresenterFunc) Present(frame *video.Frame) { f(frame) }

// StaticSource always returns the same frame. A nil frame is never ready.
type StaticSource struct {
	mu    sync.RWMutex
	frame *video.Frame
}

// NewStaticSource creates a source serving frame.
func NewStaticSource(frame *video.Frame) *StaticSource {
	return &StaticSource{frame: frame}
}

// Set replaces the served frame.
func (s *StaticSource) Set(frame *video.Frame) {
	s.mu.Lock()
	s.frame = frame
	s.mu.Unlock()
}

// CurrentFrame implements Source.
func (s *StaticSource) CurrentFrame() (*video.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame.Empty() {
		return nil, false
	}
	return s.frame, true
}

// PatternSource renders a moving test pattern: a hue sweep with a bright
// disc orbiting the center. Each call advances the animation one step.
type PatternSource struct {
	frame *video.Frame
	step  int
}

// NewPatternSource creates a width×height pattern generator.
func NewPatternSource(width, height int) *PatternSource {
	return &PatternSource{frame: video.NewFrame(width, height)}
}

// CurrentFrame implements Source. It is not safe for concurrent use.
func (p *PatternSource) CurrentFrame() (*video.Frame, bool) {
	f := p.frame
	if f.Empty() {
		return nil, false
	}
	w, h := f.Width, f.Height
	phase := float64(p.step) / 90
	p.step++

	cx := float64(w)/2 + math.Cos(phase*2*math.Pi)*float64(w)/4
	cy := float64(h)/2 + math.Sin(phase*2*math.Pi)*float64(h)/4
	radius := float64(min(w, h)) / 6

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := (y*w + x) * 4
			if math.Hypot(float64(x)-cx, float64(y)-cy) < radius {
				f.Pix[o], f.Pix[o+1], f.Pix[o+2] = 250, 240, 220
			} else {
				t := float64(x)/float64(w) + phase
				f.Pix[o] = byte(127 + 127*math.Sin(2*math.Pi*t))
				f.Pix[o+1] = byte(127 + 127*math.Sin(2*math.Pi*(t+1.0/3)))
				f.Pix[o+2] = byte(127 + 127*math.Sin(2*math.Pi*(t+2.0/3)))
			}
			f.Pix[o+3] = 255
		}
	}
	return f, true
}

package video

// Composable effects that make up each filter. Effects mutate a frame in
// place and draw their scratch space from a BufferSet owned by the caller.

import (
	"fmt"
)

// Effect represents a transform that can be applied to frames.
type Effect interface {
	// Apply processes a frame in place using bufs for scratch memory
	Apply(frame *Frame, bufs *BufferSet) error
	// GetName returns the effect name for identification
	GetName() string
}

// EffectChain manages multiple effects applied in sequence.
type EffectChain struct {
	effects []Effect
}

// NewEffectChain creates a new effect processing chain.
func NewEffectChain(effects ...Effect) *EffectChain {
	return &EffectChain{
		effects: append(make([]Effect, 0, len(effects)), effects...),
	}
}

// AddEffect adds an effect to the processing chain.
func (ec *EffectChain) AddEffect(effect Effect) {
	ec.effects = append(ec.effects, effect)
}

// Apply processes a frame through all effects in the chain.
func (ec *EffectChain) Apply(frame *Frame, bufs *BufferSet) error {
	if frame == nil {
		return ErrNilFrame
	}
	if bufs == nil || !bufs.fits(frame) {
		return fmt.Errorf("%w: buffers not sized for %s", ErrSizeMismatch, frame)
	}

	for i, effect := range ec.effects {
		if err := effect.Apply(frame, bufs); err != nil {
			return fmt.Errorf("effect %d (%s) failed: %w", i, effect.GetName(), err)
		}
	}
	return nil
}

// GetEffectCount returns the number of effects in the chain.
func (ec *EffectChain) GetEffectCount() int {
	return len(ec.effects)
}

// Names returns the effect names in application order.
func (ec *EffectChain) Names() []string {
	names := make([]string, len(ec.effects))
	for i, e := range ec.effects {
		names[i] = e.GetName()
	}
	return names
}

// Clear removes all effects from the chain.
func (ec *EffectChain) Clear() {
	ec.effects = ec.effects[:0]
}

// PosterizeEffect quantizes channels to multiples of a bucket width.
type PosterizeEffect struct {
	step int
}

// NewPosterizeEffect creates a posterize effect. step is clamped to >= 1.
func NewPosterizeEffect(step int) *PosterizeEffect {
	if step < 1 {
		step = 1
	}
	return &PosterizeEffect{step: step}
}

// Apply posterizes the frame.
func (pe *PosterizeEffect) Apply(frame *Frame, _ *BufferSet) error {
	if frame == nil {
		return ErrNilFrame
	}
	Posterize(frame.Pix, pe.step)
	return nil
}

// GetName returns the effect name.
func (pe *PosterizeEffect) GetName() string {
	return fmt.Sprintf("Posterize(%d)", pe.step)
}

// Step returns the bucket width.
func (pe *PosterizeEffect) Step() int {
	return pe.step
}

// ContrastSaturationEffect applies contrast then saturation.
type ContrastSaturationEffect struct {
	contrast   float64
	saturation float64
}

// NewContrastSaturationEffect creates a combined contrast/saturation effect.
func NewContrastSaturationEffect(contrast, saturation float64) *ContrastSaturationEffect {
	return &ContrastSaturationEffect{contrast: contrast, saturation: saturation}
}

// Apply adjusts contrast and saturation.
func (ce *ContrastSaturationEffect) Apply(frame *Frame, _ *BufferSet) error {
	if frame == nil {
		return ErrNilFrame
	}
	ContrastSaturation(frame.Pix, ce.contrast, ce.saturation)
	return nil
}

// GetName returns the effect name.
func (ce *ContrastSaturationEffect) GetName() string {
	return fmt.Sprintf("ContrastSaturation(%.2f,%.2f)", ce.contrast, ce.saturation)
}

// EdgeInkEffect detects Sobel edges on the luma plane, thickens them with
// one dilation round and draws them in near-black.
type EdgeInkEffect struct {
	threshold int
}

// NewEdgeInkEffect creates an edge inking effect with a gradient threshold.
func NewEdgeInkEffect(threshold int) *EdgeInkEffect {
	return &EdgeInkEffect{threshold: threshold}
}

// Apply inks edges using the Gray, Edges and Dilated buffers.
func (ee *EdgeInkEffect) Apply(frame *Frame, bufs *BufferSet) error {
	if frame == nil {
		return ErrNilFrame
	}
	w, h := frame.Width, frame.Height
	LumaPlane(bufs.Gray, frame.Pix)
	SobelEdges(bufs.Edges, bufs.Gray, w, h, float64(ee.threshold))
	Dilate3x3(bufs.Dilated, bufs.Edges, w, h)
	Ink(frame.Pix, bufs.Dilated)
	return nil
}

// GetName returns the effect name.
func (ee *EdgeInkEffect) GetName() string {
	return fmt.Sprintf("EdgeInk(%d)", ee.threshold)
}

// GlowEffect redraws the frame over itself blurred and at reduced opacity.
type GlowEffect struct {
	alpha  float64
	radius int
}

// NewGlowEffect creates a soft glow. alpha is clamped to [0,1].
func NewGlowEffect(alpha float64, radius int) *GlowEffect {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	if radius < 0 {
		radius = 0
	}
	return &GlowEffect{alpha: alpha, radius: radius}
}

// Apply blurs a copy of the frame into Scratch and blends it back.
func (ge *GlowEffect) Apply(frame *Frame, bufs *BufferSet) error {
	if frame == nil {
		return ErrNilFrame
	}
	BoxBlur(bufs.Scratch, frame.Pix, bufs.Temp, frame.Width, frame.Height, ge.radius)
	BlendOver(frame.Pix, bufs.Scratch, ge.alpha)
	return nil
}

// GetName returns the effect name.
func (ge *GlowEffect) GetName() string {
	return fmt.Sprintf("Glow(%.2f,%dpx)", ge.alpha, ge.radius)
}

// ChannelBiasEffect warms red and cools blue.
type ChannelBiasEffect struct {
	red  float64
	blue float64
}

// NewChannelBiasEffect creates a red/blue gain effect.
func NewChannelBiasEffect(red, blue float64) *ChannelBiasEffect {
	return &ChannelBiasEffect{red: red, blue: blue}
}

// Apply scales red and blue.
func (cb *ChannelBiasEffect) Apply(frame *Frame, _ *BufferSet) error {
	if frame == nil {
		return ErrNilFrame
	}
	ChannelBias(frame.Pix, cb.red, cb.blue)
	return nil
}

// GetName returns the effect name.
func (cb *ChannelBiasEffect) GetName() string {
	return fmt.Sprintf("ChannelBias(%.2f,%.2f)", cb.red, cb.blue)
}

// BeautifyEffect is blur, brightness and contrast composed as one pass.
type BeautifyEffect struct {
	radius     int
	brightness float64
	contrast   float64
}

// NewBeautifyEffect creates a soft-focus effect.
func NewBeautifyEffect(radius int, brightness, contrast float64) *BeautifyEffect {
	return &BeautifyEffect{radius: radius, brightness: brightness, contrast: contrast}
}

// Apply blurs in place and lifts brightness and contrast.
func (be *BeautifyEffect) Apply(frame *Frame, bufs *BufferSet) error {
	if frame == nil {
		return ErrNilFrame
	}
	BoxBlur(frame.Pix, frame.Pix, bufs.Temp, frame.Width, frame.Height, be.radius)
	BrightnessContrast(frame.Pix, be.brightness, be.contrast)
	return nil
}

// GetName returns the effect name.
func (be *BeautifyEffect) GetName() string {
	return fmt.Sprintf("Beautify(%dpx,%.2f,%.2f)", be.radius, be.brightness, be.contrast)
}

// PixelateEffect renders the frame as a mosaic.
type PixelateEffect struct {
	block int
}

// NewPixelateEffect creates a mosaic effect with the given cell size.
func NewPixelateEffect(block int) *PixelateEffect {
	if block < 1 {
		block = 1
	}
	return &PixelateEffect{block: block}
}

// Apply pixelates the frame in place.
func (pe *PixelateEffect) Apply(frame *Frame, bufs *BufferSet) error {
	if frame == nil {
		return ErrNilFrame
	}
	Pixelate(frame.Pix, frame.Pix, frame.Width, frame.Height, pe.block, bufs)
	return nil
}

// GetName returns the effect name.
func (pe *PixelateEffect) GetName() string {
	return fmt.Sprintf("Pixelate(%d)", pe.block)
}

// pixelEffect adapts a per-pixel kernel that needs no parameters.
type pixelEffect struct {
	name string
	fn   func(pix []byte, w, h int)
}

func (pe *pixelEffect) Apply(frame *Frame, _ *BufferSet) error {
	if frame == nil {
		return ErrNilFrame
	}
	pe.fn(frame.Pix, frame.Width, frame.Height)
	return nil
}

func (pe *pixelEffect) GetName() string {
	return pe.name
}

// NewGrayEffect replicates 0.3/0.59/0.11 luma across channels.
func NewGrayEffect() Effect {
	return &pixelEffect{name: "Gray", fn: func(pix []byte, _, _ int) { GrayLegacy(pix) }}
}

// NewInvertEffect inverts every channel.
func NewInvertEffect() Effect {
	return &pixelEffect{name: "Invert", fn: func(pix []byte, _, _ int) { Invert(pix) }}
}

// NewSepiaEffect applies the sepia matrix.
func NewSepiaEffect() Effect {
	return &pixelEffect{name: "Sepia", fn: func(pix []byte, _, _ int) { Sepia(pix) }}
}

// NewVignetteEffect darkens towards the corners.
func NewVignetteEffect() Effect {
	return &pixelEffect{name: "Vignette", fn: Vignette}
}

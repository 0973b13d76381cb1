package video

import (
	"github.com/sirupsen/logrus"
)

// Engine turns raw frames into processed frames for one filter selection.
//
// An Engine owns a BufferSet and must not be used from more than one
// goroutine at a time. The frame returned by Process aliases the engine's
// work buffer and is only valid until the next call.
type Engine struct {
	bufs   *BufferSet
	out    Frame
	chain  *EffectChain
	key    chainKey
	logger *logrus.Entry
}

type chainKey struct {
	filter   FilterKind
	strength int
}

// NewEngine creates a filter engine. A nil logger uses the standard logger.
func NewEngine(logger *logrus.Entry) *Engine {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{
		bufs:   NewBufferSet(),
		logger: logger,
	}
}

// Buffers exposes the engine's buffer set for inspection.
func (e *Engine) Buffers() *BufferSet {
	return e.bufs
}

// Process applies cfg to raw and returns the processed frame. ok is false
// when raw has zero area, in which case nothing is done for this tick.
func (e *Engine) Process(raw *Frame, cfg Config) (*Frame, bool) {
	if raw.Empty() {
		return nil, false
	}
	cfg = cfg.Normalized()

	if e.bufs.EnsureCapacity(raw.Width, raw.Height) {
		e.logger.WithFields(logrus.Fields{
			"function": "Engine.Process",
			"width":    raw.Width,
			"height":   raw.Height,
		}).Debug("Reallocated filter buffers")
	}

	copy(e.bufs.Work, raw.Pix[:raw.Width*raw.Height*4])
	e.out = Frame{Width: raw.Width, Height: raw.Height, Pix: e.bufs.Work}

	chain := e.chainFor(cfg)
	if err := chain.Apply(&e.out, e.bufs); err != nil {
		// Buffers were sized above, so this only fires on a broken effect.
		e.logger.WithFields(logrus.Fields{
			"function": "Engine.Process",
			"filter":   cfg.Filter,
			"error":    err.Error(),
		}).Error("Filter chain failed, rendering raw frame")
		copy(e.bufs.Work, raw.Pix[:raw.Width*raw.Height*4])
	}
	return &e.out, true
}

func (e *Engine) chainFor(cfg Config) *EffectChain {
	key := chainKey{filter: cfg.Filter, strength: cfg.Strength}
	if e.chain != nil && e.key == key {
		return e.chain
	}
	e.chain = BuildChain(cfg.Filter, cfg.Strength)
	e.key = key
	e.logger.WithFields(logrus.Fields{
		"function": "Engine.chainFor",
		"filter":   cfg.Filter,
		"strength": cfg.Strength,
		"effects":  e.chain.Names(),
	}).Debug("Built filter chain")
	return e.chain
}

// BuildChain returns the effect chain for a filter kind at a strength in
// [0,100]. Unknown kinds and FilterNone yield an empty chain.
func BuildChain(kind FilterKind, strength int) *EffectChain {
	s := fraction(strength)
	switch kind {
	case FilterAnime:
		return NewEffectChain(
			NewPosterizeEffect(AnimeStep(strength)),
			NewContrastSaturationEffect(1.10+s*0.45, 1.25+s*0.75),
			NewEdgeInkEffect(180-roundHalfUp(s*70)),
			NewGlowEffect(0.12+s*0.08, roundHalfUp(2+s*3)),
		)
	case FilterAvatar:
		return NewEffectChain(
			NewPosterizeEffect(AvatarStep(strength)),
			NewContrastSaturationEffect(1.10+s*0.4, 1.20+s*0.6),
			NewChannelBiasEffect(1.06, 1.10+s*0.2),
		)
	case FilterBeautify:
		return NewEffectChain(NewBeautifyEffect(roundHalfUp(2+s*8), 1.1+s*0.4, 1+s*0.25))
	case FilterPixelate:
		return NewEffectChain(NewPixelateEffect(maxInt(6, roundHalfUp(float64(strength)/2))))
	case FilterGray:
		return NewEffectChain(NewGrayEffect())
	case FilterInvert:
		return NewEffectChain(NewInvertEffect())
	case FilterSepia:
		return NewEffectChain(NewSepiaEffect())
	case FilterVignette:
		return NewEffectChain(NewVignetteEffect())
	default:
		return NewEffectChain()
	}
}

// AnimeLevels returns the posterize level count for the stylized-edge filter.
func AnimeLevels(strength int) int {
	return maxInt(3, roundHalfUp(4+fraction(strength)*10))
}

// AnimeStep returns the posterize bucket width for the stylized-edge filter.
func AnimeStep(strength int) int {
	return maxInt(2, 256/AnimeLevels(strength))
}

// AvatarStep returns the posterize bucket width for the cartoon filter.
func AvatarStep(strength int) int {
	div := maxInt(2, roundHalfUp(float64(strength)/8))
	return maxInt(8, roundHalfUp(256/float64(div)))
}

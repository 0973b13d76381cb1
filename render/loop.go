package render

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livehost/metrics"
	"github.com/opd-ai/livehost/segment"
	"github.com/opd-ai/livehost/video"
)

// DefaultInterval approximates a 60 Hz display refresh.
const DefaultInterval = time.Second / 60

// ErrNoSource is returned when a loop is created without a frame source.
var ErrNoSource = errors.New("render loop requires a frame source")

// LoopConfig configures a render Loop. Only Source is required.
type LoopConfig struct {
	Source    Source
	Surface   *Surface
	Presenter Presenter

	// Provider is optional. Without it the mask is always absent.
	Provider segment.Provider
	// SegmentInterval is the submission throttle, segment.DefaultInterval if zero.
	SegmentInterval time.Duration
	TimeProvider    segment.TimeProvider

	Interval time.Duration
	Filter   video.Config
	Metrics  *metrics.Metrics
	Logger   *logrus.Entry
}

// Loop drives the filter engine and compositor once per tick.
//
// Each tick reads one config snapshot, submits the raw frame to the
// segmentation provider subject to the throttle, filters, composites over
// the background using whatever mask is cached and publishes the result.
// A tick never waits on the segmentation provider.
type Loop struct {
	source     Source
	surface    *Surface
	presenter  Presenter
	provider   segment.Provider
	cell       *segment.Cell
	throttle   *segment.Throttle
	engine     *video.Engine
	compositor *video.Compositor
	interval   time.Duration
	metrics    *metrics.Metrics
	logger     *logrus.Entry

	cfgMu sync.RWMutex
	cfg   video.Config

	tickMu sync.Mutex
	dst    *video.Frame

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewLoop creates a render loop. It does not start ticking until Start.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if cfg.Source == nil {
		return nil, ErrNoSource
	}
	if cfg.Surface == nil {
		cfg.Surface = NewSurface()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.SegmentInterval <= 0 {
		cfg.SegmentInterval = segment.DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	l := &Loop{
		source:     cfg.Source,
		surface:    cfg.Surface,
		presenter:  cfg.Presenter,
		provider:   cfg.Provider,
		cell:       &segment.Cell{},
		throttle:   segment.NewThrottle(cfg.SegmentInterval, cfg.TimeProvider),
		engine:     video.NewEngine(cfg.Logger),
		compositor: video.NewCompositor(),
		interval:   cfg.Interval,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		cfg:        cfg.Filter.Normalized(),
	}
	if l.provider != nil {
		segment.Bind(l.provider, l.cell)
	}
	return l, nil
}

// Surface returns the surface the loop publishes to.
func (l *Loop) Surface() *Surface {
	return l.surface
}

// Mask returns the segmentation cell the loop reads from.
func (l *Loop) Mask() *segment.Cell {
	return l.cell
}

// SetConfig replaces the filter selection. It takes effect on the next tick.
func (l *Loop) SetConfig(cfg video.Config) {
	cfg = cfg.Normalized()
	l.cfgMu.Lock()
	l.cfg = cfg
	l.cfgMu.Unlock()

	l.logger.WithFields(logrus.Fields{
		"function":   "Loop.SetConfig",
		"filter":     cfg.Filter,
		"strength":   cfg.Strength,
		"background": cfg.Background,
		"mask":       cfg.MaskEnabled,
	}).Info("Filter configuration updated")
}

// Config returns the current filter selection.
func (l *Loop) Config() video.Config {
	l.cfgMu.RLock()
	defer l.cfgMu.RUnlock()
	return l.cfg
}

// Start begins ticking on a background goroutine. Starting a running loop
// is a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	if l.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running = true

	go l.run(ctx, l.done)

	l.logger.WithFields(logrus.Fields{
		"function": "Loop.Start",
		"interval": l.interval,
	}).Info("Render loop started")
}

// Stop halts the loop and waits for the current tick to finish. It is safe
// to call on a loop that was never started or is already stopped.
func (l *Loop) Stop() {
	l.runMu.Lock()
	if !l.running {
		l.runMu.Unlock()
		return
	}
	l.cancel()
	done := l.done
	l.running = false
	l.runMu.Unlock()

	<-done
	l.logger.WithField("function", "Loop.Stop").Info("Render loop stopped")
}

// Running reports whether the loop goroutine is active.
func (l *Loop) Running() bool {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	return l.running
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Tick performs one render iteration and reports whether a frame was
// published. Ticks never overlap.
func (l *Loop) Tick() bool {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	cfg := l.Config()
	raw, ok := l.source.CurrentFrame()
	if !ok || raw.Empty() {
		l.metrics.IncFramesSkipped()
		return false
	}
	start := time.Now()

	if l.dst == nil || !l.dst.SameSize(raw) {
		l.dst = video.NewFrame(raw.Width, raw.Height)
		l.metrics.IncReallocations()
		l.logger.WithFields(logrus.Fields{
			"function": "Loop.Tick",
			"width":    raw.Width,
			"height":   raw.Height,
		}).Debug("Frame size changed")
	}

	if err := l.compositor.DrawBackground(l.dst, raw, cfg.Background); err != nil {
		l.logger.WithFields(logrus.Fields{
			"function": "Loop.Tick",
			"error":    err.Error(),
		}).Warn("Background draw failed")
		return false
	}

	if l.provider != nil && l.throttle.Allow() {
		l.provider.Submit(raw)
		l.metrics.IncSegmentationRequests()
	}

	processed, ok := l.engine.Process(raw, cfg)
	if !ok {
		l.metrics.IncFramesSkipped()
		return false
	}

	if err := l.compositor.Composite(l.dst, processed, l.cell.Load(), cfg.MaskEnabled); err != nil {
		l.logger.WithFields(logrus.Fields{
			"function": "Loop.Tick",
			"error":    err.Error(),
		}).Warn("Composite failed")
		return false
	}

	l.surface.Publish(l.dst)
	if l.presenter != nil {
		l.presenter.Present(l.dst)
	}
	l.metrics.ObserveRender(time.Since(start))
	return true
}

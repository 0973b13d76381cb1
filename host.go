package livehost

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livehost/metrics"
	"github.com/opd-ai/livehost/peer"
	"github.com/opd-ai/livehost/render"
	"github.com/opd-ai/livehost/segment"
	"github.com/opd-ai/livehost/signaling"
	"github.com/opd-ai/livehost/snapshot"
	"github.com/opd-ai/livehost/video"
)

var (
	// ErrCameraNotStarted is returned by transport operations that need
	// rendered output before StartCamera succeeded.
	ErrCameraNotStarted = errors.New("camera not started")
	// ErrCameraUnavailable wraps a failure to open the camera.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrPeerNotConfigured is returned by StartPeer when no peer
	// connection factory or media source was configured.
	ErrPeerNotConfigured = errors.New("peer session not configured")
	// ErrNoDialer is returned by New without a signaling dialer.
	ErrNoDialer = errors.New("host requires a signaling dialer")
	// ErrNoCamera is returned by New without a camera opener.
	ErrNoCamera = errors.New("host requires a camera opener")
)

// Camera is an open frame source that must be released.
type Camera interface {
	render.Source
	Close() error
}

// CameraOpener acquires the camera. It is called on every StartCamera.
type CameraOpener func(ctx context.Context) (Camera, error)

// SourceCamera wraps a Source that needs no release.
func SourceCamera(src render.Source) CameraOpener {
	return func(context.Context) (Camera, error) {
		return nopCamera{src}, nil
	}
}

type nopCamera struct{ render.Source }

func (nopCamera) Close() error { return nil }

// Options configures a Host.
type Options struct {
	// Server is the relay base URL (http, https, ws or wss).
	Server     string
	OpenCamera CameraOpener
	Dialer     signaling.Dialer

	// Segmenter is optional and owned by the caller.
	Segmenter segment.Provider
	Presenter render.Presenter
	Filter    video.Config

	SnapshotInterval time.Duration
	PendingLimit     int
	PreferredImage   snapshot.ImageEncoder

	// PeerFactory and PeerMedia enable StartPeer. PeerMedia receives the
	// host surface.
	PeerFactory peer.Factory
	PeerMedia   func(frames peer.FrameReader) peer.MediaSource
	ICEServers  []string

	// The callbacks run on transport goroutines and must not stop or
	// start the host synchronously.
	OnChat      func(user, text string)
	OnPeerState func(peer.State)
	OnWarning   func(err error)

	Metrics *metrics.Metrics
	Logger  *logrus.Entry
}

// Host owns the camera, the render loop and both transports of one
// livehost process.
//
// A process runs a single Host: one camera stream, one snapshot transport
// and one peer session. The rendered surface outlives camera restarts so
// transports keep their frame reader.
type Host struct {
	opts    Options
	logger  *logrus.Entry
	surface *render.Surface

	stream  *snapshot.Transport
	session *peer.Session

	mu     sync.Mutex
	camera Camera
	loop   *render.Loop
	filter video.Config
}

// New builds an idle host. Nothing is opened until the Start methods.
func New(opts Options) (*Host, error) {
	if opts.Dialer == nil {
		return nil, ErrNoDialer
	}
	if opts.OpenCamera == nil {
		return nil, ErrNoCamera
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Filter == (video.Config{}) {
		opts.Filter = video.DefaultConfig()
	}

	h := &Host{
		opts:    opts,
		logger:  opts.Logger,
		surface: render.NewSurface(),
		filter:  opts.Filter.Normalized(),
	}

	stream, err := snapshot.NewTransport(snapshot.Config{
		Base:         opts.Server,
		Dialer:       opts.Dialer,
		Frames:       h.surface,
		Interval:     opts.SnapshotInterval,
		PendingLimit: opts.PendingLimit,
		Preferred:    opts.PreferredImage,
		OnChat:       opts.OnChat,
		Metrics:      opts.Metrics,
		Logger:       opts.Logger.WithField("component", "snapshot"),
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot transport: %w", err)
	}
	h.stream = stream

	if opts.PeerFactory != nil && opts.PeerMedia != nil {
		session, err := peer.NewSession(peer.Config{
			Base:          opts.Server,
			ICEServers:    opts.ICEServers,
			Dialer:        opts.Dialer,
			Factory:       opts.PeerFactory,
			Media:         opts.PeerMedia(h.surface),
			OnChat:        opts.OnChat,
			OnStateChange: opts.OnPeerState,
			OnWarning:     opts.OnWarning,
			Metrics:       opts.Metrics,
			Logger:        opts.Logger.WithField("component", "peer"),
		})
		if err != nil {
			return nil, fmt.Errorf("peer session: %w", err)
		}
		h.session = session
	}
	return h, nil
}

// Surface returns the rendered output shared by both transports.
func (h *Host) Surface() *render.Surface {
	return h.surface
}

// StartCamera opens the camera and starts the render loop. Starting a
// running camera does nothing.
func (h *Host) StartCamera(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loop != nil {
		return nil
	}

	cam, err := h.opts.OpenCamera(ctx)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"function": "Host.StartCamera",
			"error":    err.Error(),
		}).Error("Camera unavailable")
		return fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
	}

	loop, err := render.NewLoop(render.LoopConfig{
		Source:    cam,
		Surface:   h.surface,
		Presenter: h.opts.Presenter,
		Provider:  h.opts.Segmenter,
		Filter:    h.filter,
		Metrics:   h.opts.Metrics,
		Logger:    h.logger.WithField("component", "render"),
	})
	if err != nil {
		_ = cam.Close()
		return err
	}

	// background context: the loop lives until StopCamera
	loop.Start(context.WithoutCancel(ctx))
	h.camera = cam
	h.loop = loop

	h.logger.WithField("function", "Host.StartCamera").Info("Camera started")
	return nil
}

// StopCamera stops the render loop, releases the camera and clears the
// surface. Active transports stay open and send nothing until the camera
// is started again.
func (h *Host) StopCamera() {
	h.mu.Lock()
	loop, cam := h.loop, h.camera
	h.loop, h.camera = nil, nil
	h.mu.Unlock()
	if loop == nil {
		return
	}

	loop.Stop()
	if err := cam.Close(); err != nil {
		h.logger.WithFields(logrus.Fields{
			"function": "Host.StopCamera",
			"error":    err.Error(),
		}).Warn("Camera close failed")
	}
	h.surface.Reset()
	h.logger.WithField("function", "Host.StopCamera").Info("Camera stopped")
}

// CameraRunning reports whether the render loop is active.
func (h *Host) CameraRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loop != nil
}

// SetFilter replaces the filter selection, effective from the next tick.
func (h *Host) SetFilter(cfg video.Config) {
	cfg = cfg.Normalized()
	h.mu.Lock()
	h.filter = cfg
	loop := h.loop
	h.mu.Unlock()
	if loop != nil {
		loop.SetConfig(cfg)
	}
}

// Filter returns the current filter selection.
func (h *Host) Filter() video.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.filter
}

// StartStream begins snapshot streaming to room.
func (h *Host) StartStream(ctx context.Context, room string) error {
	if !h.CameraRunning() {
		return ErrCameraNotStarted
	}
	return h.stream.Start(ctx, room)
}

// StopStream ends snapshot streaming.
func (h *Host) StopStream() {
	h.stream.Stop()
}

// Streaming reports whether snapshot streaming is active.
func (h *Host) Streaming() bool {
	return h.stream.Active()
}

// StartPeer starts a peer session in room, replacing any active one.
func (h *Host) StartPeer(ctx context.Context, room string) error {
	if h.session == nil {
		return ErrPeerNotConfigured
	}
	if !h.CameraRunning() {
		return ErrCameraNotStarted
	}
	return h.session.Start(ctx, room)
}

// StopPeer ends the peer session.
func (h *Host) StopPeer() {
	if h.session != nil {
		h.session.Stop()
	}
}

// PeerState returns the peer session state, StateIdle when peers are not
// configured.
func (h *Host) PeerState() peer.State {
	if h.session == nil {
		return peer.StateIdle
	}
	return h.session.State()
}

// ShareURL returns the viewer link of the active transport, preferring
// the peer session.
func (h *Host) ShareURL() string {
	if h.session != nil {
		if u := h.session.ShareURL(); u != "" {
			return u
		}
	}
	return h.stream.ShareURL()
}

// SendChat sends a chat line over the active peer session, then the
// snapshot stream. With neither active and peers configured, the line
// goes to the relay's events channel.
func (h *Host) SendChat(ctx context.Context, user, text string) error {
	if h.session != nil && h.session.Active() {
		return h.session.SendChat(ctx, user, text)
	}
	if h.stream.Active() {
		return h.stream.SendChat(user, text)
	}
	if h.session != nil {
		return h.session.SendChat(ctx, user, text)
	}
	return snapshot.ErrNotStreaming
}

// Shutdown stops the stream, the peer session, the render loop and the
// camera, in that order. It may be called repeatedly.
func (h *Host) Shutdown() {
	h.StopStream()
	h.StopPeer()
	h.StopCamera()
	h.logger.WithField("function", "Host.Shutdown").Info("Host shut down")
}

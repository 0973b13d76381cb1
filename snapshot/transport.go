package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livehost/limits"
	"github.com/opd-ai/livehost/metrics"
	"github.com/opd-ai/livehost/signaling"
	"github.com/opd-ai/livehost/video"
)

// DefaultInterval is the nominal snapshot period, about 12.5 Hz.
const DefaultInterval = 80 * time.Millisecond

const (
	defaultHostUser   = "host"
	defaultViewerUser = "viewer"
)

// FrameReader gives access to the rendered output. SnapshotInto copies the
// current frame into dst and returns 0 when nothing has been rendered yet.
type FrameReader interface {
	SnapshotInto(dst *video.Frame) uint64
}

// Config configures a Transport.
type Config struct {
	// Base is the relay base URL (http, https, ws or wss).
	Base   string
	Dialer signaling.Dialer
	Frames FrameReader

	// Interval defaults to DefaultInterval.
	Interval time.Duration
	// PendingLimit defaults to limits.MaxPendingBytes.
	PendingLimit int
	// Preferred is the higher-efficiency encoder, used when it works.
	Preferred ImageEncoder

	// OnChat receives inbound chat. It runs on the transport goroutine and
	// must not call Start or Stop directly, which would deadlock; hand off
	// to another goroutine instead.
	OnChat func(user, text string)

	Metrics *metrics.Metrics
	Logger  *logrus.Entry
}

// Transport pushes periodic encoded snapshots of the rendered output to a
// relay room and carries room chat.
//
// At most one stream is active per Transport. Each tick first checks the
// channel's buffered byte count and skips the tick entirely when it exceeds
// the pending limit. Channel closure from either side ends the stream;
// reconnecting needs a new Start.
type Transport struct {
	cfg       Config
	newTicker func(time.Duration) (<-chan time.Time, func())
	logger    *logrus.Entry

	mu   sync.Mutex
	sess *stream
}

type stream struct {
	room     string
	shareURL string
	ch       signaling.Channel
	codec    Codec
	frame    video.Frame
	stop     chan struct{}
	done     chan struct{}
}

// NewTransport validates cfg and returns an idle transport.
func NewTransport(cfg Config) (*Transport, error) {
	if cfg.Dialer == nil {
		return nil, ErrNoDialer
	}
	if cfg.Frames == nil {
		return nil, ErrNoFrames
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.PendingLimit <= 0 {
		cfg.PendingLimit = limits.MaxPendingBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Transport{
		cfg:       cfg,
		newTicker: systemTicker,
		logger:    cfg.Logger,
	}, nil
}

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Start opens the room channel and begins pushing frames. Starting while a
// stream is active does nothing.
func (t *Transport) Start(ctx context.Context, room string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess != nil {
		return nil
	}

	clean, err := signaling.ValidateRoom(room)
	if err != nil {
		return err
	}
	url, err := signaling.RoomURL(t.cfg.Base, clean)
	if err != nil {
		return err
	}
	share, err := signaling.LiveURL(t.cfg.Base, clean)
	if err != nil {
		return err
	}

	ch, err := t.cfg.Dialer.Dial(ctx, url)
	if err != nil {
		return fmt.Errorf("open snapshot channel: %w", err)
	}

	s := &stream{
		room:     clean,
		shareURL: share,
		ch:       ch,
		codec:    ChooseCodec(t.cfg.Preferred),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	t.sess = s
	ticks, stopTicker := t.newTicker(t.cfg.Interval)
	go t.run(s, ticks, stopTicker)

	t.logger.WithFields(logrus.Fields{
		"function": "Transport.Start",
		"room":     clean,
		"share":    share,
		"codec":    s.codec.MIMEType(),
		"quality":  s.codec.Quality,
	}).Info("Streaming started")
	return nil
}

// Stop ends the active stream, if any, and waits for its goroutine to exit.
// It is safe to call when idle or repeatedly.
func (t *Transport) Stop() {
	t.mu.Lock()
	s := t.sess
	t.sess = nil
	t.mu.Unlock()
	if s == nil {
		return
	}
	close(s.stop)
	<-s.done
}

// Active reports whether a stream is open.
func (t *Transport) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess != nil
}

// Room returns the active room, or "" when idle.
func (t *Transport) Room() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess == nil {
		return ""
	}
	return t.sess.room
}

// ShareURL returns the viewer link for the active room, or "" when idle.
func (t *Transport) ShareURL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess == nil {
		return ""
	}
	return t.sess.shareURL
}

// SendChat sends a chat line to the room. user defaults to "host"; blank
// text is ignored.
func (t *Transport) SendChat(user, text string) error {
	user = strings.TrimSpace(user)
	if user == "" {
		user = defaultHostUser
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := limits.ValidateChatText(text); err != nil {
		return err
	}

	t.mu.Lock()
	s := t.sess
	t.mu.Unlock()
	if s == nil {
		return ErrNotStreaming
	}

	if err := signaling.SendMessage(s.ch, signaling.ChatMessage(s.room, user, text)); err != nil {
		if errors.Is(err, signaling.ErrChannelClosed) {
			return ErrNotStreaming
		}
		return err
	}
	t.cfg.Metrics.IncChat("out", "snapshot")
	t.cfg.Metrics.IncSignaling("out", string(signaling.TypeChat))
	return nil
}

func (t *Transport) run(s *stream, ticks <-chan time.Time, stopTicker func()) {
	logger := t.logger.WithFields(logrus.Fields{
		"function": "Transport.run",
		"room":     s.room,
	})
	defer func() {
		stopTicker()
		_ = s.ch.Close()
		t.mu.Lock()
		if t.sess == s {
			t.sess = nil
		}
		t.mu.Unlock()
		close(s.done)
		logger.Info("Streaming stopped")
	}()

	inbound := s.ch.Inbound()
	for {
		select {
		case <-s.stop:
			return
		case <-s.ch.Done():
			logger.Info("Relay channel closed")
			return
		case raw, ok := <-inbound:
			if !ok {
				inbound = nil
				continue
			}
			t.handleInbound(raw)
		case <-ticks:
			t.tick(s)
		}
	}
}

// tick sends one frame unless the channel is congested or nothing has been
// rendered. It reports whether a frame was sent.
func (t *Transport) tick(s *stream) bool {
	if buffered := s.ch.BufferedAmount(); buffered > t.cfg.PendingLimit {
		t.cfg.Metrics.IncSnapshotDropped()
		t.logger.WithFields(logrus.Fields{
			"function": "Transport.tick",
			"buffered": buffered,
		}).Debug("Channel congested, skipping frame")
		return false
	}

	if t.cfg.Frames.SnapshotInto(&s.frame) == 0 || s.frame.Empty() {
		return false
	}

	uri, err := s.codec.DataURI(s.frame.Image())
	if err != nil {
		t.logger.WithFields(logrus.Fields{
			"function": "Transport.tick",
			"error":    err.Error(),
		}).Debug("Frame encode failed")
		return false
	}

	data, err := signaling.Encode(signaling.FrameMessage(s.room, uri))
	if err != nil {
		return false
	}
	if err := s.ch.Send(data); err != nil {
		t.logger.WithFields(logrus.Fields{
			"function": "Transport.tick",
			"error":    err.Error(),
		}).Debug("Frame send failed")
		return false
	}
	t.cfg.Metrics.AddSnapshotSent(len(data))
	return true
}

func (t *Transport) handleInbound(raw []byte) {
	msg, err := signaling.Decode(raw)
	if err != nil {
		t.cfg.Metrics.IncMalformed()
		t.logger.WithFields(logrus.Fields{
			"function": "Transport.handleInbound",
			"error":    err.Error(),
		}).Debug("Discarding inbound message")
		return
	}
	t.cfg.Metrics.IncSignaling("in", string(msg.Type))
	if msg.Type != signaling.TypeChat {
		return
	}

	user := msg.User
	if user == "" {
		user = defaultViewerUser
	}
	t.cfg.Metrics.IncChat("in", "snapshot")
	if t.cfg.OnChat != nil {
		t.cfg.OnChat(user, msg.Text)
	}
}

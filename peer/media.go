package peer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livehost/video"
)

// DefaultFPS is the capture rate of the rendered-output track.
const DefaultFPS = 30

// LocalTrack is an acquired local media track.
type LocalTrack interface {
	Track() webrtc.TrackLocal
	// Stop releases the device or pipeline behind the track. It must be
	// safe to call more than once.
	Stop()
}

// MediaSource acquires the local tracks for a session.
type MediaSource interface {
	// VideoTrack returns the rendered-output track. Failure aborts Start.
	VideoTrack(ctx context.Context, streamID string) (LocalTrack, error)
	// AudioTrack returns the microphone track. Failure is reported and
	// the session continues video-only.
	AudioTrack(ctx context.Context, streamID string) (LocalTrack, error)
}

// FrameReader gives access to the rendered output.
type FrameReader interface {
	SnapshotInto(dst *video.Frame) uint64
}

// SurfaceMedia captures the rendered output as a VP8 track. It has no
// microphone.
type SurfaceMedia struct {
	Frames     FrameReader
	FPS        int
	NewEncoder EncoderFactory
	Logger     *logrus.Entry
}

// VideoTrack implements MediaSource.
func (m *SurfaceMedia) VideoTrack(_ context.Context, streamID string) (LocalTrack, error) {
	return NewFrameTrack(FrameTrackConfig{
		Frames:     m.Frames,
		FPS:        m.FPS,
		NewEncoder: m.NewEncoder,
		StreamID:   streamID,
		Logger:     m.Logger,
	})
}

// AudioTrack implements MediaSource.
func (m *SurfaceMedia) AudioTrack(context.Context, string) (LocalTrack, error) {
	return nil, ErrMicrophoneUnavailable
}

// FrameTrackConfig configures a FrameTrack.
type FrameTrackConfig struct {
	Frames     FrameReader
	FPS        int
	NewEncoder EncoderFactory
	StreamID   string
	Logger     *logrus.Entry
}

// FrameTrack samples a FrameReader at a fixed rate, encodes each frame and
// writes the samples to a static VP8 track. The encoder is restarted when
// the frame size changes.
type FrameTrack struct {
	track      *webrtc.TrackLocalStaticSample
	frames     FrameReader
	fps        int
	newEncoder EncoderFactory
	logger     *logrus.Entry

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewFrameTrack creates the track and starts sampling immediately.
func NewFrameTrack(cfg FrameTrackConfig) (*FrameTrack, error) {
	if cfg.Frames == nil || cfg.NewEncoder == nil {
		return nil, fmt.Errorf("%w: frame reader and encoder are required", ErrVideoUnavailable)
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.StreamID == "" {
		cfg.StreamID = "livehost-" + uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"video",
		cfg.StreamID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVideoUnavailable, err)
	}

	t := &FrameTrack{
		track:      track,
		frames:     cfg.Frames,
		fps:        cfg.FPS,
		newEncoder: cfg.NewEncoder,
		logger:     cfg.Logger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go t.run()
	return t, nil
}

// Track implements LocalTrack.
func (t *FrameTrack) Track() webrtc.TrackLocal {
	return t.track
}

// Stop halts sampling and the encoder. It is idempotent.
func (t *FrameTrack) Stop() {
	t.once.Do(func() {
		close(t.stop)
		<-t.done
	})
}

func (t *FrameTrack) run() {
	defer close(t.done)

	interval := time.Second / time.Duration(t.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		frame      video.Frame
		enc        VideoEncoder
		encW, encH int
		writing    sync.WaitGroup
	)
	closeEncoder := func() {
		if enc != nil {
			_ = enc.Close()
			writing.Wait()
			enc = nil
		}
	}
	defer closeEncoder()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}

		if t.frames.SnapshotInto(&frame) == 0 || frame.Empty() {
			continue
		}

		if enc != nil && (encW != frame.Width || encH != frame.Height) {
			closeEncoder()
		}
		if enc == nil {
			e, err := t.newEncoder(frame.Width, frame.Height, t.fps)
			if err != nil {
				t.logger.WithFields(logrus.Fields{
					"function": "FrameTrack.run",
					"error":    err.Error(),
				}).Warn("Could not start video encoder")
				continue
			}
			enc, encW, encH = e, frame.Width, frame.Height
			writing.Add(1)
			go t.writeSamples(enc, interval, &writing)
		}

		if err := enc.Encode(&frame); err != nil {
			t.logger.WithFields(logrus.Fields{
				"function": "FrameTrack.run",
				"error":    err.Error(),
			}).Debug("Frame encode failed, restarting encoder")
			closeEncoder()
		}
	}
}

func (t *FrameTrack) writeSamples(enc VideoEncoder, d time.Duration, wg *sync.WaitGroup) {
	defer wg.Done()
	for payload := range enc.Frames() {
		if err := t.track.WriteSample(media.Sample{Data: payload, Duration: d}); err != nil {
			t.logger.WithFields(logrus.Fields{
				"function": "FrameTrack.writeSamples",
				"error":    err.Error(),
			}).Debug("Sample write failed")
		}
	}
}

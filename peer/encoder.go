package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"github.com/pion/webrtc/v3/pkg/media/ivfreader"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livehost/video"
)

// VideoEncoder compresses raw frames of one fixed size into VP8 frames.
type VideoEncoder interface {
	// Encode queues one RGBA frame. It may block while the encoder is busy.
	Encode(frame *video.Frame) error
	// Frames delivers encoded frames and is closed when the encoder stops.
	Frames() <-chan []byte
	Close() error
}

// EncoderFactory starts an encoder for width×height frames at fps.
type EncoderFactory func(width, height, fps int) (VideoEncoder, error)

// FFmpegConfig configures FFmpegEncoder.
type FFmpegConfig struct {
	// Path to the ffmpeg binary, "ffmpeg" if empty.
	Path string
	// Bitrate in bits per second, 1 Mbit/s if zero.
	Bitrate int
	Logger  *logrus.Entry
}

// FFmpegFactory returns an EncoderFactory backed by an ffmpeg subprocess.
func FFmpegFactory(cfg FFmpegConfig) EncoderFactory {
	return func(width, height, fps int) (VideoEncoder, error) {
		return NewFFmpegEncoder(cfg, width, height, fps)
	}
}

// FFmpegEncoder pipes raw RGBA frames through ffmpeg's libvpx and parses
// the IVF stream it writes back.
type FFmpegEncoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	frames chan []byte
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
	width  int
	height int
	logger *logrus.Entry
}

// NewFFmpegEncoder starts ffmpeg for a width×height stream.
func NewFFmpegEncoder(cfg FFmpegConfig, width, height, fps int) (*FFmpegEncoder, error) {
	if width <= 0 || height <= 0 || fps <= 0 {
		return nil, fmt.Errorf("invalid encoder geometry %dx%d@%d", width, height, fps)
	}
	path := cfg.Path
	if path == "" {
		path = "ffmpeg"
	}
	bitrate := cfg.Bitrate
	if bitrate <= 0 {
		bitrate = 1_000_000
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, path,
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-s", strconv.Itoa(width)+"x"+strconv.Itoa(height),
		"-r", strconv.Itoa(fps),
		"-i", "pipe:0",
		"-c:v", "libvpx",
		"-deadline", "realtime", "-cpu-used", "8",
		"-b:v", strconv.Itoa(bitrate),
		"-g", strconv.Itoa(fps*2),
		"-auto-alt-ref", "0",
		"-f", "ivf", "pipe:1",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	e := &FFmpegEncoder{
		cmd:    cmd,
		stdin:  stdin,
		frames: make(chan []byte, fps),
		cancel: cancel,
		done:   make(chan struct{}),
		width:  width,
		height: height,
		logger: logger,
	}
	go e.readLoop(stdout)

	logger.WithFields(logrus.Fields{
		"function": "NewFFmpegEncoder",
		"width":    width,
		"height":   height,
		"fps":      fps,
		"bitrate":  bitrate,
	}).Info("VP8 encoder started")
	return e, nil
}

func (e *FFmpegEncoder) readLoop(stdout io.Reader) {
	defer close(e.frames)
	err := ReadIVF(stdout, e.frames, e.done)
	if err != nil && !errors.Is(err, io.EOF) {
		e.logger.WithFields(logrus.Fields{
			"function": "FFmpegEncoder.readLoop",
			"error":    err.Error(),
		}).Debug("IVF stream ended")
	}
}

// ReadIVF parses an IVF stream from r and forwards each frame payload to
// out until the stream ends or done is closed.
func ReadIVF(r io.Reader, out chan<- []byte, done <-chan struct{}) error {
	reader, _, err := ivfreader.NewWith(r)
	if err != nil {
		return fmt.Errorf("ivf header: %w", err)
	}
	for {
		payload, _, err := reader.ParseNextFrame()
		if err != nil {
			return err
		}
		select {
		case out <- payload:
		case <-done:
			return nil
		}
	}
}

// Encode implements VideoEncoder.
func (e *FFmpegEncoder) Encode(frame *video.Frame) error {
	select {
	case <-e.done:
		return ErrEncoderClosed
	default:
	}
	if frame.Width != e.width || frame.Height != e.height {
		return fmt.Errorf("%w: encoder %dx%d, frame %s", video.ErrSizeMismatch, e.width, e.height, frame)
	}
	if _, err := e.stdin.Write(frame.Pix[:e.width*e.height*4]); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Frames implements VideoEncoder.
func (e *FFmpegEncoder) Frames() <-chan []byte {
	return e.frames
}

// Close stops ffmpeg. It is safe to call more than once.
func (e *FFmpegEncoder) Close() error {
	e.once.Do(func() {
		close(e.done)
		_ = e.stdin.Close()
		e.cancel()
		_ = e.cmd.Wait()
	})
	return nil
}

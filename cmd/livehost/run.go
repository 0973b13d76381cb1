package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livehost"
	"github.com/opd-ai/livehost/config"
	"github.com/opd-ai/livehost/metrics"
	"github.com/opd-ai/livehost/peer"
	"github.com/opd-ai/livehost/segment"
	"github.com/opd-ai/livehost/signaling"
)

const shutdownTimeout = 10 * time.Second

func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	base, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	logger := config.Entry(base, "livehost")
	logger.WithFields(logrus.Fields{
		"server":     cfg.Server,
		"room":       cfg.Room,
		"mode":       cfg.Mode,
		"filter":     cfg.Filter,
		"strength":   cfg.Strength,
		"background": cfg.Background,
		"mask":       cfg.Mask,
		"source":     cfg.Source,
	}).Debug("RUN")

	met := metrics.New()

	camera, err := cameraFor(cfg)
	if err != nil {
		return err
	}

	segmenter := segment.NewOvalProvider(config.Entry(base, "segment"))
	defer segmenter.Close()

	opts := livehost.Options{
		Server:           cfg.Server,
		OpenCamera:       camera,
		Dialer:           &signaling.WebsocketDialer{Logger: config.Entry(base, "signaling")},
		Segmenter:        segmenter,
		Filter:           cfg.FilterConfig(),
		SnapshotInterval: cfg.SnapshotInterval,
		PendingLimit:     cfg.PendingBytesLimit,
		ICEServers:       cfg.ICEServers,
		OnChat: func(user, text string) {
			fmt.Fprintf(out, "%s: %s\n", user, text)
		},
		OnPeerState: func(st peer.State) {
			logger.WithFields(logrus.Fields{
				"function": "run",
				"state":    st.String(),
			}).Info("Peer state changed")
		},
		OnWarning: func(err error) {
			fmt.Fprintf(out, "warning: %v\n", err)
		},
		Metrics: met,
		Logger:  logger,
	}

	if cfg.Mode == config.ModePeer {
		factory, err := peer.NewPionFactory()
		if err != nil {
			return fmt.Errorf("webrtc setup: %w", err)
		}
		encoderLogger := config.Entry(base, "encoder")
		opts.PeerFactory = factory
		opts.PeerMedia = func(frames peer.FrameReader) peer.MediaSource {
			return &peer.SurfaceMedia{
				Frames: frames,
				FPS:    cfg.FPS,
				NewEncoder: peer.FFmpegFactory(peer.FFmpegConfig{
					Path:    cfg.FFmpeg,
					Bitrate: cfg.VideoBitrate,
					Logger:  encoderLogger,
				}),
				Logger: encoderLogger,
			}
		}
	}

	host, err := livehost.New(opts)
	if err != nil {
		return err
	}
	defer host.Shutdown()

	if err := host.StartCamera(ctx); err != nil {
		return err
	}

	switch cfg.Mode {
	case config.ModePeer:
		err = host.StartPeer(ctx, cfg.Room)
	default:
		err = host.StartStream(ctx, cfg.Room)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "viewers join at %s\n", host.ShareURL())

	var srv *http.Server
	if cfg.StatusAddr != "" {
		srv = &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           newStatusRouter(host, met, config.Entry(base, "status")),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithFields(logrus.Fields{
					"function": "run",
					"error":    err.Error(),
				}).Error("Status server failed")
			}
		}()
		logger.WithFields(logrus.Fields{
			"function": "run",
			"addr":     cfg.StatusAddr,
		}).Info("Status server listening")
	}

	c := &console{host: host, user: cfg.User, out: out, logger: logger}
	c.run(ctx, in)

	logger.WithField("function", "run").Info("Shutting down")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithFields(logrus.Fields{
				"function": "run",
				"error":    err.Error(),
			}).Warn("Status server shutdown failed")
		}
	}
	return nil
}

package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/opd-ai/livehost"
	"github.com/opd-ai/livehost/config"
	"github.com/opd-ai/livehost/limits"
	"github.com/opd-ai/livehost/render"
	"github.com/opd-ai/livehost/video"
)

// cameraFor returns the frame source named by cfg.Source: an animated
// test pattern or a still image file.
func cameraFor(cfg *config.Config) (livehost.CameraOpener, error) {
	if cfg.Source == "" || cfg.Source == "pattern" {
		return livehost.SourceCamera(render.NewPatternSource(cfg.Width, cfg.Height)), nil
	}

	frame, err := loadImage(cfg.Source)
	if err != nil {
		return nil, err
	}
	return livehost.SourceCamera(render.NewStaticSource(frame)), nil
}

func loadImage(path string) (*video.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	b := img.Bounds()
	if err := limits.ValidateFrameSize(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}
	return video.FrameFromImage(img), nil
}

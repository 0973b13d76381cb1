// Package config loads livehost settings from defaults, an optional .env
// file, LIVEHOST_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/opd-ai/livehost/limits"
	"github.com/opd-ai/livehost/signaling"
	"github.com/opd-ai/livehost/video"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "LIVEHOST"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Mode selects the transport used to publish the rendered output.
type Mode string

const (
	// ModeSnapshot relays periodic encoded stills over the signaling relay
	ModeSnapshot Mode = "snapshot"
	// ModePeer negotiates a WebRTC session with one viewer
	ModePeer Mode = "peer"
)

// Config holds every setting the CLI needs. Keys match flag names.
type Config struct {
	Server string `mapstructure:"server"`
	Room   string `mapstructure:"room"`
	Mode   Mode   `mapstructure:"mode"`
	User   string `mapstructure:"user"`

	Filter     string `mapstructure:"filter"`
	Strength   int    `mapstructure:"strength"`
	Background string `mapstructure:"background"`
	Mask       bool   `mapstructure:"mask"`

	SnapshotInterval  time.Duration `mapstructure:"snapshot-interval"`
	PendingBytesLimit int           `mapstructure:"pending-bytes-limit"`

	ICEServers   []string `mapstructure:"ice-servers"`
	FPS          int      `mapstructure:"fps"`
	VideoBitrate int      `mapstructure:"video-bitrate"`
	FFmpeg       string   `mapstructure:"ffmpeg"`

	Source string `mapstructure:"source"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`

	StatusAddr string `mapstructure:"status-addr"`

	LogLevel  string `mapstructure:"log"`
	LogFormat string `mapstructure:"log-format"`
	LogFile   string `mapstructure:"log-file"`
}

// Default returns the built-in settings.
func Default() *Config {
	filter := video.DefaultConfig()
	return &Config{
		Server:            "http://localhost:8080",
		Room:              "main",
		Mode:              ModeSnapshot,
		User:              "host",
		Filter:            string(filter.Filter),
		Strength:          filter.Strength,
		Background:        string(filter.Background),
		Mask:              filter.MaskEnabled,
		SnapshotInterval:  80 * time.Millisecond,
		PendingBytesLimit: limits.MaxPendingBytes,
		ICEServers:        []string{"stun:stun.l.google.com:19302"},
		FPS:               30,
		VideoBitrate:      1_000_000,
		FFmpeg:            "ffmpeg",
		Source:            "pattern",
		Width:             1280,
		Height:            720,
		StatusAddr:        "127.0.0.1:9090",
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// SetDefaults registers every key of Default with v so that environment
// variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server", d.Server)
	v.SetDefault("room", d.Room)
	v.SetDefault("mode", string(d.Mode))
	v.SetDefault("user", d.User)
	v.SetDefault("filter", d.Filter)
	v.SetDefault("strength", d.Strength)
	v.SetDefault("background", d.Background)
	v.SetDefault("mask", d.Mask)
	v.SetDefault("snapshot-interval", d.SnapshotInterval)
	v.SetDefault("pending-bytes-limit", d.PendingBytesLimit)
	v.SetDefault("ice-servers", d.ICEServers)
	v.SetDefault("fps", d.FPS)
	v.SetDefault("video-bitrate", d.VideoBitrate)
	v.SetDefault("ffmpeg", d.FFmpeg)
	v.SetDefault("source", d.Source)
	v.SetDefault("width", d.Width)
	v.SetDefault("height", d.Height)
	v.SetDefault("status-addr", d.StatusAddr)
	v.SetDefault("log", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("log-file", d.LogFile)
}

// LoadEnvFiles reads .env style files into the process environment.
// Variables already set are not overridden. Missing files are ignored;
// with no paths, ".env" is tried.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load builds a Config from v. Flags must already be bound to v; env files
// are read first so that flags override the environment, which overrides
// the files.
func Load(v *viper.Viper, envFiles ...string) (*Config, error) {
	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the components cannot run with.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSnapshot, ModePeer:
	default:
		return fmt.Errorf("%w: mode %q", ErrInvalidConfig, c.Mode)
	}
	if _, err := video.ParseFilterKind(c.Filter); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := video.ParseBackgroundKind(c.Background); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Strength < 0 || c.Strength > 100 {
		return fmt.Errorf("%w: strength %d outside [0,100]", ErrInvalidConfig, c.Strength)
	}
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("%w: snapshot-interval must be positive", ErrInvalidConfig)
	}
	if c.PendingBytesLimit <= 0 {
		return fmt.Errorf("%w: pending-bytes-limit must be positive", ErrInvalidConfig)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive", ErrInvalidConfig)
	}
	if c.VideoBitrate <= 0 {
		return fmt.Errorf("%w: video-bitrate must be positive", ErrInvalidConfig)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if err := limits.ValidateFrameSize(c.Width, c.Height); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := signaling.ValidateRoom(c.Room); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := signaling.HTTPOrigin(c.Server); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// FilterConfig returns the render settings. Call after Validate.
func (c *Config) FilterConfig() video.Config {
	filter, _ := video.ParseFilterKind(c.Filter)
	background, _ := video.ParseBackgroundKind(c.Background)
	return video.Config{
		Filter:      filter,
		Strength:    c.Strength,
		Background:  background,
		MaskEnabled: c.Mask,
	}
}

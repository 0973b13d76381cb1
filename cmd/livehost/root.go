package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opd-ai/livehost/config"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfg *config.Config

	cmd := &cobra.Command{
		Use:   "livehost",
		Short: "Filter a video source and stream it to relay viewers",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			loaded, err := config.Load(v)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	addFlags(cmd)
	return cmd
}

func addFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()

	f.String("server", d.Server, "Relay base URL (http, https, ws or wss)")
	f.String("room", d.Room, "Room name")
	f.String("mode", string(d.Mode), "Transport: snapshot or peer")
	f.String("user", d.User, "Chat display name")

	f.String("filter", d.Filter, "anime, avatar, beautify, pixelate, gray, invert, sepia, vignette or none")
	f.Int("strength", d.Strength, "Filter strength 0-100")
	f.String("background", d.Background, "origin, gray, pixel, blur or grad")
	f.Bool("mask", d.Mask, "Composite through the segmentation mask")

	f.Duration("snapshot-interval", d.SnapshotInterval, "Snapshot send period")
	f.Int("pending-bytes-limit", d.PendingBytesLimit, "Skip snapshots while more bytes than this are queued")

	f.StringSlice("ice-servers", d.ICEServers, "STUN/TURN server URLs")
	f.Int("fps", d.FPS, "Capture rate of the peer video track")
	f.Int("video-bitrate", d.VideoBitrate, "VP8 target bitrate in bits per second")
	f.String("ffmpeg", d.FFmpeg, "Path to the ffmpeg binary")

	f.String("source", d.Source, "\"pattern\" or the path of a PNG/JPEG image")
	f.Int("width", d.Width, "Pattern width")
	f.Int("height", d.Height, "Pattern height")

	f.String("status-addr", d.StatusAddr, "Listen address of the status server, empty to disable")

	f.String("log", d.LogLevel, "debug, info, warn, error, fatal, panic")
	f.String("log-format", d.LogFormat, "text or json")
	f.String("log-file", d.LogFile, "Also write logs to this file")
}

// Package peer negotiates a one-to-one WebRTC session with a viewer
// through the signaling relay.
//
// The host captures the rendered surface as a VP8 track (FrameTrack,
// encoded by an external ffmpeg process), optionally adds a microphone
// track and opens a "chat" data channel. Offers go out when the
// signaling channel opens; a viewer_enter notice from the relay replays
// the last offer so late viewers can join the same negotiation.
//
//	s, err := peer.NewSession(peer.Config{
//		Base:    "https://relay.example",
//		Dialer:  &signaling.WebsocketDialer{},
//		Factory: factory,
//		Media:   &peer.SurfaceMedia{Frames: surface, NewEncoder: peer.FFmpegFactory(peer.FFmpegConfig{})},
//	})
//	err = s.Start(ctx, "demo")
//
// Remote ICE candidates that arrive before the answer are held and
// applied after it. Signaling channel closure is a full teardown.
package peer

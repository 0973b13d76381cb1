// Package livehost is the host side of a live video client: it reads
// camera frames, renders them through a configurable filter and
// background compositor, and publishes the result to remote viewers.
//
// Two transports are available. Snapshot streaming pushes encoded stills
// to a relay room over a websocket about every 80 ms and drops frames
// while the socket is congested. Peer sessions negotiate a WebRTC
// connection with one viewer through the same relay, carrying the
// rendered output as a VP8 track plus a chat data channel.
//
// # Getting Started
//
//	host, err := livehost.New(livehost.Options{
//	    Server:     "https://relay.example",
//	    OpenCamera: livehost.SourceCamera(render.NewPatternSource(1280, 720)),
//	    Dialer:     &signaling.WebsocketDialer{},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer host.Shutdown()
//
//	if err := host.StartCamera(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := host.StartStream(ctx, "demo"); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("viewers join at", host.ShareURL())
//
// # Filters
//
// The filter selection is a video.Config value. SetFilter swaps it
// atomically; the render loop reads one snapshot per tick:
//
//	host.SetFilter(video.Config{
//	    Filter:      video.FilterAnime,
//	    Strength:    60,
//	    Background:  video.BackgroundBlur,
//	    MaskEnabled: true,
//	})
//
// With a segment.Provider configured, the processed person is blended
// over the background through the most recent mask. Without one, or with
// MaskEnabled false, the processed frame covers the background entirely.
//
// # Subpackages
//
//   - video: frames, filters, the engine and the compositor
//   - segment: mask cell, throttle and providers
//   - render: the render loop and the shared output surface
//   - signaling: relay wire format, room URLs and websocket channels
//   - snapshot: the periodic still transport
//   - peer: the WebRTC session and local media tracks
//   - config, metrics, limits: settings, Prometheus metrics and size caps
package livehost

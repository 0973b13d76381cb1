package snapshot

import "errors"

var (
	// ErrNotStreaming indicates an operation that needs an open stream.
	ErrNotStreaming = errors.New("snapshot stream not active")

	// ErrNoDialer indicates a transport configured without a dialer.
	ErrNoDialer = errors.New("snapshot transport requires a dialer")

	// ErrNoFrames indicates a transport configured without a frame reader.
	ErrNoFrames = errors.New("snapshot transport requires a frame reader")
)

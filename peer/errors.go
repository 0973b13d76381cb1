package peer

import "errors"

// Sentinel errors for peer session operations.
var (
	// ErrVideoUnavailable indicates the rendered-output track could not be
	// created. Start fails without it.
	ErrVideoUnavailable = errors.New("video track unavailable")

	// ErrMicrophoneUnavailable indicates no audio track could be acquired.
	// The session continues video-only.
	ErrMicrophoneUnavailable = errors.New("microphone unavailable")

	// ErrSignalingUnavailable indicates the signaling channel could not be opened.
	ErrSignalingUnavailable = errors.New("signaling channel unavailable")

	// ErrNoDialer indicates a session configured without a signaling dialer.
	ErrNoDialer = errors.New("peer session requires a signaling dialer")

	// ErrNoFactory indicates a session configured without a peer connection factory.
	ErrNoFactory = errors.New("peer session requires a peer connection factory")

	// ErrNoMedia indicates a session configured without a media source.
	ErrNoMedia = errors.New("peer session requires a media source")

	// ErrEncoderClosed indicates a frame sent to a stopped encoder.
	ErrEncoderClosed = errors.New("encoder closed")
)

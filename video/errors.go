package video

import "errors"

// Sentinel errors for video package operations.
var (
	// ErrNilFrame indicates a nil frame was passed to an effect.
	ErrNilFrame = errors.New("input frame cannot be nil")

	// ErrSizeMismatch indicates frames or buffers of different dimensions.
	ErrSizeMismatch = errors.New("frame size mismatch")

	// ErrUnknownKind indicates an unrecognized filter or background name.
	ErrUnknownKind = errors.New("unknown kind")
)

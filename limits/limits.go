// Package limits provides centralized size limits for the livehost transports.
// This ensures consistent validation across the snapshot and peer components.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxPendingBytes is the outstanding unsent byte count above which the
	// snapshot transport skips a tick instead of queueing another frame (1 MiB).
	MaxPendingBytes = 1 << 20

	// MaxSignalMessage is the largest inbound message accepted on a relay
	// channel. Relays echo room traffic, which includes encoded snapshot
	// frames, so this is sized well above a single data URI.
	MaxSignalMessage = 8 << 20

	// MaxChatText is the longest chat text accepted for sending, in bytes.
	MaxChatText = 2000

	// MaxFrameDimension bounds either side of a frame accepted by the pipeline.
	MaxFrameDimension = 8192
)

var (
	// ErrMessageEmpty indicates an empty message was provided
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("message too large")

	// ErrFrameTooLarge indicates a frame dimension exceeds MaxFrameDimension
	ErrFrameTooLarge = errors.New("frame too large")
)

// ValidateMessageSize validates a message against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateMessageSize(message []byte, maxSize int) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(message), maxSize)
	}
	return nil
}

// ValidateSignalMessage validates an inbound relay message against MaxSignalMessage.
func ValidateSignalMessage(message []byte) error {
	if err := ValidateMessageSize(message, MaxSignalMessage); err != nil {
		return fmt.Errorf("signal message: %w", err)
	}
	return nil
}

// ValidateChatText validates outgoing chat text against MaxChatText.
func ValidateChatText(text string) error {
	if err := ValidateMessageSize([]byte(text), MaxChatText); err != nil {
		return fmt.Errorf("chat text: %w", err)
	}
	return nil
}

// ValidateFrameSize checks that both dimensions are within MaxFrameDimension.
// Zero dimensions are not an error here; callers treat them as "not ready".
func ValidateFrameSize(width, height int) error {
	if width > MaxFrameDimension || height > MaxFrameDimension {
		return fmt.Errorf("%w: %dx%d exceeds %d per side", ErrFrameTooLarge, width, height, MaxFrameDimension)
	}
	return nil
}

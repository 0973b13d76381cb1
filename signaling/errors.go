package signaling

import "errors"

// Sentinel errors for signaling operations.
var (
	// ErrMalformedMessage indicates an inbound message is not valid JSON or
	// lacks a field its type requires.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrUnknownType indicates a message with an unrecognized "t" field.
	ErrUnknownType = errors.New("unknown message type")

	// ErrChannelClosed indicates a send on a closed channel.
	ErrChannelClosed = errors.New("channel closed")

	// ErrSendQueueFull indicates the outbound queue cannot take more messages.
	ErrSendQueueFull = errors.New("send queue full")

	// ErrInvalidRoom indicates a room name that sanitizes to nothing.
	ErrInvalidRoom = errors.New("invalid room name")

	// ErrInvalidURL indicates a relay base URL that cannot be used.
	ErrInvalidURL = errors.New("invalid relay url")
)

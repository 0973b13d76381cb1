// Package limits provides centralized size constants and validation functions
// for the livehost transports.
//
// # Size Limits
//
//   - MaxPendingBytes (1 MiB): the congestion threshold for the snapshot
//     transport. When more than this many bytes are queued but not yet written,
//     the current tick is dropped.
//
//   - MaxSignalMessage (8 MiB): the read limit applied to relay websockets.
//
//   - MaxChatText (2000 bytes): the longest outgoing chat line.
//
//   - MaxFrameDimension (8192): the largest width or height the pipeline accepts.
//
// # Validation Functions
//
//	err := limits.ValidateChatText(text)
//	if errors.Is(err, limits.ErrMessageTooLarge) {
//	    // reject
//	}
package limits

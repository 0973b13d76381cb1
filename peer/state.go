package peer

// State is the host-side negotiation state of a Session.
type State int

const (
	// StateIdle means no session has been started
	StateIdle State = iota
	// StateAwaitingSignal means media is ready and the signaling channel is opening
	StateAwaitingSignal
	// StateNegotiating means an offer was sent and no answer applied yet
	StateNegotiating
	// StateConnected means a remote answer has been applied
	StateConnected
	// StateClosed means the session was stopped or its signaling channel closed
	StateClosed
)

// String returns a lowercase state name for logs and metrics.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSignal:
		return "awaiting_signal"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v3"

	"github.com/opd-ai/livehost/limits"
)

// MessageType is the "t" discriminator of a wire message.
type MessageType string

// Wire message types. Snapshot channels carry f and c; peer signaling
// channels carry offer, answer, ice and sys.
const (
	TypeFrame  MessageType = "f"
	TypeChat   MessageType = "c"
	TypeOffer  MessageType = "offer"
	TypeAnswer MessageType = "answer"
	TypeICE    MessageType = "ice"
	TypeSystem MessageType = "sys"
)

// ViewerEnter is the system notification a relay sends when a viewer joins.
const ViewerEnter = "viewer_enter"

// Message is the JSON object exchanged with the relay. Only the fields
// relevant to Type are set.
type Message struct {
	Type      MessageType              `json:"t"`
	Room      string                   `json:"room,omitempty"`
	Data      string                   `json:"d,omitempty"`
	User      string                   `json:"user,omitempty"`
	Text      string                   `json:"text,omitempty"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
}

// FrameMessage builds a snapshot frame message carrying a data URI.
func FrameMessage(room, dataURI string) Message {
	return Message{Type: TypeFrame, Room: room, Data: dataURI}
}

// ChatMessage builds a chat message.
func ChatMessage(room, user, text string) Message {
	return Message{Type: TypeChat, Room: room, User: user, Text: text}
}

// OfferMessage builds an SDP offer message.
func OfferMessage(sdp string) Message {
	return Message{Type: TypeOffer, SDP: sdp}
}

// AnswerMessage builds an SDP answer message.
func AnswerMessage(sdp string) Message {
	return Message{Type: TypeAnswer, SDP: sdp}
}

// ICEMessage builds a trickle ICE candidate message.
func ICEMessage(c webrtc.ICECandidateInit) Message {
	return Message{Type: TypeICE, Candidate: &c}
}

// SystemMessage builds a relay notification such as ViewerEnter.
func SystemMessage(text string) Message {
	return Message{Type: TypeSystem, Text: text}
}

// IsViewerEnter reports whether m announces a new viewer.
func (m Message) IsViewerEnter() bool {
	return m.Type == TypeSystem && m.Text == ViewerEnter
}

// Encode serializes a message for the wire.
func Encode(m Message) ([]byte, error) {
	if m.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return json.Marshal(m)
}

// Decode parses an inbound message. Unparsable input, oversized input and
// types missing a required field wrap ErrMalformedMessage; unrecognized
// types wrap ErrUnknownType. Callers discard the message on any error.
func Decode(raw []byte) (Message, error) {
	var m Message
	if err := limits.ValidateSignalMessage(raw); err != nil {
		return m, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch m.Type {
	case TypeFrame, TypeChat, TypeSystem, TypeOffer:
	case TypeAnswer:
		if m.SDP == "" {
			return m, fmt.Errorf("%w: answer without sdp", ErrMalformedMessage)
		}
	case TypeICE:
		if m.Candidate == nil {
			return m, fmt.Errorf("%w: ice without candidate", ErrMalformedMessage)
		}
	case "":
		return m, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	default:
		return m, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	return m, nil
}

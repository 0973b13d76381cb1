package signaling

import (
	"strings"
	"testing"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/livehost/limits"
)

func TestEncodeWireFormat(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"frame", FrameMessage("main", "data:image/jpeg;base64,AA=="), `{"t":"f","room":"main","d":"data:image/jpeg;base64,AA=="}`},
		{"chat", ChatMessage("main", "host", "hi"), `{"t":"c","room":"main","user":"host","text":"hi"}`},
		{"offer", OfferMessage("v=0"), `{"t":"offer","sdp":"v=0"}`},
		{"sys", SystemMessage(ViewerEnter), `{"t":"sys","text":"viewer_enter"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}

	_, err := Encode(Message{})
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestEncodeICE(t *testing.T) {
	mid := "0"
	idx := uint16(0)
	data, err := Encode(ICEMessage(webrtc.ICECandidateInit{
		Candidate:     "candidate:1 1 udp 2122260223 192.0.2.1 54321 typ host",
		SDPMid:        &mid,
		SDPMLineIndex: &idx,
	}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"t":"ice"`)
	assert.Contains(t, string(data), `"sdpMid":"0"`)
	assert.Contains(t, string(data), `"sdpMLineIndex":0`)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
		check   func(t *testing.T, m Message)
	}{
		{
			name: "answer",
			raw:  `{"t":"answer","sdp":"v=0\r\n"}`,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, TypeAnswer, m.Type)
				assert.Equal(t, "v=0\r\n", m.SDP)
			},
		},
		{
			name: "ice",
			raw:  `{"t":"ice","candidate":{"candidate":"candidate:abc","sdpMid":"1","sdpMLineIndex":1}}`,
			check: func(t *testing.T, m Message) {
				require.NotNil(t, m.Candidate)
				assert.Equal(t, "candidate:abc", m.Candidate.Candidate)
				assert.Equal(t, "1", *m.Candidate.SDPMid)
			},
		},
		{
			name: "viewer enter",
			raw:  `{"t":"sys","text":"viewer_enter"}`,
			check: func(t *testing.T, m Message) {
				assert.True(t, m.IsViewerEnter())
			},
		},
		{
			name: "chat without user",
			raw:  `{"t":"c","room":"main","text":"hello"}`,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, "", m.User)
				assert.Equal(t, "hello", m.Text)
			},
		},
		{name: "not json", raw: `{"t":`, wantErr: ErrMalformedMessage},
		{name: "empty", raw: ``, wantErr: ErrMalformedMessage},
		{name: "missing type", raw: `{"sdp":"x"}`, wantErr: ErrMalformedMessage},
		{name: "answer without sdp", raw: `{"t":"answer"}`, wantErr: ErrMalformedMessage},
		{name: "ice without candidate", raw: `{"t":"ice"}`, wantErr: ErrMalformedMessage},
		{name: "unknown type", raw: `{"t":"bye"}`, wantErr: ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode([]byte(tt.raw))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}

func TestDecodeOversized(t *testing.T) {
	raw := `{"t":"c","text":"` + strings.Repeat("x", limits.MaxSignalMessage) + `"}`
	_, err := Decode([]byte(raw))
	assert.ErrorIs(t, err, ErrMalformedMessage)
	assert.ErrorIs(t, err, limits.ErrMessageTooLarge)
}

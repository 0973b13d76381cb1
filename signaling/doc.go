// Package signaling implements the relay wire protocol shared by the
// snapshot and peer transports.
//
// Every message is a JSON object discriminated by its "t" field:
//
//	{"t":"f","room":"main","d":"data:image/jpeg;base64,..."}
//	{"t":"c","room":"main","user":"host","text":"hello"}
//	{"t":"offer","sdp":"v=0..."}
//	{"t":"answer","sdp":"v=0..."}
//	{"t":"ice","candidate":{"candidate":"candidate:...","sdpMid":"0","sdpMLineIndex":0}}
//	{"t":"sys","text":"viewer_enter"}
//
// Rooms are sanitized to [A-Za-z0-9_-] before they appear in any address.
// Each room is reached at <ws-origin>/ws/<room>; one-shot chat events use
// <ws-origin>/ws/_events.
//
// Channel abstracts an open relay connection. Conn implements it on top of
// gorilla/websocket with a read pump, a write pump and ping keepalive, and
// tracks queued bytes so callers can apply backpressure.
package signaling

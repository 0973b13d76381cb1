package signaling

import (
	"fmt"
	"net/url"
	"strings"
)

// EventsRoom is the relay path used for one-shot global chat events.
const EventsRoom = "_events"

// SanitizeRoom keeps only ASCII letters, digits, underscore and hyphen.
func SanitizeRoom(room string) string {
	var b strings.Builder
	b.Grow(len(room))
	for i := 0; i < len(room); i++ {
		c := room[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ValidateRoom sanitizes room and rejects names that become empty.
func ValidateRoom(room string) (string, error) {
	clean := SanitizeRoom(room)
	if clean == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoom, room)
	}
	return clean, nil
}

// origin parses base and returns its scheme and host. http and ws map to
// the plain pair, https and wss to the secure pair.
func origin(base string) (secure bool, host string, err error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return false, "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
	case "https", "wss":
		secure = true
	default:
		return false, "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return false, "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, base)
	}
	return secure, u.Host, nil
}

// WebsocketOrigin returns base rewritten to a ws:// or wss:// origin.
func WebsocketOrigin(base string) (string, error) {
	secure, host, err := origin(base)
	if err != nil {
		return "", err
	}
	if secure {
		return "wss://" + host, nil
	}
	return "ws://" + host, nil
}

// HTTPOrigin returns base rewritten to an http:// or https:// origin.
func HTTPOrigin(base string) (string, error) {
	secure, host, err := origin(base)
	if err != nil {
		return "", err
	}
	if secure {
		return "https://" + host, nil
	}
	return "http://" + host, nil
}

// RoomURL returns <ws-origin>/ws/<room> for a sanitized room.
func RoomURL(base, room string) (string, error) {
	clean, err := ValidateRoom(room)
	if err != nil {
		return "", err
	}
	o, err := WebsocketOrigin(base)
	if err != nil {
		return "", err
	}
	return o + "/ws/" + clean, nil
}

// EventsURL returns the one-shot chat events address <ws-origin>/ws/_events.
func EventsURL(base string) (string, error) {
	o, err := WebsocketOrigin(base)
	if err != nil {
		return "", err
	}
	return o + "/ws/" + EventsRoom, nil
}

// LiveURL returns the snapshot viewer page <origin>/live/<room>.
func LiveURL(base, room string) (string, error) {
	clean, err := ValidateRoom(room)
	if err != nil {
		return "", err
	}
	o, err := HTTPOrigin(base)
	if err != nil {
		return "", err
	}
	return o + "/live/" + url.PathEscape(clean), nil
}

// PeerPageURL returns the peer viewer page <origin>/static/livepage.html?room=<room>.
func PeerPageURL(base, room string) (string, error) {
	clean, err := ValidateRoom(room)
	if err != nil {
		return "", err
	}
	o, err := HTTPOrigin(base)
	if err != nil {
		return "", err
	}
	return o + "/static/livepage.html?room=" + url.QueryEscape(clean), nil
}

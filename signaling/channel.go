package signaling

import (
	"context"
	"fmt"
	"time"
)

// Channel is an open, message-oriented connection to the relay.
//
// Send never blocks on the network: payloads are queued and BufferedAmount
// reports how many queued bytes are not yet written. Inbound delivers
// received payloads and is closed when the connection ends. Done is closed
// when the channel is closed by either side. Close is idempotent.
type Channel interface {
	Send(data []byte) error
	BufferedAmount() int
	Inbound() <-chan []byte
	Done() <-chan struct{}
	Close() error
}

// Dialer opens channels. A successful Dial corresponds to the channel
// being open.
type Dialer interface {
	Dial(ctx context.Context, url string) (Channel, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, url string) (Channel, error)

// Dial calls f(ctx, url).
func (f DialerFunc) Dial(ctx context.Context, url string) (Channel, error) {
	return f(ctx, url)
}

// SendMessage encodes m and sends it on ch.
func SendMessage(ch Channel, m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := ch.Send(data); err != nil {
		return fmt.Errorf("send %s message: %w", m.Type, err)
	}
	return nil
}

// drainPoll is how often SendAndClose checks the send buffer.
var drainPoll = 10 * time.Millisecond

// SendAndClose sends m, waits until the channel has flushed its buffer
// or ctx is done, and closes ch. It is used for one-shot deliveries where
// no reply is expected.
func SendAndClose(ctx context.Context, ch Channel, m Message) error {
	defer ch.Close()
	if err := SendMessage(ch, m); err != nil {
		return err
	}
	t := time.NewTicker(drainPoll)
	defer t.Stop()
	for ch.BufferedAmount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch.Done():
			return ErrChannelClosed
		case <-t.C:
		}
	}
	return nil
}

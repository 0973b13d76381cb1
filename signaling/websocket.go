package signaling

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livehost/limits"
)

// connection control
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendQueueSize  = 1024
	inboundBacklog = 64
)

// WebsocketDialer dials relay channels with gorilla/websocket.
type WebsocketDialer struct {
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
	// Header is sent with the handshake request.
	Header http.Header
	Logger *logrus.Entry
}

// Dial implements Dialer.
func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Channel, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := d.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	ws, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	logger.WithFields(logrus.Fields{
		"function": "WebsocketDialer.Dial",
		"url":      url,
	}).Debug("Relay channel open")
	return NewConn(ws, logger), nil
}

// Conn is a Channel over a gorilla websocket connection. A read pump and a
// write pump own the connection's reader and writer respectively.
type Conn struct {
	ws      *websocket.Conn
	send    chan []byte
	inbound chan []byte
	done    chan struct{}
	pending atomic.Int64
	once    sync.Once
	logger  *logrus.Entry
}

// NewConn wraps an established websocket and starts its pumps.
func NewConn(ws *websocket.Conn, logger *logrus.Entry) *Conn {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Conn{
		ws:      ws,
		send:    make(chan []byte, sendQueueSize),
		inbound: make(chan []byte, inboundBacklog),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go c.readPump()
	go c.writePump()
	return c
}

// Send queues data as one text message.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	c.pending.Add(int64(len(data)))
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		c.pending.Add(-int64(len(data)))
		return ErrChannelClosed
	default:
		c.pending.Add(-int64(len(data)))
		return ErrSendQueueFull
	}
}

// BufferedAmount returns the number of queued bytes not yet written.
func (c *Conn) BufferedAmount() int {
	return int(c.pending.Load())
}

// Inbound implements Channel.
func (c *Conn) Inbound() <-chan []byte {
	return c.inbound
}

// Done implements Channel.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame and tears the connection down. It is safe to
// call more than once and from any goroutine.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = c.ws.Close()
	})
	return err
}

// readPump delivers inbound messages until the connection fails.
func (c *Conn) readPump() {
	defer func() {
		close(c.inbound)
		_ = c.Close()
	}()

	c.ws.SetReadLimit(limits.MaxSignalMessage)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			fields := logrus.Fields{
				"function": "Conn.readPump",
				"error":    err.Error(),
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.WithFields(fields).Debug("Relay channel closed unexpectedly")
			} else {
				c.logger.WithFields(fields).Trace("Relay channel closed")
			}
			return
		}
		select {
		case c.inbound <- raw:
		case <-c.done:
			return
		}
	}
}

// writePump writes queued messages and keeps the connection alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.ws.WriteMessage(websocket.TextMessage, msg)
			c.pending.Add(-int64(len(msg)))
			if err != nil {
				c.logger.WithFields(logrus.Fields{
					"function": "Conn.writePump",
					"error":    err.Error(),
				}).Debug("Could not send message")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

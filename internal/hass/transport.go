package hass

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is an ordered, message-oriented duplex channel to the hub.
type Conn interface {
	// Send writes one text message. Safe for concurrent use.
	Send(data []byte) error
	// Receive blocks until the next message or a connection error.
	Receive() ([]byte, error)
	Close() error
}

// Dialer opens connections to the hub.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// WebSocketDialer dials the hub's websocket API with gorilla/websocket.
type WebSocketDialer struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// NewWebSocketDialer returns a dialer with default timeouts.
func NewWebSocketDialer() *WebSocketDialer {
	return &WebSocketDialer{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// Dial implements Dialer.
func (d *WebSocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return &wsConn{conn: conn, writeTimeout: d.WriteTimeout}, nil
}

type wsConn struct {
	writeMu      sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Receive() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

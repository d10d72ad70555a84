package hass

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errFakeClosed = errors.New("fake connection closed")

// fakeConn is an in-memory Conn. Inbound messages are pushed by the test;
// outbound messages are recorded.
type fakeConn struct {
	inbound chan []byte

	mu      sync.Mutex
	sent    [][]byte
	sendErr error

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Receive() ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.closed:
		return nil, errFakeClosed
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(t *testing.T, msg map[string]any) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	c.inbound <- data
}

func (c *fakeConn) sentMessages(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]map[string]any, 0, len(c.sent))
	for _, data := range c.sent {
		var msg map[string]any
		require.NoError(t, json.Unmarshal(data, &msg))
		out = append(out, msg)
	}
	return out
}

// waitSent blocks until at least n messages were sent.
func (c *fakeConn) waitSent(t *testing.T, n int) []map[string]any {
	t.Helper()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.sent) >= n
	}, 2*time.Second, 5*time.Millisecond)
	return c.sentMessages(t)
}

// fakeDialer hands out queued connections in order.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	dials int
}

func newFakeDialer(conns ...*fakeConn) *fakeDialer {
	return &fakeDialer{conns: conns}
}

func (d *fakeDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dials >= len(d.conns) {
		return nil, errors.New("no more connections")
	}
	conn := d.conns[d.dials]
	d.dials++
	return conn, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// recordingSink collects observed states.
type recordingSink struct {
	mu     sync.Mutex
	states []EntityState
}

func (s *recordingSink) Observe(state EntityState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
}

func (s *recordingSink) Observed() []EntityState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EntityState(nil), s.states...)
}

func authRequired() map[string]any {
	return map[string]any{"type": "auth_required", "ha_version": "2024.1.0"}
}

func authOK() map[string]any {
	return map[string]any{"type": "auth_ok", "ha_version": "2024.1.0"}
}

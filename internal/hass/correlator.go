package hass

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Request is an outbound message tagged with its correlation id.
type Request struct {
	ID      int64
	Payload Payload
}

// Type returns the request type used to dispatch its result.
func (r Request) Type() string {
	return r.Payload.Type()
}

// Correlator assigns request ids for one connection and matches results back
// to the requests that caused them. A new Correlator is created per session,
// which abandons anything still pending from the previous one.
type Correlator struct {
	mu      sync.Mutex
	conn    Conn
	lastID  int64
	pending map[int64]Request
}

// NewCorrelator returns a correlator sending over conn. The first id is 1.
func NewCorrelator(conn Conn) *Correlator {
	return &Correlator{
		conn:    conn,
		pending: make(map[int64]Request),
	}
}

// Submit tags payload with the next id, records it as pending and sends it.
// Ids reach the wire in the order they are assigned.
func (c *Correlator) Submit(payload Payload) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastID++
	id := c.lastID

	message := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		message[k] = v
	}
	message["id"] = id

	data, err := json.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("encode %s request: %w", payload.Type(), err)
	}

	c.pending[id] = Request{ID: id, Payload: payload}
	if err := c.conn.Send(data); err != nil {
		delete(c.pending, id)
		return 0, fmt.Errorf("send %s request %d: %w", payload.Type(), id, err)
	}
	return id, nil
}

// Resolve removes and returns the pending request with id. ok is false when
// no such request is tracked.
func (c *Correlator) Resolve(id int64) (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	return req, ok
}

// Pending returns the number of requests awaiting a result.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

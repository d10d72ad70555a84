package players

import (
	"errors"
	"sync"

	"github.com/strefethen/hassbridge-go/internal/hass"
)

type publishRecord struct {
	name    string
	surface *Surface
}

type fakeExporter struct {
	mu         sync.Mutex
	published  []publishRecord
	notified   map[string]int
	lastNotify []string
	publishErr error

	// When set, Publish signals entered and then waits for release.
	entered chan struct{}
	release chan struct{}
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{notified: make(map[string]int)}
}

func (e *fakeExporter) Publish(name string, surface *Surface) error {
	if e.release != nil {
		e.entered <- struct{}{}
		<-e.release
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.published = append(e.published, publishRecord{name: name, surface: surface})
	return e.publishErr
}

func (e *fakeExporter) NotifyChanged(surface *Surface, properties []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notified[surface.EntityID()]++
	e.lastNotify = properties
}

func (e *fakeExporter) Published() []publishRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]publishRecord(nil), e.published...)
}

type serviceCall struct {
	service   string
	entityID  string
	params    map[string]any
	scheduled bool
}

type fakeCommander struct {
	mu    sync.Mutex
	calls []serviceCall
	err   error
}

func (c *fakeCommander) CallService(service, entityID string, params map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, serviceCall{service: service, entityID: entityID, params: params})
	return c.err
}

func (c *fakeCommander) ScheduleService(service, entityID string, params map[string]any) *hass.Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, serviceCall{service: service, entityID: entityID, params: params, scheduled: true})
	return nil
}

func (c *fakeCommander) Calls() []serviceCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]serviceCall(nil), c.calls...)
}

var errNotConnected = errors.New("not connected")

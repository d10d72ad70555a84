package hass

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/strefethen/hassbridge-go/internal/apperrors"
)

// ==========================================================================
// Constants
// ==========================================================================

const (
	// DefaultRetryDelay is the pause between a failed session and the next attempt.
	DefaultRetryDelay = 5 * time.Second

	// OutboxSize bounds the number of fire-and-forget calls waiting to be sent.
	OutboxSize = 64
)

// ==========================================================================
// Options and Status
// ==========================================================================

// Options configures a Client.
type Options struct {
	// Endpoint is the websocket URL, e.g. ws://hass.local:8123/api/websocket.
	Endpoint string
	Token    string
	// RetryDelay defaults to DefaultRetryDelay.
	RetryDelay time.Duration
	// ResyncSchedule is a cron spec for periodic get_states. Empty disables it.
	ResyncSchedule string
}

// Status is a point-in-time view of the client's connection.
type Status struct {
	Connected       bool       `json:"connected"`
	SessionID       string     `json:"session_id,omitempty"`
	HAVersion       string     `json:"ha_version,omitempty"`
	ConnectedAt     *time.Time `json:"connected_at,omitempty"`
	SessionsStarted int        `json:"sessions_started"`
	Failures        int        `json:"failures"`
	LastError       string     `json:"last_error,omitempty"`
	LastErrorAt     *time.Time `json:"last_error_at,omitempty"`
	PendingRequests int        `json:"pending_requests"`
}

// ==========================================================================
// Call
// ==========================================================================

// Call tracks a fire-and-forget service call. Callers may ignore it.
type Call struct {
	done chan struct{}
	id   int64
	err  error
}

func newCall() *Call {
	return &Call{done: make(chan struct{})}
}

func (c *Call) finish(id int64, err error) {
	c.id = id
	c.err = err
	close(c.done)
}

// Done is closed once the call has been sent or has failed to send.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Err reports the send error. Only valid after Done is closed.
func (c *Call) Err() error {
	return c.err
}

// ID is the request id assigned to the call. Only valid after Done is closed.
func (c *Call) ID() int64 {
	return c.id
}

type outboundCall struct {
	payload Payload
	call    *Call
}

// ==========================================================================
// Client
// ==========================================================================

// Client keeps a session with the hub alive. Each failed session is followed
// by RetryDelay and a brand-new session; nothing carries over between them.
type Client struct {
	opts   Options
	dialer Dialer
	log    zerolog.Logger

	// wait pauses between sessions. Replaced in tests.
	wait func(ctx context.Context, d time.Duration) error

	outbox chan outboundCall

	mu      sync.RWMutex
	current *Session
	status  Status
}

// NewClient creates a client. Run must be called to connect.
func NewClient(opts Options, dialer Dialer, log zerolog.Logger) *Client {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Client{
		opts:   opts,
		dialer: dialer,
		log:    log,
		wait:   sleepContext,
		outbox: make(chan outboundCall, OutboxSize),
	}
}

// Run connects, operates and reconnects until ctx is cancelled. States of
// media players seen by any session are delivered to sink.
func (c *Client) Run(ctx context.Context, sink StateSink) error {
	if c.opts.ResyncSchedule != "" {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(c.opts.ResyncSchedule, c.Resync); err != nil {
			return apperrors.Wrap(apperrors.ErrorCodeConfigError, "invalid resync schedule", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.drainOutbox(ctx)
	}()
	defer wg.Wait()

	for {
		err := c.runSession(ctx, sink)
		if ctx.Err() != nil {
			c.log.Info().Msg("Hub client stopped")
			return nil
		}
		c.recordFailure(err)
		c.log.Error().Err(err).Dur("retry_in", c.opts.RetryDelay).Msg("Session ended, reconnecting")

		if err := c.wait(ctx, c.opts.RetryDelay); err != nil {
			c.log.Info().Msg("Hub client stopped")
			return nil
		}
	}
}

func (c *Client) runSession(ctx context.Context, sink StateSink) error {
	c.log.Info().Str("endpoint", c.opts.Endpoint).Msg("Connecting to Home Assistant")
	conn, err := c.dialer.Dial(ctx, c.opts.Endpoint)
	if err != nil {
		return apperrors.NewConnectionLost(err)
	}
	defer conn.Close()

	session := newSession(conn, c.opts.Token, sink, c.log)

	c.mu.Lock()
	c.status.SessionsStarted++
	c.mu.Unlock()

	if err := session.start(ctx); err != nil {
		return err
	}

	now := time.Now()
	c.mu.Lock()
	c.current = session
	c.status.Connected = true
	c.status.SessionID = session.ID
	c.status.HAVersion = session.handshake.HAVersion()
	c.status.ConnectedAt = &now
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.current = nil
		c.status.Connected = false
		c.status.SessionID = ""
		c.status.ConnectedAt = nil
		c.mu.Unlock()
	}()

	return session.serve(ctx)
}

func (c *Client) recordFailure(err error) {
	if err == nil {
		err = errors.New("session closed")
	}
	now := time.Now()
	c.mu.Lock()
	c.status.Failures++
	c.status.LastError = err.Error()
	c.status.LastErrorAt = &now
	c.mu.Unlock()
}

// Status returns a snapshot of the connection state.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := c.status
	if c.current != nil {
		status.PendingRequests = c.current.Pending()
	}
	return status
}

// Submit sends payload on the current session. It fails with NOT_CONNECTED
// when no session is ready.
func (c *Client) Submit(payload Payload) (int64, error) {
	c.mu.RLock()
	session := c.current
	c.mu.RUnlock()

	if session == nil {
		return 0, apperrors.NewNotConnectedError()
	}
	return session.Submit(payload)
}

// CallService invokes a media_player service for entityID. The request is sent
// before returning but its result is not awaited.
func (c *Client) CallService(service, entityID string, params map[string]any) error {
	id, err := c.Submit(CallServicePayload(service, entityID, params))
	if err != nil {
		return err
	}
	c.log.Debug().Int64("request_id", id).Str("service", service).Str("entity_id", entityID).Msg("Called service")
	return nil
}

// ScheduleService queues a service call and returns without waiting for it
// to be sent. Queued calls go out in the order they were scheduled.
func (c *Client) ScheduleService(service, entityID string, params map[string]any) *Call {
	call := newCall()
	item := outboundCall{payload: CallServicePayload(service, entityID, params), call: call}

	select {
	case c.outbox <- item:
	default:
		c.log.Warn().Str("service", service).Str("entity_id", entityID).Msg("Outbox full, dropping call")
		call.finish(0, apperrors.NewAppError(apperrors.ErrorCodeRemoteCallFailed, "outbox full", 503, nil))
	}
	return call
}

func (c *Client) drainOutbox(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.abandonOutbox()
			return
		case item := <-c.outbox:
			id, err := c.Submit(item.payload)
			if err != nil {
				c.log.Warn().Err(err).Str("type", item.payload.Type()).Msg("Scheduled call not sent")
			}
			item.call.finish(id, err)
		}
	}
}

// abandonOutbox fails every call still queued when the client stops.
func (c *Client) abandonOutbox() {
	for {
		select {
		case item := <-c.outbox:
			item.call.finish(0, apperrors.NewNotConnectedError())
		default:
			return
		}
	}
}

// Resync requests the current states of all entities. Playing players found
// in the result are added or refreshed.
func (c *Client) Resync() {
	id, err := c.Submit(GetStatesPayload())
	if err != nil {
		c.log.Debug().Err(err).Msg("Skipping resync")
		return
	}
	c.log.Debug().Int64("request_id", id).Msg("Requested state resync")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

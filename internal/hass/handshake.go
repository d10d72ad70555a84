package hass

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/strefethen/hassbridge-go/internal/apperrors"
)

// HandshakeState tracks session setup. Transitions are strictly forward.
type HandshakeState int

const (
	StateAwaitingAuthChallenge HandshakeState = iota
	StateAuthenticating
	StateSubscribed
	StateSyncing
	StateReady
)

func (s HandshakeState) String() string {
	switch s {
	case StateAwaitingAuthChallenge:
		return "awaiting_auth_challenge"
	case StateAuthenticating:
		return "authenticating"
	case StateSubscribed:
		return "subscribed"
	case StateSyncing:
		return "syncing"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Handshake authenticates a fresh connection and issues the initial
// subscription and state listing. Their results are not awaited; they arrive
// through the Router once the session is ready.
type Handshake struct {
	conn       Conn
	correlator *Correlator
	token      string
	log        zerolog.Logger

	state     HandshakeState
	haVersion string
}

func NewHandshake(conn Conn, correlator *Correlator, token string, log zerolog.Logger) *Handshake {
	return &Handshake{
		conn:       conn,
		correlator: correlator,
		token:      token,
		log:        log,
		state:      StateAwaitingAuthChallenge,
	}
}

// State returns the current handshake state.
func (h *Handshake) State() HandshakeState {
	return h.state
}

// HAVersion is the hub version reported by auth_ok.
func (h *Handshake) HAVersion() string {
	return h.haVersion
}

// Run drives the handshake to StateReady. Any unexpected message or an
// auth_invalid reply fails the whole session.
func (h *Handshake) Run() error {
	challenge, err := h.receive()
	if err != nil {
		return err
	}
	if challenge.Type != TypeAuthRequired {
		return apperrors.NewProtocolViolation("expected auth_required", map[string]any{
			"state": h.state.String(),
			"type":  challenge.Type,
		})
	}

	auth, err := json.Marshal(AuthMessage{Type: TypeAuth, AccessToken: h.token})
	if err != nil {
		return fmt.Errorf("encode auth: %w", err)
	}
	if err := h.conn.Send(auth); err != nil {
		return apperrors.NewConnectionLost(err)
	}
	h.advance(StateAuthenticating)

	reply, err := h.receive()
	if err != nil {
		return err
	}
	switch reply.Type {
	case TypeAuthOK:
		h.haVersion = reply.HAVersion
		h.log.Info().Str("ha_version", reply.HAVersion).Msg("Authenticated to Home Assistant")
	case TypeAuthInvalid:
		return apperrors.NewAuthInvalidError("invalid access token: " + reply.Message)
	default:
		return apperrors.NewProtocolViolation("expected auth_ok or auth_invalid", map[string]any{
			"state": h.state.String(),
			"type":  reply.Type,
		})
	}

	h.log.Debug().Msg("Subscribing to state_changed events")
	if _, err := h.correlator.Submit(SubscribeEventsPayload()); err != nil {
		return apperrors.NewConnectionLost(err)
	}
	h.advance(StateSubscribed)

	h.log.Debug().Msg("Requesting current states to find playing players")
	if _, err := h.correlator.Submit(GetStatesPayload()); err != nil {
		return apperrors.NewConnectionLost(err)
	}
	h.advance(StateSyncing)

	h.advance(StateReady)
	return nil
}

func (h *Handshake) advance(next HandshakeState) {
	if next <= h.state {
		return
	}
	h.log.Debug().Str("from", h.state.String()).Str("to", next.String()).Msg("Handshake state change")
	h.state = next
}

func (h *Handshake) receive() (*IncomingMessage, error) {
	data, err := h.conn.Receive()
	if err != nil {
		return nil, apperrors.NewConnectionLost(err)
	}
	var msg IncomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, apperrors.NewProtocolViolation("malformed handshake message", map[string]any{
			"state":   h.state.String(),
			"payload": string(data),
		})
	}
	return &msg, nil
}

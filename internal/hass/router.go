package hass

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// StateSink receives media player states forwarded by the Router.
type StateSink interface {
	Observe(state EntityState)
}

// Router classifies inbound messages as events or results and dispatches
// them. It never fails: malformed and unknown messages are logged and dropped.
type Router struct {
	correlator *Correlator
	sink       StateSink
	log        zerolog.Logger
}

func NewRouter(correlator *Correlator, sink StateSink, log zerolog.Logger) *Router {
	return &Router{
		correlator: correlator,
		sink:       sink,
		log:        log,
	}
}

// Handle processes one inbound message to completion.
func (r *Router) Handle(data []byte) {
	var msg IncomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		r.log.Warn().Err(err).Str("payload", string(data)).Msg("Failed to parse hub message")
		return
	}

	switch msg.Type {
	case TypeEvent:
		r.handleEvent(&msg)
	case TypeResult:
		r.handleResult(&msg)
	default:
		r.log.Debug().Str("type", msg.Type).Msg("Ignoring message of unknown type")
	}
}

func (r *Router) handleEvent(msg *IncomingMessage) {
	if msg.Event == nil || msg.Event.EventType != EventStateChanged {
		return
	}
	data := msg.Event.Data
	if !IsMediaPlayer(data.EntityID) {
		return
	}
	if data.NewState == nil {
		r.log.Debug().Str("entity_id", data.EntityID).Msg("Player removed from hub, keeping last known state")
		return
	}

	state := *data.NewState
	if state.EntityID == "" {
		state.EntityID = data.EntityID
	}
	r.log.Debug().Str("entity_id", state.EntityID).Str("state", state.State).Msg("Player state changed")
	r.sink.Observe(state)
}

func (r *Router) handleResult(msg *IncomingMessage) {
	req, ok := r.correlator.Resolve(msg.ID)
	if !ok {
		r.log.Error().Int64("request_id", msg.ID).Msg("Got result for unknown request")
		return
	}
	log := r.log.With().Int64("request_id", req.ID).Str("request_type", req.Type()).Logger()

	if !msg.Success {
		log.Error().
			Str("error", msg.Error.String()).
			Interface("request", req.Payload).
			Msg("Hub call failed")
		return
	}
	if !msg.HasResult() {
		log.Debug().Msg("Result has no body, ignoring")
		return
	}

	switch req.Type() {
	case TypeGetStates:
		r.handleGetStatesResult(log, msg.Result)
	case TypeCallService:
		// Acknowledgment only; the service already ran.
	default:
		log.Warn().Msg("Unhandled request type")
	}
}

func (r *Router) handleGetStatesResult(log zerolog.Logger, body json.RawMessage) {
	var states []EntityState
	if err := json.Unmarshal(body, &states); err != nil {
		log.Error().Err(err).Msg("Failed to parse get_states result")
		return
	}

	for _, state := range states {
		if !IsMediaPlayer(state.EntityID) || state.State != StatePlaying {
			continue
		}
		log.Debug().Str("entity_id", state.EntityID).Msg("Player already playing, adding/updating")
		r.sink.Observe(state)
	}
}

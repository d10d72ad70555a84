package hass

import (
	"encoding/json"
	"strings"
)

// Message types of the Home Assistant websocket API.
const (
	TypeAuthRequired    = "auth_required"
	TypeAuth            = "auth"
	TypeAuthOK          = "auth_ok"
	TypeAuthInvalid     = "auth_invalid"
	TypeResult          = "result"
	TypeEvent           = "event"
	TypeSubscribeEvents = "subscribe_events"
	TypeGetStates       = "get_states"
	TypeCallService     = "call_service"
)

const (
	EventStateChanged = "state_changed"

	// MediaPlayerDomain is the only entity domain the bridge renders.
	MediaPlayerDomain = "media_player"

	StatePlaying = "playing"
)

// IsMediaPlayer reports whether entityID is namespaced under media_player.
func IsMediaPlayer(entityID string) bool {
	return strings.HasPrefix(entityID, MediaPlayerDomain+".")
}

// --- Outgoing messages (bridge → hub) ---

// Payload is the body of an outbound request without its id. The "type" key
// is always present.
type Payload map[string]any

// Type returns the request type.
func (p Payload) Type() string {
	t, _ := p["type"].(string)
	return t
}

// AuthMessage answers auth_required. It is not correlated.
type AuthMessage struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
}

func SubscribeEventsPayload() Payload {
	return Payload{"type": TypeSubscribeEvents, "event_type": EventStateChanged}
}

func GetStatesPayload() Payload {
	return Payload{"type": TypeGetStates}
}

// CallServicePayload addresses a media_player service at entityID. params are
// merged into service_data.
func CallServicePayload(service, entityID string, params map[string]any) Payload {
	data := map[string]any{"entity_id": entityID}
	for k, v := range params {
		data[k] = v
	}
	return Payload{
		"type":         TypeCallService,
		"domain":       MediaPlayerDomain,
		"service":      service,
		"service_data": data,
	}
}

// --- Incoming messages (hub → bridge) ---

// IncomingMessage is the union of every inbound shape. Fields are populated
// according to Type.
type IncomingMessage struct {
	Type      string          `json:"type"`
	ID        int64           `json:"id,omitempty"`
	HAVersion string          `json:"ha_version,omitempty"`
	Message   string          `json:"message,omitempty"`
	Success   bool            `json:"success"`
	Error     *ResultError    `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Event     *Event          `json:"event,omitempty"`
}

// HasResult reports whether a result body is present and not null.
func (m *IncomingMessage) HasResult() bool {
	trimmed := strings.TrimSpace(string(m.Result))
	return trimmed != "" && trimmed != "null"
}

// ResultError is the error object of a failed result.
type ResultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ResultError) String() string {
	if e == nil {
		return "unknown error"
	}
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// Event is the inner payload of an event message.
type Event struct {
	EventType string           `json:"event_type"`
	Data      StateChangedData `json:"data"`
	TimeFired string           `json:"time_fired,omitempty"`
}

// StateChangedData carries the entity's new and old state. NewState is nil
// when the entity was removed.
type StateChangedData struct {
	EntityID string       `json:"entity_id"`
	NewState *EntityState `json:"new_state"`
	OldState *EntityState `json:"old_state"`
}

// EntityState is one entity as returned by get_states or state_changed.
type EntityState struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged string         `json:"last_changed,omitempty"`
	LastUpdated string         `json:"last_updated,omitempty"`
}

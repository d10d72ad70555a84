// Package translate maps Home Assistant media_player attribute bags onto the
// MPRIS property model and MPRIS invocations back onto hub service calls.
// Every function here is pure.
package translate

import (
	"encoding/json"
	"math"
	"strconv"
)

// Snapshot is an immutable view of one entity's state as last reported by the
// hub: the top-level state fields merged with the nested attributes.
type Snapshot struct {
	entityID string
	attrs    map[string]any
}

// NewSnapshot merges the top-level state string with attributes. Attributes
// win on key collisions. The input map is copied.
func NewSnapshot(entityID, state string, attributes map[string]any) Snapshot {
	attrs := make(map[string]any, len(attributes)+2)
	attrs["entity_id"] = entityID
	attrs["state"] = state
	for k, v := range attributes {
		attrs[k] = v
	}
	return Snapshot{entityID: entityID, attrs: attrs}
}

func (s Snapshot) EntityID() string {
	return s.entityID
}

// State is the raw hub state string, e.g. "playing".
func (s Snapshot) State() string {
	val, _ := s.String("state")
	return val
}

// Has reports whether key is present and non-null.
func (s Snapshot) Has(key string) bool {
	val, ok := s.attrs[key]
	return ok && val != nil
}

// String returns the value under key if it is a string.
func (s Snapshot) String(key string) (string, bool) {
	val, ok := s.attrs[key].(string)
	return val, ok
}

// Float returns the value under key as a float64. Strings holding numbers are
// accepted since some integrations report numeric attributes as text.
func (s Snapshot) Float(key string) (float64, bool) {
	switch val := s.attrs[key].(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int returns the value under key truncated to an int64.
func (s Snapshot) Int(key string) (int64, bool) {
	f, ok := s.Float(key)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func (s Snapshot) Bool(key string) (bool, bool) {
	val, ok := s.attrs[key].(bool)
	return val, ok
}

// Attributes returns a copy of the merged attribute bag.
func (s Snapshot) Attributes() map[string]any {
	out := make(map[string]any, len(s.attrs))
	for k, v := range s.attrs {
		out[k] = v
	}
	return out
}

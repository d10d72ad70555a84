package players

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/strefethen/hassbridge-go/internal/hass"
	"github.com/strefethen/hassbridge-go/internal/translate"
)

// BusNamePrefix is prepended to the sanitized entity id to form a bus name.
const BusNamePrefix = "org.mpris.MediaPlayer2.hassbridge."

// DefaultIdentity is shown for players without a friendly name.
const DefaultIdentity = "Home-assistant bridge"

// Exporter publishes surfaces on the local control-protocol bus.
type Exporter interface {
	// Publish makes surface addressable under name. It is called once per surface.
	Publish(name string, surface *Surface) error
	// NotifyChanged tells listeners that properties may have new values.
	NotifyChanged(surface *Surface, properties []string)
}

// Options configures surfaces created by a Registry.
type Options struct {
	// BaseURL is the hub's HTTP base, used to absolutize artwork paths.
	BaseURL  string
	Identity string
}

// Registry maps entity ids to their surfaces. Entries are never removed.
type Registry struct {
	commander Commander
	exporter  Exporter
	opts      Options
	log       zerolog.Logger

	mu       sync.Mutex
	surfaces map[string]*Surface
}

// NewRegistry returns an empty registry.
func NewRegistry(commander Commander, exporter Exporter, opts Options, log zerolog.Logger) *Registry {
	if opts.Identity == "" {
		opts.Identity = DefaultIdentity
	}
	return &Registry{
		commander: commander,
		exporter:  exporter,
		opts:      opts,
		log:       log,
		surfaces:  make(map[string]*Surface),
	}
}

// Observe records a new state for a media player, publishing its surface the
// first time the entity is seen. All mapped properties are signalled on every
// update.
func (r *Registry) Observe(state hass.EntityState) {
	if state.EntityID == "" {
		r.log.Warn().Msg("Ignoring state without entity id")
		return
	}

	surface := r.getOrCreate(state.EntityID)
	surface.update(translate.NewSnapshot(state.EntityID, state.State, state.Attributes))
	r.exporter.NotifyChanged(surface, translate.PlayerPropertyNames)
}

// getOrCreate is the only place surfaces are created and published. The map
// entry is reserved under the lock; publishing happens after it is released
// so lookups are not held up by the bus.
func (r *Registry) getOrCreate(entityID string) *Surface {
	r.mu.Lock()
	surface, ok := r.surfaces[entityID]
	if !ok {
		surface = newSurface(entityID, r.commander, r.opts, r.log)
		r.surfaces[entityID] = surface
	}
	r.mu.Unlock()

	if ok {
		return surface
	}

	r.log.Info().Str("entity_id", entityID).Str("bus_name", surface.BusName()).Msg("Creating interface for new player")
	if err := r.exporter.Publish(surface.BusName(), surface); err != nil {
		r.log.Error().Err(err).Str("entity_id", entityID).Msg("Failed to publish player")
	}
	return surface
}

// Get returns the surface for entityID.
func (r *Registry) Get(entityID string) (*Surface, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	surface, ok := r.surfaces[entityID]
	return surface, ok
}

// List returns all surfaces ordered by entity id.
func (r *Registry) List() []*Surface {
	r.mu.Lock()
	surfaces := make([]*Surface, 0, len(r.surfaces))
	for _, surface := range r.surfaces {
		surfaces = append(surfaces, surface)
	}
	r.mu.Unlock()

	sort.Slice(surfaces, func(i, j int) bool {
		return surfaces[i].entityID < surfaces[j].entityID
	})
	return surfaces
}

// Len returns the number of known players.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.surfaces)
}

// BusName derives the well-known bus name for entityID. The result is stable
// and every element is a valid bus name element.
func BusName(entityID string) string {
	elements := strings.Split(entityID, ".")
	for i, element := range elements {
		elements[i] = sanitizeBusElement(element)
	}
	return BusNamePrefix + strings.Join(elements, ".")
}

func sanitizeBusElement(element string) string {
	if element == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range element {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

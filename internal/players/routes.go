package players

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/hassbridge-go/internal/api"
	"github.com/strefethen/hassbridge-go/internal/apperrors"
	"github.com/strefethen/hassbridge-go/internal/translate"
)

// RegisterRoutes wires player routes to the router.
func RegisterRoutes(router chi.Router, registry *Registry) {
	router.Method(http.MethodGet, "/v1/players", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		surfaces := registry.List()
		formatted := make([]map[string]any, 0, len(surfaces))
		for _, surface := range surfaces {
			formatted = append(formatted, formatPlayer(surface))
		}
		return api.WriteList(w, "/v1/players", formatted, false)
	}))

	router.Method(http.MethodGet, "/v1/players/{entity_id}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		surface, err := lookup(registry, r)
		if err != nil {
			return err
		}
		return api.WriteResource(w, http.StatusOK, formatPlayer(surface))
	}))

	router.Method(http.MethodPost, "/v1/players/{entity_id}/commands/{command}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		surface, err := lookup(registry, r)
		if err != nil {
			return err
		}
		command := translate.Command(chi.URLParam(r, "command"))
		if err := surface.Command(command); err != nil {
			return err
		}
		return api.WriteAction(w, http.StatusAccepted, map[string]any{
			"object":    "command",
			"entity_id": surface.EntityID(),
			"command":   string(command),
			"status":    "sent",
		})
	}))
}

func lookup(registry *Registry, r *http.Request) (*Surface, error) {
	entityID := chi.URLParam(r, "entity_id")
	surface, ok := registry.Get(entityID)
	if !ok {
		return nil, apperrors.NewNotFoundResource("Player", entityID)
	}
	return surface, nil
}

func formatPlayer(surface *Surface) map[string]any {
	props := surface.Properties()
	updatedAt, updates := surface.UpdatedAt()

	metadata := map[string]any{
		"trackid": props.Metadata.TrackID,
		"length":  props.Metadata.Length,
	}
	if props.Metadata.Title != "" {
		metadata["title"] = props.Metadata.Title
	}
	if props.Metadata.Artist != "" {
		metadata["artist"] = props.Metadata.Artist
	}
	if props.Metadata.Album != "" {
		metadata["album"] = props.Metadata.Album
	}
	if props.Metadata.ArtURL != "" {
		metadata["art_url"] = props.Metadata.ArtURL
	}

	result := map[string]any{
		"object":          "player",
		"entity_id":       surface.EntityID(),
		"bus_name":        surface.BusName(),
		"identity":        surface.Identity(),
		"playback_status": props.PlaybackStatus,
		"loop_status":     props.LoopStatus,
		"shuffle":         props.Shuffle,
		"volume":          props.Volume,
		"position_us":     props.Position,
		"rate":            props.Rate,
		"metadata":        metadata,
		"capabilities": map[string]any{
			"can_play":        props.CanPlay,
			"can_pause":       props.CanPause,
			"can_seek":        props.CanSeek,
			"can_go_next":     props.CanGoNext,
			"can_go_previous": props.CanGoPrevious,
			"can_control":     props.CanControl,
		},
		"updates": updates,
	}
	if updates > 0 {
		result["updated_at"] = updatedAt.UTC().Format(time.RFC3339)
	} else {
		result["updated_at"] = nil
	}
	return result
}

package players

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/strefethen/hassbridge-go/internal/apperrors"
	"github.com/strefethen/hassbridge-go/internal/hass"
	"github.com/strefethen/hassbridge-go/internal/translate"
)

// Commander issues hub service calls on behalf of a surface.
type Commander interface {
	// CallService sends the call before returning but does not await its result.
	CallService(service, entityID string, params map[string]any) error
	// ScheduleService returns immediately; the call is sent in the background.
	ScheduleService(service, entityID string, params map[string]any) *hass.Call
}

// Surface is the control surface of one hub media player. It is created once,
// on first observation, and lives for the rest of the process.
type Surface struct {
	entityID  string
	busName   string
	baseURL   string
	identity  string
	commander Commander
	log       zerolog.Logger

	mu           sync.RWMutex
	snapshot     translate.Snapshot
	props        translate.PlayerProperties
	lastPosition float64
	updatedAt    time.Time
	updates      int
}

func newSurface(entityID string, commander Commander, opts Options, log zerolog.Logger) *Surface {
	return &Surface{
		entityID:  entityID,
		busName:   BusName(entityID),
		baseURL:   opts.BaseURL,
		identity:  opts.Identity,
		commander: commander,
		log:       log.With().Str("entity_id", entityID).Logger(),
		snapshot:  translate.NewSnapshot(entityID, "", nil),
		props: translate.PlayerProperties{
			PlaybackStatus: translate.StatusStopped,
			LoopStatus:     translate.LoopNone,
			Rate:           translate.FixedRate,
			MinimumRate:    translate.FixedRate,
			MaximumRate:    translate.FixedRate,
			Metadata:       translate.Metadata{TrackID: translate.NoTrackID},
		},
	}
}

// EntityID is the hub entity this surface renders.
func (s *Surface) EntityID() string { return s.entityID }

// BusName is the name the surface is published under.
func (s *Surface) BusName() string { return s.busName }

// update replaces the snapshot wholesale and re-renders every property. An
// unmapped repeat value keeps the previous LoopStatus.
func (s *Surface) update(snapshot translate.Snapshot) {
	props, err := translate.Properties(snapshot, s.baseURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to map player attribute")
		props.LoopStatus = s.props.LoopStatus
	}
	s.snapshot = snapshot
	s.props = props
	s.lastPosition = translate.PositionSeconds(snapshot)
	s.updatedAt = time.Now()
	s.updates++
}

// Properties returns the rendered control-protocol properties.
func (s *Surface) Properties() translate.PlayerProperties {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.props
}

// Snapshot returns the last attribute bag received from the hub.
func (s *Surface) Snapshot() translate.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// UpdatedAt is the time of the last update and the number of updates so far.
func (s *Surface) UpdatedAt() (time.Time, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt, s.updates
}

// Identity is the friendly name shown by media controllers.
func (s *Surface) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name, ok := s.snapshot.String("friendly_name"); ok && name != "" {
		return name + " (Home Assistant)"
	}
	return s.identity
}

// --- Commands ---

func (s *Surface) Play() error      { return s.command(translate.CommandPlay) }
func (s *Surface) Pause() error     { return s.command(translate.CommandPause) }
func (s *Surface) PlayPause() error { return s.command(translate.CommandPlayPause) }
func (s *Surface) Stop() error      { return s.command(translate.CommandStop) }
func (s *Surface) Next() error      { return s.command(translate.CommandNext) }
func (s *Surface) Previous() error  { return s.command(translate.CommandPrevious) }

// Command invokes cmd by name, e.g. from the status API.
func (s *Surface) Command(cmd translate.Command) error {
	return s.command(cmd)
}

func (s *Surface) command(cmd translate.Command) error {
	call, ok := translate.CommandCall(cmd)
	if !ok {
		return apperrors.NewNotSupportedError(string(cmd))
	}
	s.log.Debug().Str("command", string(cmd)).Msg("Forwarding command")
	return s.commander.CallService(call.Service, s.entityID, call.Params)
}

// Seek moves by offset microseconds relative to the last reported position.
// The target is not clamped.
func (s *Surface) Seek(offset int64) {
	s.mu.RLock()
	last := s.lastPosition
	s.mu.RUnlock()

	s.schedule(translate.SeekByOffset(last, offset))
}

// SetPosition seeks to an absolute position in microseconds. trackID is not
// checked against the current track.
func (s *Surface) SetPosition(trackID string, position int64) {
	s.schedule(translate.SetPosition(position))
}

func (s *Surface) SetVolume(volume float64) {
	s.schedule(translate.SetVolume(volume))
}

func (s *Surface) SetShuffle(shuffle bool) {
	s.schedule(translate.SetShuffle(shuffle))
}

// SetLoopStatus fails only when loop is not a known loop status.
func (s *Surface) SetLoopStatus(loop string) error {
	call, err := translate.SetLoopStatus(loop)
	if err != nil {
		return err
	}
	s.schedule(call)
	return nil
}

// OpenURI is not supported.
func (s *Surface) OpenURI(uri string) error {
	return apperrors.NewNotSupportedError("OpenUri")
}

// schedule sends call without waiting. The new value shows up once the hub
// reports the change.
func (s *Surface) schedule(call translate.ServiceCall) {
	s.log.Debug().Str("service", call.Service).Interface("params", call.Params).Msg("Scheduling service call")
	_ = s.commander.ScheduleService(call.Service, s.entityID, call.Params)
}

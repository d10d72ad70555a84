package translate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/strefethen/hassbridge-go/internal/apperrors"
)

// MPRIS property names on org.mpris.MediaPlayer2.Player.
const (
	PropPlaybackStatus = "PlaybackStatus"
	PropLoopStatus     = "LoopStatus"
	PropRate           = "Rate"
	PropShuffle        = "Shuffle"
	PropMetadata       = "Metadata"
	PropVolume         = "Volume"
	PropPosition       = "Position"
	PropMinimumRate    = "MinimumRate"
	PropMaximumRate    = "MaximumRate"
	PropCanGoNext      = "CanGoNext"
	PropCanGoPrevious  = "CanGoPrevious"
	PropCanPlay        = "CanPlay"
	PropCanPause       = "CanPause"
	PropCanSeek        = "CanSeek"
	PropCanControl     = "CanControl"
)

// PlayerPropertyNames lists every mapped property. Updates signal all of them.
var PlayerPropertyNames = []string{
	PropPlaybackStatus,
	PropLoopStatus,
	PropRate,
	PropShuffle,
	PropMetadata,
	PropVolume,
	PropPosition,
	PropMinimumRate,
	PropMaximumRate,
	PropCanGoNext,
	PropCanGoPrevious,
	PropCanPlay,
	PropCanPause,
	PropCanSeek,
	PropCanControl,
}

// Playback status vocabulary.
const (
	StatusPlaying = "Playing"
	StatusPaused  = "Paused"
	StatusStopped = "Stopped"
)

// Loop status vocabulary.
const (
	LoopNone     = "None"
	LoopTrack    = "Track"
	LoopPlaylist = "Playlist"
)

// FixedRate is the only playback rate the bridge exposes.
const FixedRate = 1.0

// MicrosPerSecond converts hub seconds to MPRIS microseconds.
const MicrosPerSecond = 1_000_000

var loopStatusMap = map[string]string{
	"off": LoopNone,
	"all": LoopPlaylist,
	"one": LoopTrack,
}

var repeatModeMap = map[string]string{
	LoopNone:     "off",
	LoopPlaylist: "all",
	LoopTrack:    "one",
}

// Feature bits of the hub's supported_features field.
const (
	FeaturePause         int64 = 1
	FeatureSeek          int64 = 2
	FeatureVolumeSet     int64 = 4
	FeatureVolumeMute    int64 = 8
	FeaturePreviousTrack int64 = 16
	FeatureNextTrack     int64 = 32
	FeatureShuffleSet    int64 = 32768
	FeatureRepeatSet     int64 = 262144
)

// Capabilities are the Can* properties.
type Capabilities struct {
	CanGoNext     bool
	CanGoPrevious bool
	CanPlay       bool
	CanPause      bool
	CanSeek       bool
	CanControl    bool
}

// PlayerProperties is the full read-path rendering of one Snapshot.
type PlayerProperties struct {
	PlaybackStatus string
	LoopStatus     string
	Rate           float64
	MinimumRate    float64
	MaximumRate    float64
	Shuffle        bool
	Volume         float64
	Position       int64
	Metadata       Metadata
	Capabilities
}

// Properties renders s. A repeat value outside the loop table yields a mapping
// error; the other properties are still filled in and LoopStatus is left empty.
func Properties(s Snapshot, baseURL string) (PlayerProperties, error) {
	props := PlayerProperties{
		PlaybackStatus: PlaybackStatus(s),
		Rate:           FixedRate,
		MinimumRate:    FixedRate,
		MaximumRate:    FixedRate,
		Shuffle:        Shuffle(s),
		Volume:         Volume(s),
		Position:       Position(s),
		Metadata:       BuildMetadata(s, baseURL),
		Capabilities:   CapabilitiesOf(s),
	}

	loop, err := LoopStatus(s)
	if err != nil {
		return props, err
	}
	props.LoopStatus = loop
	return props, nil
}

// PlaybackStatus capitalizes the hub state. Values outside
// Playing/Paused/Stopped are passed through rather than rejected.
func PlaybackStatus(s Snapshot) string {
	return capitalize(s.State())
}

func capitalize(val string) string {
	if val == "" {
		return ""
	}
	lower := strings.ToLower(val)
	first, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(first)) + lower[size:]
}

// LoopStatus maps the hub repeat attribute, defaulting to "off".
func LoopStatus(s Snapshot) (string, error) {
	repeat, ok := s.String("repeat")
	if !ok {
		repeat = "off"
	}
	return LoopStatusFromRepeat(repeat)
}

// LoopStatusFromRepeat maps off/all/one to None/Playlist/Track.
func LoopStatusFromRepeat(repeat string) (string, error) {
	loop, ok := loopStatusMap[repeat]
	if !ok {
		return "", apperrors.NewMappingError("repeat", repeat)
	}
	return loop, nil
}

// RepeatFromLoopStatus maps None/Playlist/Track back to off/all/one.
func RepeatFromLoopStatus(loop string) (string, error) {
	repeat, ok := repeatModeMap[loop]
	if !ok {
		return "", apperrors.NewMappingError("LoopStatus", loop)
	}
	return repeat, nil
}

func Shuffle(s Snapshot) bool {
	val, _ := s.Bool("shuffle")
	return val
}

// Volume is the hub volume_level in 0.0-1.0, zero when absent.
func Volume(s Snapshot) float64 {
	val, _ := s.Float("volume_level")
	return val
}

// PositionSeconds is the hub media_position, zero when absent.
func PositionSeconds(s Snapshot) float64 {
	val, _ := s.Float("media_position")
	return val
}

// Position is PositionSeconds in microseconds.
func Position(s Snapshot) int64 {
	return secondsToMicros(PositionSeconds(s))
}

func secondsToMicros(seconds float64) int64 {
	return int64(seconds * MicrosPerSecond)
}

// CapabilitiesOf derives Can* flags. Play, pause and control are always
// offered; failures surface when the command reaches the hub.
func CapabilitiesOf(s Snapshot) Capabilities {
	features, _ := s.Int("supported_features")
	return Capabilities{
		CanGoNext:     features&FeatureNextTrack != 0,
		CanGoPrevious: features&FeaturePreviousTrack != 0,
		CanSeek:       features&FeatureSeek != 0,
		CanPlay:       true,
		CanPause:      true,
		CanControl:    true,
	}
}

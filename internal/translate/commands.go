package translate

// Command is a parameterless MPRIS player invocation.
type Command string

const (
	CommandPlay      Command = "Play"
	CommandPause     Command = "Pause"
	CommandPlayPause Command = "PlayPause"
	CommandStop      Command = "Stop"
	CommandNext      Command = "Next"
	CommandPrevious  Command = "Previous"
)

// Hub media_player services.
const (
	ServiceMediaPlay      = "media_play"
	ServiceMediaPause     = "media_pause"
	ServiceMediaPlayPause = "media_play_pause"
	ServiceMediaStop      = "media_stop"
	ServiceMediaNext      = "media_next_track"
	ServiceMediaPrevious  = "media_previous_track"
	ServiceMediaSeek      = "media_seek"
	ServiceVolumeSet      = "volume_set"
	ServiceShuffleSet     = "shuffle_set"
	ServiceRepeatSet      = "repeat_set"
)

var commandServices = map[Command]string{
	CommandPlay:      ServiceMediaPlay,
	CommandPause:     ServiceMediaPause,
	CommandPlayPause: ServiceMediaPlayPause,
	CommandStop:      ServiceMediaStop,
	CommandNext:      ServiceMediaNext,
	CommandPrevious:  ServiceMediaPrevious,
}

// ServiceCall is a media_player service invocation without the target entity;
// the caller addresses it.
type ServiceCall struct {
	Service string
	Params  map[string]any
}

// CommandCall maps a parameterless command to its service. ok is false for
// commands outside the table.
func CommandCall(cmd Command) (ServiceCall, bool) {
	service, ok := commandServices[cmd]
	if !ok {
		return ServiceCall{}, false
	}
	return ServiceCall{Service: service}, true
}

// SeekByOffset targets lastPosition (seconds) plus offset (microseconds). The
// target is not clamped; the hub clamps out-of-range positions.
func SeekByOffset(lastPosition float64, offset int64) ServiceCall {
	target := lastPosition + float64(offset)/MicrosPerSecond
	return seekTo(target)
}

// SetPosition seeks to an absolute position in microseconds.
func SetPosition(position int64) ServiceCall {
	return seekTo(float64(position) / MicrosPerSecond)
}

func seekTo(seconds float64) ServiceCall {
	return ServiceCall{
		Service: ServiceMediaSeek,
		Params:  map[string]any{"seek_position": seconds},
	}
}

func SetVolume(volume float64) ServiceCall {
	return ServiceCall{
		Service: ServiceVolumeSet,
		Params:  map[string]any{"volume_level": volume},
	}
}

func SetShuffle(shuffle bool) ServiceCall {
	return ServiceCall{
		Service: ServiceShuffleSet,
		Params:  map[string]any{"shuffle": shuffle},
	}
}

// SetLoopStatus maps an MPRIS loop status onto repeat_set. Unknown statuses
// are a mapping error.
func SetLoopStatus(loop string) (ServiceCall, error) {
	repeat, err := RepeatFromLoopStatus(loop)
	if err != nil {
		return ServiceCall{}, err
	}
	return ServiceCall{
		Service: ServiceRepeatSet,
		Params:  map[string]any{"repeat": repeat},
	}, nil
}

package mpris

import (
	"github.com/godbus/dbus/v5"

	"github.com/strefethen/hassbridge-go/internal/apperrors"
	"github.com/strefethen/hassbridge-go/internal/players"
	"github.com/strefethen/hassbridge-go/internal/translate"
)

// Metadata keys.
const (
	keyTrackID = "mpris:trackid"
	keyLength  = "mpris:length"
	keyArtURL  = "mpris:artUrl"
	keyArtist  = "xesam:artist"
	keyAlbum   = "xesam:album"
	keyTitle   = "xesam:title"
)

// metadataMap converts md into the a{sv} Metadata value. Text fields the hub
// did not report are left out.
func metadataMap(md translate.Metadata) map[string]dbus.Variant {
	trackID := md.TrackID
	if trackID == "" {
		trackID = translate.NoTrackID
	}
	out := map[string]dbus.Variant{
		keyTrackID: dbus.MakeVariant(dbus.ObjectPath(trackID)),
		keyLength:  dbus.MakeVariant(md.Length),
	}
	if md.Artist != "" {
		out[keyArtist] = dbus.MakeVariant([]string{md.Artist})
	}
	if md.Album != "" {
		out[keyAlbum] = dbus.MakeVariant(md.Album)
	}
	if md.Title != "" {
		out[keyTitle] = dbus.MakeVariant(md.Title)
	}
	if md.ArtURL != "" {
		out[keyArtURL] = dbus.MakeVariant(md.ArtURL)
	}
	return out
}

// playerValues maps every Player property name to its wire value.
func playerValues(props translate.PlayerProperties) map[string]any {
	loop := props.LoopStatus
	if loop == "" {
		loop = translate.LoopNone
	}
	return map[string]any{
		translate.PropPlaybackStatus: props.PlaybackStatus,
		translate.PropLoopStatus:     loop,
		translate.PropRate:           props.Rate,
		translate.PropShuffle:        props.Shuffle,
		translate.PropMetadata:       metadataMap(props.Metadata),
		translate.PropVolume:         props.Volume,
		translate.PropPosition:       props.Position,
		translate.PropMinimumRate:    props.MinimumRate,
		translate.PropMaximumRate:    props.MaximumRate,
		translate.PropCanGoNext:      props.CanGoNext,
		translate.PropCanGoPrevious:  props.CanGoPrevious,
		translate.PropCanPlay:        props.CanPlay,
		translate.PropCanPause:       props.CanPause,
		translate.PropCanSeek:        props.CanSeek,
		translate.PropCanControl:     props.CanControl,
	}
}

// rootValues maps every org.mpris.MediaPlayer2 property name to its wire value.
func rootValues(surface *players.Surface) map[string]any {
	return map[string]any{
		"Identity":            surface.Identity(),
		"SupportedUriSchemes": []string{},
		"SupportedMimeTypes":  []string{},
		"CanRaise":            false,
		"CanQuit":             false,
		"HasTrackList":        false,
	}
}

// dbusError converts err into a D-Bus error reply.
func dbusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	appErr := apperrors.EnsureAppError(err)
	if appErr.Code == apperrors.ErrorCodeNotSupported {
		return dbus.NewError(errNotSupported, []any{appErr.Message})
	}
	if appErr.Code == apperrors.ErrorCodeInternalError {
		return dbus.MakeFailedError(err)
	}
	return dbus.NewError(errorPrefix+string(appErr.Code), []any{appErr.Message})
}

func invalidArgs(property string) *dbus.Error {
	return dbus.NewError(errInvalidArgs, []any{"invalid value for " + property})
}

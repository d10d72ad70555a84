package mpris

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/strefethen/hassbridge-go/internal/players"
)

// rootMethods implements org.mpris.MediaPlayer2.
type rootMethods struct{}

// Raise is not applicable.
func (rootMethods) Raise() *dbus.Error { return nil }

// Quit is not applicable.
func (rootMethods) Quit() *dbus.Error { return nil }

// playerMethods implements org.mpris.MediaPlayer2.Player for one surface.
// Method names are the D-Bus member names.
type playerMethods struct {
	surface *players.Surface
}

func (p playerMethods) Next() *dbus.Error      { return dbusError(p.surface.Next()) }
func (p playerMethods) Previous() *dbus.Error  { return dbusError(p.surface.Previous()) }
func (p playerMethods) Pause() *dbus.Error     { return dbusError(p.surface.Pause()) }
func (p playerMethods) PlayPause() *dbus.Error { return dbusError(p.surface.PlayPause()) }
func (p playerMethods) Stop() *dbus.Error      { return dbusError(p.surface.Stop()) }
func (p playerMethods) Play() *dbus.Error      { return dbusError(p.surface.Play()) }

// Seek returns before the hub acknowledges the seek.
func (p playerMethods) Seek(offset int64) *dbus.Error {
	p.surface.Seek(offset)
	return nil
}

// SetPosition returns before the hub acknowledges the seek.
func (p playerMethods) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	p.surface.SetPosition(string(trackID), position)
	return nil
}

func (p playerMethods) OpenUri(uri string) *dbus.Error {
	return dbusError(p.surface.OpenURI(uri))
}

// seekedSignal is declared for clients but never emitted.
var seekedSignal = introspect.Signal{
	Name: "Seeked",
	Args: []introspect.Arg{{Name: "Position", Type: "x"}},
}

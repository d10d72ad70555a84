package mpris

import (
	"bufio"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/hassbridge-go/internal/hass"
	"github.com/strefethen/hassbridge-go/internal/players"
	"github.com/strefethen/hassbridge-go/internal/translate"
)

const kitchenBusName = "org.mpris.MediaPlayer2.hassbridge.media_player.kitchen"

// startBus runs a private session bus and returns its address.
func startBus(t *testing.T) string {
	t.Helper()
	daemon, err := exec.LookPath("dbus-daemon")
	if err != nil {
		t.Skip("dbus-daemon not installed")
	}

	cmd := exec.Command(daemon, "--session", "--nofork", "--print-address")
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	address, err := bufio.NewReader(stdout).ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSpace(address)
}

type busFixture struct {
	address   string
	client    *dbus.Conn
	exporter  *Exporter
	registry  *players.Registry
	commander *stubCommander
	signals   chan *dbus.Signal
}

func newBusFixture(t *testing.T) *busFixture {
	t.Helper()
	address := startBus(t)

	client, err := dbus.Connect(address)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.AddMatchSignal(
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
	))
	signals := make(chan *dbus.Signal, 32)
	client.Signal(signals)

	exporter := newExporter(func() (*dbus.Conn, error) { return dbus.Connect(address) }, zerolog.Nop())
	t.Cleanup(func() { _ = exporter.Close() })

	commander := &stubCommander{}
	registry := players.NewRegistry(commander, exporter, players.Options{BaseURL: "http://hass.local:8123"}, zerolog.Nop())

	return &busFixture{
		address:   address,
		client:    client,
		exporter:  exporter,
		registry:  registry,
		commander: commander,
		signals:   signals,
	}
}

func (f *busFixture) observe(attrs map[string]any) {
	f.registry.Observe(hass.EntityState{EntityID: "media_player.kitchen", State: "playing", Attributes: attrs})
}

func (f *busFixture) player() dbus.BusObject {
	return f.client.Object(kitchenBusName, ObjectPath)
}

func (f *busFixture) hasOwner(t *testing.T, name string) bool {
	t.Helper()
	var has bool
	require.NoError(t, f.client.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, name).Store(&has))
	return has
}

// nextChange returns the next PropertiesChanged interface and its changed values.
func (f *busFixture) nextChange(t *testing.T) (string, map[string]dbus.Variant) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case sig := <-f.signals:
			if sig.Name != propertiesChanged {
				continue
			}
			require.Equal(t, ObjectPath, sig.Path)
			iface := sig.Body[0].(string)
			changed := sig.Body[1].(map[string]dbus.Variant)
			return iface, changed
		case <-timeout:
			t.Fatal("no PropertiesChanged signal")
			return "", nil
		}
	}
}

func TestExporter_PublishesPlayerOnce(t *testing.T) {
	f := newBusFixture(t)

	f.observe(map[string]any{"friendly_name": "Kitchen", "volume_level": 0.2})
	f.observe(map[string]any{"friendly_name": "Kitchen", "volume_level": 0.3})

	require.True(t, f.hasOwner(t, kitchenBusName))
	require.Len(t, f.exporter.players, 1)

	status, err := f.player().GetProperty(PlayerInterface + ".PlaybackStatus")
	require.NoError(t, err)
	require.Equal(t, "Playing", status.Value())

	identity, err := f.player().GetProperty(RootInterface + ".Identity")
	require.NoError(t, err)
	require.Equal(t, "Kitchen (Home Assistant)", identity.Value())
}

func TestExporter_WrittenVolumeWaitsForHub(t *testing.T) {
	f := newBusFixture(t)
	f.observe(map[string]any{"volume_level": 0.2})

	require.NoError(t, f.player().SetProperty(PlayerInterface+".Volume", dbus.MakeVariant(0.9)))

	volume, err := f.player().GetProperty(PlayerInterface + ".Volume")
	require.NoError(t, err)
	require.Equal(t, 0.2, volume.Value())

	calls := f.commander.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "volume_set", calls[0].service)
	require.Equal(t, 0.9, calls[0].params["volume_level"])

	f.observe(map[string]any{"volume_level": 0.9})
	volume, err = f.player().GetProperty(PlayerInterface + ".Volume")
	require.NoError(t, err)
	require.Equal(t, 0.9, volume.Value())
}

func TestExporter_MethodsReachSurface(t *testing.T) {
	f := newBusFixture(t)
	f.observe(map[string]any{"media_position": 3.0})

	require.NoError(t, f.player().Call(PlayerInterface+".Play", 0).Err)
	require.NoError(t, f.player().Call(PlayerInterface+".Seek", 0, int64(-5_000_000)).Err)

	err := f.player().Call(PlayerInterface+".OpenUri", 0, "file:///song.mp3").Err
	require.Error(t, err)
	var dbusErr dbus.Error
	require.ErrorAs(t, err, &dbusErr)
	require.Equal(t, errNotSupported, dbusErr.Name)

	calls := f.commander.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "media_play", calls[0].service)
	require.Equal(t, "media_seek", calls[1].service)
	require.Equal(t, -2.0, calls[1].params["seek_position"])
}

func TestExporter_NotifyChangedBatchesPlayerProperties(t *testing.T) {
	f := newBusFixture(t)

	// The first update changes Identity from the default as well.
	f.observe(map[string]any{"friendly_name": "Kitchen"})
	iface, changed := f.nextChange(t)
	require.Equal(t, PlayerInterface, iface)
	require.Len(t, changed, len(translate.PlayerPropertyNames))
	iface, changed = f.nextChange(t)
	require.Equal(t, RootInterface, iface)
	require.Equal(t, "Kitchen (Home Assistant)", changed["Identity"].Value())

	f.observe(map[string]any{"friendly_name": "Kitchen", "volume_level": 0.5})
	iface, changed = f.nextChange(t)
	require.Equal(t, PlayerInterface, iface)
	require.Len(t, changed, len(translate.PlayerPropertyNames))
	require.Equal(t, 0.5, changed[translate.PropVolume].Value())

	f.observe(map[string]any{"friendly_name": "Den"})
	iface, _ = f.nextChange(t)
	require.Equal(t, PlayerInterface, iface)
	iface, changed = f.nextChange(t)
	require.Equal(t, RootInterface, iface)
	require.Equal(t, "Den (Home Assistant)", changed["Identity"].Value())
}

func TestExporter_NameTaken(t *testing.T) {
	f := newBusFixture(t)
	f.observe(nil)

	other := newExporter(func() (*dbus.Conn, error) { return dbus.Connect(f.address) }, zerolog.Nop())
	t.Cleanup(func() { _ = other.Close() })

	surface, ok := f.registry.Get("media_player.kitchen")
	require.True(t, ok)
	err := other.Publish(kitchenBusName, surface)
	require.ErrorIs(t, err, ErrNameTaken)
	require.Empty(t, other.players)
}

func TestExporter_CloseReleasesNames(t *testing.T) {
	f := newBusFixture(t)
	f.observe(nil)
	require.True(t, f.hasOwner(t, kitchenBusName))

	require.NoError(t, f.exporter.Close())
	require.Empty(t, f.exporter.players)

	require.Eventually(t, func() bool {
		return !f.hasOwner(t, kitchenBusName)
	}, 2*time.Second, 10*time.Millisecond)
}

package mpris

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/rs/zerolog"

	"github.com/strefethen/hassbridge-go/internal/players"
)

const (
	ObjectPath      dbus.ObjectPath = "/org/mpris/MediaPlayer2"
	RootInterface                   = "org.mpris.MediaPlayer2"
	PlayerInterface                 = "org.mpris.MediaPlayer2.Player"

	propertiesChanged = propertiesInterface + ".PropertiesChanged"

	errorPrefix     = "org.mpris.MediaPlayer2.hassbridge.Error."
	errNotSupported = "org.freedesktop.DBus.Error.NotSupported"
	errInvalidArgs  = "org.freedesktop.DBus.Error.InvalidArgs"
)

// ErrNameTaken is returned when another process owns the requested bus name.
var ErrNameTaken = errors.New("bus name already taken")

// Exporter publishes surfaces on the D-Bus session bus. Every surface gets
// its own connection because all of them live at the same object path.
type Exporter struct {
	connect func() (*dbus.Conn, error)
	log     zerolog.Logger

	mu      sync.Mutex
	players map[string]*exportedPlayer
}

type exportedPlayer struct {
	conn     *dbus.Conn
	identity string
}

// NewExporter returns an exporter connecting to the session bus.
func NewExporter(log zerolog.Logger) *Exporter {
	return newExporter(func() (*dbus.Conn, error) { return dbus.ConnectSessionBus() }, log)
}

func newExporter(connect func() (*dbus.Conn, error), log zerolog.Logger) *Exporter {
	return &Exporter{
		connect: connect,
		log:     log,
		players: make(map[string]*exportedPlayer),
	}
}

// Publish implements players.Exporter.
func (e *Exporter) Publish(name string, surface *players.Surface) error {
	conn, err := e.connect()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}

	if err := export(conn, surface); err != nil {
		conn.Close()
		return err
	}

	reply, err := conn.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("request name %s: %w", name, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrNameTaken, name)
	}

	e.mu.Lock()
	e.players[surface.EntityID()] = &exportedPlayer{
		conn:     conn,
		identity: surface.Identity(),
	}
	e.mu.Unlock()

	e.log.Info().Str("bus_name", name).Str("entity_id", surface.EntityID()).Msg("Published player")
	return nil
}

func export(conn *dbus.Conn, surface *players.Surface) error {
	root := rootMethods{}
	player := playerMethods{surface: surface}
	props := properties{surface: surface}

	if err := conn.Export(root, ObjectPath, RootInterface); err != nil {
		return fmt.Errorf("export %s: %w", RootInterface, err)
	}
	if err := conn.Export(player, ObjectPath, PlayerInterface); err != nil {
		return fmt.Errorf("export %s: %w", PlayerInterface, err)
	}
	if err := conn.Export(props, ObjectPath, propertiesInterface); err != nil {
		return fmt.Errorf("export properties: %w", err)
	}

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       RootInterface,
				Methods:    introspect.Methods(root),
				Properties: props.introspection(RootInterface),
			},
			{
				Name:       PlayerInterface,
				Methods:    introspect.Methods(player),
				Signals:    []introspect.Signal{seekedSignal},
				Properties: props.introspection(PlayerInterface),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}
	return nil
}

// NotifyChanged implements players.Exporter. The named Player properties are
// announced with their current surface values in a single PropertiesChanged.
func (e *Exporter) NotifyChanged(surface *players.Surface, names []string) {
	e.mu.Lock()
	exported, ok := e.players[surface.EntityID()]
	e.mu.Unlock()
	if !ok {
		return
	}

	values := playerValues(surface.Properties())
	changed := make(map[string]dbus.Variant, len(names))
	for _, name := range names {
		if value, ok := values[name]; ok {
			changed[name] = dbus.MakeVariant(value)
		}
	}

	log := e.log.With().Str("entity_id", surface.EntityID()).Logger()
	if err := exported.conn.Emit(ObjectPath, propertiesChanged, PlayerInterface, changed, []string{}); err != nil {
		log.Warn().Err(err).Msg("Failed to emit PropertiesChanged")
	}

	identity := surface.Identity()
	e.mu.Lock()
	identityChanged := identity != exported.identity
	exported.identity = identity
	e.mu.Unlock()
	if identityChanged {
		rootChanged := map[string]dbus.Variant{"Identity": dbus.MakeVariant(identity)}
		if err := exported.conn.Emit(ObjectPath, propertiesChanged, RootInterface, rootChanged, []string{}); err != nil {
			log.Warn().Err(err).Msg("Failed to emit PropertiesChanged")
		}
	}
}

// Close releases every bus connection.
func (e *Exporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for entityID, exported := range e.players {
		if err := exported.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", entityID, err))
		}
		delete(e.players, entityID)
	}
	return errors.Join(errs...)
}

var _ players.Exporter = (*Exporter)(nil)

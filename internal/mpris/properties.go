package mpris

import (
	"sort"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/strefethen/hassbridge-go/internal/players"
	"github.com/strefethen/hassbridge-go/internal/translate"
)

const propertiesInterface = "org.freedesktop.DBus.Properties"

// setter forwards a property write to the hub.
type setter func(surface *players.Surface, name string, value any) *dbus.Error

// setters lists the writable Player properties. None of them touch the
// surface; the new value is read back once the hub reports it.
var setters = map[string]setter{
	translate.PropVolume: func(surface *players.Surface, name string, value any) *dbus.Error {
		volume, ok := value.(float64)
		if !ok {
			return invalidArgs(name)
		}
		surface.SetVolume(volume)
		return nil
	},
	translate.PropShuffle: func(surface *players.Surface, name string, value any) *dbus.Error {
		shuffle, ok := value.(bool)
		if !ok {
			return invalidArgs(name)
		}
		surface.SetShuffle(shuffle)
		return nil
	},
	translate.PropLoopStatus: func(surface *players.Surface, name string, value any) *dbus.Error {
		loop, ok := value.(string)
		if !ok {
			return invalidArgs(name)
		}
		return dbusError(surface.SetLoopStatus(loop))
	},
}

// properties implements org.freedesktop.DBus.Properties for one surface.
// Every Get reads the surface, so the bus never holds a copy of its own.
type properties struct {
	surface *players.Surface
}

func (p properties) values(iface string) (map[string]any, *dbus.Error) {
	switch iface {
	case RootInterface:
		return rootValues(p.surface), nil
	case PlayerInterface:
		return playerValues(p.surface.Properties()), nil
	default:
		return nil, prop.ErrIfaceNotFound
	}
}

func (p properties) Get(iface, name string) (dbus.Variant, *dbus.Error) {
	values, err := p.values(iface)
	if err != nil {
		return dbus.Variant{}, err
	}
	value, ok := values[name]
	if !ok {
		return dbus.Variant{}, prop.ErrPropNotFound
	}
	return dbus.MakeVariant(value), nil
}

func (p properties) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	values, err := p.values(iface)
	if err != nil {
		return nil, err
	}
	out := make(map[string]dbus.Variant, len(values))
	for name, value := range values {
		out[name] = dbus.MakeVariant(value)
	}
	return out, nil
}

func (p properties) Set(iface, name string, value dbus.Variant) *dbus.Error {
	values, err := p.values(iface)
	if err != nil {
		return err
	}
	if _, ok := values[name]; !ok {
		return prop.ErrPropNotFound
	}
	set, ok := setters[name]
	if iface != PlayerInterface || !ok {
		return prop.ErrReadOnly
	}
	return set(p.surface, name, value.Value())
}

// introspection describes the properties of iface in name order.
func (p properties) introspection(iface string) []introspect.Property {
	values, err := p.values(iface)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]introspect.Property, 0, len(names))
	for _, name := range names {
		access := "read"
		if _, ok := setters[name]; ok && iface == PlayerInterface {
			access = "readwrite"
		}
		emits := "true"
		if iface == RootInterface && name != "Identity" {
			emits = "const"
		}
		out = append(out, introspect.Property{
			Name:   name,
			Type:   dbus.SignatureOf(values[name]).String(),
			Access: access,
			Annotations: []introspect.Annotation{
				{Name: "org.freedesktop.DBus.Property.EmitsChangedSignal", Value: emits},
			},
		})
	}
	return out
}

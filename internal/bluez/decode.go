package bluez

import (
	"fmt"
	"slices"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/seantiz/spotipi/internal/model"
)

// parseTrack converts a MediaPlayer1.Track dictionary into a Track.
// Missing or mistyped entries fall back to zero values and placeholders.
func parseTrack(meta map[string]dbus.Variant) model.Track {
	t := model.Track{
		Title:          stringProp(meta, metaTitle),
		Artist:         stringProp(meta, metaArtist),
		Album:          stringProp(meta, metaAlbum),
		Genre:          stringProp(meta, metaGenre),
		TrackNumber:    uint32Prop(meta, metaTrackNumber),
		NumberOfTracks: uint32Prop(meta, metaNumberOfTracks),
		Duration:       time.Duration(uint32Prop(meta, metaDuration)) * time.Millisecond,
	}
	return t.WithDefaults()
}

// decodeSignal translates a BlueZ signal into zero or more events.
// Signals unrelated to media players yield no events and no error.
func decodeSignal(sig *dbus.Signal) ([]model.Event, error) {
	switch sig.Name {
	case signalPropertiesChanged:
		return decodePropertiesChanged(sig)
	case signalInterfacesAdded:
		return decodeInterfacesAdded(sig)
	case signalInterfacesRemoved:
		return decodeInterfacesRemoved(sig)
	default:
		return nil, nil
	}
}

func decodePropertiesChanged(sig *dbus.Signal) ([]model.Event, error) {
	if len(sig.Body) < 2 {
		return nil, fmt.Errorf("%s from %s: body has %d fields", sig.Name, sig.Path, len(sig.Body))
	}
	iface, ok := sig.Body[0].(string)
	if !ok {
		return nil, fmt.Errorf("%s from %s: interface is %T", sig.Name, sig.Path, sig.Body[0])
	}
	if iface != mediaPlayerIface {
		return nil, nil
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("%s from %s: changed properties are %T", sig.Name, sig.Path, sig.Body[1])
	}
	return playerEvents(string(sig.Path), changed), nil
}

func decodeInterfacesAdded(sig *dbus.Signal) ([]model.Event, error) {
	if len(sig.Body) < 2 {
		return nil, fmt.Errorf("%s: body has %d fields", sig.Name, len(sig.Body))
	}
	path, ok := sig.Body[0].(dbus.ObjectPath)
	if !ok {
		return nil, fmt.Errorf("%s: object path is %T", sig.Name, sig.Body[0])
	}
	ifaces, ok := sig.Body[1].(map[string]map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("%s for %s: interfaces are %T", sig.Name, path, sig.Body[1])
	}
	props, ok := ifaces[mediaPlayerIface]
	if !ok {
		return nil, nil
	}

	added := model.NewEvent(model.EventPlayerAdded)
	added.Player = string(path)
	added.Message = stringProp(props, propName)
	return append([]model.Event{added}, playerEvents(string(path), props)...), nil
}

func decodeInterfacesRemoved(sig *dbus.Signal) ([]model.Event, error) {
	if len(sig.Body) < 2 {
		return nil, fmt.Errorf("%s: body has %d fields", sig.Name, len(sig.Body))
	}
	path, ok := sig.Body[0].(dbus.ObjectPath)
	if !ok {
		return nil, fmt.Errorf("%s: object path is %T", sig.Name, sig.Body[0])
	}
	ifaces, ok := sig.Body[1].([]string)
	if !ok {
		return nil, fmt.Errorf("%s for %s: interfaces are %T", sig.Name, path, sig.Body[1])
	}
	if !slices.Contains(ifaces, mediaPlayerIface) {
		return nil, nil
	}

	removed := model.NewEvent(model.EventPlayerRemoved)
	removed.Player = string(path)
	return []model.Event{removed}, nil
}

// playerEvents emits a track event and a status event for the Track and
// Status entries present in props. Track comes first so a consumer that
// renders on both sees the new metadata before the new status.
func playerEvents(player string, props map[string]dbus.Variant) []model.Event {
	var events []model.Event
	if v, ok := props[propTrack]; ok {
		meta, _ := v.Value().(map[string]dbus.Variant)
		track := parseTrack(meta)
		e := model.NewEvent(model.EventTrack)
		e.Player = player
		e.Track = &track
		events = append(events, e)
	}
	if v, ok := props[propStatus]; ok {
		if status, ok := v.Value().(string); ok {
			e := model.NewEvent(model.EventStatus)
			e.Player = player
			e.Status = status
			events = append(events, e)
		}
	}
	return events
}

func stringProp(props map[string]dbus.Variant, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func uint32Prop(props map[string]dbus.Variant, key string) uint32 {
	if v, ok := props[key]; ok {
		if n, ok := v.Value().(uint32); ok {
			return n
		}
	}
	return 0
}

func objectPathProp(props map[string]dbus.Variant, key string) dbus.ObjectPath {
	if v, ok := props[key]; ok {
		if p, ok := v.Value().(dbus.ObjectPath); ok {
			return p
		}
	}
	return ""
}

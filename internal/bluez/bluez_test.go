package bluez

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/goleak"

	"github.com/seantiz/spotipi/internal/model"
)

const testPlayer = dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF/player0")

// fakeObject records method calls and answers them from a table.
type fakeObject struct {
	mu      sync.Mutex
	calls   []fakeCall
	replies map[string][]any
	errs    map[string]error
}

type fakeCall struct {
	method string
	args   []any
}

func newFakeObject() *fakeObject {
	return &fakeObject{
		replies: make(map[string][]any),
		errs:    make(map[string]error),
	}
}

func (f *fakeObject) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...any) *dbus.Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fakeCall{method: method, args: args})
	return &dbus.Call{
		Method: method,
		Args:   args,
		Body:   f.replies[method],
		Err:    f.errs[method],
	}
}

func (f *fakeObject) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.method
	}
	return out
}

// fakeBus delivers signals pushed by the test to the subscribed channel.
type fakeBus struct {
	mu        sync.Mutex
	ch        chan<- *dbus.Signal
	added     int
	removed   int
	addErr    error
	subscribe chan struct{}
}

func newFakeBus() *fakeBus {
	return &fakeBus{subscribe: make(chan struct{})}
}

func (b *fakeBus) AddMatchSignalContext(context.Context, ...dbus.MatchOption) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.addErr != nil {
		return b.addErr
	}
	b.added++
	return nil
}

func (b *fakeBus) RemoveMatchSignalContext(context.Context, ...dbus.MatchOption) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removed++
	return nil
}

func (b *fakeBus) Signal(ch chan<- *dbus.Signal) {
	b.mu.Lock()
	b.ch = ch
	b.mu.Unlock()
	close(b.subscribe)
}

func (b *fakeBus) RemoveSignal(chan<- *dbus.Signal) {}

func (b *fakeBus) emit(sig *dbus.Signal) {
	<-b.subscribe
	b.mu.Lock()
	ch := b.ch
	b.mu.Unlock()
	ch <- sig
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestClient(bus signalBus, obj *fakeObject) *Client {
	return newClient(bus, func(dbus.ObjectPath) busObject { return obj }, time.Second, discardLogger())
}

func trackVariant(title, artist, album string) dbus.Variant {
	meta := map[string]dbus.Variant{}
	if title != "" {
		meta[metaTitle] = dbus.MakeVariant(title)
	}
	if artist != "" {
		meta[metaArtist] = dbus.MakeVariant(artist)
	}
	if album != "" {
		meta[metaAlbum] = dbus.MakeVariant(album)
	}
	return dbus.MakeVariant(meta)
}

func TestParseTrack(t *testing.T) {
	got := parseTrack(map[string]dbus.Variant{
		metaTitle:          dbus.MakeVariant("Blue in Green"),
		metaArtist:         dbus.MakeVariant("Miles Davis"),
		metaAlbum:          dbus.MakeVariant("Kind of Blue"),
		metaGenre:          dbus.MakeVariant("Jazz"),
		metaTrackNumber:    dbus.MakeVariant(uint32(3)),
		metaNumberOfTracks: dbus.MakeVariant(uint32(5)),
		metaDuration:       dbus.MakeVariant(uint32(337000)),
	})

	want := model.Track{
		Title:          "Blue in Green",
		Artist:         "Miles Davis",
		Album:          "Kind of Blue",
		Genre:          "Jazz",
		TrackNumber:    3,
		NumberOfTracks: 5,
		Duration:       337 * time.Second,
	}
	if got != want {
		t.Errorf("parseTrack() = %+v, want %+v", got, want)
	}
}

func TestParseTrackDefaults(t *testing.T) {
	got := parseTrack(map[string]dbus.Variant{
		metaTitle:    dbus.MakeVariant(42),
		metaDuration: dbus.MakeVariant("long"),
	})
	if got.Title != model.UnknownTitle || got.Artist != model.UnknownArtist || got.Album != model.UnknownAlbum {
		t.Errorf("parseTrack() = %+v, want placeholders", got)
	}
	if got.Duration != 0 {
		t.Errorf("Duration = %s, want 0", got.Duration)
	}

	if nilMeta := parseTrack(nil); nilMeta.Title != model.UnknownTitle {
		t.Errorf("parseTrack(nil).Title = %q", nilMeta.Title)
	}
}

func TestDecodePropertiesChangedTrackAndStatus(t *testing.T) {
	sig := &dbus.Signal{
		Path: testPlayer,
		Name: signalPropertiesChanged,
		Body: []any{
			mediaPlayerIface,
			map[string]dbus.Variant{
				propStatus: dbus.MakeVariant("playing"),
				propTrack:  trackVariant("So What", "", ""),
			},
			[]string{},
		},
	}

	events, err := decodeSignal(sig)
	if err != nil {
		t.Fatalf("decodeSignal: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != model.EventTrack || events[0].Track == nil {
		t.Fatalf("events[0] = %+v, want track event", events[0])
	}
	if events[0].Track.Title != "So What" || events[0].Track.Artist != model.UnknownArtist {
		t.Errorf("track = %+v", events[0].Track)
	}
	if events[0].Player != string(testPlayer) {
		t.Errorf("Player = %q, want %q", events[0].Player, testPlayer)
	}
	if events[1].Type != model.EventStatus || events[1].Status != "playing" {
		t.Errorf("events[1] = %+v, want status playing", events[1])
	}
}

func TestDecodePropertiesChangedIgnoresOtherInterfaces(t *testing.T) {
	sig := &dbus.Signal{
		Path: "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF",
		Name: signalPropertiesChanged,
		Body: []any{
			"org.bluez.Device1",
			map[string]dbus.Variant{"Connected": dbus.MakeVariant(true)},
			[]string{},
		},
	}
	events, err := decodeSignal(sig)
	if err != nil || len(events) != 0 {
		t.Errorf("decodeSignal() = %v, %v; want no events", events, err)
	}
}

func TestDecodePropertiesChangedIgnoresOtherProperties(t *testing.T) {
	sig := &dbus.Signal{
		Path: testPlayer,
		Name: signalPropertiesChanged,
		Body: []any{
			mediaPlayerIface,
			map[string]dbus.Variant{"Position": dbus.MakeVariant(uint32(1200))},
			[]string{},
		},
	}
	events, err := decodeSignal(sig)
	if err != nil || len(events) != 0 {
		t.Errorf("decodeSignal() = %v, %v; want no events", events, err)
	}
}

func TestDecodeMalformedSignals(t *testing.T) {
	tests := []struct {
		name string
		sig  *dbus.Signal
	}{
		{"short properties body", &dbus.Signal{Name: signalPropertiesChanged, Body: []any{mediaPlayerIface}}},
		{"properties interface type", &dbus.Signal{Name: signalPropertiesChanged, Body: []any{7, map[string]dbus.Variant{}}}},
		{"properties map type", &dbus.Signal{Name: signalPropertiesChanged, Body: []any{mediaPlayerIface, "x"}}},
		{"added path type", &dbus.Signal{Name: signalInterfacesAdded, Body: []any{"x", map[string]map[string]dbus.Variant{}}}},
		{"removed list type", &dbus.Signal{Name: signalInterfacesRemoved, Body: []any{testPlayer, "x"}}},
	}

	for _, tt := range tests {
		if _, err := decodeSignal(tt.sig); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestDecodeInterfacesAdded(t *testing.T) {
	sig := &dbus.Signal{
		Path: objectManagerPath,
		Name: signalInterfacesAdded,
		Body: []any{
			testPlayer,
			map[string]map[string]dbus.Variant{
				mediaPlayerIface: {
					propName:   dbus.MakeVariant("Spotify"),
					propStatus: dbus.MakeVariant("paused"),
					propTrack:  trackVariant("Freddie Freeloader", "Miles Davis", "Kind of Blue"),
				},
			},
		},
	}

	events, err := decodeSignal(sig)
	if err != nil {
		t.Fatalf("decodeSignal: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Type != model.EventPlayerAdded || events[0].Player != string(testPlayer) {
		t.Errorf("events[0] = %+v, want player_added", events[0])
	}
	if events[0].Message != "Spotify" {
		t.Errorf("Message = %q, want player name", events[0].Message)
	}
	if events[1].Type != model.EventTrack || events[1].Track.Title != "Freddie Freeloader" {
		t.Errorf("events[1] = %+v, want track", events[1])
	}
	if events[2].Type != model.EventStatus || events[2].Status != "paused" {
		t.Errorf("events[2] = %+v, want status", events[2])
	}
}

func TestDecodeInterfacesAddedNonPlayer(t *testing.T) {
	sig := &dbus.Signal{
		Name: signalInterfacesAdded,
		Body: []any{
			dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF"),
			map[string]map[string]dbus.Variant{"org.bluez.Device1": {}},
		},
	}
	events, err := decodeSignal(sig)
	if err != nil || len(events) != 0 {
		t.Errorf("decodeSignal() = %v, %v; want no events", events, err)
	}
}

func TestDecodeInterfacesRemoved(t *testing.T) {
	sig := &dbus.Signal{
		Name: signalInterfacesRemoved,
		Body: []any{testPlayer, []string{propertiesIface, mediaPlayerIface}},
	}
	events, err := decodeSignal(sig)
	if err != nil {
		t.Fatalf("decodeSignal: %v", err)
	}
	if len(events) != 1 || events[0].Type != model.EventPlayerRemoved || events[0].Player != string(testPlayer) {
		t.Errorf("events = %+v, want one player_removed", events)
	}
}

func TestPlayers(t *testing.T) {
	obj := newFakeObject()
	obj.replies[methodGetManagedObjects] = []any{
		map[dbus.ObjectPath]map[string]map[string]dbus.Variant{
			"/org/bluez/hci0": {"org.bluez.Adapter1": {}},
			"/org/bluez/hci0/dev_11_22_33_44_55_66/player1": {
				mediaPlayerIface: {propName: dbus.MakeVariant("Podcasts")},
			},
			testPlayer: {
				mediaPlayerIface: {
					propName:   dbus.MakeVariant("Spotify"),
					propStatus: dbus.MakeVariant("playing"),
					propDevice: dbus.MakeVariant(dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF")),
				},
			},
		},
	}
	c := newTestClient(newFakeBus(), obj)

	players, err := c.Players(context.Background())
	if err != nil {
		t.Fatalf("Players: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("got %d players, want 2", len(players))
	}
	if players[0].Path != "/org/bluez/hci0/dev_11_22_33_44_55_66/player1" {
		t.Errorf("players not sorted: %v", players)
	}
	if players[1].Name != "Spotify" || players[1].Status != "playing" || players[1].Device != "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF" {
		t.Errorf("players[1] = %+v", players[1])
	}

	path, err := c.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if path != players[0].Path {
		t.Errorf("Discover() = %q, want %q", path, players[0].Path)
	}
}

func TestDiscoverNoPlayer(t *testing.T) {
	obj := newFakeObject()
	obj.replies[methodGetManagedObjects] = []any{
		map[dbus.ObjectPath]map[string]map[string]dbus.Variant{
			"/org/bluez/hci0": {"org.bluez.Adapter1": {}},
		},
	}
	c := newTestClient(newFakeBus(), obj)

	if _, err := c.Discover(context.Background()); !errors.Is(err, ErrNoPlayer) {
		t.Errorf("Discover() error = %v, want ErrNoPlayer", err)
	}
}

func TestDiscoverCallError(t *testing.T) {
	obj := newFakeObject()
	obj.errs[methodGetManagedObjects] = errors.New("org.freedesktop.DBus.Error.ServiceUnknown")
	c := newTestClient(newFakeBus(), obj)

	_, err := c.Discover(context.Background())
	if err == nil || errors.Is(err, ErrNoPlayer) {
		t.Errorf("Discover() error = %v, want call error", err)
	}
}

func TestPlayerCommands(t *testing.T) {
	tests := []struct {
		cmd    model.Command
		method string
	}{
		{model.CommandNext, mediaPlayerIface + ".Next"},
		{model.CommandPrevious, mediaPlayerIface + ".Previous"},
		{model.CommandPlay, mediaPlayerIface + ".Play"},
		{model.CommandPause, mediaPlayerIface + ".Pause"},
		{model.CommandStop, mediaPlayerIface + ".Stop"},
	}

	for _, tt := range tests {
		obj := newFakeObject()
		p := newTestClient(newFakeBus(), obj).Player(testPlayer)

		if err := p.Execute(context.Background(), tt.cmd); err != nil {
			t.Errorf("Execute(%s): %v", tt.cmd, err)
			continue
		}
		got := obj.methods()
		if len(got) != 1 || got[0] != tt.method {
			t.Errorf("Execute(%s) called %v, want [%s]", tt.cmd, got, tt.method)
		}
	}
}

func TestPlayerTogglePlayPause(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"playing", mediaPlayerIface + ".Pause"},
		{"paused", mediaPlayerIface + ".Play"},
		{"stopped", mediaPlayerIface + ".Play"},
	}

	for _, tt := range tests {
		obj := newFakeObject()
		obj.replies[methodPropertiesGet] = []any{dbus.MakeVariant(tt.status)}
		p := newTestClient(newFakeBus(), obj).Player(testPlayer)

		if err := p.Execute(context.Background(), model.CommandPlayPause); err != nil {
			t.Fatalf("toggle with status %s: %v", tt.status, err)
		}
		got := obj.methods()
		if len(got) != 2 || got[0] != methodPropertiesGet || got[1] != tt.want {
			t.Errorf("status %s: calls = %v, want [Get %s]", tt.status, got, tt.want)
		}
	}
}

func TestPlayerCommandError(t *testing.T) {
	obj := newFakeObject()
	callErr := errors.New("org.bluez.Error.Failed")
	obj.errs[mediaPlayerIface+".Next"] = callErr
	p := newTestClient(newFakeBus(), obj).Player(testPlayer)

	err := p.Next(context.Background())
	if !errors.Is(err, callErr) {
		t.Errorf("Next() error = %v, want wrapped %v", err, callErr)
	}
}

func TestPlayerExecuteUnknown(t *testing.T) {
	p := newTestClient(newFakeBus(), newFakeObject()).Player(testPlayer)
	if err := p.Execute(context.Background(), model.Command("rewind")); !errors.Is(err, model.ErrUnknownCommand) {
		t.Errorf("Execute(rewind) error = %v, want ErrUnknownCommand", err)
	}
}

func TestPlayerTrack(t *testing.T) {
	obj := newFakeObject()
	obj.replies[methodPropertiesGet] = []any{trackVariant("All Blues", "Miles Davis", "")}
	p := newTestClient(newFakeBus(), obj).Player(testPlayer)

	track, err := p.Track(context.Background())
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if track.Title != "All Blues" || track.Album != model.UnknownAlbum {
		t.Errorf("Track() = %+v", track)
	}
}

func TestWatchDeliversEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := newFakeBus()
	c := newTestClient(bus, newFakeObject())
	out := make(chan model.Event, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, out) }()

	bus.emit(&dbus.Signal{
		Path: testPlayer,
		Name: signalPropertiesChanged,
		Body: []any{
			mediaPlayerIface,
			map[string]dbus.Variant{propTrack: trackVariant("Flamenco Sketches", "Miles Davis", "Kind of Blue")},
			[]string{},
		},
	})

	select {
	case e := <-out:
		if e.Type != model.EventTrack || e.Track.Title != "Flamenco Sketches" {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch() = %v, want context.Canceled", err)
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.added != 3 || bus.removed != 3 {
		t.Errorf("match rules added=%d removed=%d, want 3/3", bus.added, bus.removed)
	}
}

func TestWatchDropsMalformedSignals(t *testing.T) {
	defer goleak.VerifyNone(t)

	var logs bytes.Buffer
	bus := newFakeBus()
	c := newClient(bus, func(dbus.ObjectPath) busObject { return newFakeObject() }, time.Second,
		slog.New(slog.NewJSONHandler(&logs, nil)))
	out := make(chan model.Event, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, out) }()

	bus.emit(&dbus.Signal{Path: testPlayer, Name: signalPropertiesChanged, Body: []any{mediaPlayerIface, "x"}})
	bus.emit(&dbus.Signal{Path: testPlayer, Name: signalInterfacesRemoved, Body: []any{testPlayer, "x"}})
	bus.emit(&dbus.Signal{
		Path: testPlayer,
		Name: signalPropertiesChanged,
		Body: []any{
			mediaPlayerIface,
			map[string]dbus.Variant{propStatus: dbus.MakeVariant(model.StatusPaused)},
			[]string{},
		},
	})

	select {
	case e := <-out:
		if e.Type != model.EventStatus || e.Status != model.StatusPaused {
			t.Errorf("first event = %+v, want paused status", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event after malformed signals")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch() = %v, want context.Canceled", err)
	}

	select {
	case e := <-out:
		t.Errorf("unexpected extra event %+v", e)
	default:
	}
	if n := strings.Count(logs.String(), "dropping malformed signal"); n != 2 {
		t.Errorf("logged %d dropped signals, want 2\n%s", n, logs.String())
	}
}

func TestWatchConnectionClosed(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := newFakeBus()
	c := newTestClient(bus, newFakeObject())

	done := make(chan error, 1)
	go func() { done <- c.Watch(context.Background(), make(chan model.Event)) }()

	<-bus.subscribe
	bus.mu.Lock()
	close(bus.ch)
	bus.mu.Unlock()

	if err := <-done; !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Watch() = %v, want ErrConnectionClosed", err)
	}
}

func TestWatchAddMatchError(t *testing.T) {
	bus := newFakeBus()
	bus.addErr = errors.New("access denied")
	c := newTestClient(bus, newFakeObject())

	if err := c.Watch(context.Background(), make(chan model.Event)); err == nil {
		t.Fatal("expected add match error")
	}
}

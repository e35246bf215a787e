package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seantiz/spotipi/internal/display"
	"github.com/seantiz/spotipi/internal/model"
)

// Texts shown when there is no track to display.
const (
	MessageWaiting  = "Waiting for player"
	MessageNoPlayer = "No player"
)

var (
	// ErrNoPlayer is returned when a command arrives while no media player
	// is attached.
	ErrNoPlayer = errors.New("no media player attached")

	// ErrStopped is returned by requests made after Run has returned.
	ErrStopped = errors.New("bridge stopped")
)

// Player is a remote media player that accepts playback commands.
type Player interface {
	Execute(ctx context.Context, cmd model.Command) error
	Track(ctx context.Context) (model.Track, error)
	Status(ctx context.Context) (string, error)
}

// Config wires a Bridge to its collaborators.
type Config struct {
	Display display.Display

	// Discover returns the object path of an available player.
	Discover func(ctx context.Context) (string, error)

	// Open returns a handle on the player at path.
	Open func(path string) Player

	// PlayerPath restricts the bridge to a single player. Events from
	// other players are ignored.
	PlayerPath string

	Logger *slog.Logger
}

type requestKind int

const (
	requestCommand requestKind = iota
	requestMessage
)

type request struct {
	kind    requestKind
	command model.Command
	message string
	reply   chan error
}

// Bridge reacts to player, button and API events. All reactions run on the
// goroutine that calls Run.
type Bridge struct {
	display  display.Display
	discover func(context.Context) (string, error)
	open     func(string) Player
	pinned   string
	broker   *EventBroker
	logger   *slog.Logger
	requests chan request
	done     chan struct{}

	// Owned by the Run goroutine.
	player Player
	// showingMessage is set while a message covers the now-playing screen.
	showingMessage bool

	mu      sync.RWMutex
	current model.NowPlaying
}

// New creates a bridge. Call Run to start it.
func New(cfg Config) *Bridge {
	return &Bridge{
		display:  cfg.Display,
		discover: cfg.Discover,
		open:     cfg.Open,
		pinned:   cfg.PlayerPath,
		broker:   NewEventBroker(),
		logger:   cfg.Logger,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
}

// Broker returns the broker that carries every event the bridge handles.
func (b *Bridge) Broker() *EventBroker {
	return b.broker
}

// Stopped reports whether Run has returned.
func (b *Bridge) Stopped() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// NowPlaying returns a snapshot of the latest known player state.
func (b *Bridge) NowPlaying() model.NowPlaying {
	b.mu.RLock()
	defer b.mu.RUnlock()

	np := b.current
	if np.Track != nil {
		t := *np.Track
		np.Track = &t
	}
	return np
}

// Run attaches to a player and processes events until ctx is done or events
// is closed. The event broker is closed on return.
func (b *Bridge) Run(ctx context.Context, events <-chan model.Event) error {
	defer close(b.done)
	defer b.broker.Close()

	b.start(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			b.handle(ctx, e)
		case req := <-b.requests:
			req.reply <- b.serve(ctx, req)
		}
	}
}

// Dispatch sends cmd to the attached player from outside the event loop and
// waits for the outcome.
func (b *Bridge) Dispatch(ctx context.Context, cmd model.Command) error {
	return b.submit(ctx, request{kind: requestCommand, command: cmd})
}

// ShowMessage puts text on the display until the next track change.
func (b *Bridge) ShowMessage(ctx context.Context, text string) error {
	return b.submit(ctx, request{kind: requestMessage, message: text})
}

func (b *Bridge) submit(ctx context.Context, req request) error {
	req.reply = make(chan error, 1)
	select {
	case b.requests <- req:
	case <-b.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) serve(ctx context.Context, req request) error {
	switch req.kind {
	case requestMessage:
		e := model.NewEvent(model.EventMessage)
		e.Message = req.message
		b.handle(ctx, e)
		return nil
	default:
		return b.execute(ctx, req.command, "")
	}
}

// start attaches to the configured or first discovered player. Without one
// the bridge waits for a player_added event.
func (b *Bridge) start(ctx context.Context) {
	path := b.pinned
	if path == "" {
		var err error
		path, err = b.discover(ctx)
		if err != nil {
			b.logger.Warn("no media player yet", "error", err)
			b.showMessage(MessageWaiting)
			return
		}
	}
	b.attach(ctx, path)
}

func (b *Bridge) handle(ctx context.Context, e model.Event) {
	eventsTotal.WithLabelValues(e.Type).Inc()

	switch e.Type {
	case model.EventTrack:
		if !b.follow(ctx, e.Player) {
			return
		}
		t := b.setTrack(e.Track)
		e.Track = &t
		b.renderNowPlaying()
		b.logger.Info("now playing", "player", e.Player, "title", t.Title, "artist", t.Artist, "album", t.Album)

	case model.EventStatus:
		if !b.follow(ctx, e.Player) {
			return
		}
		b.setStatus(e.Status)
		if _, rows := b.display.Size(); rows > 3 && !b.showingMessage {
			b.renderNowPlaying()
		}
		b.logger.Debug("playback status", "player", e.Player, "status", e.Status)

	case model.EventPlayerAdded:
		if b.pinned != "" && e.Player != b.pinned {
			return
		}
		b.logger.Info("media player appeared", "player", e.Player, "name", e.Message)
		if b.player == nil {
			b.attach(ctx, e.Player)
		}

	case model.EventPlayerRemoved:
		if e.Player != b.playerPath() {
			return
		}
		b.logger.Info("media player removed", "player", e.Player)
		b.detach()
		b.showMessage(MessageNoPlayer)

	case model.EventButton:
		b.logger.Info("button pressed", "button", e.Button, "command", e.Command)
		b.broker.Publish(e)
		_ = b.execute(ctx, e.Command, e.Button)
		return

	case model.EventMessage:
		b.showMessage(e.Message)

	default:
		b.logger.Debug("ignoring event", "type", e.Type)
		return
	}

	b.broker.Publish(e)
}

// follow reports whether events from player concern the bridge, attaching
// to player when none is attached yet.
func (b *Bridge) follow(ctx context.Context, player string) bool {
	if b.pinned != "" && player != b.pinned {
		return false
	}
	if b.player == nil {
		b.attach(ctx, player)
		return true
	}
	return player == b.playerPath()
}

func (b *Bridge) attach(ctx context.Context, path string) {
	b.player = b.open(path)
	playerAttached.Set(1)

	b.mu.Lock()
	b.current = model.NowPlaying{Player: path, UpdatedAt: time.Now().UTC()}
	b.mu.Unlock()

	b.logger.Info("attached to media player", "player", path)

	status, err := b.player.Status(ctx)
	if err != nil {
		b.logger.Warn("read player status", "player", path, "error", err)
	} else {
		b.setStatus(status)
	}

	track, err := b.player.Track(ctx)
	if err != nil {
		b.logger.Warn("read current track", "player", path, "error", err)
		b.showMessage(MessageWaiting)
		return
	}
	b.setTrack(&track)
	b.renderNowPlaying()
}

func (b *Bridge) detach() {
	b.player = nil
	playerAttached.Set(0)

	b.mu.Lock()
	b.current = model.NowPlaying{UpdatedAt: time.Now().UTC()}
	b.mu.Unlock()
}

func (b *Bridge) execute(ctx context.Context, cmd model.Command, button string) error {
	e := model.NewEvent(model.EventCommand)
	e.Command = cmd
	e.Button = button
	e.Player = b.playerPath()

	var err error
	if b.player == nil {
		err = ErrNoPlayer
	} else if err = b.player.Execute(ctx, cmd); err != nil {
		err = fmt.Errorf("%s: %w", cmd, err)
	}

	if err != nil {
		commandsTotal.WithLabelValues(cmd.String(), resultError).Inc()
		e.Error = err.Error()
		b.logger.Error("playback command failed", "command", cmd, "button", button, "error", err)
	} else {
		commandsTotal.WithLabelValues(cmd.String(), resultOK).Inc()
		b.logger.Info("playback command sent", "command", cmd, "player", e.Player)
	}

	b.broker.Publish(e)
	return err
}

func (b *Bridge) playerPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current.Player
}

// setTrack records t with placeholders applied and returns the stored value.
func (b *Bridge) setTrack(t *model.Track) model.Track {
	var track model.Track
	if t != nil {
		track = *t
	}
	track = track.WithDefaults()

	b.mu.Lock()
	defer b.mu.Unlock()
	stored := track
	b.current.Track = &stored
	b.current.UpdatedAt = time.Now().UTC()
	return track
}

func (b *Bridge) setStatus(status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current.Status = status
	b.current.UpdatedAt = time.Now().UTC()
}

func (b *Bridge) renderNowPlaying() {
	np := b.NowPlaying()
	if np.Track == nil {
		return
	}
	cols, rows := b.display.Size()
	b.showingMessage = false
	b.show(display.NowPlayingLines(*np.Track, np.Status, cols, rows))
}

func (b *Bridge) showMessage(text string) {
	b.showingMessage = true
	cols, rows := b.display.Size()
	b.show(display.MessageLines(text, cols, rows))
}

func (b *Bridge) show(lines []string) {
	if err := b.display.Show(lines); err != nil {
		displayUpdatesTotal.WithLabelValues(resultError).Inc()
		b.logger.Error("display update failed", "error", err)
		return
	}
	displayUpdatesTotal.WithLabelValues(resultOK).Inc()
}

package bluez

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/godbus/dbus/v5"
)

// ErrNoPlayer is returned when BlueZ exports no media player.
var ErrNoPlayer = errors.New("no bluetooth media player found")

// busObject is the subset of dbus.BusObject used for method calls.
type busObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

// signalBus is the subset of *dbus.Conn used for signal subscription.
type signalBus interface {
	AddMatchSignalContext(ctx context.Context, options ...dbus.MatchOption) error
	RemoveMatchSignalContext(ctx context.Context, options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
}

// PlayerInfo describes one exported media player.
type PlayerInfo struct {
	Path   dbus.ObjectPath `json:"path"`
	Name   string          `json:"name,omitempty"`
	Device dbus.ObjectPath `json:"device,omitempty"`
	Status string          `json:"status,omitempty"`
}

// Client issues calls against org.bluez and watches its signals.
type Client struct {
	bus     signalBus
	object  func(path dbus.ObjectPath) busObject
	closer  io.Closer
	timeout time.Duration
	logger  *slog.Logger
}

// Connect opens a private connection to the system bus.
func Connect(timeout time.Duration, logger *slog.Logger) (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	c := NewClient(conn, timeout, logger)
	c.closer = conn
	return c, nil
}

// NewClient wraps an existing connection. The caller keeps ownership of conn.
func NewClient(conn *dbus.Conn, timeout time.Duration, logger *slog.Logger) *Client {
	return newClient(conn, func(path dbus.ObjectPath) busObject {
		return conn.Object(busName, path)
	}, timeout, logger)
}

func newClient(bus signalBus, object func(dbus.ObjectPath) busObject, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		bus:     bus,
		object:  object,
		timeout: timeout,
		logger:  logger,
	}
}

// Close closes the connection if the client opened it.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Player returns a handle on the media player at path.
func (c *Client) Player(path dbus.ObjectPath) *Player {
	return &Player{
		path:    path,
		obj:     c.object(path),
		timeout: c.timeout,
	}
}

// Discover returns the path of the first media player BlueZ exports, in
// lexical path order.
func (c *Client) Discover(ctx context.Context) (dbus.ObjectPath, error) {
	players, err := c.Players(ctx)
	if err != nil {
		return "", err
	}
	if len(players) == 0 {
		return "", ErrNoPlayer
	}
	c.logger.Info("found media player", "player", players[0].Path, "name", players[0].Name)
	return players[0].Path, nil
}

// Players lists every exported media player, sorted by path.
func (c *Client) Players(ctx context.Context) ([]PlayerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	call := c.object(objectManagerPath).CallWithContext(ctx, methodGetManagedObjects, 0)
	if err := call.Store(&objects); err != nil {
		return nil, fmt.Errorf("get managed objects: %w", err)
	}

	var players []PlayerInfo
	for path, ifaces := range objects {
		props, ok := ifaces[mediaPlayerIface]
		if !ok {
			continue
		}
		players = append(players, PlayerInfo{
			Path:   path,
			Name:   stringProp(props, propName),
			Device: objectPathProp(props, propDevice),
			Status: stringProp(props, propStatus),
		})
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Path < players[j].Path
	})
	return players, nil
}

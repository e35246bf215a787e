package bluez

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/seantiz/spotipi/internal/model"
)

// ErrConnectionClosed is returned by Watch when the bus stops delivering
// signals.
var ErrConnectionClosed = errors.New("dbus connection closed")

// matchRules returns the signal subscriptions needed to follow media players:
// property changes on any player below /org/bluez, and players appearing or
// disappearing through the ObjectManager.
func matchRules() [][]dbus.MatchOption {
	return [][]dbus.MatchOption{
		{
			dbus.WithMatchSender(busName),
			dbus.WithMatchInterface(propertiesIface),
			dbus.WithMatchMember(memberPropertiesChanged),
			dbus.WithMatchPathNamespace(bluezNamespace),
			dbus.WithMatchArg(0, mediaPlayerIface),
		},
		{
			dbus.WithMatchSender(busName),
			dbus.WithMatchInterface(objectManagerIface),
			dbus.WithMatchMember(memberInterfacesAdded),
		},
		{
			dbus.WithMatchSender(busName),
			dbus.WithMatchInterface(objectManagerIface),
			dbus.WithMatchMember(memberInterfacesRemoved),
		},
	}
}

// Watch subscribes to media player signals and sends the decoded events to
// out until ctx is done or the connection closes. Match rules are removed on
// return.
func (c *Client) Watch(ctx context.Context, out chan<- model.Event) error {
	rules := matchRules()
	for i, rule := range rules {
		if err := c.bus.AddMatchSignalContext(ctx, rule...); err != nil {
			c.removeMatches(rules[:i])
			return fmt.Errorf("add match rule: %w", err)
		}
	}
	defer c.removeMatches(rules)

	signals := make(chan *dbus.Signal, signalBufferSize)
	c.bus.Signal(signals)
	defer c.bus.RemoveSignal(signals)

	c.logger.Info("listening for media player changes")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return ErrConnectionClosed
			}
			events, err := decodeSignal(sig)
			if err != nil {
				c.logger.Warn("dropping malformed signal", "signal", sig.Name, "path", sig.Path, "error", err)
				continue
			}
			for _, e := range events {
				select {
				case out <- e:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

func (c *Client) removeMatches(rules [][]dbus.MatchOption) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	for _, rule := range rules {
		if err := c.bus.RemoveMatchSignalContext(ctx, rule...); err != nil {
			c.logger.Debug("remove match rule", "error", err)
		}
	}
}

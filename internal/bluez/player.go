package bluez

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/seantiz/spotipi/internal/model"
)

// Player controls one org.bluez.MediaPlayer1 object.
type Player struct {
	path    dbus.ObjectPath
	obj     busObject
	timeout time.Duration
}

// Next skips to the next track.
func (p *Player) Next(ctx context.Context) error {
	return p.call(ctx, "Next")
}

// Previous returns to the previous track.
func (p *Player) Previous(ctx context.Context) error {
	return p.call(ctx, "Previous")
}

// Play resumes playback.
func (p *Player) Play(ctx context.Context) error {
	return p.call(ctx, "Play")
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context) error {
	return p.call(ctx, "Pause")
}

// Stop stops playback.
func (p *Player) Stop(ctx context.Context) error {
	return p.call(ctx, "Stop")
}

// TogglePlayPause pauses a playing player and plays anything else.
// MediaPlayer1 has no toggle method, so the current Status decides.
func (p *Player) TogglePlayPause(ctx context.Context) error {
	status, err := p.Status(ctx)
	if err != nil {
		return err
	}
	if status == model.StatusPlaying {
		return p.Pause(ctx)
	}
	return p.Play(ctx)
}

// Execute runs cmd against the player.
func (p *Player) Execute(ctx context.Context, cmd model.Command) error {
	switch cmd {
	case model.CommandNext:
		return p.Next(ctx)
	case model.CommandPrevious:
		return p.Previous(ctx)
	case model.CommandPlayPause:
		return p.TogglePlayPause(ctx)
	case model.CommandPlay:
		return p.Play(ctx)
	case model.CommandPause:
		return p.Pause(ctx)
	case model.CommandStop:
		return p.Stop(ctx)
	default:
		return fmt.Errorf("%w: %q", model.ErrUnknownCommand, cmd)
	}
}

// Status returns the player's Status property.
func (p *Player) Status(ctx context.Context) (string, error) {
	v, err := p.property(ctx, propStatus)
	if err != nil {
		return "", err
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("player %s: Status has type %s", p.path, v.Signature())
	}
	return s, nil
}

// Track returns the player's current track with placeholders applied.
func (p *Player) Track(ctx context.Context) (model.Track, error) {
	v, err := p.property(ctx, propTrack)
	if err != nil {
		return model.Track{}, err
	}
	meta, ok := v.Value().(map[string]dbus.Variant)
	if !ok {
		return model.Track{}.WithDefaults(), nil
	}
	return parseTrack(meta), nil
}

func (p *Player) call(ctx context.Context, method string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.obj.CallWithContext(ctx, mediaPlayerIface+"."+method, 0).Err; err != nil {
		return fmt.Errorf("player %s %s: %w", p.path, method, err)
	}
	return nil
}

func (p *Player) property(ctx context.Context, name string) (dbus.Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var v dbus.Variant
	call := p.obj.CallWithContext(ctx, methodPropertiesGet, 0, mediaPlayerIface, name)
	if err := call.Store(&v); err != nil {
		return dbus.Variant{}, fmt.Errorf("player %s get %s: %w", p.path, name, err)
	}
	return v, nil
}

// Package board resolves the configured GPIO wiring into display and button
// devices on the host.
package board

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/seantiz/spotipi/internal/buttons"
	"github.com/seantiz/spotipi/internal/config"
	"github.com/seantiz/spotipi/internal/display"
	"github.com/seantiz/spotipi/internal/display/console"
	"github.com/seantiz/spotipi/internal/display/hd44780"
	"github.com/seantiz/spotipi/internal/model"
)

// Display driver names accepted by the display.driver setting.
const (
	DriverHD44780 = "hd44780"
	DriverConsole = "console"
)

// ErrUnknownPin is returned for pin names the host does not expose.
var ErrUnknownPin = errors.New("unknown gpio pin")

// Board is the host the daemon runs on.
type Board struct {
	initHost func() error

	once    sync.Once
	initErr error
}

// New returns a board backed by the periph host drivers.
func New() *Board {
	return &Board{
		initHost: func() error {
			_, err := host.Init()
			return err
		},
	}
}

// Init loads the host drivers. Only the first call does any work.
func (b *Board) Init() error {
	b.once.Do(func() {
		if err := b.initHost(); err != nil {
			b.initErr = fmt.Errorf("init periph host: %w", err)
		}
	})
	return b.initErr
}

// LCDPins resolves the panel wiring. Every unknown name is reported.
func (b *Board) LCDPins(p config.LCDPins) (hd44780.Pins, error) {
	if err := b.Init(); err != nil {
		return hd44780.Pins{}, err
	}

	var errs *multierror.Error
	resolve := func(role, name string) hd44780.Pin {
		pin, err := lookup(role, name)
		if err != nil {
			errs = multierror.Append(errs, err)
			return nil
		}
		return pin
	}

	pins := hd44780.Pins{
		RS: resolve("lcd rs", p.RS),
		E:  resolve("lcd e", p.E),
		Data: [4]hd44780.Pin{
			resolve("lcd d4", p.D4),
			resolve("lcd d5", p.D5),
			resolve("lcd d6", p.D6),
			resolve("lcd d7", p.D7),
		},
	}
	if err := errs.ErrorOrNil(); err != nil {
		return hd44780.Pins{}, err
	}
	return pins, nil
}

// Buttons resolves the enabled playback buttons. Buttons with an empty pin
// name are skipped.
func (b *Board) Buttons(c config.Buttons) ([]buttons.Button, error) {
	if err := b.Init(); err != nil {
		return nil, err
	}

	wiring := []struct {
		name string
		pin  string
		cmd  model.Command
	}{
		{"next", c.Next, model.CommandNext},
		{"previous", c.Previous, model.CommandPrevious},
		{"play-pause", c.PlayPause, model.CommandPlayPause},
	}

	var errs *multierror.Error
	var out []buttons.Button
	for _, w := range wiring {
		if w.pin == "" {
			continue
		}
		pin, err := lookup("button "+w.name, w.pin)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		out = append(out, buttons.Button{Name: w.name, Pin: pin, Command: w.cmd})
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// Displays returns a registry with the hd44780 panel and a console renderer
// writing to w, both sized from cfg.
func (b *Board) Displays(cfg config.Config, w io.Writer) *display.Registry {
	reg := display.NewRegistry()
	reg.Register(DriverHD44780, func() (display.Display, error) {
		pins, err := b.LCDPins(cfg.LCDPins)
		if err != nil {
			return nil, err
		}
		dev, err := hd44780.New(pins, cfg.LCDColumns, cfg.LCDRows)
		if err != nil {
			return nil, err
		}
		return dev, nil
	})
	reg.Register(DriverConsole, func() (display.Display, error) {
		return console.New(w, cfg.LCDColumns, cfg.LCDRows), nil
	})
	return reg
}

func lookup(role, name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, fmt.Errorf("%s: no pin configured", role)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%s: %w %q", role, ErrUnknownPin, name)
	}
	return pin, nil
}

// Package buttons turns GPIO falling edges from momentary push buttons into
// button events. Each button is wired between its pin and ground and read
// with the internal pull-up enabled.
package buttons

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"periph.io/x/conn/v3/gpio"

	"github.com/seantiz/spotipi/internal/model"
)

// edgePollInterval bounds how long a pin waits for an edge before checking
// for cancellation.
const edgePollInterval = 250 * time.Millisecond

// Button binds a GPIO input to a playback command.
type Button struct {
	Name    string
	Pin     gpio.PinIn
	Command model.Command
}

// Watcher forwards debounced button presses.
type Watcher struct {
	buttons  []Button
	debounce time.Duration
	recent   *cache.Cache
	logger   *slog.Logger
}

// NewWatcher creates a watcher. Presses of the same button closer together
// than debounce are dropped.
func NewWatcher(buttons []Button, debounce time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		buttons:  buttons,
		debounce: debounce,
		recent:   cache.New(debounce, cache.NoExpiration),
		logger:   logger,
	}
}

// Run configures every pin for falling-edge detection and sends one event
// per accepted press to out. It returns when ctx is done, after all pin
// goroutines have exited.
func (w *Watcher) Run(ctx context.Context, out chan<- model.Event) error {
	for _, b := range w.buttons {
		if err := b.Pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return fmt.Errorf("configure button %s on %s: %w", b.Name, b.Pin.Name(), err)
		}
		w.logger.Info("button ready", "button", b.Name, "pin", b.Pin.Name(), "command", b.Command)
	}

	var wg sync.WaitGroup
	for _, b := range w.buttons {
		wg.Go(func() {
			w.watch(ctx, b, out)
		})
	}
	<-ctx.Done()
	wg.Wait()

	for _, b := range w.buttons {
		if err := b.Pin.Halt(); err != nil {
			w.logger.Warn("halt button pin", "button", b.Name, "error", err)
		}
	}
	return ctx.Err()
}

func (w *Watcher) watch(ctx context.Context, b Button, out chan<- model.Event) {
	for ctx.Err() == nil {
		if !b.Pin.WaitForEdge(edgePollInterval) {
			continue
		}
		if !w.accept(b.Name) {
			w.logger.Debug("debounced button press", "button", b.Name)
			continue
		}

		e := model.NewEvent(model.EventButton)
		e.Button = b.Name
		e.Command = b.Command
		select {
		case out <- e:
		case <-ctx.Done():
			return
		}
	}
}

// accept reports whether a press of the named button falls outside the
// debounce window of the previous accepted press.
func (w *Watcher) accept(name string) bool {
	if w.debounce <= 0 {
		return true
	}
	return w.recent.Add(name, struct{}{}, w.debounce) == nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seantiz/spotipi/internal/api"
	"github.com/seantiz/spotipi/internal/bluez"
	"github.com/seantiz/spotipi/internal/board"
	"github.com/seantiz/spotipi/internal/bridge"
	"github.com/seantiz/spotipi/internal/buttons"
	"github.com/seantiz/spotipi/internal/model"
)

// eventBufferSize is the capacity of the channel shared by the signal and
// button producers.
const eventBufferSize = 32

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the display daemon",
	Long:  `Attach to a Bluetooth media player, keep the display updated with the current track and forward button presses until interrupted.`,
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("spotipi: starting",
		"listen_addr", cfg.ListenAddr,
		"display", cfg.DisplayDriver,
		"lcd", fmt.Sprintf("%dx%d", cfg.LCDColumns, cfg.LCDRows),
	)

	client, err := bluez.Connect(cfg.CallTimeout, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	hw := board.New()
	disp, err := hw.Displays(cfg, cmd.OutOrStdout()).Open(cfg.DisplayDriver)
	if err != nil {
		return err
	}
	defer func() {
		if err := disp.Close(); err != nil {
			logger.Warn("close display", "error", err)
		}
	}()

	btns, err := hw.Buttons(cfg.Buttons)
	if err != nil {
		return fmt.Errorf("buttons: %w", err)
	}

	br := bridge.New(bridge.Config{
		Display: disp,
		Discover: func(ctx context.Context) (string, error) {
			path, err := client.Discover(ctx)
			return string(path), err
		},
		Open: func(path string) bridge.Player {
			return client.Player(dbus.ObjectPath(path))
		},
		PlayerPath: cfg.PlayerPath,
		Logger:     logger,
	})

	events := make(chan model.Event, eventBufferSize)
	watcher := buttons.NewWatcher(btns, cfg.Buttons.Debounce, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(br.Run(gctx, events))
	})
	g.Go(func() error {
		return ignoreCanceled(client.Watch(gctx, events))
	})
	g.Go(func() error {
		return ignoreCanceled(watcher.Run(gctx, events))
	})
	if cfg.ListenAddr != "" {
		srv := api.NewServer(cfg.ListenAddr, br, logger)
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("spotipi: stopped")
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

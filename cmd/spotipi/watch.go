package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seantiz/spotipi/internal/bluez"
	"github.com/seantiz/spotipi/internal/model"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print track changes without driving any hardware",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := bluez.Connect(cfg.CallTimeout, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	if path, err := resolvePlayer(ctx, client); err == nil {
		if t, err := client.Player(path).Track(ctx); err == nil {
			printNowPlaying(out, t)
		}
	}

	events := make(chan model.Event, eventBufferSize)
	errCh := make(chan error, 1)
	go func() { errCh <- client.Watch(ctx, events) }()

	for {
		select {
		case e := <-events:
			if e.Type == model.EventTrack && e.Track != nil {
				printNowPlaying(out, *e.Track)
			}
		case err := <-errCh:
			return ignoreCanceled(err)
		}
	}
}

func printNowPlaying(w io.Writer, t model.Track) {
	t = t.WithDefaults()
	fmt.Fprintf(w, "Now playing: Title: %s, Artist: %s, Album: %s\n", t.Title, t.Artist, t.Album)
}

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/seantiz/spotipi/internal/board"
	"github.com/seantiz/spotipi/internal/display"
)

var messageCmd = &cobra.Command{
	Use:   "message <text>...",
	Short: "Show text on the display and exit",
	Long:  `Word-wrap the text onto the configured display. The panel keeps showing it after the command exits.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMessage,
}

func init() {
	rootCmd.AddCommand(messageCmd)
}

func runMessage(cmd *cobra.Command, args []string) error {
	disp, err := board.New().Displays(cfg, cmd.OutOrStdout()).Open(cfg.DisplayDriver)
	if err != nil {
		return err
	}

	cols, rows := disp.Size()
	return disp.Show(display.MessageLines(strings.Join(args, " "), cols, rows))
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seantiz/spotipi/internal/bluez"
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List Bluetooth media players",
	Args:  cobra.NoArgs,
	RunE:  runPlayers,
}

func init() {
	rootCmd.AddCommand(playersCmd)
}

func runPlayers(cmd *cobra.Command, args []string) error {
	client, err := bluez.Connect(cfg.CallTimeout, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	players, err := client.Players(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing players: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(players) == 0 {
		fmt.Fprintln(out, "No media players (is a phone connected and playing?)")
		return nil
	}

	maxLen := 0
	for _, p := range players {
		maxLen = max(maxLen, len(p.Path))
	}
	for _, p := range players {
		status := p.Status
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(out, "%-*s  %-12s  %s\n", maxLen, p.Path, status, p.Name)
	}
	return nil
}

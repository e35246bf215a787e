package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/seantiz/spotipi/internal/bluez"
	"github.com/seantiz/spotipi/internal/model"
)

var sendCmd = &cobra.Command{
	Use:       "send <command>",
	Short:     "Send one playback command to the media player",
	Long:      `Send one playback command (` + strings.Join(commandNames(), ", ") + `) to the configured or first discovered media player.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: commandNames(),
	RunE:      runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	command, err := model.ParseCommand(args[0])
	if err != nil {
		return err
	}

	client, err := bluez.Connect(cfg.CallTimeout, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	path, err := resolvePlayer(cmd.Context(), client)
	if err != nil {
		return err
	}
	if err := client.Player(path).Execute(cmd.Context(), command); err != nil {
		return fmt.Errorf("%s on %s: %w", command, path, err)
	}
	logger.Info("playback command sent", "command", command, "player", path)
	return nil
}

// resolvePlayer returns the configured player path or discovers one.
func resolvePlayer(ctx context.Context, client *bluez.Client) (dbus.ObjectPath, error) {
	if cfg.PlayerPath != "" {
		return dbus.ObjectPath(cfg.PlayerPath), nil
	}
	return client.Discover(ctx)
}

func commandNames() []string {
	names := make([]string, len(model.Commands))
	for i, c := range model.Commands {
		names[i] = c.String()
	}
	return names
}

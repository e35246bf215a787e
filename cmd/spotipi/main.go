// Command spotipi shows what a paired Bluetooth device is playing on a
// character LCD and maps GPIO buttons to playback commands.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seantiz/spotipi/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "spotipi",
	Short:         "Bluetooth now-playing display and playback buttons",
	Long:          `spotipi follows the BlueZ media player of a paired phone, renders the current track on an HD44780 LCD and turns button presses into playback commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger = config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "spotipi:", err)
		os.Exit(1)
	}
}

// Package main provides the waytooloud command: a loudness monitor that
// measures the A-weighted room level from a microphone and plays an alert sound
// whenever a scheduled limit is exceeded.
//
// Usage:
//
//	waytooloud [command] [--config path/to/config.json]
//
// Without a command the monitor runs until interrupted. If --config is not
// specified, config.json is read from the per-user config directory.
package main

import (
	"fmt"
	"os"

	"github.com/oszuidwest/waytooloud/internal/config"
	"github.com/spf13/cobra"
)

// Build information, set through -ldflags at release time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string

	// RootCmd is the root command for waytooloud.
	RootCmd = &cobra.Command{
		Use:   "waytooloud",
		Short: "Plays an alert sound when the room gets too loud",
		Long: `waytooloud listens to a microphone, computes an A-weighted loudness level
on a 0-100 scale and checks it against scheduled limits. A limit that is
exceeded during its time window plays its sound file and sends the
configured notifications.

Running waytooloud without a command starts the monitor.

Examples:
  # Start monitoring with the default config
  waytooloud

  # Pick a microphone
  waytooloud devices
  waytooloud devices use <id>

  # Check which limits apply right now
  waytooloud limits

  # Show recent alerts
  waytooloud events --filter limit`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runMonitor,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: per-user config directory)")
	RootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime)
	RootCmd.SuggestionsMinimumDistance = 2
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration named by --config, or the default one.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}

	cfg := config.New(path)
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"

	"github.com/oszuidwest/waytooloud/internal/audio"
	"github.com/oszuidwest/waytooloud/internal/config"
	"github.com/oszuidwest/waytooloud/internal/eventlog"
	"github.com/oszuidwest/waytooloud/internal/monitor"
	"github.com/oszuidwest/waytooloud/internal/notify"
	"github.com/oszuidwest/waytooloud/internal/playback"
	"github.com/oszuidwest/waytooloud/internal/types"
	"github.com/oszuidwest/waytooloud/internal/util"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the loudness monitor",
	Long: `Start audio capture and evaluate the configured limits until interrupted.

Changes to the config file and the limits file are picked up while running.
If the microphone cannot be opened the process stays up and retries on the
next configuration change.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	RootCmd.AddCommand(runCmd)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snap := cfg.Snapshot()
	logging, err := util.SetupLogging(snap.LogLevel, snap.LogPath)
	if err != nil {
		return err
	}
	defer util.SafeCloseFunc(logging, "log file")()

	slog.Info("waytooloud starting", "version", Version, "config", cfg.FilePath(), "limits", cfg.LimitsPath())

	events, err := eventlog.NewLogger(snap.EventLogPath)
	if err != nil {
		return err
	}
	defer util.SafeCloseFunc(events, "event log")()

	analyzer := audio.NewLevelAnalyzer(audio.NewMalgoSource(), audio.CaptureConfig{
		Device:     snap.AudioInput,
		SampleRate: snap.SampleRate,
	})
	notifier := notify.NewAlertNotifier(cfg)
	defer notifier.Wait()

	mon := monitor.New(cfg, analyzer, playback.NewSpeakerPlayer(), notifier, events)

	ctx, stop := signal.NotifyContext(cmd.Context(), util.ShutdownSignals()...)
	defer stop()

	if err := mon.Start(ctx); err != nil {
		slog.Warn("monitor not started, waiting for a configuration change", "error", err)
	}

	go func() {
		err := cfg.Watch(ctx, types.ReloadDebounce, func(err error) {
			onReload(ctx, cfg, logging, mon, err)
		})
		if err != nil {
			slog.Error("config watcher stopped, changes need a restart", "error", err)
		}
	}()

	<-ctx.Done()
	st := mon.Status()
	slog.Info("shutting down", "state", st.State, "uptime", st.Uptime, "peak", st.Peak, "limits", st.LimitsCount, "last_error", st.LastError)

	if err := mon.Stop(); err != nil {
		slog.Error("error stopping monitor", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// onReload applies a reloaded configuration to the running process. Failed
// reloads are already logged by the watcher.
func onReload(ctx context.Context, cfg *config.Config, logging *util.Logging, mon *monitor.Monitor, err error) {
	if err != nil {
		return
	}

	snap := cfg.Snapshot()
	if err := logging.SetLevel(snap.LogLevel); err != nil {
		slog.Warn("invalid log level", "level", snap.LogLevel, "error", err)
	}

	switch {
	case mon.ApplyConfig():
		slog.Info("audio input changed, restarting capture", "device", snap.AudioInput)
		err = mon.Restart(ctx)
	case !mon.IsRunning():
		err = mon.Start(ctx)
	}
	if err != nil && !errors.Is(err, monitor.ErrAlreadyRunning) {
		slog.Error("failed to start monitor", "error", err)
		return
	}

	st := mon.Status()
	slog.Debug("configuration applied", "state", st.State, "device", snap.AudioInput, "min_db", st.MinDB, "max_db", st.MaxDB, "limits", st.LimitsCount)
}

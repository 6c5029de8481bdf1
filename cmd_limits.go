package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/oszuidwest/waytooloud/internal/eventlog"
	"github.com/oszuidwest/waytooloud/internal/limits"
	"github.com/spf13/cobra"
)

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "List configured limits",
	Long: `List the limits from the limits file with their schedule, threshold and
sound. Each limit is marked as active when its window covers the current time,
or as invalid when it can never fire.`,
	Args: cobra.NoArgs,
	RunE: runLimits,
}

var (
	eventsCount  int
	eventsOffset int
	eventsFilter string

	eventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Show recent capture and limit events",
		Example: `  # Last 20 events
  waytooloud events

  # Only limit alerts, next page
  waytooloud events --filter limit -n 20 --offset 20`,
		Args: cobra.NoArgs,
		RunE: runEvents,
	}
)

func init() {
	eventsCmd.Flags().IntVarP(&eventsCount, "count", "n", 20, "number of events to show")
	eventsCmd.Flags().IntVar(&eventsOffset, "offset", 0, "number of newest events to skip")
	eventsCmd.Flags().StringVar(&eventsFilter, "filter", "all", "event type: all, capture or limit")

	RootCmd.AddCommand(limitsCmd)
	RootCmd.AddCommand(eventsCmd)
}

func runLimits(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	configured := cfg.ConfiguredLimits()
	if len(configured) == 0 {
		fmt.Fprintf(out, "No limits configured in %s\n", cfg.LimitsPath())
		return nil
	}

	now := time.Now()
	for i := range configured {
		l := &configured[i]
		status := "inactive"
		if err := l.Validate(); err != nil {
			status = "invalid"
		} else if limits.IsActive(l, now) {
			status = "active"
		}

		fmt.Fprintf(out, "%-8s %-20s %s-%s %-27s >= %5.1f  %s\n",
			status, limitLabel(l), l.TimeframeFrom, l.TimeframeTo,
			strings.Join(l.Weekdays, ","), l.DBThreshold, l.SoundFile)
	}
	return nil
}

func limitLabel(l *limits.Limit) string {
	if l.Name != "" {
		return l.Name
	}
	return l.ID
}

func runEvents(cmd *cobra.Command, _ []string) error {
	filter, err := eventlog.ParseFilter(eventsFilter)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	events, more, err := eventlog.ReadLast(cfg.Snapshot().EventLogPath, eventsCount, eventsOffset, filter)
	if err != nil {
		return fmt.Errorf("failed to read event log: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(out, "No events.")
		return nil
	}
	for i := range events {
		fmt.Fprintln(out, formatEvent(&events[i]))
	}
	if more {
		fmt.Fprintf(out, "... more with --offset %d\n", eventsOffset+len(events))
	}
	return nil
}

// formatEvent renders one event line. Details are decoded generically, so
// only the fields worth a glance are shown.
func formatEvent(ev *eventlog.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-16s", ev.Timestamp.Local().Format(time.DateTime), ev.Type)
	if ev.LimitID != "" {
		fmt.Fprintf(&b, " %s", ev.LimitID)
	}

	details, _ := ev.Details.(map[string]any)
	for _, key := range []string{"device", "level", "threshold", "sound_file", "error"} {
		v, ok := details[key]
		if !ok {
			continue
		}
		if f, isNum := v.(float64); isNum {
			fmt.Fprintf(&b, " %s=%.1f", key, f)
			continue
		}
		fmt.Fprintf(&b, " %s=%v", key, v)
	}
	return b.String()
}

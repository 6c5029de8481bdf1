package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oszuidwest/waytooloud/internal/eventlog"
	"github.com/oszuidwest/waytooloud/internal/limits"
	"github.com/oszuidwest/waytooloud/internal/notify"
	"github.com/oszuidwest/waytooloud/internal/playback"
)

// evaluate runs one evaluation tick and dispatches every fired limit.
func (m *Monitor) evaluate(now time.Time) {
	for _, d := range m.evaluator.Evaluate(m.config.ConfiguredLimits(), now) {
		if d.Action == limits.ActionFire {
			m.fire(d, now)
		}
	}
}

// fire records a fired limit, notifies and starts its playback. The limit
// stays marked as playing until the playback goroutine calls Done.
func (m *Monitor) fire(d limits.Decision, now time.Time) {
	slog.Info("limit exceeded", "limit_id", d.LimitID, "name", d.Name,
		"level", d.Level, "threshold", d.Threshold, "sound", d.SoundFile)

	m.logLimit(eventlog.LimitFired, d, "")

	if m.notifier != nil {
		m.notifier.HandleFire(notify.FireEvent{
			LimitID:   d.LimitID,
			LimitName: d.Name,
			Level:     d.Level,
			Threshold: d.Threshold,
			SoundFile: d.SoundFile,
			Time:      now,
		})
	}

	m.mu.RLock()
	ctx := m.playCtx
	m.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}

	lib := playback.NewLibrary(m.config.Snapshot().SoundsDir)
	m.playbacks.Go(func() { m.play(ctx, lib, d) })
}

// play plays the sound of a fired limit. It always releases the limit, also
// when the player fails or panics; other limits are unaffected.
func (m *Monitor) play(ctx context.Context, lib *playback.Library, d limits.Decision) {
	defer m.evaluator.Done(d.LimitID)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", playback.ErrPlayback, r)
			slog.Error("playback panicked", "limit_id", d.LimitID, "error", err)
			m.logLimit(eventlog.PlaybackFailed, d, err.Error())
		}
	}()

	path, err := lib.Resolve(d.SoundFile)
	if err == nil {
		err = m.player.Play(ctx, path)
	}

	switch {
	case err == nil:
		slog.Debug("playback finished", "limit_id", d.LimitID, "sound", d.SoundFile)
	case errors.Is(err, context.Canceled):
		slog.Debug("playback cancelled", "limit_id", d.LimitID)
	default:
		slog.Error("playback failed", "limit_id", d.LimitID, "sound", d.SoundFile, "error", err)
		m.logLimit(eventlog.PlaybackFailed, d, err.Error())
	}
}

// logLimit records a limit event if an event log is configured.
func (m *Monitor) logLimit(eventType eventlog.EventType, d limits.Decision, errMsg string) {
	if m.events == nil {
		return
	}
	if err := m.events.LogLimit(eventType, d.LimitID, d.Name, d.Level, d.Threshold, d.SoundFile, errMsg); err != nil {
		slog.Warn("failed to write event log", "type", eventType, "error", err)
	}
}

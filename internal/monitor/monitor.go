// Package monitor runs the loudness monitor: it keeps audio capture open,
// evaluates limits on a fixed cadence and plays the alert sound of every limit
// that fires.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oszuidwest/waytooloud/internal/audio"
	"github.com/oszuidwest/waytooloud/internal/config"
	"github.com/oszuidwest/waytooloud/internal/eventlog"
	"github.com/oszuidwest/waytooloud/internal/limits"
	"github.com/oszuidwest/waytooloud/internal/notify"
	"github.com/oszuidwest/waytooloud/internal/playback"
	"github.com/oszuidwest/waytooloud/internal/types"
)

// Sentinel errors for monitor operations.
var (
	ErrAlreadyRunning = errors.New("monitor already running")
)

// Analyzer produces the loudness level the monitor evaluates.
type Analyzer interface {
	Start(ctx context.Context) error
	Stop() error
	IsActive() bool
	Level() float64
	SetSensitivity(minDB, maxDB float64)
	Sensitivity() audio.Sensitivity
	SetDevice(id string)
}

// Notifier is told about every limit that fires.
type Notifier interface {
	HandleFire(ev notify.FireEvent)
}

// EventLog persists capture and limit events.
type EventLog interface {
	LogCapture(eventType eventlog.EventType, device string, sampleRate int, errMsg string) error
	LogLimit(eventType eventlog.EventType, limitID, limitName string, level, threshold float64, soundFile, errMsg string) error
}

// Monitor evaluates configured limits against the live level.
type Monitor struct {
	config    *config.Config
	analyzer  Analyzer
	player    playback.Player
	notifier  Notifier // may be nil
	events    EventLog // may be nil
	evaluator *limits.Evaluator
	peaks     *audio.PeakTracker
	silence   *audio.SilenceDetector
	now       func() time.Time

	// lifecycle serializes Start and Stop, so a Stop issued while capture is
	// still opening waits for it and then shuts it down.
	lifecycle sync.Mutex

	mu         sync.RWMutex
	state      types.MonitorState
	stopChan   chan struct{}
	playCtx    context.Context
	playCancel context.CancelFunc
	startTime  time.Time
	lastError  string
	peak       float64
	device     string // input the running capture was opened with
	noSignal   bool

	loops     sync.WaitGroup
	playbacks sync.WaitGroup
}

// New creates a stopped monitor. notifier and events may be nil.
func New(cfg *config.Config, analyzer Analyzer, player playback.Player, notifier Notifier, events EventLog) *Monitor {
	return &Monitor{
		config:    cfg,
		analyzer:  analyzer,
		player:    player,
		notifier:  notifier,
		events:    events,
		evaluator: limits.NewEvaluator(analyzer),
		peaks:     audio.NewPeakTracker(),
		silence:   audio.NewSilenceDetector(),
		now:       time.Now,
		state:     types.StateStopped,
	}
}

// Evaluator exposes the limit evaluator, mainly for inspection.
func (m *Monitor) Evaluator() *limits.Evaluator {
	return m.evaluator
}

// State returns the current monitor state.
func (m *Monitor) State() types.MonitorState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsRunning reports whether the monitor is in running state.
func (m *Monitor) IsRunning() bool {
	return m.State() == types.StateRunning
}

// Start opens audio capture and starts the evaluation and peak loops. A
// capture failure is returned, logged and recorded; the monitor stays stopped
// and Start may be called again later. Loop intervals are read once here.
// A cancelled ctx is returned without opening capture.
func (m *Monitor) Start(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.state == types.StateRunning || m.state == types.StateStarting {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.state = types.StateStarting
	m.mu.Unlock()

	m.ApplyConfig()
	snap := m.config.Snapshot()

	slog.Info("starting audio capture", "device", deviceName(snap.AudioInput), "sample_rate", snap.SampleRate)
	if err := m.analyzer.Start(ctx); err != nil {
		slog.Error("audio capture failed", "device", deviceName(snap.AudioInput), "error", err)
		m.logCapture(eventlog.CaptureFailed, &snap, err.Error())

		m.mu.Lock()
		m.state = types.StateStopped
		m.lastError = err.Error()
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.state = types.StateRunning
	m.stopChan = make(chan struct{})
	m.playCtx, m.playCancel = context.WithCancel(context.Background())
	m.startTime = m.now()
	m.lastError = ""
	m.device = snap.AudioInput
	m.peak = 0
	m.noSignal = false
	m.peaks.Reset()
	m.silence.Reset()
	stop := m.stopChan
	silenceCfg := audio.DefaultSilenceConfig()
	silenceCfg.Duration = snap.SilenceWarn
	m.loops.Go(func() { m.runEvaluateLoop(stop, snap.EvaluateInterval) })
	m.loops.Go(func() { m.runPeakLoop(stop, snap.PeakInterval, silenceCfg) })
	m.mu.Unlock()

	m.logCapture(eventlog.CaptureStarted, &snap, "")
	slog.Info("monitoring loudness", "limits", len(snap.Limits),
		"min_db", snap.MinDB, "max_db", snap.MaxDB)
	return nil
}

// Stop halts the loops, cancels in-flight playback and closes capture.
// A Stop that races a Start waits for it to finish. Calling Stop on a monitor
// that is not running does nothing.
func (m *Monitor) Stop() error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	if m.state != types.StateRunning {
		m.mu.Unlock()
		return nil
	}
	m.state = types.StateStopping
	close(m.stopChan)
	m.playCancel()
	m.mu.Unlock()

	var errs []error

	m.loops.Wait()

	done := make(chan struct{})
	go func() {
		m.playbacks.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(types.ShutdownTimeout):
		slog.Warn("playback did not stop in time")
		errs = append(errs, fmt.Errorf("playback shutdown timeout"))
	}

	if err := m.analyzer.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop capture: %w", err))
	}

	snap := m.config.Snapshot()
	m.logCapture(eventlog.CaptureStopped, &snap, "")

	m.mu.Lock()
	m.state = types.StateStopped
	m.mu.Unlock()

	slog.Info("audio capture stopped")
	return errors.Join(errs...)
}

// Restart stops and starts the monitor.
func (m *Monitor) Restart(ctx context.Context) error {
	if err := m.Stop(); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return m.Start(ctx)
}

// ApplyConfig pushes the current sensitivity, peak window and input device to
// the running components. It reports whether the input device differs from
// the one capture was opened with, in which case a Restart is needed.
func (m *Monitor) ApplyConfig() (restartNeeded bool) {
	snap := m.config.Snapshot()
	m.analyzer.SetSensitivity(snap.MinDB, snap.MaxDB)
	m.analyzer.SetDevice(snap.AudioInput)
	m.peaks.SetWindow(snap.PeakWindow)

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == types.StateRunning && snap.AudioInput != m.device
}

// Status returns the current monitor status.
func (m *Monitor) Status() types.MonitorStatus {
	level := m.analyzer.Level()
	sens := m.analyzer.Sensitivity()
	playing := m.evaluator.Playing()
	limitsCount := len(m.config.ConfiguredLimits())

	m.mu.RLock()
	defer m.mu.RUnlock()

	uptime := ""
	if m.state == types.StateRunning {
		uptime = m.now().Sub(m.startTime).Truncate(time.Second).String()
	}

	return types.MonitorStatus{
		State:       m.state,
		Capturing:   m.analyzer.IsActive(),
		Level:       level,
		Peak:        m.peak,
		NoSignal:    m.noSignal,
		MinDB:       sens.MinDB,
		MaxDB:       sens.MaxDB,
		Playing:     playing,
		Uptime:      uptime,
		LastError:   m.lastError,
		LimitsCount: limitsCount,
	}
}

// runEvaluateLoop evaluates limits every interval until stop is closed.
func (m *Monitor) runEvaluateLoop(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.evaluate(m.now())
		}
	}
}

// runPeakLoop feeds the peak tracker and the silence detector every interval
// until stop is closed.
func (m *Monitor) runPeakLoop(stop <-chan struct{}, interval time.Duration, silenceCfg audio.SilenceConfig) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := m.now()
			level := m.analyzer.Level()
			m.checkSignal(m.silence.Update(level, silenceCfg, now))

			peak, changed := m.peaks.Report(level, now)
			if !changed {
				continue
			}
			m.mu.Lock()
			m.peak = peak
			m.mu.Unlock()
			slog.Debug("peak level changed", "peak", peak)
		}
	}
}

// checkSignal reports transitions into and out of a silent input.
func (m *Monitor) checkSignal(ev audio.SilenceEvent) {
	if !ev.JustEntered && !ev.JustRecovered {
		return
	}

	m.mu.Lock()
	m.noSignal = ev.JustEntered
	m.mu.Unlock()

	snap := m.config.Snapshot()
	if ev.JustEntered {
		slog.Warn("no signal from audio input, check the microphone",
			"device", deviceName(snap.AudioInput), "silent_for", ev.Duration.Truncate(time.Second))
		m.logCapture(eventlog.CaptureSilent, &snap, "")
		return
	}
	slog.Info("audio input signal recovered",
		"device", deviceName(snap.AudioInput), "silent_for", ev.Total.Truncate(time.Second))
	m.logCapture(eventlog.CaptureRecovered, &snap, "")
}

// logCapture records a capture event if an event log is configured.
func (m *Monitor) logCapture(eventType eventlog.EventType, snap *config.Snapshot, errMsg string) {
	if m.events == nil {
		return
	}
	if err := m.events.LogCapture(eventType, snap.AudioInput, snap.SampleRate, errMsg); err != nil {
		slog.Warn("failed to write event log", "type", eventType, "error", err)
	}
}

// deviceName returns a printable device ID.
func deviceName(id string) string {
	if id == "" {
		return "default"
	}
	return id
}

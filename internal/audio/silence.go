package audio

import (
	"sync"
	"time"
)

// SilenceConfig holds the thresholds for no-signal detection on the level
// scale.
type SilenceConfig struct {
	Threshold float64       // level at or below which input counts as silent
	Duration  time.Duration // silence before the input is reported dead
	Recovery  time.Duration // signal needed before the input counts as recovered
}

// DefaultSilenceConfig reports an input that stays at the bottom of the scale
// for five minutes.
func DefaultSilenceConfig() SilenceConfig {
	return SilenceConfig{
		Threshold: 0.5,
		Duration:  5 * time.Minute,
		Recovery:  2 * time.Second,
	}
}

// SilenceEvent is the result of a silence detector update.
type SilenceEvent struct {
	InSilence bool          // Currently in confirmed silence
	Duration  time.Duration // Current silence duration (0 if not silent)

	// State transitions
	JustEntered   bool          // True on the update that confirms silence
	JustRecovered bool          // True on the update that completes recovery
	Total         time.Duration // Total silence duration (only set when JustRecovered)
}

// SilenceDetector notices a capture that keeps running but delivers no
// signal, as with a muted or unplugged microphone. It is safe for concurrent
// use.
type SilenceDetector struct {
	mu            sync.Mutex
	silenceStart  time.Time // when the current silent stretch started
	recoveryStart time.Time // when signal returned after confirmed silence
	inSilence     bool
	duration      time.Duration
}

// NewSilenceDetector creates a new silence detector.
func NewSilenceDetector() *SilenceDetector {
	return &SilenceDetector{}
}

// Update feeds one level reading and returns the detector state.
func (d *SilenceDetector) Update(level float64, cfg SilenceConfig, now time.Time) SilenceEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	var event SilenceEvent

	if level <= cfg.Threshold {
		d.recoveryStart = time.Time{}
		if d.silenceStart.IsZero() {
			d.silenceStart = now
		}
		d.duration = now.Sub(d.silenceStart)

		switch {
		case d.inSilence:
			event.InSilence = true
			event.Duration = d.duration
		case d.duration >= cfg.Duration:
			d.inSilence = true
			event.InSilence = true
			event.Duration = d.duration
			event.JustEntered = true
		}
		return event
	}

	if !d.inSilence {
		d.silenceStart = time.Time{}
		return event
	}

	// Signal is back; hold the silent state until it has lasted long enough.
	if d.recoveryStart.IsZero() {
		d.recoveryStart = now
	}
	if now.Sub(d.recoveryStart) < cfg.Recovery {
		event.InSilence = true
		return event
	}

	event.JustRecovered = true
	event.Total = d.duration
	d.inSilence = false
	d.duration = 0
	d.silenceStart = time.Time{}
	d.recoveryStart = time.Time{}
	return event
}

// Reset clears the detector state.
func (d *SilenceDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silenceStart = time.Time{}
	d.recoveryStart = time.Time{}
	d.inSilence = false
	d.duration = 0
}

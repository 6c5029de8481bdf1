package audio

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
)

// captureState represents whether the analyzer holds an open capture stream.
type captureState int

const (
	stateIdle captureState = iota
	stateMonitoring
)

// LevelAnalyzer owns a capture stream and reports A-weighted loudness as a
// percentage. Level never blocks on Start or Stop: while either holds the
// session lock it returns the last computed value.
// It is safe for concurrent use.
type LevelAnalyzer struct {
	source Source
	cfg    CaptureConfig

	mu     sync.Mutex
	state  captureState
	stream Stream
	bins   []byte

	active    atomic.Bool
	lastLevel atomic.Uint64 // math.Float64bits of the last level

	sensMu      sync.RWMutex
	sensitivity Sensitivity
}

// NewLevelAnalyzer creates an idle analyzer that opens streams from source.
func NewLevelAnalyzer(source Source, cfg CaptureConfig) *LevelAnalyzer {
	cfg.FFTSize = cmp.Or(cfg.FFTSize, FFTSize)
	if cfg.Smoothing == 0 {
		cfg.Smoothing = SmoothingTimeConstant
	}
	return &LevelAnalyzer{
		source:      source,
		cfg:         cfg,
		state:       stateIdle,
		sensitivity: DefaultSensitivity(),
	}
}

// Start opens the capture stream. It is a no-op while already monitoring.
// On failure the analyzer stays idle and the error wraps ErrCaptureUnavailable.
func (a *LevelAnalyzer) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == stateMonitoring {
		return nil
	}

	stream, err := a.source.Open(ctx, a.cfg)
	if err != nil {
		if !errors.Is(err, ErrCaptureUnavailable) {
			err = fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
		}
		return err
	}

	a.stream = stream
	a.bins = make([]byte, a.cfg.FFTSize/2)
	a.state = stateMonitoring
	a.active.Store(true)
	return nil
}

// Stop closes the capture stream. Calling Stop while idle does nothing.
func (a *LevelAnalyzer) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == stateIdle {
		return nil
	}

	a.active.Store(false)
	err := a.stream.Close()
	if err != nil {
		slog.Warn("error closing capture stream", "error", err)
	}

	a.stream = nil
	a.bins = nil
	a.state = stateIdle
	a.lastLevel.Store(0)
	return err
}

// SetDevice selects the input device used by the next Start.
func (a *LevelAnalyzer) SetDevice(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Device = id
}

// IsActive reports whether a capture stream is open.
func (a *LevelAnalyzer) IsActive() bool {
	return a.active.Load()
}

// Level returns the current loudness in [0, 100], or 0 while idle.
func (a *LevelAnalyzer) Level() float64 {
	if !a.mu.TryLock() {
		return math.Float64frombits(a.lastLevel.Load())
	}
	defer a.mu.Unlock()

	if a.state != stateMonitoring {
		return 0
	}

	a.stream.FrequencyBins(a.bins)
	level := WeightedLevel(a.bins, a.stream.SampleRate(), a.cfg.FFTSize, a.Sensitivity())
	a.lastLevel.Store(math.Float64bits(level))
	return level
}

// SetSensitivity replaces the dB range used by subsequent Level calls.
// Values are not validated here.
func (a *LevelAnalyzer) SetSensitivity(minDB, maxDB float64) {
	a.sensMu.Lock()
	defer a.sensMu.Unlock()
	a.sensitivity = Sensitivity{MinDB: minDB, MaxDB: maxDB}
}

// Sensitivity returns the current dB range.
func (a *LevelAnalyzer) Sensitivity() Sensitivity {
	a.sensMu.RLock()
	defer a.sensMu.RUnlock()
	return a.sensitivity
}

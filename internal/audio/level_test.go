package audio

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	mu     sync.Mutex
	bins   []byte
	rate   float64
	closed int
}

func (s *fakeStream) FrequencyBins(dst []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(dst, s.bins)
}

func (s *fakeStream) SampleRate() float64 { return s.rate }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakeSource struct {
	stream *fakeStream
	err    error
	opens  int
	cfg    CaptureConfig
}

func (f *fakeSource) Open(_ context.Context, cfg CaptureConfig) (Stream, error) {
	f.opens++
	f.cfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

func loudStream() *fakeStream {
	bins := make([]byte, BinCount)
	for i := range bins {
		bins[i] = 255
	}
	return &fakeStream{bins: bins, rate: 48000}
}

func TestLevelAnalyzerIdleReportsZero(t *testing.T) {
	a := NewLevelAnalyzer(&fakeSource{stream: loudStream()}, CaptureConfig{})

	assert.False(t, a.IsActive())
	assert.Zero(t, a.Level())
}

func TestLevelAnalyzerStartStop(t *testing.T) {
	src := &fakeSource{stream: loudStream()}
	a := NewLevelAnalyzer(src, CaptureConfig{Device: "mic-1"})

	require.NoError(t, a.Start(context.Background()))
	assert.True(t, a.IsActive())
	assert.Equal(t, FFTSize, src.cfg.FFTSize)
	assert.Equal(t, SmoothingTimeConstant, src.cfg.Smoothing)
	assert.Equal(t, "mic-1", src.cfg.Device)
	assert.InDelta(t, 95.47, a.Level(), 0.01)

	require.NoError(t, a.Stop())
	assert.False(t, a.IsActive())
	assert.Zero(t, a.Level())
	assert.Equal(t, 1, src.stream.closed)
}

func TestLevelAnalyzerStartWhileMonitoringIsNoop(t *testing.T) {
	src := &fakeSource{stream: loudStream()}
	a := NewLevelAnalyzer(src, CaptureConfig{})

	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Start(context.Background()))
	assert.Equal(t, 1, src.opens)
}

func TestLevelAnalyzerStopIsIdempotent(t *testing.T) {
	src := &fakeSource{stream: loudStream()}
	a := NewLevelAnalyzer(src, CaptureConfig{})

	require.NoError(t, a.Stop(), "stop while idle")
	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Stop())
	require.NoError(t, a.Stop())
	assert.Equal(t, 1, src.stream.closed)
}

func TestLevelAnalyzerStartFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("permission denied")}
	a := NewLevelAnalyzer(src, CaptureConfig{})

	err := a.Start(context.Background())
	require.ErrorIs(t, err, ErrCaptureUnavailable)
	assert.False(t, a.IsActive())
	assert.Zero(t, a.Level())

	src.err = nil
	src.stream = loudStream()
	require.NoError(t, a.Start(context.Background()), "retry after failure")
	assert.True(t, a.IsActive())
}

func TestLevelAnalyzerSensitivityTakesEffectImmediately(t *testing.T) {
	a := NewLevelAnalyzer(&fakeSource{stream: loudStream()}, CaptureConfig{})
	require.NoError(t, a.Start(context.Background()))

	assert.Equal(t, DefaultSensitivity(), a.Sensitivity())
	before := a.Level()

	a.SetSensitivity(-100, -40)
	assert.Equal(t, Sensitivity{MinDB: -100, MaxDB: -40}, a.Sensitivity())
	assert.Equal(t, 100.0, a.Level())
	assert.Less(t, before, 100.0)
}

func TestLevelAnalyzerInvertedSensitivityDoesNotPanic(t *testing.T) {
	a := NewLevelAnalyzer(&fakeSource{stream: loudStream()}, CaptureConfig{})
	require.NoError(t, a.Start(context.Background()))

	a.SetSensitivity(0, -60)
	level := a.Level()
	assert.GreaterOrEqual(t, level, 0.0)
	assert.LessOrEqual(t, level, 100.0)
}

func TestLevelAnalyzerConcurrentLevelAndStop(t *testing.T) {
	a := NewLevelAnalyzer(&fakeSource{stream: loudStream()}, CaptureConfig{})
	require.NoError(t, a.Start(context.Background()))

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 200 {
				level := a.Level()
				if level < 0 || level > 100 {
					t.Errorf("Level() = %v, want within [0, 100]", level)
				}
			}
		})
	}
	wg.Go(func() { _ = a.Stop() })
	wg.Wait()

	assert.Zero(t, a.Level())
}

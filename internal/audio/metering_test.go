package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAWeight(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		want float64
	}{
		{"dc", 0, 0},
		{"20Hz", 20, 0.0030262},
		{"100Hz", 100, 0.1104791},
		{"1kHz is near unity", 1000, 1.0009655},
		{"2.5kHz peak region", 2500, 1.1586507},
		{"10kHz", 10000, 0.7513283},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AWeight(tt.freq), 1e-6)
		})
	}
}

func TestAWeightFiniteAndNonNegative(t *testing.T) {
	freqs := []float64{1e6, 1e9, 1e38, 1e76, 1e77, 1e78, 1e150, 1e154, 1e155, 1e300, math.MaxFloat64}
	for f := 0.0; f <= 96000; f += 187.5 {
		freqs = append(freqs, f)
	}

	for _, f := range freqs {
		w := AWeight(f)
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			t.Fatalf("AWeight(%v) = %v, want finite >= 0", f, w)
		}
	}
}

func TestAWeightFallsOffAboveAudioBand(t *testing.T) {
	assert.Less(t, AWeight(1e6), AWeight(20000))
	assert.Less(t, AWeight(1e9), AWeight(1e6))
	assert.Zero(t, AWeight(1e150))
	assert.Zero(t, AWeight(math.MaxFloat64))
}

func TestWeightedLevel(t *testing.T) {
	full := make([]byte, BinCount)
	for i := range full {
		full[i] = 255
	}
	single := make([]byte, BinCount)
	single[5] = 255

	tests := []struct {
		name       string
		bins       []byte
		sampleRate float64
		sens       Sensitivity
		want       float64
	}{
		{"silence is zero", make([]byte, BinCount), 48000, DefaultSensitivity(), 0},
		{"full scale", full, 48000, DefaultSensitivity(), 95.4731663},
		{"full scale saturates narrow range", full, 48000, Sensitivity{MinDB: -100, MaxDB: -40}, 100},
		{"single bin at 937.5Hz", single, 48000, DefaultSensitivity(), 64.5499740},
		{"empty snapshot", nil, 48000, DefaultSensitivity(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedLevel(tt.bins, tt.sampleRate, FFTSize, tt.sens)
			assert.InDelta(t, tt.want, got, 1e-4)
		})
	}
}

func TestWeightedLevelIsDeterministic(t *testing.T) {
	bins := make([]byte, BinCount)
	for i := range bins {
		bins[i] = byte(i * 2)
	}
	first := WeightedLevel(bins, 44100, FFTSize, DefaultSensitivity())
	for range 10 {
		assert.Equal(t, first, WeightedLevel(bins, 44100, FFTSize, DefaultSensitivity()))
	}
}

func TestSensitivityPercent(t *testing.T) {
	s := DefaultSensitivity()
	assert.InDelta(t, 0, s.Percent(-60), 1e-9)
	assert.InDelta(t, 50, s.Percent(-30), 1e-9)
	assert.InDelta(t, 100, s.Percent(0), 1e-9)
	assert.InDelta(t, 0, s.Percent(-120), 1e-9, "below range clamps")
	assert.InDelta(t, 100, s.Percent(12), 1e-9, "above range clamps")
}

func TestSensitivityPercentMonotonic(t *testing.T) {
	s := Sensitivity{MinDB: -80, MaxDB: -10}
	prev := -1.0
	for db := -120.0; db <= 10; db += 0.5 {
		got := s.Percent(db)
		if got < prev {
			t.Fatalf("Percent(%v) = %v, decreased from %v", db, got, prev)
		}
		prev = got
	}
}

func TestSensitivityPercentInvertedRange(t *testing.T) {
	s := Sensitivity{MinDB: 0, MaxDB: -60}
	assert.InDelta(t, 100, s.Percent(-60), 1e-9)
	assert.InDelta(t, 0, s.Percent(0), 1e-9)
}

func TestSensitivityPercentDegenerateRange(t *testing.T) {
	s := Sensitivity{MinDB: -30, MaxDB: -30}
	assert.Equal(t, 0.0, s.Percent(-30))
	assert.Equal(t, 100.0, s.Percent(-10))
	assert.Equal(t, 0.0, s.Percent(-50))
}

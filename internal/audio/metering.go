// Package audio provides microphone capture, frequency analysis and
// A-weighted loudness metering.
package audio

import "math"

const (
	// FFTSize is the analysis window length in samples.
	FFTSize = 256
	// BinCount is the number of frequency bins produced per snapshot.
	BinCount = FFTSize / 2
	// SmoothingTimeConstant blends each snapshot with the previous one.
	SmoothingTimeConstant = 0.8

	// DefaultMinDB maps to 0% loudness.
	DefaultMinDB = -60.0
	// DefaultMaxDB maps to 100% loudness.
	DefaultMaxDB = 0.0

	// rmsFloor keeps log10 finite for silent input.
	rmsFloor = 1e-6
	// maxBinValue is the full-scale value of a byte magnitude bin.
	maxBinValue = 255.0
)

// WeightedLevel converts a byte magnitude spectrum into a loudness percentage
// in [0, 100]. Bin i covers i*sampleRate/fftSize Hz. Each bin is normalised to
// [0, 1], A-weighted, and combined into an RMS value whose dB level is mapped
// linearly through the sensitivity range.
//
// The result depends only on its arguments. A degenerate range (MinDB ==
// MaxDB) reports 0.
func WeightedLevel(bins []byte, sampleRate float64, fftSize int, s Sensitivity) float64 {
	if len(bins) == 0 || fftSize <= 0 {
		return 0
	}

	binWidth := sampleRate / float64(fftSize)
	var sum float64
	for i, amp := range bins {
		weighted := (float64(amp) / maxBinValue) * AWeight(float64(i)*binWidth)
		sum += weighted * weighted
	}

	rms := math.Sqrt(sum / float64(len(bins)))
	db := 20 * math.Log10(max(rms, rmsFloor))

	return s.Percent(db)
}

// Percent maps a dB value through the sensitivity range to [0, 100].
// Inverted ranges produce an inverted mapping.
func (s Sensitivity) Percent(db float64) float64 {
	pct := (db - s.MinDB) / (s.MaxDB - s.MinDB) * 100
	if math.IsNaN(pct) {
		return 0
	}
	return min(max(pct, 0), 100)
}

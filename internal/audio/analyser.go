package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Byte magnitude scaling range in dB.
const (
	MinDecibels = -100.0
	MaxDecibels = -30.0
)

// Analyser turns a stream of mono samples into smoothed byte magnitude
// spectra. Samples are kept in a ring of the last fftSize values; each
// snapshot applies a Blackman window, an FFT, exponential smoothing against
// the previous snapshot and a dB-to-byte mapping over MinDecibels..MaxDecibels.
// It is safe for concurrent use.
type Analyser struct {
	mu         sync.Mutex
	sampleRate float64
	fftSize    int
	smoothing  float64

	ring   []float64
	pos    int
	frame  []float64
	coeffs []complex128
	smooth []float64
	fft    *fourier.FFT
}

// NewAnalyser creates an analyser for the given sample rate. fftSize must be
// a power of two; smoothing is clamped to [0, 1].
func NewAnalyser(sampleRate float64, fftSize int, smoothing float64) *Analyser {
	return &Analyser{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		smoothing:  min(max(smoothing, 0), 1),
		ring:       make([]float64, fftSize),
		frame:      make([]float64, fftSize),
		coeffs:     make([]complex128, fftSize/2+1),
		smooth:     make([]float64, fftSize/2),
		fft:        fourier.NewFFT(fftSize),
	}
}

// Write appends samples to the analysis ring, overwriting the oldest.
func (a *Analyser) Write(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.ring[a.pos] = float64(s)
		a.pos = (a.pos + 1) % a.fftSize
	}
}

// SampleRate returns the sample rate the analyser was created with.
func (a *Analyser) SampleRate() float64 {
	return a.sampleRate
}

// FrequencyBins fills dst with up to fftSize/2 byte magnitudes.
func (a *Analyser) FrequencyBins(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Oldest sample first.
	n := copy(a.frame, a.ring[a.pos:])
	copy(a.frame[n:], a.ring[:a.pos])
	window.Blackman(a.frame)

	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)

	scale := maxBinValue / (MaxDecibels - MinDecibels)
	for k := range a.smooth {
		mag := cmplx.Abs(a.coeffs[k]) / float64(a.fftSize)
		a.smooth[k] = a.smoothing*a.smooth[k] + (1-a.smoothing)*mag
		if k >= len(dst) {
			continue
		}
		db := 20 * math.Log10(a.smooth[k])
		v := math.Floor(scale * (db - MinDecibels))
		if math.IsNaN(v) {
			v = 0
		}
		dst[k] = byte(min(max(v, 0), maxBinValue))
	}
}


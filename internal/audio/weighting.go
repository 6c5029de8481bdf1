package audio

import "math"

// A-weighting pole frequencies, squared.
const (
	aWeightC1 = 12194.217 * 12194.217
	aWeightC2 = 20.598997 * 20.598997
	aWeightC3 = 107.65265 * 107.65265
	aWeightC4 = 737.86223 * 737.86223

	// aWeightGain normalises the curve to unity at 1 kHz.
	aWeightGain = 1.2588966 * 148840000
)

// AWeight returns the linear A-weighting gain for the given frequency in Hz.
// The result is non-negative and finite for every finite frequency >= 0. The
// curve falls off as 1/f² above the audio band, so frequencies whose terms
// overflow yield 0, as does a zero or negative denominator.
func AWeight(frequencyHz float64) float64 {
	f2 := frequencyHz * frequencyHz
	f4 := f2 * f2

	num := aWeightGain * f4
	den := (f2 + aWeightC2) * math.Sqrt((f2+aWeightC3)*(f2+aWeightC4)) * (f2 + aWeightC1)
	if den <= 0 || math.IsInf(den, 0) {
		return 0
	}
	w := num / den
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0
	}
	return w
}

package audio

import (
	"context"
	"errors"
)

// Sentinel errors for audio capture.
var (
	// ErrCaptureUnavailable is returned when the microphone cannot be opened.
	// It is recoverable: the caller may retry Start later.
	ErrCaptureUnavailable = errors.New("audio capture unavailable")
	// ErrNoAudioDevice is returned when no audio input device is available.
	ErrNoAudioDevice = errors.New("no audio input device found")
)

// DefaultSampleRate is requested from the backend when none is configured.
const DefaultSampleRate = 48000

// CaptureConfig defines how a capture stream is opened.
type CaptureConfig struct {
	// Device is the input device ID. Empty selects the system default.
	Device string
	// SampleRate is the requested capture rate in Hz.
	SampleRate int
	// FFTSize is the analysis window length in samples.
	FFTSize int
	// Smoothing is the spectrum smoothing time constant in [0, 1].
	Smoothing float64
}

// Source opens live capture streams.
type Source interface {
	Open(ctx context.Context, cfg CaptureConfig) (Stream, error)
}

// Stream is an open capture session exposing the current spectrum.
type Stream interface {
	// FrequencyBins fills dst with the latest byte magnitude spectrum.
	FrequencyBins(dst []byte)
	// SampleRate returns the effective capture rate in Hz.
	SampleRate() float64
	// Close releases the device.
	Close() error
}

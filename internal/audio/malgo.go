package audio

import (
	"cmp"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// MalgoSource captures mono float samples from a miniaudio input device.
type MalgoSource struct{}

// NewMalgoSource returns a Source backed by miniaudio.
func NewMalgoSource() *MalgoSource {
	return &MalgoSource{}
}

// Open initialises the backend, opens the configured device and starts
// feeding an Analyser. All failures wrap ErrCaptureUnavailable.
func (s *MalgoSource) Open(ctx context.Context, cfg CaptureConfig) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %w", ErrCaptureUnavailable, err)
	}
	release := func() {
		_ = mctx.Uninit()
		mctx.Free()
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	sampleRate := cmp.Or(cfg.SampleRate, DefaultSampleRate)
	deviceConfig.SampleRate = uint32(sampleRate) //nolint:gosec // Validated by config
	deviceConfig.Alsa.NoMMap = 1

	if cfg.Device != "" {
		info, err := findCaptureDevice(mctx, cfg.Device)
		if err != nil {
			release()
			return nil, fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
		}
		deviceConfig.Capture.DeviceID = info.ID.Pointer()
	}

	// miniaudio converts to the requested rate, so the analyser can be sized up front.
	analyser := NewAnalyser(float64(sampleRate), cmp.Or(cfg.FFTSize, FFTSize), cfg.Smoothing)

	var samples []float32
	onData := func(_, input []byte, frameCount uint32) {
		n := min(int(frameCount), len(input)/4)
		if cap(samples) < n {
			samples = make([]float32, n)
		}
		samples = samples[:n]
		for i := range samples {
			samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(input[i*4:]))
		}
		analyser.Write(samples)
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		release()
		return nil, fmt.Errorf("%w: init capture device: %w", ErrCaptureUnavailable, err)
	}
	stream := &malgoStream{ctx: mctx, device: device, analyser: analyser}

	if err := device.Start(); err != nil {
		device.Uninit()
		release()
		return nil, fmt.Errorf("%w: start capture device: %w", ErrCaptureUnavailable, err)
	}

	slog.Info("audio capture started", "device", cmp.Or(cfg.Device, "default"), "sample_rate", sampleRate)
	return stream, nil
}

// findCaptureDevice looks up a capture device by its ID string.
func findCaptureDevice(mctx *malgo.AllocatedContext, id string) (malgo.DeviceInfo, error) {
	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceInfo{}, fmt.Errorf("list capture devices: %w", err)
	}
	for _, info := range infos {
		if info.ID.String() == id {
			return info, nil
		}
	}
	return malgo.DeviceInfo{}, fmt.Errorf("%w: %s", ErrNoAudioDevice, id)
}

// malgoStream is an open miniaudio capture device.
type malgoStream struct {
	ctx       *malgo.AllocatedContext
	device    *malgo.Device
	analyser  *Analyser
	closeOnce sync.Once
}

func (m *malgoStream) FrequencyBins(dst []byte) {
	m.analyser.FrequencyBins(dst)
}

func (m *malgoStream) SampleRate() float64 {
	return m.analyser.SampleRate()
}

// Close stops the device and releases the backend context. Safe to call more than once.
func (m *malgoStream) Close() error {
	var err error
	m.closeOnce.Do(func() {
		if stopErr := m.device.Stop(); stopErr != nil {
			err = fmt.Errorf("stop capture device: %w", stopErr)
		}
		m.device.Uninit()
		_ = m.ctx.Uninit()
		m.ctx.Free()
		slog.Info("audio capture stopped")
	})
	return err
}

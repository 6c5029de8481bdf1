package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// SpeakerRate is the fixed output rate of the speaker. Sounds recorded at
// other rates are resampled.
const SpeakerRate beep.SampleRate = 44100

// resampleQuality trades CPU for quality in beep.Resample (1-64).
const resampleQuality = 4

// Player plays a sound file to completion or until ctx is cancelled.
type Player interface {
	Play(ctx context.Context, path string) error
}

// SpeakerPlayer plays sounds on the default output device. Concurrent calls
// are mixed by the speaker.
type SpeakerPlayer struct {
	initOnce sync.Once
	initErr  error
}

// NewSpeakerPlayer returns a player. The output device is opened on first use.
func NewSpeakerPlayer() *SpeakerPlayer {
	return &SpeakerPlayer{}
}

func (p *SpeakerPlayer) init() error {
	p.initOnce.Do(func() {
		p.initErr = speaker.Init(SpeakerRate, SpeakerRate.N(time.Second/10))
		if p.initErr != nil {
			slog.Error("failed to open audio output", "error", p.initErr)
		}
	})
	return p.initErr
}

// Play decodes path and blocks until it has been played. Cancelling ctx
// stops the sound early and returns ctx.Err().
func (p *SpeakerPlayer) Play(ctx context.Context, path string) error {
	stream, format, err := Decode(path)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	if err := p.init(); err != nil {
		return fmt.Errorf("%w: open output: %w", ErrPlayback, err)
	}

	var s beep.Streamer = stream
	if format.SampleRate != SpeakerRate {
		s = beep.Resample(resampleQuality, format.SampleRate, SpeakerRate, stream)
	}

	done := make(chan struct{})
	ctrl := &beep.Ctrl{Streamer: beep.Seq(s, beep.Callback(func() {
		close(done)
	}))}
	speaker.Play(ctrl)

	select {
	case <-done:
		if err := stream.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrPlayback, err)
		}
		return nil
	case <-ctx.Done():
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()
		return ctx.Err()
	}
}

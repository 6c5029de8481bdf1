package audio

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/malgo"
)

// Devices returns the capture devices reported by the miniaudio backend.
func Devices() ([]Device, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %w", ErrCaptureUnavailable, err)
	}
	defer func() {
		if err := mctx.Uninit(); err != nil {
			slog.Warn("failed to release audio context", "error", err)
		}
		mctx.Free()
	}()

	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("list capture devices: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, Device{
			ID:      info.ID.String(),
			Name:    info.Name(),
			Default: info.IsDefault != 0,
		})
	}
	return devices, nil
}

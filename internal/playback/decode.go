// Package playback decodes alert sounds and plays them on the default output
// device.
package playback

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

var (
	// ErrUnsupportedFormat is returned for sound files that cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported sound format")
	// ErrPlayback is returned when a sound cannot be decoded or played.
	ErrPlayback = errors.New("playback failed")
)

// SupportedExtensions lists the sound file extensions that can be played.
var SupportedExtensions = []string{".mp3", ".wav", ".ogg", ".flac"}

// Supported reports whether path has a playable extension.
func Supported(path string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// fileStream closes the underlying file together with the decoder. The wav
// and flac decoders only receive an io.Reader and never close it.
type fileStream struct {
	beep.StreamSeekCloser
	f *os.File
}

func (s *fileStream) Close() error {
	err := s.StreamSeekCloser.Close()
	if ferr := s.f.Close(); ferr != nil && !errors.Is(ferr, os.ErrClosed) {
		err = errors.Join(err, ferr)
	}
	return err
}

// Decode opens and decodes a sound file. The caller must close the stream.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: open sound: %w", ErrPlayback, err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)

	switch ext {
	case ".ogg":
		stream, format, err = vorbis.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	}

	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: decode %s: %w", ErrPlayback, filepath.Base(path), err)
	}

	return &fileStream{StreamSeekCloser: stream, f: f}, format, nil
}

package playback

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWAV writes a mono 16-bit PCM file of n silent samples.
func writeWAV(t *testing.T, path string, rate, n int) {
	t.Helper()

	var buf bytes.Buffer
	dataSize := n * 2
	le := binary.LittleEndian

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, le, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, le, uint32(16))
	_ = binary.Write(&buf, le, uint16(1)) // PCM
	_ = binary.Write(&buf, le, uint16(1)) // mono
	_ = binary.Write(&buf, le, uint32(rate))
	_ = binary.Write(&buf, le, uint32(rate*2))
	_ = binary.Write(&buf, le, uint16(2))
	_ = binary.Write(&buf, le, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, le, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.mp3", "b.WAV", "c.ogg", "dir/d.flac"} {
		assert.True(t, Supported(name), name)
	}
	for _, name := range []string{"a.aac", "b", "c.wav.txt", ".mp3x"} {
		assert.False(t, Supported(name), name)
	}
}

func TestDecodeRejectsUnsupportedFormat(t *testing.T) {
	_, _, err := Decode("alarm.aac")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeMissingFile(t *testing.T) {
	_, _, err := Decode(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, ErrPlayback)
}

func TestDecodeCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wave file"), 0o600))

	_, _, err := Decode(path)
	assert.ErrorIs(t, err, ErrPlayback)
}

func TestDecodeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bell.wav")
	writeWAV(t, path, 8000, 800)

	stream, format, err := Decode(path)
	require.NoError(t, err)
	defer func() { assert.NoError(t, stream.Close()) }()

	assert.Equal(t, beep.SampleRate(8000), format.SampleRate)
	assert.Equal(t, 1, format.NumChannels)
	assert.Equal(t, 800, stream.Len())
}

func TestLibraryResolve(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(dir)

	got, err := lib.Resolve("bell.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bell.wav"), got)

	got, err = lib.Resolve("alerts/horn.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "alerts", "horn.mp3"), got)

	abs := filepath.Join(t.TempDir(), "elsewhere.ogg")
	got, err = lib.Resolve(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	_, err = lib.Resolve("")
	assert.ErrorIs(t, err, ErrNoSound)

	_, err = lib.Resolve("../escape.wav")
	assert.Error(t, err)
}

func TestLibraryList(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(dir)

	for _, name := range []string{"b.mp3", "a.wav", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.wav"), 0o755))

	sounds, err := lib.List()
	require.NoError(t, err)
	require.Len(t, sounds, 2)
	assert.Equal(t, "a.wav", sounds[0].Name)
	assert.Equal(t, "b.mp3", sounds[1].Name)
	assert.Equal(t, int64(1), sounds[0].Size)
}

func TestLibraryListMissingDir(t *testing.T) {
	sounds, err := NewLibrary(filepath.Join(t.TempDir(), "none")).List()
	require.NoError(t, err)
	assert.Empty(t, sounds)
}

func TestLibraryImport(t *testing.T) {
	src := filepath.Join(t.TempDir(), "chime.wav")
	writeWAV(t, src, 44100, 441)

	lib := NewLibrary(filepath.Join(t.TempDir(), "sounds"))
	name, err := lib.Import(src)
	require.NoError(t, err)
	assert.Equal(t, "chime.wav", name)

	want, err := os.ReadFile(src)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(lib.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	sounds, err := lib.List()
	require.NoError(t, err)
	require.Len(t, sounds, 1)
}

func TestLibraryImportRejectsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(filepath.Join(dir, "sounds"))

	_, err := lib.Import(filepath.Join(dir, "clip.aac"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	broken := filepath.Join(dir, "broken.wav")
	require.NoError(t, os.WriteFile(broken, []byte("garbage"), 0o600))
	_, err = lib.Import(broken)
	assert.ErrorIs(t, err, ErrPlayback)

	_, statErr := os.Stat(lib.Dir())
	assert.True(t, os.IsNotExist(statErr), "library is untouched")
}

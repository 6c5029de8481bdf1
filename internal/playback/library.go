package playback

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/oszuidwest/waytooloud/internal/util"
)

// ErrNoSound is returned when a limit has no sound file configured.
var ErrNoSound = errors.New("no sound file configured")

// Sound describes a file in the sound library.
type Sound struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Library is a directory of alert sounds. Limits refer to sounds by a name
// relative to the library, or by an absolute path.
type Library struct {
	dir string
}

// NewLibrary returns a library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Dir returns the library directory.
func (l *Library) Dir() string {
	return l.dir
}

// Resolve maps a sound file reference to a path on disk.
func (l *Library) Resolve(name string) (string, error) {
	if name == "" {
		return "", ErrNoSound
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name), nil
	}
	if err := util.ValidatePath("sound file", name); err != nil {
		return "", err
	}
	return filepath.Join(l.dir, name), nil
}

// List returns the playable files in the library, sorted by name. A missing
// directory is an empty library.
func (l *Library) List() ([]Sound, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return []Sound{}, nil
	}
	if err != nil {
		return nil, util.WrapError("read sound library", err)
	}

	sounds := make([]Sound, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		sounds = append(sounds, Sound{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	slices.SortFunc(sounds, func(a, b Sound) int { return cmp.Compare(a.Name, b.Name) })
	return sounds, nil
}

// Import copies a playable sound file into the library and returns the name
// limits should use to refer to it. Existing files are overwritten.
func (l *Library) Import(src string) (string, error) {
	stream, _, err := Decode(src)
	if err != nil {
		return "", err
	}
	if err := stream.Close(); err != nil {
		return "", util.WrapError("close sound", err)
	}

	if err := util.CheckPathWritable(l.dir); err != nil {
		return "", err
	}

	name := filepath.Base(src)
	if err := copyFile(src, filepath.Join(l.dir, name)); err != nil {
		return "", err
	}
	return name, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return util.WrapError("open sound", err)
	}
	defer util.SafeCloseFunc(in, "sound source")()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".import-*")
	if err != nil {
		return util.WrapError("create sound file", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return util.WrapError("copy sound", err)
	}
	if err = tmp.Close(); err != nil {
		return util.WrapError("write sound", err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to store sound %s: %w", filepath.Base(dst), err)
	}
	return nil
}

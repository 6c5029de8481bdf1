package util

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathNotWritable is returned by CheckPathWritable.
var ErrPathNotWritable = errors.New("path is not writable")

// IsConfigured reports whether all provided values are non-empty.
func IsConfigured(values ...string) bool {
	for _, v := range values {
		if v == "" {
			return false
		}
	}
	return true
}

// ValidatePath rejects empty paths and any path containing "..".
func ValidatePath(field, path string) error {
	if path == "" {
		return fmt.Errorf("%s: is required", field)
	}

	// Reject before cleaning: Clean would silently resolve "a/../b".
	if strings.Contains(path, "..") {
		return fmt.Errorf("%s: path cannot contain '..'", field)
	}

	return nil
}

// CheckPathWritable creates dir if needed and verifies a file can be written
// and removed inside it.
func CheckPathWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("path writability check failed", "path", dir, "error", err, "step", "mkdir")
		return fmt.Errorf("%w: %s", ErrPathNotWritable, dir)
	}

	f, err := os.CreateTemp(dir, ".waytooloud-write-test-*")
	if err != nil {
		slog.Error("path writability check failed", "path", dir, "error", err, "step", "create")
		return fmt.Errorf("%w: %s", ErrPathNotWritable, dir)
	}
	name := f.Name()

	_, writeErr := f.Write(make([]byte, 1024))
	closeErr := f.Close()
	removeErr := os.Remove(name)
	if err := errors.Join(writeErr, closeErr, removeErr); err != nil {
		slog.Error("path writability check failed", "path", filepath.Clean(dir), "error", err, "step", "write")
		return fmt.Errorf("%w: %s", ErrPathNotWritable, dir)
	}

	return nil
}

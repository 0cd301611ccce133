// Package storage persists small JSON snapshot records (session state,
// effective settings) under the project state directory. Every write replaces
// the whole file through a temp file and rename, so readers never observe a
// half-written record.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// DirPerm is the permission used for state directories.
	DirPerm = 0o755

	// FilePerm is the permission applied to snapshot files after rename.
	FilePerm = 0o644
)

// EnsureDir creates dir and any missing parents. It is a no-op when the
// directory already exists.
func EnsureDir(dir string) error {
	if dir == "" {
		return ErrPathRequired
	}
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// ReadFile returns the contents of path. A missing file is reported with
// found=false and a nil error.
func ReadFile(path string) (data []byte, found bool, err error) {
	if path == "" {
		return nil, false, ErrPathRequired
	}
	data, err = os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return data, true, nil
}

// WriteJSON writes v to path as two-space indented JSON followed by a newline.
func WriteJSON(path string, v any) error {
	if path == "" {
		return ErrPathRequired
	}
	return atomicWrite(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte) error {
	if path == "" {
		return ErrPathRequired
	}
	return atomicWrite(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Remove deletes path. It reports whether a file was actually removed; a
// missing file is not an error.
func Remove(path string) (bool, error) {
	if path == "" {
		return false, ErrPathRequired
	}
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	return true, nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// atomicWrite writes to a temp file in the target directory and renames it
// over path.
func atomicWrite(path string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath) //nolint:errcheck // cleanup in error path
		}
	}()

	if err := writeFunc(tmpFile); err != nil {
		_ = tmpFile.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("write content: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("sync file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, FilePerm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}

	success = true
	return nil
}

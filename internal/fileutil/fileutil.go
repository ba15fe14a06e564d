// Package fileutil provides filesystem helpers shared across stages.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ClearResult reports the outcome of removing one directory entry.
type ClearResult struct {
	Name    string
	Removed bool
	Err     error
}

// ClearDirectory removes every direct child of dir while preserving dir
// itself. A missing directory is a no-op. Each entry's outcome is reported
// individually so callers can log partial failures.
func ClearDirectory(dir string) ([]ClearResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	results := make([]ClearResult, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		removeErr := os.RemoveAll(path)
		results = append(results, ClearResult{
			Name:    entry.Name(),
			Removed: removeErr == nil,
			Err:     removeErr,
		})
	}
	return results, nil
}

// MoveDirectory relocates src into destRoot, keeping src's base name.
// Falls back to copy+delete when rename crosses filesystems.
func MoveDirectory(src, destRoot string) (string, error) {
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return "", fmt.Errorf("create destination %s: %w", destRoot, err)
	}
	dest := filepath.Join(destRoot, filepath.Base(src))
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("destination %s already exists", dest)
	}

	if err := os.Rename(src, dest); err == nil {
		return dest, nil
	}

	if err := copyTree(src, dest); err != nil {
		_ = os.RemoveAll(dest)
		return "", err
	}
	if err := os.RemoveAll(src); err != nil {
		return "", fmt.Errorf("remove source %s after copy: %w", src, err)
	}
	return dest, nil
}

func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return CopyFile(path, target)
	})
}

// CopyFile streams src to dst with default permissions (0o644).
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// PathExists reports whether path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

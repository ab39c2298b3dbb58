package util

import (
	"fmt"
	"os"
	"path/filepath"

	models "github.com/slobbe/fruit-jam-store/internal/types"
)

// EnsureDirectory creates dir and any missing parents. Calling it on an
// existing directory is a no-op.
func EnsureDirectory(dir string) error {
	if dir == "" {
		return &models.IOError{Op: "mkdir", Path: dir, Err: fmt.Errorf("directory cannot be empty")}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &models.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	return nil
}

// RemoveTree deletes path depth-first: files first, then each directory once
// it is empty. Symbolic links and other special files are never followed or
// removed; hitting one stops the walk with an error naming it, leaving
// whatever has not been visited yet in place.
func RemoveTree(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return &models.IOError{Op: "stat", Path: path, Err: err}
	}

	mode := info.Mode()
	switch {
	case mode.IsRegular():
		if err := os.Remove(path); err != nil {
			return &models.IOError{Op: "remove", Path: path, Err: err}
		}
		return nil
	case mode.IsDir():
		entries, err := os.ReadDir(path)
		if err != nil {
			return &models.IOError{Op: "readdir", Path: path, Err: err}
		}
		for _, entry := range entries {
			if err := RemoveTree(filepath.Join(path, entry.Name())); err != nil {
				return err
			}
		}
		if err := os.Remove(path); err != nil {
			return &models.IOError{Op: "rmdir", Path: path, Err: err}
		}
		return nil
	default:
		return &models.IOError{Op: "remove", Path: path, Err: fmt.Errorf("unsupported file type %s", mode.Type())}
	}
}

func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

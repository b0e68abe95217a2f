package fsops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// EnsureDir ensures a directory exists with the given permissions
func EnsureDir(fs afero.Fs, path string, perm os.FileMode) error {
	if err := fs.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("ensure directory: %w", err)
	}
	return nil
}

// CheckWritable checks if a directory is writable by creating and
// removing a probe file.
func CheckWritable(fs afero.Fs, path string) error {
	probe := filepath.Join(path, ".write_test")
	f, err := fs.Create(probe)
	if err != nil {
		return fmt.Errorf("path not writable: %w", err)
	}
	f.Close()
	_ = fs.Remove(probe)
	return nil
}

// Exists checks if a path exists
func Exists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

// IsDir checks if a path is a directory
func IsDir(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// DirSize computes the total size in bytes of every regular file under
// root. Unreadable entries are skipped rather than failing the scan.
func DirSize(fs afero.Fs, root string) int64 {
	var total int64
	_ = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total
}

// CopyTree recursively copies src into dst, preserving file modes.
// dst must not already contain conflicting files; existing directories
// are reused.
func CopyTree(fs afero.Fs, src, dst string) error {
	return afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return fs.MkdirAll(target, info.Mode().Perm())
		case info.Mode().IsRegular():
			return copyFile(fs, path, target, info.Mode().Perm())
		default:
			// Symlinks inside bundles point within the payload; re-create
			// them when the backing filesystem supports it.
			if lfs, ok := fs.(afero.Symlinker); ok {
				if linkTarget, lerr := lfs.ReadlinkIfPossible(path); lerr == nil {
					return lfs.SymlinkIfPossible(linkTarget, target)
				}
			}
			return nil
		}
	})
}

// MoveTree renames src to dst, falling back to copy+remove when the
// rename crosses devices.
func MoveTree(fs afero.Fs, src, dst string) error {
	if err := fs.Rename(src, dst); err == nil {
		return nil
	}
	if err := CopyTree(fs, src, dst); err != nil {
		return fmt.Errorf("copy tree: %w", err)
	}
	if err := fs.RemoveAll(src); err != nil {
		return fmt.Errorf("remove source tree: %w", err)
	}
	return nil
}

func copyFile(fs afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy contents: %w", err)
	}
	return nil
}

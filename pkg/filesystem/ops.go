package filesystem

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/copyfold/pkg/types"
)

const (
	// DirPerm is used for every folder copyfold creates.
	DirPerm fs.FileMode = 0755
	// ReadOnlyPerm is applied to copied files when output is read-only.
	ReadOnlyPerm fs.FileMode = 0444
)

// Exists reports whether path exists. Errors other than not-exist count as
// existing so callers do not overwrite something they cannot inspect.
func Exists(fsys types.FS, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil || !os.IsNotExist(err)
}

// IsDir reports whether path exists and is a folder.
func IsDir(fsys types.FS, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile reports whether path exists and is not a folder.
func IsFile(fsys types.FS, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && !info.IsDir()
}

// EnsureDir creates path and any missing parents. An existing folder is
// left untouched.
func EnsureDir(fsys types.FS, path string) error {
	if IsDir(fsys, path) {
		return nil
	}
	if err := fsys.MkdirAll(path, DirPerm); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}

// CopyFile copies src to dst, creating dst's parent folders. The source
// permission bits are kept unless readOnly is set.
func CopyFile(fsys types.FS, src, dst string, readOnly bool) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source %s: %w", src, err)
	}
	if info.IsDir() {
		return fmt.Errorf("source %s is a folder", src)
	}
	data, err := fsys.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read source %s: %w", src, err)
	}
	if err := EnsureDir(fsys, filepath.Dir(dst)); err != nil {
		return err
	}
	perm := info.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	if err := fsys.WriteFile(dst, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if readOnly {
		if err := fsys.Chmod(dst, ReadOnlyPerm); err != nil {
			return fmt.Errorf("failed to make %s read-only: %w", dst, err)
		}
	}
	return nil
}

// ReplaceFile removes dst, which may be read-only, and copies src in its
// place.
func ReplaceFile(fsys types.FS, src, dst string, readOnly bool) error {
	if err := fsys.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", dst, err)
	}
	return CopyFile(fsys, src, dst, readOnly)
}

// SameContent reports whether a and b are both readable files holding the
// same bytes.
func SameContent(fsys types.FS, a, b string) bool {
	ia, err := fsys.Stat(a)
	if err != nil || ia.IsDir() {
		return false
	}
	ib, err := fsys.Stat(b)
	if err != nil || ib.IsDir() || ia.Size() != ib.Size() {
		return false
	}
	da, err := fsys.ReadFile(a)
	if err != nil {
		return false
	}
	db, err := fsys.ReadFile(b)
	if err != nil {
		return false
	}
	return bytes.Equal(da, db)
}

// Delete removes path and everything below it. A missing path is not an
// error.
func Delete(fsys types.FS, path string) error {
	if _, err := fsys.Lstat(path); os.IsNotExist(err) {
		return nil
	}
	if err := fsys.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// IsEmptyDir reports whether path is a folder without children.
func IsEmptyDir(fsys types.FS, path string) (bool, error) {
	entries, err := fsys.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

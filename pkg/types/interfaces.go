package types

import (
	"io/fs"
	"path/filepath"
)

// FS is the filesystem interface required for copyfold operations
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Chmod(name string, mode fs.FileMode) error
	Rename(oldpath, newpath string) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)
	Walk(root string, fn filepath.WalkFunc) error

	// Removal
	Remove(name string) error
	RemoveAll(path string) error
}

// Reporter receives progress and error events. It never influences control
// flow.
type Reporter interface {
	BeginTask(name string, total int)
	SubTask(name string)
	Worked(n int)
	Error(err error, fields map[string]string)
	Done()
}

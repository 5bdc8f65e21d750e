package testutil

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/arthur-debert/copyfold/pkg/types"
)

// FailingFS wraps a filesystem, failing operations on chosen paths and
// counting the calls that change something.
type FailingFS struct {
	types.FS

	mu       sync.Mutex
	failures map[string]error
	mutated  []string
}

func NewFailingFS(inner types.FS) *FailingFS {
	return &FailingFS{FS: inner, failures: make(map[string]error)}
}

// FailOn makes every mutating call on p, or below it, return err.
func (f *FailingFS) FailOn(p string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[filepath.Clean(p)] = err
}

// Heal removes every injected failure.
func (f *FailingFS) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = make(map[string]error)
}

// MutatedUnder returns the paths below dir that mutating calls touched
// since the last reset, in call order.
func (f *FailingFS) MutatedUnder(dir string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	dir = filepath.Clean(dir)
	var out []string
	for _, p := range f.mutated {
		if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
			out = append(out, p)
		}
	}
	return out
}

// ResetMutations forgets the mutations seen so far.
func (f *FailingFS) ResetMutations() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutated = nil
}

func (f *FailingFS) check(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clean := filepath.Clean(p)
	f.mutated = append(f.mutated, clean)
	for target, err := range f.failures {
		if clean == target || strings.HasPrefix(clean, target+string(filepath.Separator)) {
			return &fs.PathError{Op: "inject", Path: p, Err: err}
		}
	}
	return nil
}

func (f *FailingFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if err := f.check(name); err != nil {
		return err
	}
	return f.FS.WriteFile(name, data, perm)
}

func (f *FailingFS) Chmod(name string, mode fs.FileMode) error {
	if err := f.check(name); err != nil {
		return err
	}
	return f.FS.Chmod(name, mode)
}

func (f *FailingFS) Rename(oldpath, newpath string) error {
	if err := f.check(oldpath); err != nil {
		return err
	}
	if err := f.check(newpath); err != nil {
		return err
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FailingFS) MkdirAll(p string, perm fs.FileMode) error {
	if err := f.check(p); err != nil {
		return err
	}
	return f.FS.MkdirAll(p, perm)
}

func (f *FailingFS) Remove(name string) error {
	if err := f.check(name); err != nil {
		return err
	}
	return f.FS.Remove(name)
}

func (f *FailingFS) RemoveAll(p string) error {
	if err := f.check(p); err != nil {
		return err
	}
	return f.FS.RemoveAll(p)
}

var _ types.FS = (*FailingFS)(nil)

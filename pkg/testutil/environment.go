// pkg/testutil/environment.go
// DEPENDENCIES: None (base test utilities)
// PURPOSE: Orchestrate test environments with proper dependencies

package testutil

import (
	"path"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/jonboulle/clockwork"
)

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // Pure in-memory, no real filesystem
	EnvIsolated                  // Real filesystem in temp directory
)

// Env is a project folder with component folders below it.
type Env struct {
	Type EnvType
	// Root is the composite's project folder.
	Root string
	// Workspace holds the component roots.
	Workspace string
	FS        types.FS
	Clock     clockwork.Clock

	t *testing.T
}

// NewMemoryEnv returns an environment on an afero memory filesystem.
func NewMemoryEnv(t *testing.T) *Env {
	t.Helper()
	return newEnv(t, EnvMemoryOnly, filesystem.NewMemory(), "/ws")
}

// NewIsolatedEnv returns an environment on the real filesystem, below a
// temp folder removed when the test ends.
func NewIsolatedEnv(t *testing.T) *Env {
	t.Helper()
	return newEnv(t, EnvIsolated, filesystem.NewOS(), t.TempDir())
}

func newEnv(t *testing.T, envType EnvType, fsys types.FS, base string) *Env {
	env := &Env{
		Type:      envType,
		Root:      filepath.Join(base, "app"),
		Workspace: base,
		FS:        fsys,
		Clock:     clockwork.NewFakeClock(),
		t:         t,
	}
	if err := filesystem.EnsureDir(fsys, env.Root); err != nil {
		t.Fatalf("Failed to create project root: %v", err)
	}
	return env
}

// ItemRoot is the folder of a component item.
func (e *Env) ItemRoot(id types.ItemID) string {
	return filepath.Join(e.Workspace, string(id))
}

// Item returns a component item rooted in the workspace.
func (e *Env) Item(id types.ItemID) types.Item {
	return types.Item{ID: id, Name: string(id), Root: e.ItemRoot(id)}
}

// WriteFile writes content to a slash path relative to base.
func (e *Env) WriteFile(base, rel, content string) string {
	e.t.Helper()
	file := filepath.Join(base, filepath.FromSlash(rel))
	if err := filesystem.EnsureDir(e.FS, filepath.Dir(file)); err != nil {
		e.t.Fatalf("Failed to create %s: %v", path.Dir(rel), err)
	}
	if err := e.FS.WriteFile(file, []byte(content), 0644); err != nil {
		e.t.Fatalf("Failed to write %s: %v", file, err)
	}
	return file
}

// WriteItemFile writes a file below a component's root.
func (e *Env) WriteItemFile(id types.ItemID, rel, content string) string {
	e.t.Helper()
	return e.WriteFile(e.ItemRoot(id), rel, content)
}

// Remove deletes a slash path relative to base.
func (e *Env) Remove(base, rel string) {
	e.t.Helper()
	if err := filesystem.Delete(e.FS, filepath.Join(base, filepath.FromSlash(rel))); err != nil {
		e.t.Fatalf("Failed to remove %s: %v", rel, err)
	}
}

// Exists reports whether a slash path relative to the project root exists.
func (e *Env) Exists(rel string) bool {
	return filesystem.Exists(e.FS, filepath.Join(e.Root, filepath.FromSlash(rel)))
}

// ReadFile reads a slash path relative to the project root.
func (e *Env) ReadFile(rel string) string {
	e.t.Helper()
	data, err := e.FS.ReadFile(filepath.Join(e.Root, filepath.FromSlash(rel)))
	if err != nil {
		e.t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}

// pkg/exporter/fileref_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: afero memory filesystem
// PURPOSE: Test full, incremental and moved-folder exports of item folders

package exporter_test

import (
	"context"
	"path"
	"testing"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/delta"
	"github.com/arthur-debert/copyfold/pkg/exporter"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var core = types.Item{ID: "core", Name: "core", Root: "/ws/core"}

func writeFiles(t *testing.T, fsys types.FS, files ...string) {
	t.Helper()
	for _, f := range files {
		require.NoError(t, filesystem.EnsureDir(fsys, path.Dir(f)))
		require.NoError(t, fsys.WriteFile(f, []byte(f), 0644))
	}
}

func request(d *delta.Tree) exporter.Request {
	return exporter.Request{
		Item:         core,
		Link:         types.Link{Source: "app", Type: "component", Destination: "core"},
		ExporterType: "ref-files",
		Delta:        d,
		StateDir:     "/state/app/copy",
	}
}

func deltaOf(t *testing.T, root *content.Node, kind content.Kind, p string) (types.Delta, bool) {
	t.Helper()
	n, ok := root.Find(kind, p)
	if !ok {
		return types.DeltaNone, false
	}
	return n.Delta(), true
}

func TestFileRefFullExport(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeFiles(t, fsys, "/ws/core/bin/a.class", "/ws/core/bin/pkg/b.class", "/ws/core/bin/pkg/notes.txt")

	e, err := exporter.NewFileRef(fsys, exporter.FileRefSpec{Item: "core", Type: "ref-files", Folder: "bin", Pattern: `.*\.class`})
	require.NoError(t, err)

	tree, err := e.Export(context.Background(), request(nil))
	require.NoError(t, err)

	link, ok := tree.Link()
	require.True(t, ok)
	assert.Equal(t, types.ItemID("app"), link.Source)
	assert.Equal(t, "ref-files", tree.ExporterType())

	d, ok := deltaOf(t, tree, content.KindFile, "a.class")
	require.True(t, ok)
	assert.Equal(t, types.DeltaAdded, d)
	b, ok := tree.Find(content.KindFile, "pkg/b.class")
	require.True(t, ok)
	assert.Equal(t, "/ws/core/bin/pkg/b.class", b.Source())
	_, ok = tree.Find(content.KindFile, "pkg/notes.txt")
	assert.False(t, ok, "pattern must match the whole relative path")
	_, ok = tree.Find(content.KindFolder, "pkg")
	assert.True(t, ok)
}

func TestFileRefMissingFolderExportsNothing(t *testing.T) {
	fsys := filesystem.NewMemory()
	e, err := exporter.NewFileRef(fsys, exporter.FileRefSpec{Item: "core", Type: "ref-files", Folder: "bin"})
	require.NoError(t, err)

	tree, err := e.Export(context.Background(), request(nil))
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Equal(t, 0, tree.Count())
}

func TestFileRefDeltaExport(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeFiles(t, fsys, "/ws/core/bin/a.class", "/ws/core/bin/pkg/b.class")
	e, err := exporter.NewFileRef(fsys, exporter.FileRefSpec{Item: "core", Type: "ref-files", Folder: "bin"})
	require.NoError(t, err)
	_, err = e.Export(context.Background(), request(nil))
	require.NoError(t, err)

	writeFiles(t, fsys, "/ws/core/bin/c.class")
	require.NoError(t, fsys.RemoveAll("/ws/core/bin/pkg"))

	changes := delta.NewTree()
	require.NoError(t, changes.Add("bin/c.class", delta.Added))
	require.NoError(t, changes.Add("bin/a.class", delta.Changed))
	require.NoError(t, changes.Add("bin/pkg", delta.Removed))
	require.NoError(t, changes.Add("src/ignored.java", delta.Added))

	tree, err := e.Export(context.Background(), request(changes))
	require.NoError(t, err)

	tests := []struct {
		kind content.Kind
		path string
		want types.Delta
	}{
		{content.KindFile, "c.class", types.DeltaAdded},
		{content.KindFile, "a.class", types.DeltaUpdated},
		{content.KindFolder, "pkg", types.DeltaRemoved},
		{content.KindFile, "pkg/b.class", types.DeltaRemoved},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d, ok := deltaOf(t, tree, tt.kind, tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.want, d)
		})
	}
	assert.Equal(t, 4, tree.Count())
}

func TestFileRefEmptyDeltaExportsNothing(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeFiles(t, fsys, "/ws/core/bin/a.class")
	e, err := exporter.NewFileRef(fsys, exporter.FileRefSpec{Item: "core", Type: "ref-files", Folder: "bin"})
	require.NoError(t, err)
	_, err = e.Export(context.Background(), request(nil))
	require.NoError(t, err)

	tree, err := e.Export(context.Background(), request(delta.NewTree()))
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Count())
}

func TestFileRefMovedFolder(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeFiles(t, fsys, "/ws/core/bin/a.class", "/ws/core/bin/old.class", "/ws/core/out/a.class", "/ws/core/out/new.class")

	first, err := exporter.NewFileRef(fsys, exporter.FileRefSpec{Item: "core", Type: "ref-files", Folder: "bin"})
	require.NoError(t, err)
	_, err = first.Export(context.Background(), request(nil))
	require.NoError(t, err)

	require.NoError(t, fsys.RemoveAll("/ws/core/bin"))
	moved, err := exporter.NewFileRef(fsys, exporter.FileRefSpec{Item: "core", Type: "ref-files", Folder: "out"})
	require.NoError(t, err)

	tree, err := moved.Export(context.Background(), request(delta.NewTree()))
	require.NoError(t, err)

	d, _ := deltaOf(t, tree, content.KindFile, "a.class")
	assert.Equal(t, types.DeltaUpdated, d)
	d, _ = deltaOf(t, tree, content.KindFile, "old.class")
	assert.Equal(t, types.DeltaRemoved, d)
	d, _ = deltaOf(t, tree, content.KindFile, "new.class")
	assert.Equal(t, types.DeltaAdded, d)
}

func TestFileRefFullExportReportsVanishedFiles(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeFiles(t, fsys, "/ws/core/bin/a.class", "/ws/core/bin/gone.class")
	e, err := exporter.NewFileRef(fsys, exporter.FileRefSpec{Item: "core", Type: "ref-files", Folder: "bin"})
	require.NoError(t, err)
	_, err = e.Export(context.Background(), request(nil))
	require.NoError(t, err)

	require.NoError(t, fsys.Remove("/ws/core/bin/gone.class"))
	tree, err := e.Export(context.Background(), request(nil))
	require.NoError(t, err)

	d, _ := deltaOf(t, tree, content.KindFile, "gone.class")
	assert.Equal(t, types.DeltaRemoved, d)
	d, _ = deltaOf(t, tree, content.KindFile, "a.class")
	assert.Equal(t, types.DeltaAdded, d)
}

func TestFileRefLabel(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeFiles(t, fsys, "/ws/core/a.txt")
	e, err := exporter.NewFileRef(fsys, exporter.FileRefSpec{Item: "core", Type: "ref-files", Label: "docs"})
	require.NoError(t, err)

	tree, err := e.Export(context.Background(), request(nil))
	require.NoError(t, err)
	assert.Equal(t, "docs", tree.Label())
}

func TestNewFileRefValidation(t *testing.T) {
	fsys := filesystem.NewMemory()
	_, err := exporter.NewFileRef(fsys, exporter.FileRefSpec{Item: "core", Type: "ref-files", Pattern: "("})
	assert.Error(t, err)
	_, err = exporter.NewFileRef(fsys, exporter.FileRefSpec{Item: "core", Type: "ref-files", Folder: "../x"})
	assert.Error(t, err)
	_, err = exporter.NewFileRef(fsys, exporter.FileRefSpec{Type: "ref-files"})
	assert.Error(t, err)
	_, err = exporter.NewFileRef(nil, exporter.FileRefSpec{Item: "core", Type: "ref-files"})
	assert.Error(t, err)
}

func TestFileRefHonoursCancellation(t *testing.T) {
	e, err := exporter.NewFileRef(filesystem.NewMemory(), exporter.FileRefSpec{Item: "core", Type: "ref-files"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Export(ctx, request(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry(t *testing.T) {
	fsys := filesystem.NewMemory()
	files, err := exporter.NewFileRef(fsys, exporter.FileRefSpec{Item: "core", Type: "ref-files"})
	require.NoError(t, err)
	cp, err := exporter.NewClasspath(fsys, exporter.ClasspathSpec{Item: "core"})
	require.NoError(t, err)

	reg := exporter.NewRegistry()
	reg.Register(files)
	reg.Register(cp)

	assert.Len(t, reg.For("core", "ref-files"), 1)
	assert.Len(t, reg.For("core", exporter.TypeClasses), 1)
	assert.Empty(t, reg.For("util", "ref-files"))
	assert.Equal(t, []string{"ref-classes", "ref-files", "ref-source-aj", "ref-source-java"}, reg.Types())
}

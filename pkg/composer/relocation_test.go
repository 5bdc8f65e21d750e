// pkg/composer/relocation_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: afero memory filesystem, file exporters
// PURPOSE: Test interrupted relocations and the scanners they use

package composer

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/exporter"
	"github.com/arthur-debert/copyfold/pkg/repository"
	"github.com/arthur-debert/copyfold/pkg/testutil"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelocationComposer(t *testing.T, env *testutil.Env, target string) *Composer {
	t.Helper()
	model := testutil.NewModel(types.Item{ID: "app", Root: env.Root}, env.Item("core"))
	model.SetComponents("app", "core")
	registry := exporter.NewRegistry()
	e, err := exporter.NewFileRef(env.FS, exporter.FileRefSpec{Item: "core", Type: exporter.TypeFiles, Folder: "out"})
	require.NoError(t, err)
	registry.Register(e)

	c, err := New(Options{
		Name:          "copy",
		Composite:     "app",
		ProjectRoot:   env.Root,
		Target:        target,
		ExporterTypes: []string{exporter.TypeFiles},
		FS:            env.FS,
		Model:         model,
		Registry:      registry,
		Clock:         env.Clock,
	})
	require.NoError(t, err)
	return c
}

func crashAfterPhase1(t *testing.T, env *testutil.Env) {
	t.Helper()
	env.WriteItemFile("core", "out/a", "a")
	env.WriteItemFile("core", "out/b/c", "c")
	_, err := newRelocationComposer(t, env, "old").Compose(context.Background(), nil)
	require.NoError(t, err)

	c := newRelocationComposer(t, env, "new")
	c.afterPhase1 = func() error { return stderrors.New("killed") }
	_, err = c.Compose(context.Background(), nil)
	require.EqualError(t, err, "killed")
}

func TestRelocationResumesAfterPhase1(t *testing.T) {
	env := testutil.NewMemoryEnv(t)
	crashAfterPhase1(t, env)

	assert.False(t, env.Exists("old"))
	assert.Empty(t, env.ProjectFiles("new"))
	c := newRelocationComposer(t, env, "new")
	tg, err := c.Target()
	require.NoError(t, err)
	assert.True(t, tg.Phase1Finished())
	assert.Equal(t, []string{"a", "b/c"}, env.Files(tg.TempDir()))
	temp := tg.TempDir()
	tg.Close()

	_, err = c.Compose(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b/c"}, env.ProjectFiles("new"))
	assert.Equal(t, "c", env.ReadFile("new/b/c"))
	assert.False(t, env.Exists("old"))
	_, statErr := env.FS.Stat(temp)
	assert.Error(t, statErr, "the staging folder is gone")

	tg, err = c.Target()
	require.NoError(t, err)
	defer tg.Close()
	assert.False(t, tg.Phase1Finished())
	assert.False(t, tg.Changed())
}

func TestReplayReleasesExistingResources(t *testing.T) {
	env := testutil.NewMemoryEnv(t)
	crashAfterPhase1(t, env)
	env.WriteFile(env.Root, "new/a", "already here")

	c := newRelocationComposer(t, env, "new")
	tg, err := c.Target()
	require.NoError(t, err)
	defer tg.Close()
	require.NoError(t, c.relocatePhase2(tg))

	assert.Equal(t, "a", env.ReadFile("new/a"))
	repo, err := tg.Repository(exporter.TypeFiles)
	require.NoError(t, err)
	a, ok := repo.Get("a", false)
	require.True(t, ok)
	assert.Empty(t, a.AddedBy)
	assert.Equal(t, types.ItemID("core"), a.UpdatedBy, "the former owner is kept as updater")
	c2, ok := repo.Get("b/c", false)
	require.True(t, ok)
	assert.Equal(t, types.ItemID("core"), c2.AddedBy)
}

func TestScannersAreNotReentrant(t *testing.T) {
	env := testutil.NewMemoryEnv(t)

	copier := newCopyScanner(env.FS, "/ws/from", "/ws/to")
	copier.mu.Lock()
	_, err := copier.Scan(nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrScanInProgress))
	copier.mu.Unlock()
	_, err = copier.Scan(nil)
	assert.NoError(t, err)

	deleter := newMultiRepoScanner(env.FS, "/ws/from", nil)
	deleter.mu.Lock()
	_, _, err = deleter.DeleteOwned(movable)
	assert.True(t, errors.IsErrorCode(err, errors.ErrScanInProgress))
	deleter.mu.Unlock()
}

func TestDeleteResourcesKeepsFoldersWithForeignContent(t *testing.T) {
	env := testutil.NewMemoryEnv(t)
	env.WriteFile(env.Root, "t/lib/x.jar", "x")
	env.WriteFile(env.Root, "t/lib/mine.txt", "mine")
	env.WriteFile(env.Root, "t/pkg/deep/B.class", "b")

	entry := func(p string, folder bool) owned {
		return owned{
			rec:  &repository.Record{Path: p, Folder: folder},
			path: filepath.Join(env.Root, "t", filepath.FromSlash(p)),
		}
	}
	gone, failed := deleteResources(env.FS, []owned{
		entry("lib", true),
		entry("pkg", true),
		entry("lib/x.jar", false),
		entry("pkg/deep", true),
		entry("pkg/deep/B.class", false),
	})

	assert.Empty(t, failed)
	assert.Len(t, gone, 4)
	assert.Equal(t, []string{"lib/mine.txt"}, env.ProjectFiles("t"))
	assert.False(t, env.Exists("t/pkg"))
}

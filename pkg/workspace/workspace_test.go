// pkg/workspace/workspace_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: afero memory filesystem, config structs
// PURPOSE: Test model validation, registry and composer construction from config

package workspace_test

import (
	"context"
	"testing"

	"github.com/arthur-debert/copyfold/pkg/config"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/testutil"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/arthur-debert/copyfold/pkg/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfig(root string) *config.Config {
	return &config.Config{
		Project: config.ProjectConfig{Root: root, StateDir: ".copyfold"},
		Composers: []config.ComposerConfig{
			{Name: "copy", Target: "lib", ExporterTypes: []string{"ref-files"}},
			{Name: "docs", Target: "site", ExporterTypes: []string{"docs"}},
		},
		Items: []config.ItemConfig{
			{ID: "app", Components: []string{"util", "core", "core"}},
			{ID: "core", Root: "../core", Exports: []config.ExportConfig{
				{Exporter: config.ExporterFiles, Type: "ref-files", Path: "out"},
			}},
			{ID: "util", Name: "Utilities", Root: "../util", Exports: []config.ExportConfig{
				{Exporter: config.ExporterFiles, Type: "ref-files", Path: "out"},
				{Exporter: config.ExporterFiles, Type: "docs", Path: "doc", Pattern: `.*\.md`},
			}},
		},
	}
}

func TestNewBuildsModel(t *testing.T) {
	w, err := workspace.New(sampleConfig("/ws/app"))
	require.NoError(t, err)

	assert.Equal(t, types.ItemID("app"), w.Composite())
	assert.Equal(t, "/ws/app/.copyfold", w.StateRoot())

	comps := w.Components("app")
	require.Len(t, comps, 2)
	assert.Equal(t, types.ItemID("core"), comps[0].ID)
	assert.Equal(t, "/ws/core", comps[0].Root)
	assert.Equal(t, "core", comps[0].Name)
	assert.Equal(t, "Utilities", comps[1].Name)

	assert.True(t, w.IsComponent("app", "util"))
	assert.False(t, w.IsComponent("app", "app"))
	assert.False(t, w.IsComponent("core", "util"))

	app, ok := w.Item("app")
	require.True(t, ok)
	assert.Equal(t, "/ws/app", app.Root)

	assert.Equal(t, map[types.ItemID]string{"core": "/ws/core", "util": "/ws/util"}, w.WatchRoots())
}

func TestNewRejectsInvalidModels(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		code   errors.ErrorCode
	}{
		{
			name:   "relative root",
			mutate: func(c *config.Config) { c.Project.Root = "app" },
			code:   errors.ErrConfigValid,
		},
		{
			name:   "duplicate item",
			mutate: func(c *config.Config) { c.Items = append(c.Items, config.ItemConfig{ID: "core"}) },
			code:   errors.ErrConfigValid,
		},
		{
			name:   "unknown component",
			mutate: func(c *config.Config) { c.Items[0].Components = append(c.Items[0].Components, "ghost") },
			code:   errors.ErrItemNotFound,
		},
		{
			name:   "self component",
			mutate: func(c *config.Config) { c.Items[0].Components = []string{"app"} },
			code:   errors.ErrConfigValid,
		},
		{
			name:   "unknown composite",
			mutate: func(c *config.Config) { c.Composite = "ghost" },
			code:   errors.ErrItemNotFound,
		},
		{
			name:   "no composite",
			mutate: func(c *config.Config) { c.Items[0].Components = nil },
			code:   errors.ErrConfigValid,
		},
		{
			name:   "ambiguous composite",
			mutate: func(c *config.Config) { c.Items[1].Components = []string{"util"} },
			code:   errors.ErrConfigValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sampleConfig("/ws/app")
			tt.mutate(cfg)
			_, err := workspace.New(cfg)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)
		})
	}
}

func TestExplicitCompositeWins(t *testing.T) {
	cfg := sampleConfig("/ws/app")
	cfg.Items[1].Components = []string{"util"}
	cfg.Composite = "core"

	w, err := workspace.New(cfg)
	require.NoError(t, err)
	assert.Equal(t, types.ItemID("core"), w.Composite())
}

func TestRegistry(t *testing.T) {
	env := testutil.NewMemoryEnv(t)
	w, err := workspace.New(sampleConfig(env.Root))
	require.NoError(t, err)

	registry, err := w.Registry(env.FS)
	require.NoError(t, err)
	assert.Len(t, registry.For("util", "ref-files"), 1)
	assert.Len(t, registry.For("util", "docs"), 1)
	assert.Len(t, registry.For("core", "ref-files"), 1)
	assert.Empty(t, registry.For("core", "docs"))
}

func TestRegistryRejectsUnknownExporter(t *testing.T) {
	env := testutil.NewMemoryEnv(t)
	cfg := sampleConfig(env.Root)
	cfg.Items[1].Exports[0].Exporter = "tarball"
	w, err := workspace.New(cfg)
	require.NoError(t, err)

	_, err = w.Registry(env.FS)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
}

func TestComposers(t *testing.T) {
	env := testutil.NewMemoryEnv(t)
	w, err := workspace.New(sampleConfig(env.Root))
	require.NoError(t, err)
	opts := workspace.ComposerOptions{FS: env.FS, Reporter: testutil.NewReporter(), Clock: env.Clock}

	all, err := w.Composers(opts)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "copy", all[0].Name())
	assert.Equal(t, "docs", all[1].Name())

	one, err := w.Composers(opts, "docs")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "docs", one[0].Name())

	_, err = w.Composers(opts, "missing")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestComposerCopiesConfiguredExports(t *testing.T) {
	env := testutil.NewMemoryEnv(t)
	env.WriteItemFile("core", "out/Foo.class", "foo")
	env.WriteItemFile("util", "out/Bar.class", "bar")
	env.WriteItemFile("util", "doc/guide.md", "guide")
	env.WriteItemFile("util", "doc/notes.txt", "notes")

	w, err := workspace.New(sampleConfig(env.Root))
	require.NoError(t, err)
	composers, err := w.Composers(workspace.ComposerOptions{FS: env.FS, Clock: env.Clock})
	require.NoError(t, err)

	for _, c := range composers {
		result, err := c.Compose(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, result.Failed)
	}

	assert.Equal(t, "foo", env.ReadFile("lib/Foo.class"))
	assert.Equal(t, "bar", env.ReadFile("lib/Bar.class"))
	assert.Equal(t, "guide", env.ReadFile("site/guide.md"))
	assert.False(t, env.Exists("site/notes.txt"))
	assert.True(t, env.Exists(".copyfold/app/copy"))
}

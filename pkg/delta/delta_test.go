// pkg/delta/delta_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test change collapsing, subtree restriction and change spec parsing

package delta_test

import (
	"testing"

	"github.com/arthur-debert/copyfold/pkg/delta"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCollapsesChanges(t *testing.T) {
	tests := []struct {
		name  string
		kinds []delta.Kind
		want  []delta.Entry
	}{
		{"single", []delta.Kind{delta.Changed}, []delta.Entry{{Path: "a", Kind: delta.Changed}}},
		{"added_then_removed", []delta.Kind{delta.Added, delta.Removed}, []delta.Entry{}},
		{"removed_then_added", []delta.Kind{delta.Removed, delta.Added}, []delta.Entry{{Path: "a", Kind: delta.Changed}}},
		{"added_then_changed", []delta.Kind{delta.Added, delta.Changed}, []delta.Entry{{Path: "a", Kind: delta.Added}}},
		{"changed_then_removed", []delta.Kind{delta.Changed, delta.Removed}, []delta.Entry{{Path: "a", Kind: delta.Removed}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := delta.NewTree()
			for _, k := range tt.kinds {
				require.NoError(t, tree.Add("a", k))
			}
			assert.Equal(t, tt.want, tree.Entries())
		})
	}
}

func TestSub(t *testing.T) {
	tree := delta.NewTree()
	require.NoError(t, tree.Add("bin/a.class", delta.Added))
	require.NoError(t, tree.Add("bin/pkg/b.class", delta.Removed))
	require.NoError(t, tree.Add("src/A.java", delta.Changed))
	require.NoError(t, tree.Add("binary.dat", delta.Changed))

	sub := tree.Sub("bin")
	assert.Equal(t, []delta.Entry{
		{Path: "a.class", Kind: delta.Added},
		{Path: "pkg/b.class", Kind: delta.Removed},
	}, sub.Entries())

	assert.Equal(t, 4, tree.Sub("").Len())
	assert.Equal(t, 0, tree.Sub("none").Len())
	assert.NotNil(t, tree.Sub("none"))

	var nilTree *delta.Tree
	assert.Nil(t, nilTree.Sub("bin"))
	assert.Equal(t, 0, nilTree.Len())
}

func TestCovers(t *testing.T) {
	tree := delta.NewTree()
	require.NoError(t, tree.Add("lib", delta.Added))

	k, ok := tree.Covers("lib/x/y.jar")
	require.True(t, ok)
	assert.Equal(t, delta.Added, k)

	_, ok = tree.Covers("other/y.jar")
	assert.False(t, ok)
}

func TestKindDelta(t *testing.T) {
	assert.Equal(t, types.DeltaAdded, delta.Added.Delta())
	assert.Equal(t, types.DeltaRemoved, delta.Removed.Delta())
	assert.Equal(t, types.DeltaUpdated, delta.Changed.Delta())
}

func TestParseChange(t *testing.T) {
	item, p, k, err := delta.ParseChange("core:bin/a.class:added")
	require.NoError(t, err)
	assert.Equal(t, types.ItemID("core"), item)
	assert.Equal(t, "bin/a.class", p)
	assert.Equal(t, delta.Added, k)

	_, _, k, err = delta.ParseChange("core:bin/a.class")
	require.NoError(t, err)
	assert.Equal(t, delta.Changed, k)

	for _, bad := range []string{"core", ":x", "core:", "core:x:moved"} {
		_, _, _, err := delta.ParseChange(bad)
		assert.Error(t, err, bad)
	}
}

func TestFromSpecs(t *testing.T) {
	set, err := delta.FromSpecs(nil)
	require.NoError(t, err)
	assert.Nil(t, set)
	assert.Nil(t, set.For("core"), "nil set means full export")

	set, err = delta.FromSpecs([]string{"core:a:r", "core:b:a", "util:c"})
	require.NoError(t, err)
	assert.Equal(t, 2, set.For("core").Len())
	assert.Equal(t, 1, set.For("util").Len())
	assert.NotNil(t, set.For("other"))
	assert.Equal(t, 0, set.For("other").Len())
}

// pkg/routing/routing_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test bucket assignment and per-bucket merging

package routing_test

import (
	"testing"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/routing"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileTree(t *testing.T, item types.ItemID, p string, d types.Delta) *content.Node {
	t.Helper()
	root := content.NewRoot(item, "ref-files")
	_, err := root.AddFile(p, "/"+string(item)+"/"+p, d)
	require.NoError(t, err)
	return root
}

func TestRouteDefaultBucket(t *testing.T) {
	buckets, err := routing.Route([]*content.Node{
		fileTree(t, "a", "lib/a.jar", types.DeltaAdded),
		fileTree(t, "b", "lib/b.jar", types.DeltaAdded),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{routing.DefaultTarget}, buckets.Labels())
	tree, ok := buckets.Get(routing.DefaultTarget)
	require.True(t, ok)
	lib, ok := tree.Find(content.KindFolder, "lib")
	require.True(t, ok)
	assert.Equal(t, 2, lib.Len())
}

func TestRouteLabelledRoots(t *testing.T) {
	docs := fileTree(t, "a", "index.html", types.DeltaAdded)
	docs.SetLabel("docs")

	buckets, err := routing.Route([]*content.Node{docs, fileTree(t, "b", "b.jar", types.DeltaAdded)})
	require.NoError(t, err)
	assert.Equal(t, []string{".", "docs"}, buckets.Labels())
	assert.Equal(t, 2, buckets.Len())
}

func TestRouteSplitsTargetFolderRoots(t *testing.T) {
	root := content.NewRoot("a", "ref-classes")
	classes, err := root.AddTargetFolder("classes")
	require.NoError(t, err)
	_, err = classes.AddFile("A.class", "/a/A.class", types.DeltaAdded)
	require.NoError(t, err)
	sources, err := root.AddTargetFolder("sources")
	require.NoError(t, err)
	_, err = sources.AddFile("A.java", "/a/A.java", types.DeltaAdded)
	require.NoError(t, err)

	other := fileTree(t, "b", "B.class", types.DeltaAdded)
	other.SetLabel("classes")

	buckets, err := routing.Route([]*content.Node{root, other})
	require.NoError(t, err)
	assert.Equal(t, []string{"classes", "sources"}, buckets.Labels())

	merged, _ := buckets.Get("classes")
	_, okA := merged.Find(content.KindFile, "A.class")
	_, okB := merged.Find(content.KindFile, "B.class")
	assert.True(t, okA)
	assert.True(t, okB)
}

func TestRouteConflictingDeltasInSameBucket(t *testing.T) {
	buckets, err := routing.Route([]*content.Node{
		fileTree(t, "a", "lib/x.jar", types.DeltaAdded),
		fileTree(t, "b", "lib/x.jar", types.DeltaRemoved),
	})
	require.NoError(t, err)

	tree, _ := buckets.Get(routing.DefaultTarget)
	x, ok := tree.Find(content.KindFile, "lib/x.jar")
	require.True(t, ok)
	assert.Equal(t, types.DeltaUpdated, x.Delta())
}

func TestRouteErrors(t *testing.T) {
	folder := content.NewRoot("a", "ref-files")
	_, err := folder.AddFolder("lib", types.DeltaAdded)
	require.NoError(t, err)

	_, err = routing.Route([]*content.Node{folder, fileTree(t, "b", "lib", types.DeltaAdded)})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTypeMismatch))
	assert.True(t, errors.IsStructural(err))

	_, err = routing.Route([]*content.Node{nil})
	assert.True(t, errors.IsErrorCode(err, errors.ErrMissingArgument))

	_, err = routing.Route([]*content.Node{content.NewFile("f", "/f", "a", "t", types.DeltaAdded)})
	assert.True(t, errors.IsErrorCode(err, errors.ErrStructural))
}

func TestRouteDoesNotMutateInputs(t *testing.T) {
	a := fileTree(t, "a", "x", types.DeltaAdded)
	b := fileTree(t, "b", "x", types.DeltaRemoved)

	_, err := routing.Route([]*content.Node{a, b})
	require.NoError(t, err)

	x, _ := a.Find(content.KindFile, "x")
	assert.Equal(t, types.DeltaAdded, x.Delta())
}

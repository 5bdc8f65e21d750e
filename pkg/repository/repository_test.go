// pkg/repository/repository_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: afero memory filesystem, clockwork fake clock
// PURPOSE: Test record persistence, crash recovery, listing and link sets

package repository_test

import (
	"testing"
	"time"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/repository"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const repoDir = "/state/app/classes/ref-files"

func openRepo(t *testing.T) (types.FS, *repository.Repository, clockwork.Clock) {
	t.Helper()
	fsys := filesystem.NewMemory()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	repo, err := repository.Open(fsys, repoDir, repository.WithClock(clock))
	require.NoError(t, err)
	return fsys, repo, clock
}

func fileRecord(p string, addedBy types.ItemID) *repository.Record {
	n := content.NewFile(p, "/src/"+p, addedBy, "ref-files", types.DeltaAdded)
	rec := repository.NewRecord(n, ".")
	rec.Apply(n)
	return rec
}

func folderRecord(p string, addedBy types.ItemID) *repository.Record {
	n := content.NewFolder(p, addedBy, "ref-files", types.DeltaAdded)
	rec := repository.NewRecord(n, ".")
	rec.Apply(n)
	return rec
}

func TestPutGet(t *testing.T) {
	fsys, repo, clock := openRepo(t)

	require.NoError(t, repo.Put(fileRecord("lib/a.jar", "core")))
	require.NoError(t, repo.Put(folderRecord("lib", "core")))

	rec, ok := repo.Get("lib/a.jar", false)
	require.True(t, ok)
	assert.Equal(t, types.ItemID("core"), rec.AddedBy)
	assert.Equal(t, types.DeltaAdded, rec.LastOp)
	assert.Equal(t, "/src/lib/a.jar", rec.Source)
	assert.Equal(t, ".", rec.Target)
	assert.True(t, rec.ChangedAt.Equal(clock.Now()))

	folder, ok := repo.Get("lib", true)
	require.True(t, ok)
	assert.True(t, folder.Folder)

	_, ok = repo.Get("lib", false)
	assert.False(t, ok, "folder and file slots are distinct")

	assert.True(t, filesystem.IsFile(fsys, repoDir+"/lib/a.jar.rec.yaml"))
	assert.True(t, filesystem.IsFile(fsys, repoDir+"/lib/.rec.yaml"))
	assert.False(t, filesystem.Exists(fsys, repoDir+"/lib/a.jar.rec.bak"), "backup cleared after write")
}

func TestPutOverwritesRecord(t *testing.T) {
	_, repo, _ := openRepo(t)

	rec := fileRecord("a.txt", "core")
	require.NoError(t, repo.Put(rec))
	rec.MarkUpdated("util")
	require.NoError(t, repo.Put(rec))

	got, ok := repo.Get("a.txt", false)
	require.True(t, ok)
	assert.Equal(t, types.ItemID("core"), got.AddedBy)
	assert.Equal(t, types.ItemID("util"), got.UpdatedBy)
	assert.Equal(t, types.DeltaUpdated, got.LastOp)

	all, err := repo.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetFallsBackToBackup(t *testing.T) {
	fsys, repo, _ := openRepo(t)
	require.NoError(t, repo.Put(fileRecord("a.txt", "core")))

	// Simulate a crash after staging: primary gone, backup present.
	data, err := fsys.ReadFile(repoDir + "/a.txt.rec.yaml")
	require.NoError(t, err)
	require.NoError(t, fsys.WriteFile(repoDir+"/a.txt.rec.bak", data, 0644))
	require.NoError(t, fsys.Remove(repoDir+"/a.txt.rec.yaml"))

	rec, ok := repo.Get("a.txt", false)
	require.True(t, ok)
	assert.Equal(t, types.ItemID("core"), rec.AddedBy)

	all, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a.txt", all[0].Path)
}

func TestCorruptRecordIsDeleted(t *testing.T) {
	fsys, repo, _ := openRepo(t)
	require.NoError(t, fsys.WriteFile(repoDir+"/bad.txt.rec.yaml", []byte("path: [unterminated"), 0644))

	_, ok := repo.Get("bad.txt", false)
	assert.False(t, ok)
	assert.False(t, filesystem.Exists(fsys, repoDir+"/bad.txt.rec.yaml"))
}

func TestRecordForWrongKeyIsCorrupt(t *testing.T) {
	fsys, repo, _ := openRepo(t)
	require.NoError(t, repo.Put(fileRecord("a.txt", "core")))
	data, err := fsys.ReadFile(repoDir + "/a.txt.rec.yaml")
	require.NoError(t, err)
	require.NoError(t, fsys.WriteFile(repoDir+"/b.txt.rec.yaml", data, 0644))

	_, ok := repo.Get("b.txt", false)
	assert.False(t, ok)
	_, ok = repo.Get("a.txt", false)
	assert.True(t, ok)
}

func TestRemove(t *testing.T) {
	fsys, repo, _ := openRepo(t)
	rec := fileRecord("a.txt", "core")
	require.NoError(t, repo.Put(rec))
	require.NoError(t, fsys.WriteFile(repoDir+"/a.txt.rec.bak", []byte("stale"), 0644))

	require.NoError(t, repo.Remove(rec))

	_, ok := repo.Get("a.txt", false)
	assert.False(t, ok)
	assert.False(t, filesystem.Exists(fsys, repoDir+"/a.txt.rec.bak"))
	require.NoError(t, repo.Remove(rec), "removing twice is fine")
}

func TestListingQueries(t *testing.T) {
	_, repo, _ := openRepo(t)

	require.NoError(t, repo.Put(folderRecord("lib", "core")))
	require.NoError(t, repo.Put(fileRecord("lib/a.jar", "core")))
	require.NoError(t, repo.Put(fileRecord("lib/b.jar", "util")))

	removed := fileRecord("old.txt", "core")
	removed.MarkRemoved("util")
	require.NoError(t, repo.Put(removed))

	all, err := repo.ListAll()
	require.NoError(t, err)
	paths := make([]string, 0, len(all))
	for _, r := range all {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"lib", "lib/a.jar", "lib/b.jar", "old.txt"}, paths)

	forUtil, err := repo.ListFor("util")
	require.NoError(t, err)
	assert.Len(t, forUtil, 2)

	existing, err := repo.Existing()
	require.NoError(t, err)
	assert.Len(t, existing, 3)
	assert.True(t, repo.HasExisting())

	who, ok := repo.LastModifier("old.txt", false)
	require.True(t, ok)
	assert.Equal(t, types.ItemID("util"), who)
	_, ok = repo.LastModifier("missing", false)
	assert.False(t, ok)

	require.NoError(t, repo.RemoveFor("util"))
	all, err = repo.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLinkSet(t *testing.T) {
	fsys, repo, _ := openRepo(t)
	core := types.Link{Source: "app", Type: "component", Destination: "core"}
	util := types.Link{Source: "app", Type: "component", Destination: "util"}

	assert.False(t, repo.Contains(core))
	assert.Error(t, repo.CommitTransaction())

	repo.BeginTransaction()
	repo.RecordLink(core)
	repo.RecordLink(util)
	assert.False(t, repo.Contains(core), "uncommitted links are not visible")
	require.NoError(t, repo.CommitTransaction())
	assert.True(t, repo.Contains(core))

	reopened, err := repository.Open(fsys, repoDir)
	require.NoError(t, err)
	assert.True(t, reopened.Contains(util))
	assert.Equal(t, []types.Link{core, util}, reopened.Links())

	reopened.BeginTransaction()
	reopened.RecordLink(util)
	require.NoError(t, reopened.CommitTransaction())
	assert.False(t, reopened.Contains(core), "commit replaces the previous set")

	fresh, err := repository.Open(fsys, repoDir)
	require.NoError(t, err)
	assert.Equal(t, []types.Link{util}, fresh.Links())

	records, err := fresh.ListAll()
	require.NoError(t, err)
	assert.Empty(t, records, "link files are not records")
}

func TestLinkSetBackupRecovery(t *testing.T) {
	fsys, repo, _ := openRepo(t)
	core := types.Link{Source: "app", Type: "component", Destination: "core"}
	repo.BeginTransaction()
	repo.RecordLink(core)
	require.NoError(t, repo.CommitTransaction())

	require.NoError(t, fsys.Rename(repoDir+"/.links.yaml", repoDir+"/.links.bak"))

	reopened, err := repository.Open(fsys, repoDir)
	require.NoError(t, err)
	assert.True(t, reopened.Contains(core))
}

func TestClean(t *testing.T) {
	fsys, repo, _ := openRepo(t)
	require.NoError(t, repo.Put(fileRecord("a.txt", "core")))
	repo.BeginTransaction()
	repo.RecordLink(types.Link{Source: "app", Type: "component", Destination: "core"})
	require.NoError(t, repo.CommitTransaction())

	require.NoError(t, repo.Clean())

	assert.False(t, filesystem.Exists(fsys, repoDir))
	all, err := repo.ListAll()
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.False(t, repo.Contains(types.Link{Source: "app", Type: "component", Destination: "core"}))
}

type model map[types.ItemID]types.Item

func (m model) Item(id types.ItemID) (types.Item, bool) {
	i, ok := m[id]
	return i, ok
}

func (m model) Components(types.ItemID) []types.Item { return nil }

func (m model) IsComponent(_, id types.ItemID) bool {
	_, ok := m[id]
	return ok
}

func TestRecordOwner(t *testing.T) {
	rec := fileRecord("a.txt", "core")
	m := model{"core": {ID: "core", Name: "Core"}}

	owner, ok := rec.Owner(m)
	require.True(t, ok)
	assert.Equal(t, "Core", owner.Name)

	rec.Release()
	_, ok = rec.Owner(m)
	assert.False(t, ok)
	assert.Equal(t, types.ItemID("core"), rec.UpdatedBy, "the former adder becomes the updater")

	rec.Reclaim()
	owner, ok = rec.Owner(m)
	require.True(t, ok)
	assert.Equal(t, "Core", owner.Name)
}

func TestReleaseKeepsUpdaterOfUpdates(t *testing.T) {
	rec := fileRecord("a.txt", "core")
	rec.MarkUpdated("util")

	rec.Release()
	assert.Empty(t, rec.AddedBy)
	assert.Equal(t, types.ItemID("util"), rec.UpdatedBy)

	rec.Release()
	assert.Equal(t, types.ItemID("util"), rec.UpdatedBy, "releasing twice changes nothing")
}

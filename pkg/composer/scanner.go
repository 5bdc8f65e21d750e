package composer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/repository"
	"github.com/arthur-debert/copyfold/pkg/types"
)

// owned is a record together with the resource it describes.
type owned struct {
	rec  *repository.Record
	repo *repository.Repository
	path string
}

type failure struct {
	entry owned
	err   error
}

// deleteResources deletes the files of entries, then their folders deepest
// first. A folder only goes when nothing is left in it, so content that is
// not part of entries keeps its folder. It returns the entries whose
// resource no longer exists.
func deleteResources(fsys types.FS, entries []owned) (gone []owned, failed []failure) {
	var folders []owned
	for _, e := range entries {
		if e.rec.Folder {
			folders = append(folders, e)
			continue
		}
		if err := filesystem.Delete(fsys, e.path); err != nil {
			failed = append(failed, failure{e, errors.Wrap(err, errors.ErrResourceDelete, "cannot delete file")})
			continue
		}
		gone = append(gone, e)
	}

	sort.SliceStable(folders, func(i, j int) bool {
		return depth(folders[i].path) > depth(folders[j].path)
	})
	for _, e := range folders {
		if !filesystem.Exists(fsys, e.path) {
			gone = append(gone, e)
			continue
		}
		empty, err := filesystem.IsEmptyDir(fsys, e.path)
		if err != nil {
			failed = append(failed, failure{e, errors.Wrap(err, errors.ErrResourceDelete, "cannot inspect folder")})
			continue
		}
		if !empty {
			continue
		}
		if err := filesystem.Delete(fsys, e.path); err != nil {
			failed = append(failed, failure{e, errors.Wrap(err, errors.ErrResourceDelete, "cannot delete folder")})
			continue
		}
		gone = append(gone, e)
	}
	return gone, failed
}

func depth(p string) int {
	return strings.Count(filepath.ToSlash(p), "/")
}

// copyScanner copies the resources of records from one folder into
// another, leaving the records alone.
type copyScanner struct {
	mu   sync.Mutex
	fs   types.FS
	from string
	to   string
}

func newCopyScanner(fsys types.FS, from, to string) *copyScanner {
	return &copyScanner{fs: fsys, from: from, to: to}
}

// Scan copies every resource of recs that still exists below from.
func (s *copyScanner) Scan(recs []*repository.Record) (int, error) {
	if !s.mu.TryLock() {
		return 0, errors.New(errors.ErrScanInProgress, "copy scan already running")
	}
	defer s.mu.Unlock()

	copied := 0
	for _, rec := range recs {
		src := filepath.Join(s.from, filepath.FromSlash(rec.Path))
		dst := filepath.Join(s.to, filepath.FromSlash(rec.Path))
		info, err := s.fs.Stat(src)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return copied, errors.Wrapf(err, errors.ErrResourceCopy, "cannot stat %s", src)
		}
		if info.IsDir() {
			err = filesystem.EnsureDir(s.fs, dst)
		} else {
			err = filesystem.ReplaceFile(s.fs, src, dst, false)
		}
		if err != nil {
			return copied, errors.Wrapf(err, errors.ErrResourceCopy, "cannot stage %s", rec.Path)
		}
		copied++
	}
	return copied, nil
}

// multiRepoScanner deletes, in one go over several repositories, the
// resources those repositories record below one folder.
type multiRepoScanner struct {
	mu     sync.Mutex
	fs     types.FS
	folder string
	repos  []*repository.Repository
}

func newMultiRepoScanner(fsys types.FS, folder string, repos []*repository.Repository) *multiRepoScanner {
	return &multiRepoScanner{fs: fsys, folder: folder, repos: repos}
}

// DeleteOwned deletes every resource whose record matches. Folders
// survive while they hold anything else.
func (s *multiRepoScanner) DeleteOwned(match func(*repository.Record) bool) ([]owned, []failure, error) {
	if !s.mu.TryLock() {
		return nil, nil, errors.New(errors.ErrScanInProgress, "delete scan already running")
	}
	defer s.mu.Unlock()

	var entries []owned
	for _, repo := range s.repos {
		recs, err := repo.Existing()
		if err != nil {
			return nil, nil, err
		}
		for _, rec := range recs {
			if match(rec) {
				entries = append(entries, owned{rec: rec, repo: repo, path: filepath.Join(s.folder, filepath.FromSlash(rec.Path))})
			}
		}
	}
	gone, failed := deleteResources(s.fs, entries)
	return gone, failed, nil
}

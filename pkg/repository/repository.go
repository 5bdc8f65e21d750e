// Package repository persists target content records and link sets.
//
// Every record lives in its own YAML file below the repository folder:
// "<path>.rec.yaml" for files and "<path>/.rec.yaml" for folders. A write
// first stages the previous version as a ".rec.bak" sidecar and removes it
// once the new version is on disk, so a crash between the two steps leaves a
// recoverable backup. The link set uses the same scheme with ".links.yaml".
package repository

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/logging"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	recordExt    = ".rec.yaml"
	backupExt    = ".rec.bak"
	linksFile    = ".links.yaml"
	linksBackup  = ".links.bak"
	filePerm     = 0644
	folderRecord = recordExt
	folderBackup = backupExt
)

// Repository maps (path, is-folder) to a Record. One value owns its folder;
// sharing a folder between repositories is not supported.
type Repository struct {
	fs     types.FS
	dir    string
	clock  clockwork.Clock
	logger zerolog.Logger

	links       map[string]types.Link
	linksLoaded bool
	staging     map[string]types.Link
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the clock used to stamp records.
func WithClock(c clockwork.Clock) Option {
	return func(r *Repository) { r.clock = c }
}

// Open returns the repository stored in dir, creating the folder if needed.
func Open(fsys types.FS, dir string, opts ...Option) (*Repository, error) {
	if fsys == nil {
		return nil, errors.New(errors.ErrMissingArgument, "repository needs a filesystem")
	}
	r := &Repository{
		fs:     fsys,
		dir:    dir,
		clock:  clockwork.NewRealClock(),
		logger: logging.GetLogger("repository").With().Str("repo", dir).Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := filesystem.EnsureDir(fsys, dir); err != nil {
		return nil, errors.Wrap(err, errors.ErrPersistenceWrite, "cannot create repository folder")
	}
	return r, nil
}

// Dir is the repository folder.
func (r *Repository) Dir() string {
	return r.dir
}

func (r *Repository) slots(p string, folder bool) (primary, backup string) {
	base := filepath.Join(r.dir, filepath.FromSlash(p))
	if folder {
		return filepath.Join(base, folderRecord), filepath.Join(base, folderBackup)
	}
	return base + recordExt, base + backupExt
}

// Get returns the record for (p, folder). The backup slot is used when the
// primary is missing or corrupt; corrupt files are deleted. Read errors
// yield "absent".
func (r *Repository) Get(p string, folder bool) (*Record, bool) {
	primary, backup := r.slots(p, folder)
	if rec, ok := r.read(primary, p, folder); ok {
		return rec, true
	}
	return r.read(backup, p, folder)
}

func (r *Repository) read(file, p string, folder bool) (*Record, bool) {
	data, err := r.fs.ReadFile(file)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn().Err(err).Str("file", file).Msg("Cannot read record, treating as absent")
		}
		return nil, false
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil || rec.Path != p || rec.Folder != folder {
		if err == nil {
			err = fmt.Errorf("record holds %q (folder=%t)", rec.Path, rec.Folder)
		}
		r.logger.Warn().
			Err(errors.Wrap(err, errors.ErrPersistenceCorrupt, "corrupt record")).
			Str("file", file).
			Msg("Deleting corrupt record")
		if rmErr := r.fs.Remove(file); rmErr != nil && !os.IsNotExist(rmErr) {
			r.logger.Warn().Err(rmErr).Str("file", file).Msg("Cannot delete corrupt record")
		}
		return nil, false
	}
	return &rec, true
}

// Put stores rec, staging the previous version as backup until the new one
// is written.
func (r *Repository) Put(rec *Record) error {
	if rec == nil {
		return errors.New(errors.ErrMissingArgument, "nil record")
	}
	rec.ChangedAt = r.clock.Now().UTC()
	data, err := yaml.Marshal(rec)
	if err != nil {
		return errors.Wrapf(err, errors.ErrPersistenceWrite, "cannot encode record %s", rec.Path)
	}
	primary, backup := r.slots(rec.Path, rec.Folder)
	if err := r.writeStaged(primary, backup, data); err != nil {
		return errors.Wrapf(err, errors.ErrPersistenceWrite, "cannot store record %s", rec.Path).
			WithDetail("path", rec.Path)
	}
	return nil
}

func (r *Repository) writeStaged(primary, backup string, data []byte) error {
	if err := filesystem.EnsureDir(r.fs, filepath.Dir(primary)); err != nil {
		return err
	}
	if previous, err := r.fs.ReadFile(primary); err == nil {
		if err := r.fs.WriteFile(backup, previous, filePerm); err != nil {
			return fmt.Errorf("failed to stage backup: %w", err)
		}
	}
	if err := r.fs.WriteFile(primary, data, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", primary, err)
	}
	if err := r.fs.Remove(backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear backup: %w", err)
	}
	return nil
}

// Remove deletes both slots of rec.
func (r *Repository) Remove(rec *Record) error {
	if rec == nil {
		return errors.New(errors.ErrMissingArgument, "nil record")
	}
	return r.RemovePath(rec.Path, rec.Folder)
}

// RemovePath deletes both slots of (p, folder).
func (r *Repository) RemovePath(p string, folder bool) error {
	primary, backup := r.slots(p, folder)
	for _, f := range []string{primary, backup} {
		if err := r.fs.Remove(f); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrPersistenceWrite, "cannot remove record %s", p)
		}
	}
	return nil
}

type slotKey struct {
	path   string
	folder bool
}

// ListAll walks the repository folder and returns every readable record,
// ordered by path with folders before files of the same name.
func (r *Repository) ListAll() ([]*Record, error) {
	seen := make(map[slotKey]bool)
	var keys []slotKey

	err := r.fs.Walk(r.dir, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.dir, file)
		if err != nil {
			return nil
		}
		k, ok := keyOf(filepath.ToSlash(rel))
		if ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list repository %s: %w", r.dir, err)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].path != keys[j].path {
			return keys[i].path < keys[j].path
		}
		return keys[i].folder && !keys[j].folder
	})

	records := make([]*Record, 0, len(keys))
	for _, k := range keys {
		if rec, ok := r.Get(k.path, k.folder); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func keyOf(rel string) (slotKey, bool) {
	base := path.Base(rel)
	if base == folderRecord || base == folderBackup {
		dir := path.Dir(rel)
		if dir == "." {
			dir = ""
		}
		return slotKey{path: dir, folder: true}, true
	}
	for _, ext := range []string{recordExt, backupExt} {
		if strings.HasSuffix(rel, ext) {
			return slotKey{path: strings.TrimSuffix(rel, ext)}, true
		}
	}
	return slotKey{}, false
}

// ListFor returns the records added, updated or removed by item.
func (r *Repository) ListFor(item types.ItemID) ([]*Record, error) {
	all, err := r.ListAll()
	if err != nil {
		return nil, err
	}
	var out []*Record
	for _, rec := range all {
		if rec.Touches(item) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Existing returns the records that are not tombstones.
func (r *Repository) Existing() ([]*Record, error) {
	all, err := r.ListAll()
	if err != nil {
		return nil, err
	}
	var out []*Record
	for _, rec := range all {
		if !rec.IsTombstone() {
			out = append(out, rec)
		}
	}
	return out, nil
}

// HasExisting reports whether any non-tombstone record exists.
func (r *Repository) HasExisting() bool {
	existing, err := r.Existing()
	return err == nil && len(existing) > 0
}

// LastModifier returns the item behind the last operation on (p, folder).
func (r *Repository) LastModifier(p string, folder bool) (types.ItemID, bool) {
	rec, ok := r.Get(p, folder)
	if !ok {
		return "", false
	}
	return rec.LastModifier()
}

// RemoveFor deletes every record item touched.
func (r *Repository) RemoveFor(item types.ItemID) error {
	recs, err := r.ListFor(item)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := r.Remove(rec); err != nil {
			return err
		}
	}
	return nil
}

// Clean erases everything the repository persisted.
func (r *Repository) Clean() error {
	r.Close()
	if err := r.fs.RemoveAll(r.dir); err != nil {
		return errors.Wrapf(err, errors.ErrPersistenceWrite, "cannot clean repository %s", r.dir)
	}
	return nil
}

// Close drops cached state. The repository stays usable.
func (r *Repository) Close() {
	r.links = nil
	r.linksLoaded = false
	r.staging = nil
}

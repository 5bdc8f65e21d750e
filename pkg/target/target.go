// Package target manages the folder a composer copies into, the state
// folder holding its repositories and the bookkeeping needed to move the
// target elsewhere.
package target

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/logging"
	"github.com/arthur-debert/copyfold/pkg/repository"
	"github.com/arthur-debert/copyfold/pkg/routing"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	// DefaultStateDir is created below the project root when no state root
	// is configured.
	DefaultStateDir = ".copyfold"
	propertiesFile  = "repo.toml"
	tempDirName     = ".temp"
)

// Options locate a composer's target and state.
type Options struct {
	// ProjectRoot is the absolute folder of the composite item.
	ProjectRoot string
	// StateRoot defaults to ProjectRoot/.copyfold.
	StateRoot string
	Composite types.ItemID
	Composer  string
	// TargetPath is relative to ProjectRoot; empty means the root itself.
	TargetPath string
	Clock      clockwork.Clock
}

// Target is one composer's view of its target folder.
type Target struct {
	fs     types.FS
	opts   Options
	rel    string
	props  *Properties
	repos  map[string]*repository.Repository
	logger zerolog.Logger
}

// Open loads the composer state and makes sure the target folder exists.
func Open(fsys types.FS, opts Options) (*Target, error) {
	t, err := Inspect(fsys, opts)
	if err != nil {
		return nil, err
	}
	if err := filesystem.EnsureDir(fsys, t.StateDir()); err != nil {
		return nil, errors.Wrap(err, errors.ErrPersistenceWrite, "cannot create state folder")
	}
	if err := t.EnsureFolder(); err != nil {
		return nil, err
	}
	return t, nil
}

// Inspect loads the composer state without creating the target folder.
func Inspect(fsys types.FS, opts Options) (*Target, error) {
	if fsys == nil {
		return nil, errors.New(errors.ErrMissingArgument, "target needs a filesystem")
	}
	if opts.ProjectRoot == "" || opts.Composite == "" || opts.Composer == "" {
		return nil, errors.New(errors.ErrMissingArgument, "target needs a project root, composite and composer name")
	}
	rel, err := relPath(opts.TargetPath)
	if err != nil {
		return nil, err
	}
	if opts.StateRoot == "" {
		opts.StateRoot = filepath.Join(opts.ProjectRoot, DefaultStateDir)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	t := &Target{
		fs:    fsys,
		opts:  opts,
		rel:   rel,
		repos: make(map[string]*repository.Repository),
		logger: logging.GetLogger("target").With().
			Str("composer", opts.Composer).
			Str("target", rel).
			Logger(),
	}
	if t.props, err = loadProperties(fsys, t.propertiesPath()); err != nil {
		return nil, err
	}
	return t, nil
}

func relPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return "", errors.Newf(errors.ErrConfigValid, "target path %q must be relative to the project", p)
	}
	clean := path.Clean(filepath.ToSlash(p))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errors.Newf(errors.ErrConfigValid, "target path %q leaves the project", p)
	}
	return clean, nil
}

func (t *Target) abs(rel string) string {
	if rel == "." || rel == "" {
		return t.opts.ProjectRoot
	}
	return filepath.Join(t.opts.ProjectRoot, filepath.FromSlash(rel))
}

// Folder is the absolute current target folder.
func (t *Target) Folder() string {
	return t.abs(t.rel)
}

// RelFolder is the project relative target folder.
func (t *Target) RelFolder() string {
	return t.rel
}

// PathFor resolves a bucket label: the default label is the target folder,
// other labels are project relative.
func (t *Target) PathFor(label string) (string, error) {
	if label == "" || label == routing.DefaultTarget {
		return t.Folder(), nil
	}
	rel, err := relPath(label)
	if err != nil {
		return "", err
	}
	return t.abs(rel), nil
}

// FolderFor is PathFor, creating the folder when missing.
func (t *Target) FolderFor(label string) (string, error) {
	folder, err := t.PathFor(label)
	if err != nil {
		return "", err
	}
	if err := filesystem.EnsureDir(t.fs, folder); err != nil {
		return "", errors.Wrap(err, errors.ErrResourceCreate, "cannot create target folder").
			WithDetail("label", label)
	}
	return folder, nil
}

// StateDir holds the properties, the temp folder and the repositories.
func (t *Target) StateDir() string {
	return filepath.Join(t.opts.StateRoot, string(t.opts.Composite), t.opts.Composer)
}

func (t *Target) propertiesPath() string {
	return filepath.Join(t.StateDir(), propertiesFile)
}

// Properties returns a copy of the persisted state.
func (t *Target) Properties() Properties {
	return *t.props
}

// Repository returns the repository for exporterType, opening it once per
// Target.
func (t *Target) Repository(exporterType string) (*repository.Repository, error) {
	if repo, ok := t.repos[exporterType]; ok {
		return repo, nil
	}
	if exporterType == "" || strings.ContainsAny(exporterType, `/\`) || strings.HasPrefix(exporterType, ".") {
		return nil, errors.Newf(errors.ErrInvalidInput, "invalid exporter type %q", exporterType)
	}
	repo, err := repository.Open(t.fs, filepath.Join(t.StateDir(), exporterType), repository.WithClock(t.opts.Clock))
	if err != nil {
		return nil, err
	}
	t.repos[exporterType] = repo
	return repo, nil
}

// Close releases the cached repositories.
func (t *Target) Close() {
	for _, repo := range t.repos {
		repo.Close()
	}
	t.repos = make(map[string]*repository.Repository)
}

// TempDir is the staging folder used while relocating.
func (t *Target) TempDir() string {
	return filepath.Join(t.StateDir(), tempDirName)
}

// CreateTempDir creates the staging folder, keeping whatever it holds.
func (t *Target) CreateTempDir() (string, error) {
	dir := t.TempDir()
	if err := filesystem.EnsureDir(t.fs, dir); err != nil {
		return "", errors.Wrap(err, errors.ErrResourceCreate, "cannot create temp folder")
	}
	return dir, nil
}

// DeleteTempDir removes the staging folder.
func (t *Target) DeleteTempDir() error {
	return filesystem.Delete(t.fs, t.TempDir())
}

func (t *Target) save() error {
	return t.props.save(t.fs, t.propertiesPath())
}

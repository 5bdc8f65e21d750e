package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/pelletier/go-toml/v2"
)

// StateFolder is created below a request's StateDir.
const StateFolder = "exporters"

// exportState remembers the locations an exporter exported last time and
// what it found in them.
type exportState struct {
	Locations []locationState `toml:"locations"`
}

type locationState struct {
	Path    string   `toml:"path"`
	Files   []string `toml:"files"`
	Folders []string `toml:"folders"`
}

func (s *exportState) find(p string) (locationState, bool) {
	for _, loc := range s.Locations {
		if loc.Path == p {
			return loc, true
		}
	}
	return locationState{}, false
}

// statePath is empty when the request carries no state folder, in which
// case nothing is remembered between passes.
func statePath(req Request, id string) string {
	if req.StateDir == "" {
		return ""
	}
	return filepath.Join(req.StateDir, StateFolder, string(req.Item.ID), id+".toml")
}

func loadState(fsys types.FS, file string) (*exportState, error) {
	st := &exportState{}
	if file == "" {
		return st, nil
	}
	data, err := fsys.ReadFile(file)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read exporter state %s: %w", file, err)
	}
	if err := toml.Unmarshal(data, st); err != nil {
		// a broken listing only costs removal reports, start over
		return &exportState{}, nil
	}
	return st, nil
}

func saveState(fsys types.FS, file string, st *exportState) error {
	if file == "" {
		return nil
	}
	data, err := toml.Marshal(st)
	if err != nil {
		return errors.Wrap(err, errors.ErrPersistenceWrite, "cannot encode exporter state")
	}
	if err := filesystem.EnsureDir(fsys, filepath.Dir(file)); err != nil {
		return errors.Wrap(err, errors.ErrPersistenceWrite, "cannot create exporter state folder")
	}
	tmp := file + ".tmp"
	if err := fsys.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrPersistenceWrite, "cannot write %s", tmp)
	}
	if err := fsys.Rename(tmp, file); err != nil {
		return errors.Wrapf(err, errors.ErrPersistenceWrite, "cannot replace %s", file)
	}
	return nil
}

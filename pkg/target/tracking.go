package target

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
)

// LastFolder returns the absolute target folder recorded by the last
// completed pass.
func (t *Target) LastFolder() (string, bool) {
	if t.props.LastTargetFolder == "" {
		return "", false
	}
	return t.abs(t.props.LastTargetFolder), true
}

// Changed reports whether the target moved since the last pass. The first
// pass never counts as a change.
func (t *Target) Changed() bool {
	last := t.props.LastTargetFolder
	return last != "" && last != t.rel
}

// EnsureFolder creates the target folder when missing and records which
// trailing segments were created, so a later relocation only removes
// folders copyfold made.
func (t *Target) EnsureFolder() error {
	dirty := false
	if t.props.CreatedFor != "" && t.props.CreatedFor != t.rel {
		t.props.LastCreatedFolderPathPart = t.props.CreatedFolderPathPart
		t.props.LastCreatedFor = t.props.CreatedFor
		t.props.CreatedFolderPathPart = ""
		t.props.CreatedFor = ""
		dirty = true
	}

	folder := t.Folder()
	if !filesystem.IsDir(t.fs, folder) {
		t.props.CreatedFolderPathPart = t.missingSuffix()
		t.props.CreatedFor = t.rel
		dirty = true
		if err := filesystem.EnsureDir(t.fs, folder); err != nil {
			return errors.Wrap(err, errors.ErrResourceCreate, "cannot create target folder").
				WithDetail("path", folder)
		}
		t.logger.Info().Str("created", t.props.CreatedFolderPathPart).Msg("Created target folder")
	} else if t.props.CreatedFor == "" {
		t.props.CreatedFor = t.rel
		dirty = true
	}

	if dirty {
		return t.save()
	}
	return nil
}

// missingSuffix returns the trailing segments of the target that do not
// exist yet.
func (t *Target) missingSuffix() string {
	if t.rel == "." {
		return ""
	}
	segments := strings.Split(t.rel, "/")
	for i := range segments {
		prefix := path.Join(segments[:i+1]...)
		if !filesystem.IsDir(t.fs, t.abs(prefix)) {
			return path.Join(segments[i:]...)
		}
	}
	return ""
}

// SaveRef records the current target as both last and current.
func (t *Target) SaveRef() error {
	if t.props.LastTargetFolder == t.rel && t.props.CurrentTargetFolder == t.rel {
		return nil
	}
	t.props.LastTargetFolder = t.rel
	t.props.CurrentTargetFolder = t.rel
	return t.save()
}

// StartRelocation marks the beginning of a target move.
func (t *Target) StartRelocation() error {
	t.props.RelocationPhase1Finished = false
	t.props.CurrentTargetFolder = t.rel
	return t.save()
}

// FinishPhase1 records that the old target has been staged and emptied.
func (t *Target) FinishPhase1() error {
	t.props.RelocationPhase1Finished = true
	return t.save()
}

// Phase1Finished reports whether a relocation stopped after phase 1.
func (t *Target) Phase1Finished() bool {
	return t.props.RelocationPhase1Finished
}

// FinishRelocation makes the new target the reference and clears the
// phase flag.
func (t *Target) FinishRelocation() error {
	t.props.RelocationPhase1Finished = false
	t.props.LastTargetFolder = t.rel
	t.props.CurrentTargetFolder = t.rel
	return t.save()
}

// DeleteOldFolder removes the last target folder when it holds nothing and
// copyfold created it. Created ancestors that only contain folders go too.
func (t *Target) DeleteOldFolder() error {
	lastRel := t.props.LastTargetFolder
	if lastRel == "" || lastRel == "." || lastRel == t.rel {
		return nil
	}
	last := t.abs(lastRel)
	if !filesystem.IsDir(t.fs, last) {
		return t.clearLastCreated()
	}
	empty, err := filesystem.IsEmptyDir(t.fs, last)
	if err != nil {
		return errors.Wrap(err, errors.ErrRelocation, "cannot inspect old target folder")
	}
	if !empty {
		t.logger.Info().Str("old", lastRel).Msg("Old target folder is not empty, keeping it")
		return nil
	}

	created := t.props.LastCreatedFolderPathPart
	if t.props.LastCreatedFor != lastRel || created == "" {
		return t.clearLastCreated()
	}

	segments := strings.Split(lastRel, "/")
	first := len(segments) - len(strings.Split(created, "/"))
	if first < 0 {
		first = 0
	}
	for i := first; i < len(segments); i++ {
		candidate := t.abs(path.Join(segments[:i+1]...))
		only, err := t.containsOnlyFolders(candidate)
		if err != nil {
			return errors.Wrap(err, errors.ErrRelocation, "cannot inspect old target folder")
		}
		if !only {
			continue
		}
		// Never remove the folder holding the new target.
		if t.rel == "." || !isWithin(t.rel, path.Join(segments[:i+1]...)) {
			if err := filesystem.Delete(t.fs, candidate); err != nil {
				return errors.Wrap(err, errors.ErrRelocation, "cannot delete old target folder")
			}
			t.logger.Info().Str("deleted", candidate).Msg("Deleted old target folder")
			break
		}
	}
	return t.clearLastCreated()
}

func isWithin(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}

func (t *Target) containsOnlyFolders(dir string) (bool, error) {
	entries, err := t.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			return false, nil
		}
		only, err := t.containsOnlyFolders(filepath.Join(dir, e.Name()))
		if err != nil || !only {
			return false, err
		}
	}
	return true, nil
}

func (t *Target) clearLastCreated() error {
	if t.props.LastCreatedFolderPathPart == "" && t.props.LastCreatedFor == "" {
		return nil
	}
	t.props.LastCreatedFolderPathPart = ""
	t.props.LastCreatedFor = ""
	return t.save()
}

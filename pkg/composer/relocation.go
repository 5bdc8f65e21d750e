package composer

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/repository"
	"github.com/arthur-debert/copyfold/pkg/routing"
	"github.com/arthur-debert/copyfold/pkg/target"
	"github.com/rs/zerolog"
)

// relocate moves what the composer produced from the last target folder
// to the current one.
//
// Phase 1 stages the owned content in the temp folder, deletes it from the
// old target and removes the old target when copyfold created it. Phase 2
// replays the staging folder into the new target. Phase 1 is skipped when a
// previous run already finished it.
func (c *Composer) relocate(t *target.Target, logger zerolog.Logger) error {
	old, ok := t.LastFolder()
	if !ok {
		return t.SaveRef()
	}
	logger = logger.With().Str("from", old).Str("to", t.Folder()).Logger()

	if !t.Phase1Finished() {
		logger.Info().Msg("Relocating target folder")
		if err := c.relocatePhase1(t, old); err != nil {
			return errors.Wrap(err, errors.ErrRelocation, "relocation phase 1 failed")
		}
		if c.afterPhase1 != nil {
			if err := c.afterPhase1(); err != nil {
				return err
			}
		}
	} else {
		logger.Info().Msg("Resuming interrupted relocation")
	}

	if err := c.relocatePhase2(t); err != nil {
		return errors.Wrap(err, errors.ErrRelocation, "relocation phase 2 failed")
	}
	logger.Info().Msg("Relocated target folder")
	return nil
}

func (c *Composer) repositories(t *target.Target) ([]*repository.Repository, error) {
	repos := make([]*repository.Repository, 0, len(c.opts.ExporterTypes))
	for _, exporterType := range c.opts.ExporterTypes {
		repo, err := t.Repository(exporterType)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// movable selects records of content copyfold added to the target folder
// itself. Other labels are project relative and stay where they are.
func movable(rec *repository.Record) bool {
	return rec.AddedBy != "" && (rec.Target == "" || rec.Target == routing.DefaultTarget)
}

func (c *Composer) relocatePhase1(t *target.Target, old string) error {
	if err := t.StartRelocation(); err != nil {
		return err
	}
	temp, err := t.CreateTempDir()
	if err != nil {
		return err
	}
	repos, err := c.repositories(t)
	if err != nil {
		return err
	}

	stager := newCopyScanner(c.fs, old, temp)
	for _, repo := range repos {
		recs, err := repo.Existing()
		if err != nil {
			return err
		}
		var selected []*repository.Record
		for _, rec := range recs {
			if movable(rec) {
				selected = append(selected, rec)
			}
		}
		if _, err := stager.Scan(selected); err != nil {
			return err
		}
	}

	_, failed, err := newMultiRepoScanner(c.fs, old, repos).DeleteOwned(movable)
	if err != nil {
		return err
	}
	for _, f := range failed {
		c.logger.Warn().Err(f.err).Str("path", f.entry.rec.Path).Msg("Cannot delete from old target folder")
		c.opts.Reporter.Error(f.err, map[string]string{"path": f.entry.rec.Path})
	}

	if err := t.DeleteOldFolder(); err != nil {
		return err
	}
	return t.FinishPhase1()
}

// relocatePhase2 replays the staging folder into the new target. Each
// replayed file leaves the staging folder, so an interrupted replay resumes
// with what is left.
func (c *Composer) relocatePhase2(t *target.Target) error {
	temp := t.TempDir()
	repos, err := c.repositories(t)
	if err != nil {
		return err
	}
	dest := t.Folder()

	if filesystem.IsDir(c.fs, temp) {
		err = c.fs.Walk(temp, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(temp, file)
			if err != nil || rel == "." {
				return err
			}
			p, err := content.CleanPath(rel)
			if err != nil {
				return err
			}
			return c.replay(repos, file, filepath.Join(dest, rel), p, info.IsDir())
		})
		if err != nil {
			return err
		}
	}

	if err := t.DeleteTempDir(); err != nil {
		return err
	}
	return t.FinishRelocation()
}

func (c *Composer) replay(repos []*repository.Repository, src, dst, p string, folder bool) error {
	repo, rec := repos[0], (*repository.Record)(nil)
	for _, r := range repos {
		if found, ok := r.Get(p, folder); ok {
			repo, rec = r, found
			break
		}
	}
	if rec == nil {
		rec = &repository.Record{Path: p, Folder: folder, Target: routing.DefaultTarget}
	}

	if folder {
		if err := filesystem.EnsureDir(c.fs, dst); err != nil {
			return err
		}
		return repo.Put(rec)
	}

	if filesystem.Exists(c.fs, dst) {
		if err := filesystem.ReplaceFile(c.fs, src, dst, c.opts.ReadOnly); err != nil {
			return err
		}
		rec.Release()
	} else {
		if err := filesystem.CopyFile(c.fs, src, dst, c.opts.ReadOnly); err != nil {
			return err
		}
		rec.Reclaim()
	}
	if err := repo.Put(rec); err != nil {
		return err
	}
	return c.fs.Remove(src)
}

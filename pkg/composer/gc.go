package composer

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/exporter"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/logging"
	"github.com/arthur-debert/copyfold/pkg/repository"
	"github.com/arthur-debert/copyfold/pkg/target"
)

// collectGarbage deletes the content added by items that are no longer
// components of the composite and forgets their records.
func (p *pass) collectGarbage() error {
	composite := p.c.opts.Composite
	model := p.c.opts.Model

	entries, err := ownedEntries(p.t, p.c.opts.ExporterTypes, func(rec *repository.Record) bool {
		return rec.AddedBy != "" && !model.IsComponent(composite, rec.AddedBy)
	}, true)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	p.c.opts.Reporter.SubTask("garbage collect")

	gone, failed := deleteResources(p.c.fs, entries)
	for _, f := range failed {
		p.fail(f.err, map[string]string{"path": f.entry.rec.Path, "exporter_type": f.entry.rec.ExporterType})
	}
	for _, e := range gone {
		if err := e.repo.Remove(e.rec); err != nil {
			p.fail(err, map[string]string{"path": e.rec.Path, "exporter_type": e.rec.ExporterType})
			continue
		}
		p.logger.Debug().
			Str("path", e.rec.Path).
			Str("added_by", string(e.rec.AddedBy)).
			Msg("Collected content of a removed component")
		p.result.Collected++
	}
	return nil
}

// ownedEntries lists the records of the given repositories that match,
// resolved to their resource paths. Tombstones are included on request.
func ownedEntries(t *target.Target, exporterTypes []string, match func(*repository.Record) bool, tombstones bool) ([]owned, error) {
	var entries []owned
	for _, exporterType := range exporterTypes {
		repo, err := t.Repository(exporterType)
		if err != nil {
			return nil, err
		}
		list := repo.Existing
		if tombstones {
			list = repo.ListAll
		}
		recs, err := list()
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if !match(rec) {
				continue
			}
			folder, err := t.PathFor(rec.Target)
			if err != nil {
				return nil, err
			}
			entries = append(entries, owned{rec: rec, repo: repo, path: filepath.Join(folder, filepath.FromSlash(rec.Path))})
		}
	}
	return entries, nil
}

// Clean deletes everything the composer added, then erases its state.
// Folders survive while they hold content copyfold did not add.
func (c *Composer) Clean(ctx context.Context) (Result, error) {
	if !c.mu.TryLock() {
		return Result{}, errors.Newf(errors.ErrPassInProgress, "composer %s is already running", c.opts.Name)
	}
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	defer logging.LogOperationStart(c.logger, "clean")()

	t, err := c.openTarget()
	if err != nil {
		return Result{}, err
	}
	defer t.Close()

	c.opts.Reporter.BeginTask("clean "+c.opts.Name, 0)
	defer c.opts.Reporter.Done()

	var result Result
	entries, err := ownedEntries(t, c.opts.ExporterTypes, func(rec *repository.Record) bool {
		return rec.AddedBy != ""
	}, false)
	if err != nil {
		return result, err
	}
	gone, failed := deleteResources(c.fs, entries)
	result.Collected = len(gone)
	for _, f := range failed {
		result.Failed++
		c.logger.Warn().Err(f.err).Str("path", f.entry.rec.Path).Msg("Cannot clean resource")
		c.opts.Reporter.Error(f.err, map[string]string{"path": f.entry.rec.Path})
	}

	for _, exporterType := range c.opts.ExporterTypes {
		repo, err := t.Repository(exporterType)
		if err != nil {
			return result, err
		}
		if err := repo.Clean(); err != nil {
			return result, err
		}
	}
	if err := filesystem.Delete(c.fs, filepath.Join(t.StateDir(), exporter.StateFolder)); err != nil {
		return result, errors.Wrap(err, errors.ErrPersistenceWrite, "cannot clean exporter state")
	}
	c.logger.Info().Int("deleted", result.Collected).Int("failed", result.Failed).Msg("Cleaned target")
	return result, nil
}

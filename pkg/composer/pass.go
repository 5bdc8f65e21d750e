package composer

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/delta"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/exporter"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/repository"
	"github.com/arthur-debert/copyfold/pkg/routing"
	"github.com/arthur-debert/copyfold/pkg/target"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// pass holds what one Compose call works on.
type pass struct {
	c      *Composer
	ctx    context.Context
	t      *target.Target
	logger zerolog.Logger
	result Result
}

// Compose runs one pass. deltas carries the source changes per component;
// nil exports everything.
func (c *Composer) Compose(ctx context.Context, deltas delta.Set) (Result, error) {
	if !c.mu.TryLock() {
		return Result{}, errors.Newf(errors.ErrPassInProgress, "composer %s is already running", c.opts.Name)
	}
	defer c.mu.Unlock()

	start := c.opts.Clock.Now()
	p := &pass{c: c, ctx: ctx}
	p.result.PassID = uuid.NewString()
	p.logger = c.logger.With().Str("pass_id", p.result.PassID).Logger()
	p.logger.Info().Bool("incremental", deltas != nil).Msg("Starting pass")

	reporter := c.opts.Reporter
	reporter.BeginTask("compose "+c.opts.Name, 0)
	defer reporter.Done()

	err := p.run(deltas)
	c.setState(StateDone)
	p.result.Duration = c.opts.Clock.Since(start)

	event := p.logger.Info()
	if err != nil {
		event = p.logger.Error().Err(err)
	}
	event.Int("applied", p.result.Applied).
		Int("failed", p.result.Failed).
		Int("collected", p.result.Collected).
		Dur("duration", p.result.Duration).
		Msg("Pass finished")
	return p.result, err
}

func (p *pass) run(deltas delta.Set) error {
	var err error
	if p.t, err = p.c.openTarget(); err != nil {
		return err
	}
	defer p.t.Close()

	p.c.setState(StateCollecting)
	trees, err := p.collect(deltas)
	if err != nil {
		return err
	}

	p.c.setState(StateMerging)
	buckets, err := p.merge(trees)
	if err != nil {
		return err
	}

	p.c.setState(StateApplying)
	if err := p.ctx.Err(); err != nil {
		return err
	}
	if p.t.Changed() {
		if err := p.c.relocate(p.t, p.logger); err != nil {
			return err
		}
	} else if err := p.t.SaveRef(); err != nil {
		return err
	}
	if err := p.applyBuckets(buckets); err != nil {
		return err
	}

	p.c.setState(StateGarbageCollecting)
	return p.collectGarbage()
}

// collect asks every exporter of every component for its content. A
// failing exporter drops the whole component from the pass.
func (p *pass) collect(deltas delta.Set) ([]*content.Node, error) {
	composite := p.c.opts.Composite
	var trees []*content.Node

	for _, comp := range p.c.opts.Model.Components(composite) {
		if err := p.ctx.Err(); err != nil {
			return nil, err
		}
		p.c.opts.Reporter.SubTask("export " + string(comp.ID))
		link := types.ComponentLink(composite, comp.ID)
		componentTrees, err := p.exportComponent(comp, link, deltas.For(comp.ID))
		if err != nil {
			if p.ctx.Err() != nil {
				return nil, p.ctx.Err()
			}
			if errors.IsStructural(err) {
				return nil, err
			}
			p.fail(err, map[string]string{"item": string(comp.ID)})
			continue
		}
		trees = append(trees, componentTrees...)
	}
	return trees, nil
}

func (p *pass) exportComponent(comp types.Item, link types.Link, changes *delta.Tree) ([]*content.Node, error) {
	var trees []*content.Node
	for _, exporterType := range p.c.opts.ExporterTypes {
		repo, err := p.t.Repository(exporterType)
		if err != nil {
			return nil, err
		}
		req := exporter.Request{
			Item:         comp,
			Link:         link,
			ExporterType: exporterType,
			Delta:        changes,
			Full:         changes == nil || !repo.Contains(link),
			StateDir:     p.t.StateDir(),
		}
		for _, e := range p.c.opts.Registry.For(comp.ID, exporterType) {
			tree, err := e.Export(p.ctx, req)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrExporterFault, "export of %s failed", comp.ID).
					WithDetail("exporter_type", exporterType)
			}
			if tree == nil {
				continue
			}
			if !tree.IsFolder() {
				return nil, errors.Newf(errors.ErrStructural, "exporter of %s returned a file root", comp.ID)
			}
			p.logger.Debug().
				Str("item", string(comp.ID)).
				Str("exporter_type", exporterType).
				Bool("full", req.IsFull()).
				Int("nodes", tree.Count()).
				Msg("Collected exported content")
			trees = append(trees, tree)
		}
	}
	return trees, nil
}

// merge records the link set of every exporter type and routes the trees
// into buckets.
func (p *pass) merge(trees []*content.Node) (*routing.Buckets, error) {
	for _, exporterType := range p.c.opts.ExporterTypes {
		repo, err := p.t.Repository(exporterType)
		if err != nil {
			return nil, err
		}
		repo.BeginTransaction()
		for _, tree := range trees {
			if tree.ExporterType() != exporterType {
				continue
			}
			if link, ok := tree.Link(); ok {
				repo.RecordLink(link)
			}
		}
		if err := repo.CommitTransaction(); err != nil {
			p.fail(err, map[string]string{"exporter_type": exporterType})
		}
	}
	return routing.Route(trees)
}

func (p *pass) applyBuckets(buckets *routing.Buckets) error {
	for _, label := range buckets.Labels() {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		tree, _ := buckets.Get(label)
		folder, err := p.t.FolderFor(label)
		if err != nil {
			p.fail(err, map[string]string{"label": label})
			continue
		}
		p.c.opts.Reporter.SubTask("apply " + label)
		for _, child := range tree.Children() {
			p.apply(child, folder, label)
		}
	}
	return nil
}

// apply performs the node's action and records it, then descends into
// folders. A removed folder is handled after its children and only goes
// away when nothing is left in it; its record is tombstoned either way.
func (p *pass) apply(n *content.Node, folder, label string) {
	dst := filepath.Join(folder, filepath.FromSlash(n.Path()))
	fields := map[string]string{"path": n.Path(), "exporter_type": n.ExporterType(), "label": label}

	repo, err := p.t.Repository(n.ExporterType())
	if err != nil {
		p.fail(err, fields)
		return
	}

	keep := false
	if n.IsFolder() && n.Delta().IsRemoved() {
		for _, child := range n.Children() {
			p.apply(child, folder, label)
		}
		if filesystem.Exists(p.c.fs, dst) {
			empty, err := filesystem.IsEmptyDir(p.c.fs, dst)
			if err != nil {
				p.fail(errors.Wrap(err, errors.ErrResourceDelete, "cannot inspect folder"), fields)
				return
			}
			keep = !empty
		}
	}

	rec, found := repo.Get(n.Path(), n.IsFolder())
	if found && p.inPlace(n, rec, dst, label) {
		p.descend(n, folder, label)
		return
	}

	if keep {
		p.logger.Debug().Str("path", n.Path()).Msg("Removed folder still has content, keeping it")
	} else if err := p.perform(n, dst, filesystem.Exists(p.c.fs, dst)); err != nil {
		p.fail(err, fields)
		return
	}

	if !found {
		rec = repository.NewRecord(n, label)
		if !n.Delta().IsRemoved() {
			rec.MarkAdded(n.Item())
		}
	}
	rec.Apply(n)
	rec.Target = label
	if err := repo.Put(rec); err != nil {
		p.fail(err, fields)
	} else {
		p.result.Applied++
		p.c.opts.Reporter.Worked(1)
	}

	p.descend(n, folder, label)
}

func (p *pass) descend(n *content.Node, folder, label string) {
	if n.IsFolder() && !n.Delta().IsRemoved() {
		for _, child := range n.Children() {
			p.apply(child, folder, label)
		}
	}
}

// inPlace reports whether an added node is already materialised: its live
// record is owned by the node's item in the same bucket and the resource
// matches the source.
func (p *pass) inPlace(n *content.Node, rec *repository.Record, dst, label string) bool {
	if !n.Delta().IsAdded() || rec.IsTombstone() || rec.AddedBy != n.Item() || rec.Target != label {
		return false
	}
	if n.IsFolder() {
		return filesystem.IsDir(p.c.fs, dst)
	}
	return filesystem.SameContent(p.c.fs, n.Source(), dst)
}

func (p *pass) perform(n *content.Node, dst string, existed bool) error {
	fsys := p.c.fs
	switch {
	case n.Delta().IsRemoved():
		if err := filesystem.Delete(fsys, dst); err != nil {
			return errors.Wrap(err, errors.ErrResourceDelete, "cannot delete resource")
		}
	case n.IsFolder():
		if err := filesystem.EnsureDir(fsys, dst); err != nil {
			return errors.Wrap(err, errors.ErrResourceCreate, "cannot create folder")
		}
	case existed:
		if err := filesystem.ReplaceFile(fsys, n.Source(), dst, p.c.opts.ReadOnly); err != nil {
			return errors.Wrap(err, errors.ErrResourceCopy, "cannot replace file")
		}
	default:
		if err := filesystem.CopyFile(fsys, n.Source(), dst, p.c.opts.ReadOnly); err != nil {
			return errors.Wrap(err, errors.ErrResourceCopy, "cannot copy file")
		}
	}
	return nil
}

// fail reports a recoverable failure and counts it.
func (p *pass) fail(err error, fields map[string]string) {
	p.result.Failed++
	event := p.logger.Warn().Err(err)
	for k, v := range fields {
		event = event.Str(k, v)
	}
	event.Msg("Operation failed, continuing")
	p.c.opts.Reporter.Error(err, fields)
}

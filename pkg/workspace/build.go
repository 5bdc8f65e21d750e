package workspace

import (
	"github.com/arthur-debert/copyfold/pkg/composer"
	"github.com/arthur-debert/copyfold/pkg/config"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/exporter"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/jonboulle/clockwork"
)

// Registry builds one exporter per export entry of every item.
func (w *Workspace) Registry(fsys types.FS) (*exporter.Registry, error) {
	registry := exporter.NewRegistry()
	for _, ic := range w.cfg.Items {
		for _, ec := range ic.Exports {
			e, err := newExporter(fsys, types.ItemID(ic.ID), ec)
			if err != nil {
				return nil, errors.Wrapf(err, errors.GetErrorCode(err), "invalid export of %s", ic.ID)
			}
			registry.Register(e)
		}
	}
	return registry, nil
}

func newExporter(fsys types.FS, item types.ItemID, ec config.ExportConfig) (exporter.Exporter, error) {
	switch ec.Exporter {
	case config.ExporterFiles:
		return exporter.NewFileRef(fsys, exporter.FileRefSpec{
			Item:    item,
			Type:    ec.Type,
			ID:      ec.ID,
			Folder:  ec.Path,
			Pattern: ec.Pattern,
			Label:   ec.Target,
		})
	case config.ExporterClasspath:
		var narrowed []string
		if ec.Type != "" {
			narrowed = []string{ec.Type}
		}
		return exporter.NewClasspath(fsys, exporter.ClasspathSpec{
			Item:  item,
			File:  ec.Classpath,
			Label: ec.Target,
			Types: narrowed,
		})
	}
	return nil, errors.Newf(errors.ErrConfigValid, "unknown exporter %q", ec.Exporter)
}

// ComposerOptions carry what composers share besides the configuration.
type ComposerOptions struct {
	FS       types.FS
	Reporter types.Reporter
	Clock    clockwork.Clock
}

// Composers builds the named composers, or every configured one when no
// name is given.
func (w *Workspace) Composers(opts ComposerOptions, names ...string) ([]*composer.Composer, error) {
	registry, err := w.Registry(opts.FS)
	if err != nil {
		return nil, err
	}

	selected := w.cfg.Composers
	if len(names) > 0 {
		selected = nil
		for _, name := range names {
			cc, ok := w.cfg.Composer(name)
			if !ok {
				return nil, errors.Newf(errors.ErrNotFound, "composer %q is not configured", name)
			}
			selected = append(selected, cc)
		}
	}
	if len(selected) == 0 {
		return nil, errors.New(errors.ErrConfigValid, "no composers configured")
	}

	composers := make([]*composer.Composer, 0, len(selected))
	for _, cc := range selected {
		c, err := composer.New(composer.Options{
			Name:          cc.Name,
			Composite:     w.composite,
			ProjectRoot:   w.root,
			StateRoot:     w.StateRoot(),
			Target:        cc.Target,
			ExporterTypes: cc.ExporterTypes,
			ReadOnly:      cc.IsReadOnly(),
			FS:            opts.FS,
			Model:         w,
			Registry:      registry,
			Reporter:      opts.Reporter,
			Clock:         opts.Clock,
		})
		if err != nil {
			return nil, err
		}
		composers = append(composers, c)
	}
	return composers, nil
}

// WatchRoots maps every component of the composite to its root.
func (w *Workspace) WatchRoots() map[types.ItemID]string {
	roots := make(map[types.ItemID]string)
	for _, it := range w.Components(w.composite) {
		roots[it.ID] = it.Root
	}
	return roots
}

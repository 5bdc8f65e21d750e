// Package workspace turns the configuration into the item model, the
// exporter registry and the composers of a project.
package workspace

import (
	"path/filepath"
	"sort"

	"github.com/arthur-debert/copyfold/pkg/config"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/types"
)

// Workspace is the validated item model of one project.
type Workspace struct {
	cfg        *config.Config
	root       string
	composite  types.ItemID
	items      map[types.ItemID]types.Item
	components map[types.ItemID][]types.ItemID
}

// New validates cfg and builds the model. Item roots are made absolute
// against the project root.
func New(cfg *config.Config) (*Workspace, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrMissingArgument, "workspace needs a configuration")
	}
	root := cfg.Project.Root
	if root == "" || !filepath.IsAbs(root) {
		return nil, errors.Newf(errors.ErrConfigValid, "project root %q must be absolute", root)
	}

	w := &Workspace{
		cfg:        cfg,
		root:       filepath.Clean(root),
		items:      make(map[types.ItemID]types.Item),
		components: make(map[types.ItemID][]types.ItemID),
	}
	for _, ic := range cfg.Items {
		id := types.ItemID(ic.ID)
		if _, dup := w.items[id]; dup {
			return nil, errors.Newf(errors.ErrConfigValid, "item %q is defined twice", id)
		}
		name := ic.Name
		if name == "" {
			name = ic.ID
		}
		w.items[id] = types.Item{ID: id, Name: name, Root: w.Resolve(ic.Root)}
	}

	for _, ic := range cfg.Items {
		id := types.ItemID(ic.ID)
		seen := make(map[types.ItemID]bool)
		for _, c := range ic.Components {
			comp := types.ItemID(c)
			if comp == id {
				return nil, errors.Newf(errors.ErrConfigValid, "item %q lists itself as a component", id)
			}
			if _, ok := w.items[comp]; !ok {
				return nil, errors.Newf(errors.ErrItemNotFound, "component %q of %q is not defined", comp, id).
					WithDetail("item", string(id))
			}
			if seen[comp] {
				continue
			}
			seen[comp] = true
			w.components[id] = append(w.components[id], comp)
		}
	}

	composite, err := w.pickComposite(types.ItemID(cfg.Composite))
	if err != nil {
		return nil, err
	}
	w.composite = composite
	return w, nil
}

// pickComposite uses the configured composite, or the only item that has
// components.
func (w *Workspace) pickComposite(configured types.ItemID) (types.ItemID, error) {
	if configured != "" {
		if _, ok := w.items[configured]; !ok {
			return "", errors.Newf(errors.ErrItemNotFound, "composite %q is not defined", configured)
		}
		return configured, nil
	}
	var candidates []types.ItemID
	for id := range w.components {
		candidates = append(candidates, id)
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", errors.New(errors.ErrConfigValid, "no item lists components, set composite")
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	return "", errors.New(errors.ErrConfigValid, "several items list components, set composite").
		WithDetail("candidates", candidates)
}

// Resolve makes p absolute against the project root.
func (w *Workspace) Resolve(p string) string {
	if p == "" {
		return w.root
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(w.root, filepath.FromSlash(p))
}

func (w *Workspace) Root() string { return w.root }

// Composite is the item whose components get copied.
func (w *Workspace) Composite() types.ItemID { return w.composite }

func (w *Workspace) Config() *config.Config { return w.cfg }

// StateRoot is the absolute folder holding composer state.
func (w *Workspace) StateRoot() string {
	return w.Resolve(w.cfg.Project.StateDir)
}

func (w *Workspace) Item(id types.ItemID) (types.Item, bool) {
	it, ok := w.items[id]
	return it, ok
}

// Components returns the components of composite sorted by id.
func (w *Workspace) Components(composite types.ItemID) []types.Item {
	ids := append([]types.ItemID(nil), w.components[composite]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]types.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.items[id])
	}
	return out
}

func (w *Workspace) IsComponent(composite, id types.ItemID) bool {
	for _, c := range w.components[composite] {
		if c == id {
			return true
		}
	}
	return false
}

var _ types.ItemModel = (*Workspace)(nil)

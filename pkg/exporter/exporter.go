// Package exporter produces the exported content trees components
// contribute to a composer pass.
package exporter

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/delta"
	"github.com/arthur-debert/copyfold/pkg/types"
)

// Well-known exporter types.
const (
	TypeFiles      = "ref-files"
	TypeClasses    = "ref-classes"
	TypeSourceJava = "ref-source-java"
	TypeSourceAJ   = "ref-source-aj"
)

// Request asks an exporter for one item's content of one exporter type.
type Request struct {
	Item         types.Item
	Link         types.Link
	ExporterType string
	// Delta holds the item's source changes; nil asks for a full export.
	Delta *delta.Tree
	// Full forces a full export even when Delta is set.
	Full bool
	// StateDir is where the exporter keeps what it exported last time for
	// this consumer. Empty disables the bookkeeping.
	StateDir string
}

// IsFull reports whether the request needs a full export.
func (r Request) IsFull() bool {
	return r.Full || r.Delta == nil
}

// Exporter turns an item's sources into an exported content tree. A nil
// tree means the exporter had nothing to contribute.
type Exporter interface {
	Item() types.ItemID
	Types() []string
	Export(ctx context.Context, req Request) (*content.Node, error)
}

// Registry indexes exporters by item and type.
type Registry struct {
	byItem map[types.ItemID][]Exporter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byItem: make(map[types.ItemID][]Exporter)}
}

// Register adds e.
func (r *Registry) Register(e Exporter) {
	r.byItem[e.Item()] = append(r.byItem[e.Item()], e)
}

// For returns the exporters of item serving exporterType.
func (r *Registry) For(item types.ItemID, exporterType string) []Exporter {
	var out []Exporter
	for _, e := range r.byItem[item] {
		for _, t := range e.Types() {
			if t == exporterType {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Types lists every exporter type registered, sorted.
func (r *Registry) Types() []string {
	seen := map[string]bool{}
	var out []string
	for _, exps := range r.byItem {
		for _, e := range exps {
			for _, t := range e.Types() {
				if !seen[t] {
					seen[t] = true
					out = append(out, t)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

func newRoot(req Request, label string) *content.Node {
	root := content.NewRoot(req.Item.ID, req.ExporterType)
	root.SetLink(req.Link)
	if label != "" {
		root.SetLabel(label)
	}
	return root
}

// locSpec is one item relative folder an exporter reads.
type locSpec struct {
	path   string
	filter filter
}

// exportLocations exports every location into its own tree rooted at the
// location and merges the trees. Locations that were exported last time but
// are gone now have their remembered content flagged removed; new locations
// are exported in full.
func exportLocations(fsys types.FS, req Request, id, label string, specs []locSpec) (*content.Node, error) {
	file := statePath(req, id)
	st, err := loadState(fsys, file)
	if err != nil {
		return nil, err
	}
	srcOf := func(p string) string {
		return filepath.Join(req.Item.Root, filepath.FromSlash(p))
	}

	next := &exportState{}
	var trees []*content.Node
	for _, spec := range specs {
		root := newRoot(req, label)
		prev, known := st.find(spec.path)
		known = known || file == ""
		loc := location{fs: fsys, src: srcOf(spec.path), into: root, filter: spec.filter}

		if req.IsFull() || !known {
			loc.seen = newListing(nil, nil)
			if err := loc.exportAll(types.DeltaAdded); err != nil {
				return nil, err
			}
			files, folders := vanished(prev, loc.seen)
			if err := loc.exportRemoved(files, folders); err != nil {
				return nil, err
			}
		} else {
			loc.seen = newListing(prev.Files, prev.Folders)
			if err := loc.exportDelta(req.Delta.Sub(spec.path)); err != nil {
				return nil, err
			}
		}

		files, folders := loc.seen.sorted()
		next.Locations = append(next.Locations, locationState{Path: spec.path, Files: files, Folders: folders})
		trees = append(trees, root)
	}

	for _, prev := range st.Locations {
		if _, still := next.find(prev.Path); still {
			continue
		}
		root := newRoot(req, label)
		loc := location{fs: fsys, src: srcOf(prev.Path), into: root}
		if err := loc.exportRemoved(prev.Files, prev.Folders); err != nil {
			return nil, err
		}
		trees = append(trees, root)
	}

	if err := saveState(fsys, file, next); err != nil {
		return nil, err
	}
	if len(trees) == 0 {
		return newRoot(req, label), nil
	}
	return content.MergeAll(trees...)
}

// vanished lists what prev held that the fresh listing no longer has.
func vanished(prev locationState, now *listing) (files, folders []string) {
	for _, f := range prev.Files {
		if !now.files[f] {
			files = append(files, f)
		}
	}
	for _, f := range prev.Folders {
		if !now.folders[f] {
			folders = append(folders, f)
		}
	}
	return files, folders
}

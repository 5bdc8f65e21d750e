package content

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/types"
)

// Kind selects the node variant.
type Kind uint8

const (
	KindFile Kind = iota
	KindFolder
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// Key identifies the slot a node occupies among its siblings. Label is only
// set on target-folder framing nodes.
type Key struct {
	Kind  Kind
	Path  string
	Label string
}

// Node is one entry of an exported content tree. Paths are slash separated
// and relative to the tree root. Once a tree is built its nodes are treated
// as values: WithDelta and Merge return new nodes and never modify their
// inputs, though untouched subtrees are shared.
type Node struct {
	kind         Kind
	path         string
	item         types.ItemID
	exporterType string
	delta        types.Delta
	source       string
	label        string
	link         *types.Link

	children []*Node
	index    map[Key]int
}

// NewRoot returns the framing folder of an exported tree.
func NewRoot(item types.ItemID, exporterType string) *Node {
	return &Node{kind: KindFolder, item: item, exporterType: exporterType}
}

// NewFile returns a detached file node.
func NewFile(p, source string, item types.ItemID, exporterType string, d types.Delta) *Node {
	return &Node{kind: KindFile, path: p, source: source, item: item, exporterType: exporterType, delta: d}
}

// NewFolder returns a detached folder node.
func NewFolder(p string, item types.ItemID, exporterType string, d types.Delta) *Node {
	return &Node{kind: KindFolder, path: p, item: item, exporterType: exporterType, delta: d}
}

func (n *Node) Kind() Kind { return n.kind }
func (n *Node) IsFolder() bool { return n.kind == KindFolder }
func (n *Node) Path() string { return n.path }
func (n *Node) Item() types.ItemID { return n.item }
func (n *Node) ExporterType() string { return n.exporterType }
func (n *Node) Delta() types.Delta { return n.delta }
func (n *Node) Source() string { return n.source }
func (n *Node) Label() string { return n.label }
func (n *Node) Key() Key { return Key{Kind: n.kind, Path: n.path, Label: n.label} }
func (n *Node) Len() int { return len(n.children) }

// Child returns the child occupying slot k.
func (n *Node) Child(k Key) (*Node, bool) {
	if i, ok := n.index[k]; ok {
		return n.children[i], true
	}
	return nil, false
}

// Name is the last path segment.
func (n *Node) Name() string {
	if n.path == "" {
		return ""
	}
	return path.Base(n.path)
}

// Children returns the child nodes in insertion order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Link returns the link that produced this tree, if recorded.
func (n *Node) Link() (types.Link, bool) {
	if n.link == nil {
		return types.Link{}, false
	}
	return *n.link, true
}

// SetLink records the composite link a root was exported for.
func (n *Node) SetLink(l types.Link) {
	n.link = &l
}

// SameAs compares node identity: path, owning item and exporter type.
func (n *Node) SameAs(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.kind == o.kind && n.path == o.path && n.item == o.item && n.exporterType == o.exporterType
}

// WithDelta returns a copy of n carrying d.
func (n *Node) WithDelta(d types.Delta) *Node {
	c := n.shallow()
	c.delta = d
	return c
}

// IsTargetFolderRoot reports whether every child is a labelled framing
// folder, meaning the tree routes its content into several buckets.
func (n *Node) IsTargetFolderRoot() bool {
	if n.kind != KindFolder || len(n.children) == 0 {
		return false
	}
	for _, c := range n.children {
		if c.kind != KindFolder || c.label == "" {
			return false
		}
	}
	return true
}

// AddTargetFolder adds a framing folder routed into the bucket label.
func (n *Node) AddTargetFolder(label string) (*Node, error) {
	if n.kind != KindFolder {
		return nil, errors.Newf(errors.ErrStructural, "cannot add target folder %q below file %q", label, n.path)
	}
	if label == "" {
		return nil, errors.New(errors.ErrMissingArgument, "target folder label is empty")
	}
	framing := &Node{kind: KindFolder, path: n.path, item: n.item, exporterType: n.exporterType, label: label}
	return n.upsert(framing)
}

// SetLabel routes a root into the bucket label.
func (n *Node) SetLabel(label string) {
	n.label = label
}

// AddFile adds a file below n, creating any missing intermediate folders
// with the same delta. Adding an existing path merges the deltas.
func (n *Node) AddFile(rel, source string, d types.Delta) (*Node, error) {
	return n.add(KindFile, rel, source, d)
}

// AddFolder adds a folder below n the same way AddFile does.
func (n *Node) AddFolder(rel string, d types.Delta) (*Node, error) {
	return n.add(KindFolder, rel, "", d)
}

func (n *Node) add(kind Kind, rel, source string, d types.Delta) (*Node, error) {
	if n.kind != KindFolder {
		return nil, errors.Newf(errors.ErrStructural, "cannot add %q below file %q", rel, n.path)
	}
	clean, err := CleanPath(rel)
	if err != nil {
		return nil, err
	}
	if clean == "" {
		return nil, errors.New(errors.ErrMissingArgument, "empty content path")
	}

	segments := strings.Split(clean, "/")
	parent := n
	for _, seg := range segments[:len(segments)-1] {
		folder := &Node{kind: KindFolder, path: join(parent.path, seg), item: n.item, exporterType: n.exporterType, delta: d}
		if parent, err = parent.upsert(folder); err != nil {
			return nil, err
		}
	}
	leaf := &Node{
		kind:         kind,
		path:         join(parent.path, segments[len(segments)-1]),
		item:         n.item,
		exporterType: n.exporterType,
		delta:        d,
		source:       source,
	}
	return parent.upsert(leaf)
}

// upsert inserts child or merges its delta into the node already in the
// slot, returning the node that now occupies it.
func (n *Node) upsert(child *Node) (*Node, error) {
	if n.index == nil {
		n.index = make(map[Key]int)
	}
	k := child.Key()
	if i, ok := n.index[k]; ok {
		existing := n.children[i]
		merged := existing.WithDelta(types.MergeDelta(existing.delta, child.delta))
		if child.source != "" {
			merged.source = child.source
		}
		n.children[i] = merged
		return merged, nil
	}
	other := flip(k)
	if _, clash := n.index[other]; clash {
		return nil, errors.Newf(errors.ErrTypeMismatch, "%q exists as a %s", child.path, other.Kind).
			WithDetail("path", child.path)
	}
	n.index[k] = len(n.children)
	n.children = append(n.children, child)
	return child, nil
}

func (n *Node) shallow() *Node {
	c := *n
	if n.children != nil {
		c.children = make([]*Node, len(n.children))
		copy(c.children, n.children)
		c.index = make(map[Key]int, len(n.index))
		for k, v := range n.index {
			c.index[k] = v
		}
	}
	return &c
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning an error stops the walk.
func (n *Node) Walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the descendant at p, searching through framing folders.
func (n *Node) Find(kind Kind, p string) (*Node, bool) {
	var found *Node
	_ = n.Walk(func(c *Node) error {
		if found == nil && c.kind == kind && c.path == p && c.label == "" && c != n {
			found = c
		}
		return nil
	})
	return found, found != nil
}

// Count returns the number of nodes below n.
func (n *Node) Count() int {
	total := 0
	for _, c := range n.children {
		total += 1 + c.Count()
	}
	return total
}

// CleanPath normalises rel to a slash path relative to a tree root.
func CleanPath(rel string) (string, error) {
	slashed := filepath.ToSlash(rel)
	for _, seg := range strings.Split(slashed, "/") {
		if seg == ".." {
			return "", errors.Newf(errors.ErrStructural, "content path %q escapes its root", rel)
		}
	}
	return strings.TrimPrefix(path.Clean("/"+slashed), "/"), nil
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// Package routing assigns exported trees to target-folder buckets.
package routing

import (
	"sort"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/errors"
)

// DefaultTarget is the bucket of trees that carry no label. It resolves to
// the composer's own target folder.
const DefaultTarget = "."

// Buckets maps a target-folder label to the merged tree routed into it.
type Buckets struct {
	trees map[string]*content.Node
}

// Labels returns the bucket labels in sorted order.
func (b *Buckets) Labels() []string {
	labels := make([]string, 0, len(b.trees))
	for l := range b.trees {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Get returns the tree routed into label.
func (b *Buckets) Get(label string) (*content.Node, bool) {
	t, ok := b.trees[label]
	return t, ok
}

// Len is the number of buckets.
func (b *Buckets) Len() int {
	return len(b.trees)
}

// Route partitions trees into buckets. A target-folder root is split per
// labelled child; any other root goes to its own label or DefaultTarget.
// Trees sharing a bucket are merged.
func Route(trees []*content.Node) (*Buckets, error) {
	b := &Buckets{trees: make(map[string]*content.Node)}
	for _, tree := range trees {
		if tree == nil {
			return nil, errors.New(errors.ErrMissingArgument, "nil exported tree")
		}
		if !tree.IsFolder() {
			return nil, errors.Newf(errors.ErrStructural, "exported tree %q is rooted at a file", tree.Path())
		}
		if tree.IsTargetFolderRoot() {
			for _, child := range tree.Children() {
				if err := b.add(child.Label(), child); err != nil {
					return nil, err
				}
			}
			continue
		}
		label := tree.Label()
		if label == "" {
			label = DefaultTarget
		}
		if err := b.add(label, tree); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Buckets) add(label string, tree *content.Node) error {
	existing, ok := b.trees[label]
	if !ok {
		b.trees[label] = tree
		return nil
	}
	merged, err := content.Merge(existing, tree)
	if err != nil {
		return errors.Wrapf(err, errors.GetErrorCode(err), "cannot merge into target folder %q", label).
			WithDetail("label", label)
	}
	b.trees[label] = merged
	return nil
}

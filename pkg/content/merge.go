package content

import (
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/types"
)

// Merge combines two trees describing the same target namespace.
//
// Slots are matched by kind and path. Nodes found on one side only are
// carried over unchanged, files present on both sides get the merged delta
// and folders are merged recursively. A removed folder that keeps a live
// child is downgraded to updated. A file and a folder at the same path is a
// TYPE_MISMATCH.
func Merge(a, b *Node) (*Node, error) {
	if a == nil || b == nil {
		return nil, errors.New(errors.ErrMissingArgument, "cannot merge a nil tree")
	}
	if a.kind != b.kind {
		return nil, errors.Newf(errors.ErrTypeMismatch,
			"cannot merge %s %q with %s %q", a.kind, a.path, b.kind, b.path).
			WithDetail("path", a.path)
	}

	out := &Node{
		kind:         a.kind,
		path:         a.path,
		item:         a.item,
		exporterType: a.exporterType,
		delta:        types.MergeDelta(a.delta, b.delta),
		source:       a.source,
		label:        a.label,
		link:         a.link,
	}
	if out.source == "" {
		out.source = b.source
	}
	if out.label == "" {
		out.label = b.label
	}
	if out.link == nil {
		out.link = b.link
	}
	if a.kind == KindFile {
		return out, nil
	}

	for _, ac := range a.children {
		merged := ac
		if bc, ok := b.Child(ac.Key()); ok {
			var err error
			if merged, err = Merge(ac, bc); err != nil {
				return nil, err
			}
		} else if bc, ok := b.Child(flip(ac.Key())); ok {
			return nil, errors.Newf(errors.ErrTypeMismatch,
				"cannot merge %s %q with %s %q", ac.kind, ac.path, bc.kind, bc.path).
				WithDetail("path", ac.path)
		}
		if _, err := out.upsert(merged); err != nil {
			return nil, err
		}
	}
	for _, bc := range b.children {
		if _, ok := a.Child(bc.Key()); ok {
			continue
		}
		if _, err := out.upsert(bc); err != nil {
			return nil, err
		}
	}

	if out.delta.IsRemoved() {
		for _, c := range out.children {
			if !c.delta.IsRemoved() {
				out.delta = types.DeltaUpdated
				break
			}
		}
	}
	return out, nil
}

// MergeAll folds trees left to right with Merge.
func MergeAll(trees ...*Node) (*Node, error) {
	if len(trees) == 0 {
		return nil, errors.New(errors.ErrMissingArgument, "no trees to merge")
	}
	out := trees[0]
	for _, t := range trees[1:] {
		var err error
		if out, err = Merge(out, t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func flip(k Key) Key {
	if k.Kind == KindFile {
		k.Kind = KindFolder
	} else {
		k.Kind = KindFile
	}
	return k
}

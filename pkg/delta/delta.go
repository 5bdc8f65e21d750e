// Package delta describes source-side changes reported for incremental
// builds. A nil *Tree always means "no delta information, export fully".
package delta

import (
	"path"
	"sort"
	"strings"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/types"
)

// Kind is a source change.
type Kind uint8

const (
	Added Kind = iota + 1
	Removed
	Changed
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	}
	return "unknown"
}

// ParseKind accepts the String forms plus their first letter.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "added", "a", "add":
		return Added, nil
	case "removed", "r", "remove":
		return Removed, nil
	case "changed", "c", "change", "", "updated", "u":
		return Changed, nil
	}
	return 0, errors.Newf(errors.ErrInvalidInput, "unknown change kind %q", s)
}

// Delta maps a source change onto the delta carried by exported content.
func (k Kind) Delta() types.Delta {
	switch k {
	case Added:
		return types.DeltaAdded
	case Removed:
		return types.DeltaRemoved
	case Changed:
		return types.DeltaUpdated
	}
	return types.DeltaNone
}

// Entry is one changed path.
type Entry struct {
	Path string
	Kind Kind
}

// Tree holds the changes below one root, keyed by slash path relative to
// that root.
type Tree struct {
	changes map[string]Kind
}

// NewTree returns an empty tree. An empty tree means "nothing changed",
// which differs from a nil tree.
func NewTree() *Tree {
	return &Tree{changes: make(map[string]Kind)}
}

// Add records a change, collapsing it with an earlier change of the same
// path: added then removed cancels out, removed then added is a change,
// otherwise added wins over changed and the latest kind is kept.
func (t *Tree) Add(p string, k Kind) error {
	clean, err := content.CleanPath(p)
	if err != nil {
		return err
	}
	if clean == "" {
		return errors.New(errors.ErrMissingArgument, "empty change path")
	}
	prev, seen := t.changes[clean]
	switch {
	case !seen:
		t.changes[clean] = k
	case prev == Added && k == Removed:
		delete(t.changes, clean)
	case prev == Removed && k == Added:
		t.changes[clean] = Changed
	case prev == Added && k == Changed:
	default:
		t.changes[clean] = k
	}
	return nil
}

// Len is the number of changed paths.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.changes)
}

// Entries returns the changes sorted by path.
func (t *Tree) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.changes))
	for p, k := range t.changes {
		out = append(out, Entry{Path: p, Kind: k})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Sub restricts the tree to the changes below prefix, rebased onto it.
// A nil tree stays nil.
func (t *Tree) Sub(prefix string) *Tree {
	if t == nil {
		return nil
	}
	clean, err := content.CleanPath(prefix)
	if err != nil {
		return NewTree()
	}
	out := NewTree()
	for p, k := range t.changes {
		if clean == "" {
			out.changes[p] = k
			continue
		}
		if rel, ok := strings.CutPrefix(p, clean+"/"); ok {
			out.changes[rel] = k
		}
	}
	return out
}

// Covers reports whether p itself or one of its ancestors changed.
func (t *Tree) Covers(p string) (Kind, bool) {
	if t == nil {
		return 0, false
	}
	for cur := p; cur != "." && cur != ""; cur = path.Dir(cur) {
		if k, ok := t.changes[cur]; ok {
			return k, true
		}
	}
	return 0, false
}

// Set holds one tree per item.
type Set map[types.ItemID]*Tree

// For returns the tree for item. A nil Set yields nil (full export); an
// item missing from a non-nil Set has no changes.
func (s Set) For(item types.ItemID) *Tree {
	if s == nil {
		return nil
	}
	if t, ok := s[item]; ok {
		return t
	}
	return NewTree()
}

// Add records a change for item.
func (s Set) Add(item types.ItemID, p string, k Kind) error {
	t, ok := s[item]
	if !ok {
		t = NewTree()
		s[item] = t
	}
	return t.Add(p, k)
}

// ParseChange parses "item:path[:kind]" as given on the command line.
func ParseChange(spec string) (types.ItemID, string, Kind, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", 0, errors.Newf(errors.ErrInvalidInput, "change %q is not item:path[:kind]", spec)
	}
	kind := Changed
	if len(parts) == 3 {
		var err error
		if kind, err = ParseKind(parts[2]); err != nil {
			return "", "", 0, err
		}
	}
	return types.ItemID(parts[0]), parts[1], kind, nil
}

// FromSpecs builds a Set from command line change specs. No specs yields a
// nil Set, meaning a full build.
func FromSpecs(specs []string) (Set, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	s := Set{}
	for _, spec := range specs {
		item, p, k, err := ParseChange(spec)
		if err != nil {
			return nil, err
		}
		if err := s.Add(item, p, k); err != nil {
			return nil, err
		}
	}
	return s, nil
}

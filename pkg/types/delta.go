package types

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/copyfold/pkg/errors"
)

// Delta is the change marker carried by exported content. At most one of
// added, updated and removed holds; DeltaNone marks framing nodes.
type Delta uint8

const (
	DeltaNone Delta = iota
	DeltaAdded
	DeltaUpdated
	DeltaRemoved
)

var deltaNames = map[Delta]string{
	DeltaNone:    "none",
	DeltaAdded:   "added",
	DeltaUpdated: "updated",
	DeltaRemoved: "removed",
}

// NewDelta builds a Delta from three flags, rejecting combinations where
// more than one is set.
func NewDelta(added, updated, removed bool) (Delta, error) {
	count := 0
	for _, f := range []bool{added, updated, removed} {
		if f {
			count++
		}
	}
	if count > 1 {
		return DeltaNone, errors.Newf(errors.ErrInvalidDelta,
			"conflicting delta flags (added=%t updated=%t removed=%t)", added, updated, removed)
	}
	switch {
	case added:
		return DeltaAdded, nil
	case updated:
		return DeltaUpdated, nil
	case removed:
		return DeltaRemoved, nil
	}
	return DeltaNone, nil
}

// ParseDelta parses the textual form produced by String.
func ParseDelta(s string) (Delta, error) {
	for d, name := range deltaNames {
		if strings.EqualFold(name, s) {
			return d, nil
		}
	}
	if s == "" {
		return DeltaNone, nil
	}
	return DeltaNone, errors.Newf(errors.ErrInvalidDelta, "unknown delta %q", s)
}

func (d Delta) IsAdded() bool { return d == DeltaAdded }
func (d Delta) IsUpdated() bool { return d == DeltaUpdated }
func (d Delta) IsRemoved() bool { return d == DeltaRemoved }
func (d Delta) IsNone() bool { return d == DeltaNone }

func (d Delta) String() string {
	if name, ok := deltaNames[d]; ok {
		return name
	}
	return fmt.Sprintf("delta(%d)", uint8(d))
}

// Marker renders the delta as a fixed-width [AUR] column.
func (d Delta) Marker() string {
	m := []byte("   ")
	switch d {
	case DeltaAdded:
		m[0] = 'A'
	case DeltaUpdated:
		m[1] = 'U'
	case DeltaRemoved:
		m[2] = 'R'
	}
	return "[" + string(m) + "]"
}

// MarshalText lets deltas round-trip through YAML and TOML as strings.
func (d Delta) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Delta) UnmarshalText(text []byte) error {
	parsed, err := ParseDelta(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MergeDelta combines the deltas of two nodes occupying the same slot.
//
// Both added stays added, both removed stays removed, any update or an
// add/remove disagreement becomes updated. Remaining disagreements resolve
// to updated; agreement keeps the common value.
func MergeDelta(a, b Delta) Delta {
	added := a.IsAdded() && b.IsAdded()
	removed := a.IsRemoved() && b.IsRemoved()
	updated := a.IsUpdated() || b.IsUpdated() ||
		((a.IsAdded() || b.IsAdded()) && (a.IsRemoved() || b.IsRemoved()))

	switch {
	case updated:
		return DeltaUpdated
	case added:
		return DeltaAdded
	case removed:
		return DeltaRemoved
	case a == b:
		return a
	default:
		return DeltaUpdated
	}
}

package testutil

import (
	"sort"

	"github.com/arthur-debert/copyfold/pkg/types"
)

// Model is an in-memory item model whose composition can change between
// passes.
type Model struct {
	items      map[types.ItemID]types.Item
	components map[types.ItemID][]types.ItemID
}

// NewModel returns a model holding items.
func NewModel(items ...types.Item) *Model {
	m := &Model{
		items:      make(map[types.ItemID]types.Item),
		components: make(map[types.ItemID][]types.ItemID),
	}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

// Add registers more items.
func (m *Model) Add(items ...types.Item) {
	for _, it := range items {
		m.items[it.ID] = it
	}
}

// SetComponents replaces the components of composite.
func (m *Model) SetComponents(composite types.ItemID, ids ...types.ItemID) {
	m.components[composite] = append([]types.ItemID(nil), ids...)
}

// RemoveComponent drops id from composite.
func (m *Model) RemoveComponent(composite, id types.ItemID) {
	var kept []types.ItemID
	for _, c := range m.components[composite] {
		if c != id {
			kept = append(kept, c)
		}
	}
	m.components[composite] = kept
}

func (m *Model) Item(id types.ItemID) (types.Item, bool) {
	it, ok := m.items[id]
	return it, ok
}

func (m *Model) Components(composite types.ItemID) []types.Item {
	ids := append([]types.ItemID(nil), m.components[composite]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]types.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

func (m *Model) IsComponent(composite, id types.ItemID) bool {
	for _, c := range m.components[composite] {
		if c == id {
			return true
		}
	}
	return false
}

var _ types.ItemModel = (*Model)(nil)

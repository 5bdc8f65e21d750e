package repository

import (
	"time"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/types"
)

// Record is the persisted provenance of one path in a target folder.
// Owners are stored as ids; resolving them needs an explicit ItemModel.
type Record struct {
	Path         string       `yaml:"path"`
	Folder       bool         `yaml:"folder"`
	Item         types.ItemID `yaml:"item"`
	ExporterType string       `yaml:"exporter_type"`
	Source       string       `yaml:"source,omitempty"`
	AddedBy      types.ItemID `yaml:"added_by,omitempty"`
	UpdatedBy    types.ItemID `yaml:"updated_by,omitempty"`
	RemovedBy    types.ItemID `yaml:"removed_by,omitempty"`
	LastOp       types.Delta  `yaml:"last_op"`
	Target       string       `yaml:"target"`
	ChangedAt    time.Time    `yaml:"changed_at"`
}

// NewRecord creates the record for a node copied into the bucket label.
func NewRecord(n *content.Node, label string) *Record {
	return &Record{
		Path:         n.Path(),
		Folder:       n.IsFolder(),
		Item:         n.Item(),
		ExporterType: n.ExporterType(),
		Source:       n.Source(),
		Target:       label,
	}
}

// Apply records the node's operation on behalf of the node's item.
func (r *Record) Apply(n *content.Node) {
	if src := n.Source(); src != "" {
		r.Source = src
	}
	switch n.Delta() {
	case types.DeltaAdded:
		r.MarkAdded(n.Item())
	case types.DeltaUpdated:
		r.MarkUpdated(n.Item())
	case types.DeltaRemoved:
		r.MarkRemoved(n.Item())
	}
}

func (r *Record) MarkAdded(item types.ItemID) {
	r.AddedBy = item
	r.LastOp = types.DeltaAdded
}

func (r *Record) MarkUpdated(item types.ItemID) {
	r.UpdatedBy = item
	r.LastOp = types.DeltaUpdated
}

func (r *Record) MarkRemoved(item types.ItemID) {
	r.RemovedBy = item
	r.LastOp = types.DeltaRemoved
}

// Release drops ownership when a replayed resource overwrote one already in
// the target. The former adder of an add is kept as its updater.
func (r *Record) Release() {
	if r.AddedBy == "" {
		return
	}
	if r.LastOp.IsAdded() {
		r.UpdatedBy = r.AddedBy
	}
	r.AddedBy = ""
}

// Reclaim restores ownership from UpdatedBy once a replay copied the
// resource into a free slot.
func (r *Record) Reclaim() {
	if r.AddedBy == "" {
		r.AddedBy = r.UpdatedBy
	}
}

// IsTombstone reports whether the last operation was a removal.
func (r *Record) IsTombstone() bool {
	return r.LastOp.IsRemoved()
}

// Touches reports whether item added, updated or removed the record.
func (r *Record) Touches(item types.ItemID) bool {
	return item != "" && (r.AddedBy == item || r.UpdatedBy == item || r.RemovedBy == item)
}

// LastModifier is the item behind LastOp.
func (r *Record) LastModifier() (types.ItemID, bool) {
	switch r.LastOp {
	case types.DeltaAdded:
		return r.AddedBy, r.AddedBy != ""
	case types.DeltaUpdated:
		return r.UpdatedBy, r.UpdatedBy != ""
	case types.DeltaRemoved:
		return r.RemovedBy, r.RemovedBy != ""
	}
	return "", false
}

// Owner resolves AddedBy against model.
func (r *Record) Owner(model types.ItemModel) (types.Item, bool) {
	if r.AddedBy == "" || model == nil {
		return types.Item{}, false
	}
	return model.Item(r.AddedBy)
}

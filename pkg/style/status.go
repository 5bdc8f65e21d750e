package style

import (
	"fmt"
	"strings"
	"time"

	"github.com/arthur-debert/copyfold/pkg/types"
)

// RecordStatus is one recorded path of a target folder.
type RecordStatus struct {
	Path      string       `json:"path"`
	Folder    bool         `json:"folder"`
	Target    string       `json:"target"`
	Type      string       `json:"exporter_type"`
	LastOp    types.Delta  `json:"last_op"`
	AddedBy   types.ItemID `json:"added_by,omitempty"`
	UpdatedBy types.ItemID `json:"updated_by,omitempty"`
	RemovedBy types.ItemID `json:"removed_by,omitempty"`
	ChangedAt time.Time    `json:"changed_at"`
}

// TargetStatus is what status prints for one composer.
type TargetStatus struct {
	Composer   string         `json:"composer"`
	Composite  types.ItemID   `json:"composite"`
	Folder     string         `json:"folder"`
	Moved      bool           `json:"moved"`
	Relocating bool           `json:"relocating"`
	Records    []RecordStatus `json:"records"`
}

// Counts returns how many records have each last operation.
func (s TargetStatus) Counts() map[types.Delta]int {
	counts := make(map[types.Delta]int)
	for _, r := range s.Records {
		counts[r.LastOp]++
	}
	return counts
}

func ownerText(r RecordStatus) string {
	switch r.LastOp {
	case types.DeltaAdded:
		if r.AddedBy == "" {
			return "found in target"
		}
		return "added by " + string(r.AddedBy)
	case types.DeltaUpdated:
		text := "updated by " + string(r.UpdatedBy)
		if r.AddedBy == "" {
			text += ", not owned"
		}
		return text
	case types.DeltaRemoved:
		return "removed by " + string(r.RemovedBy)
	}
	return ""
}

// RenderRecord renders one record line.
func RenderRecord(r RecordStatus) string {
	p := r.Path
	styled := PathStyle.Render(p)
	if r.Folder {
		styled = FolderStyle.Render(p + "/")
	}
	line := fmt.Sprintf("    %s %s : %s", Marker(r.LastOp), styled, OwnerStyle.Render(ownerText(r)))
	if r.Target != "" && r.Target != "." {
		line += MutedStyle.Render(" -> " + r.Target)
	}
	if !r.ChangedAt.IsZero() {
		line += MutedStyle.Render(" (" + r.ChangedAt.Format("2006-01-02 15:04") + ")")
	}
	return line
}

// RenderTargetStatus renders a composer header followed by its records.
func RenderTargetStatus(s TargetStatus) string {
	var result strings.Builder

	header := fmt.Sprintf("%s %s -> %s", s.Composite, s.Composer, s.Folder)
	result.WriteString(TitleStyle.Render(header) + "\n")
	switch {
	case s.Relocating:
		result.WriteString(ErrorStyle.Render("    relocation interrupted, the next build resumes it") + "\n")
	case s.Moved:
		result.WriteString(MutedStyle.Render("    target moved, the next build relocates it") + "\n")
	}

	if len(s.Records) == 0 {
		result.WriteString(MutedStyle.Render("    nothing copied yet") + "\n")
		return strings.TrimRight(result.String(), "\n")
	}
	for _, r := range s.Records {
		result.WriteString(RenderRecord(r) + "\n")
	}
	counts := s.Counts()
	result.WriteString(MutedStyle.Render(fmt.Sprintf("    %d added, %d updated, %d removed",
		counts[types.DeltaAdded], counts[types.DeltaUpdated], counts[types.DeltaRemoved])))
	return result.String()
}

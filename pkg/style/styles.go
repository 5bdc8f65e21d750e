package style

import (
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/charmbracelet/lipgloss"
)

// Base styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	PathStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	FolderStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	OwnerStyle = lipgloss.NewStyle().
			Foreground(OwnerColor)
)

// Delta styles
var (
	AddedStyle = lipgloss.NewStyle().
			Foreground(AddedColor).
			Bold(true)

	UpdatedStyle = lipgloss.NewStyle().
			Foreground(UpdatedColor).
			Bold(true)

	RemovedStyle = lipgloss.NewStyle().
			Foreground(RemovedColor).
			Bold(true)
)

// DeltaStyle returns the style of a delta marker.
func DeltaStyle(d types.Delta) lipgloss.Style {
	switch d {
	case types.DeltaAdded:
		return AddedStyle
	case types.DeltaUpdated:
		return UpdatedStyle
	case types.DeltaRemoved:
		return RemovedStyle
	}
	return MutedStyle
}

// Marker renders the [AUR] column of d.
func Marker(d types.Delta) string {
	return DeltaStyle(d).Render(d.Marker())
}

func Indent(s string, level int) string {
	return lipgloss.NewStyle().PaddingLeft(level * 2).Render(s)
}

func Bold(s string) string {
	return lipgloss.NewStyle().Bold(true).Render(s)
}

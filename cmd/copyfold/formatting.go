package copyfold

import (
	"os"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// formatBold returns the string formatted as bold using pterm
func formatBold(s string) string {
	if !stdoutIsTerminal() {
		return s
	}
	return pterm.Bold.Sprint(s)
}

// formatBoldUpper returns the string in uppercase and bold
func formatBoldUpper(s string) string {
	return formatBold(strings.ToUpper(s))
}

// helpWidth wraps rendered help text.
const helpWidth = 80

// formatMarkdown renders long help as markdown on a color terminal and
// leaves it as written everywhere else.
func formatMarkdown(s string) string {
	if !stdoutIsTerminal() || os.Getenv("NO_COLOR") != "" {
		return s
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(helpWidth),
	)
	if err != nil {
		return s
	}
	rendered, err := renderer.Render(s)
	if err != nil {
		return s
	}
	return strings.Trim(rendered, "\n")
}

// initTemplateFormatting adds custom formatting functions to Cobra templates
func initTemplateFormatting() {
	cobra.AddTemplateFuncs(template.FuncMap{
		"bold":      formatBold,
		"upper":     strings.ToUpper,
		"boldUpper": formatBoldUpper,
		"markdown":  formatMarkdown,
	})
}

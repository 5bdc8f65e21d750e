package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Terminal shows progress with pterm. On a TTY a task gets a spinner, or a
// progress bar when its size is known; elsewhere it prints one line per
// step.
type Terminal struct {
	w           io.Writer
	interactive bool

	bar     *pterm.ProgressbarPrinter
	spinner *pterm.SpinnerPrinter
	task    string
	worked  int
	errors  int
}

// NewTerminal returns a reporter writing to w.
func NewTerminal(w io.Writer) *Terminal {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd())
	}
	return &Terminal{w: w, interactive: interactive}
}

func (t *Terminal) BeginTask(name string, total int) {
	t.task = name
	t.worked = 0
	t.errors = 0
	if !t.interactive {
		pterm.Info.WithWriter(t.w).Println(name)
		return
	}
	var err error
	if total > 0 {
		t.bar, err = pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle(name).
			WithWriter(t.w).
			Start()
	} else {
		t.spinner, err = pterm.DefaultSpinner.WithWriter(t.w).Start(name)
	}
	if err != nil {
		t.interactive = false
		pterm.Info.WithWriter(t.w).Println(name)
	}
}

func (t *Terminal) SubTask(name string) {
	switch {
	case t.bar != nil:
		t.bar.UpdateTitle(t.task + ": " + name)
	case t.spinner != nil:
		t.spinner.UpdateText(t.task + ": " + name)
	default:
		pterm.Debug.WithWriter(t.w).Println(name)
	}
}

func (t *Terminal) Worked(n int) {
	t.worked += n
	if t.bar != nil {
		t.bar.Add(n)
	}
}

func (t *Terminal) Error(err error, fields map[string]string) {
	t.errors++
	msg := err.Error()
	if len(fields) > 0 {
		msg += " (" + formatFields(fields) + ")"
	}
	pterm.Error.WithWriter(t.w).Println(msg)
}

func (t *Terminal) Done() {
	summary := fmt.Sprintf("%s: %d done", t.task, t.worked)
	if t.errors > 0 {
		summary += fmt.Sprintf(", %d failed", t.errors)
	}
	switch {
	case t.bar != nil:
		_, _ = t.bar.Stop()
		t.bar = nil
	case t.spinner != nil:
		if t.errors > 0 {
			t.spinner.Warning(summary)
		} else {
			t.spinner.Success(summary)
		}
		t.spinner = nil
		return
	}
	if t.errors > 0 {
		pterm.Warning.WithWriter(t.w).Println(summary)
		return
	}
	pterm.Success.WithWriter(t.w).Println(summary)
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, " ")
}

// pkg/report/report_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: zerolog, pterm
// PURPOSE: Test the log, terminal and fan-out reporters

package report_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/arthur-debert/copyfold/pkg/report"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func drive(r types.Reporter) {
	r.BeginTask("compose classes", 0)
	r.SubTask("export core")
	r.Worked(2)
	r.Error(errors.New("disk full"), map[string]string{"path": "lib/x.jar"})
	r.Done()
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	drive(report.NewLog(zerolog.New(&buf)))

	out := buf.String()
	assert.Contains(t, out, `"task":"compose classes"`)
	assert.Contains(t, out, `"path":"lib/x.jar"`)
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, `"worked":2`)
}

func TestTerminalReporterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	drive(report.NewTerminal(&buf))

	out := buf.String()
	assert.Contains(t, out, "compose classes")
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "path=lib/x.jar")
	assert.Contains(t, out, "1 failed")
}

type counter struct {
	report.Nop
	worked int
}

func (c *counter) Worked(n int) { c.worked += n }

func TestMultiAndNop(t *testing.T) {
	a, b := &counter{}, &counter{}
	drive(report.Multi{a, b, report.Nop{}})
	assert.Equal(t, 2, a.worked)
	assert.Equal(t, 2, b.worked)
}

// cmd/copyfold/commands_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem in t.TempDir, cobra command tree
// PURPOSE: Test the CLI commands against a small project

package copyfold

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/style"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectConfig = `
[logging]
file = false

[[composers]]
name = "copy"
target = "lib"
exporter_types = ["ref-files"]

[[items]]
id = "app"
components = ["core"]

[[items]]
id = "core"
root = "../core"

[[items.exports]]
exporter = "files"
type = "ref-files"
path = "out"
`

type testProject struct {
	root string
	core string
}

func newTestProject(t *testing.T) *testProject {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	base := t.TempDir()
	p := &testProject{root: filepath.Join(base, "app"), core: filepath.Join(base, "core")}
	require.NoError(t, os.MkdirAll(p.root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(p.root, "copyfold.toml"), []byte(projectConfig), 0644))
	p.writeCore(t, "out/A.class", "a")
	return p
}

func (p *testProject) writeCore(t *testing.T, rel, content string) {
	t.Helper()
	file := filepath.Join(p.core, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
}

func (p *testProject) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(p.root, filepath.FromSlash(rel)))
	return err == nil
}

func (p *testProject) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--project", p.root))
	err := root.Execute()
	return out.String(), err
}

func TestBuildCopiesComponentOutput(t *testing.T) {
	p := newTestProject(t)

	out, err := p.run(t, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "copy: 1 applied, 0 collected, 0 failed")
	assert.True(t, p.exists("lib/A.class"))
	assert.True(t, p.exists(".copyfold/app/copy/repo.toml"))
}

func TestRepeatedBuildAppliesNothing(t *testing.T) {
	p := newTestProject(t)
	_, err := p.run(t, "build")
	require.NoError(t, err)

	out, err := p.run(t, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "copy: 0 applied, 0 collected, 0 failed")
}

func TestBuildWithChanges(t *testing.T) {
	p := newTestProject(t)
	_, err := p.run(t, "build")
	require.NoError(t, err)

	p.writeCore(t, "out/B.class", "b")
	out, err := p.run(t, "build", "--changed", "core:out/B.class:added")
	require.NoError(t, err)
	assert.Contains(t, out, "copy: 1 applied")
	assert.True(t, p.exists("lib/B.class"))
	assert.True(t, p.exists("lib/A.class"))
}

func TestBuildRejectsUnknownComponent(t *testing.T) {
	p := newTestProject(t)
	_, err := p.run(t, "build", "--changed", "ghost:out/B.class")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrItemNotFound))

	_, err = p.run(t, "build", "--changed", "nonsense")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestBuildUnknownComposer(t *testing.T) {
	p := newTestProject(t)
	_, err := p.run(t, "build", "--composer", "nope")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestStatus(t *testing.T) {
	p := newTestProject(t)
	_, err := p.run(t, "build")
	require.NoError(t, err)

	out, err := p.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "A.class")
	assert.Contains(t, out, "added by core")

	out, err = p.run(t, "status", "--format", "json")
	require.NoError(t, err)
	var statuses []style.TargetStatus
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, "copy", statuses[0].Composer)
	assert.Equal(t, "lib", statuses[0].Folder)
	require.Len(t, statuses[0].Records, 1)
	assert.Equal(t, "A.class", statuses[0].Records[0].Path)
}

func TestClean(t *testing.T) {
	p := newTestProject(t)
	_, err := p.run(t, "build")
	require.NoError(t, err)

	out, err := p.run(t, "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "copy:")
	assert.False(t, p.exists("lib/A.class"))
}

func TestConfigCommand(t *testing.T) {
	p := newTestProject(t)

	out, err := p.run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, `name = "copy"`)
	assert.Contains(t, out, "state_dir")

	out, err = p.run(t, "config", "--sample")
	require.NoError(t, err)
	assert.Contains(t, out, "[[composers]]")
}

func TestVersion(t *testing.T) {
	p := newTestProject(t)
	out, err := p.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "copyfold version dev")
}

func TestInvalidFormat(t *testing.T) {
	p := newTestProject(t)
	_, err := p.run(t, "status", "--format", "xml")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestHelpShowsLongText(t *testing.T) {
	p := newTestProject(t)
	out, err := p.run(t, "build", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, MsgBuildLong)
	assert.Contains(t, out, "--changed")
}

func TestFormatMarkdownKeepsPlainText(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, "use `--changed`", formatMarkdown("use `--changed`"))
}

func TestNoCommand(t *testing.T) {
	p := newTestProject(t)
	_, err := p.run(t)
	assert.Error(t, err)
}

package testutil

import (
	"sort"
	"strings"
	"testing"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/stretchr/testify/assert"
)

// Deltas flattens a tree into path -> delta. Folder paths end with "/";
// framing folders are left out.
func Deltas(root *content.Node) map[string]types.Delta {
	out := make(map[string]types.Delta)
	_ = root.Walk(func(n *content.Node) error {
		if n.Path() == "" {
			return nil
		}
		key := n.Path()
		if n.IsFolder() {
			key += "/"
		}
		out[key] = n.Delta()
		return nil
	})
	return out
}

// AssertTree checks that root holds exactly want, keyed as in Deltas.
func AssertTree(t *testing.T, root *content.Node, want map[string]types.Delta) {
	t.Helper()
	assert.Equal(t, want, Deltas(root), "tree:\n%s", root)
}

// Files lists the files below dir relative to it, sorted, using slash
// separators.
func (e *Env) Files(dir string) []string {
	e.t.Helper()
	var out []string
	entries, err := e.FS.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			for _, sub := range e.Files(dir + "/" + entry.Name()) {
				out = append(out, entry.Name()+"/"+sub)
			}
			continue
		}
		out = append(out, entry.Name())
	}
	sort.Strings(out)
	return out
}

// ProjectFiles lists the files below a slash path of the project root,
// skipping the state folder.
func (e *Env) ProjectFiles(rel string) []string {
	e.t.Helper()
	dir := e.Root
	if rel != "" && rel != "." {
		dir += "/" + rel
	}
	var out []string
	for _, f := range e.Files(dir) {
		if !strings.HasPrefix(f, ".copyfold/") {
			out = append(out, f)
		}
	}
	return out
}

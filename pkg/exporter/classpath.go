package exporter

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/logging"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/beevik/etree"
)

// DefaultClasspathFile is read from the item root when no other name is
// configured.
const DefaultClasspathFile = ".classpath"

// ClasspathSpec configures a Classpath exporter.
type ClasspathSpec struct {
	Item types.ItemID
	// File is relative to the item root; defaults to DefaultClasspathFile.
	File  string
	Label string
	// Types narrows the exporter types served; empty serves all three.
	Types []string
}

// Classpath exports the class output folders and the source folders listed
// in an Eclipse style .classpath file.
type Classpath struct {
	fs   types.FS
	spec ClasspathSpec
}

// ClasspathEntries holds the entries of a .classpath file that matter for export.
type ClasspathEntries struct {
	Sources []string
	Outputs []string
	// SourceAttachments belong to library entries.
	SourceAttachments []string
}

func NewClasspath(fsys types.FS, spec ClasspathSpec) (*Classpath, error) {
	if fsys == nil {
		return nil, errors.New(errors.ErrMissingArgument, "classpath exporter needs a filesystem")
	}
	if spec.Item == "" {
		return nil, errors.New(errors.ErrMissingArgument, "classpath exporter needs an item")
	}
	if spec.File == "" {
		spec.File = DefaultClasspathFile
	}
	for _, t := range spec.Types {
		if t != TypeClasses && t != TypeSourceJava && t != TypeSourceAJ {
			return nil, errors.Newf(errors.ErrConfigValid, "classpath exporter cannot serve type %q", t)
		}
	}
	return &Classpath{fs: fsys, spec: spec}, nil
}

func (e *Classpath) Item() types.ItemID { return e.spec.Item }

func (e *Classpath) Types() []string {
	if len(e.spec.Types) > 0 {
		return e.spec.Types
	}
	return []string{TypeClasses, TypeSourceJava, TypeSourceAJ}
}

// Export reads the classpath and exports every location of the requested
// type. A missing classpath file exports nothing.
func (e *Classpath) Export(ctx context.Context, req Request) (*content.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := logging.GetLogger("exporter.classpath").With().
		Str("item", string(e.spec.Item)).
		Str("type", req.ExporterType).
		Logger()

	entries, err := ReadClasspath(e.fs, filepath.Join(req.Item.Root, filepath.FromSlash(e.spec.File)))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExporterFault, "cannot read classpath of %s", e.spec.Item)
	}

	var specs []locSpec
	skip := map[string]bool{".svn": true}
	switch req.ExporterType {
	case TypeClasses:
		for _, p := range entries.Outputs {
			specs = append(specs, locSpec{path: p, filter: filter{skipDirs: skip}})
		}
	case TypeSourceJava, TypeSourceAJ:
		exclude := []string{".aj"}
		if req.ExporterType == TypeSourceAJ {
			exclude = []string{".java"}
		}
		for _, p := range append(entries.Sources, entries.SourceAttachments...) {
			specs = append(specs, locSpec{path: p, filter: filter{skipDirs: skip, exclude: exclude}})
		}
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "classpath exporter does not serve %q", req.ExporterType)
	}

	tree, err := exportLocations(e.fs, req, req.ExporterType, e.spec.Label, specs)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExporterFault, "cannot export %s of %s", req.ExporterType, e.spec.Item)
	}
	logger.Debug().Int("locations", len(specs)).Int("nodes", tree.Count()).Msg("Exported classpath")
	return tree, nil
}

// ReadClasspath parses a .classpath file. Paths come back cleaned and item
// relative, without duplicates. A missing file yields no entries.
func ReadClasspath(fsys types.FS, file string) (ClasspathEntries, error) {
	var out ClasspathEntries
	data, err := fsys.ReadFile(file)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return out, errors.Wrapf(err, errors.ErrInvalidInput, "malformed classpath %s", file)
	}

	seen := map[string]bool{}
	add := func(list *[]string, kind, p string) {
		if p == "" || filepath.IsAbs(p) {
			return
		}
		clean, err := content.CleanPath(p)
		if err != nil || seen[kind+"\x00"+clean] {
			return
		}
		seen[kind+"\x00"+clean] = true
		*list = append(*list, clean)
	}

	var defaultOutput string
	var sourceOutputs []string
	for _, entry := range doc.FindElements("//classpathentry") {
		p := entry.SelectAttrValue("path", "")
		switch entry.SelectAttrValue("kind", "") {
		case "src":
			if strings.HasPrefix(p, "/") {
				// project reference
				continue
			}
			add(&out.Sources, "src", p)
			sourceOutputs = append(sourceOutputs, entry.SelectAttrValue("output", ""))
		case "output":
			defaultOutput = p
		case "lib":
			add(&out.SourceAttachments, "src", entry.SelectAttrValue("sourcepath", ""))
		}
	}
	for _, o := range sourceOutputs {
		if o == "" {
			o = defaultOutput
		}
		add(&out.Outputs, "output", o)
	}
	if len(sourceOutputs) == 0 {
		add(&out.Outputs, "output", defaultOutput)
	}
	return out, nil
}

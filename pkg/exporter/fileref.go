package exporter

import (
	"context"
	"regexp"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/logging"
	"github.com/arthur-debert/copyfold/pkg/types"
)

// FileRefSpec configures a FileRef exporter.
type FileRefSpec struct {
	Item types.ItemID
	Type string
	// ID names the exporter's bookkeeping; defaults to Type.
	ID string
	// Folder is relative to the item root, empty for the root itself.
	Folder string
	// Pattern must match the whole slash path relative to Folder.
	Pattern string
	// Label routes the exported content; empty means the composer target.
	Label string
}

// FileRef exports the content of one folder of an item.
type FileRef struct {
	fs      types.FS
	spec    FileRefSpec
	folder  string
	pattern *regexp.Regexp
}

// NewFileRef validates spec and returns the exporter.
func NewFileRef(fsys types.FS, spec FileRefSpec) (*FileRef, error) {
	if fsys == nil {
		return nil, errors.New(errors.ErrMissingArgument, "file exporter needs a filesystem")
	}
	if spec.Item == "" || spec.Type == "" {
		return nil, errors.New(errors.ErrMissingArgument, "file exporter needs an item and a type")
	}
	folder, err := content.CleanPath(spec.Folder)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigValid, "invalid export folder %q", spec.Folder)
	}
	pattern, err := compilePattern(spec.Pattern)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigValid, "invalid export pattern %q", spec.Pattern).
			WithDetail("item", string(spec.Item))
	}
	if spec.ID == "" {
		spec.ID = spec.Type
	}
	return &FileRef{fs: fsys, spec: spec, folder: folder, pattern: pattern}, nil
}

func (e *FileRef) Item() types.ItemID { return e.spec.Item }
func (e *FileRef) Types() []string { return []string{e.spec.Type} }

// Export exports the folder. When the folder changed since the last export
// the old content is reported removed and the new folder added.
func (e *FileRef) Export(ctx context.Context, req Request) (*content.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := logging.GetLogger("exporter.files").With().
		Str("item", string(e.spec.Item)).
		Str("type", e.spec.Type).
		Str("folder", e.folder).
		Bool("full", req.IsFull()).
		Logger()

	tree, err := exportLocations(e.fs, req, e.spec.ID, e.spec.Label, []locSpec{
		{path: e.folder, filter: filter{pattern: e.pattern}},
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExporterFault, "cannot export %s", e.folder).
			WithDetail("item", string(e.spec.Item))
	}
	logger.Debug().Int("nodes", tree.Count()).Msg("Exported folder")
	return tree, nil
}

package filesystem

import (
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/spf13/afero"
)

// NewOS creates a filesystem backed by the real operating system.
func NewOS() types.FS {
	return &aferoFS{fs: afero.NewOsFs()}
}

// NewMemory creates an empty in-memory filesystem.
func NewMemory() types.FS {
	return &aferoFS{fs: afero.NewMemMapFs()}
}

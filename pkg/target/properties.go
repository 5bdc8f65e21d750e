package target

import (
	"fmt"
	"os"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/hashicorp/go-version"
	"github.com/pelletier/go-toml/v2"
)

const (
	// FormatVersion is written into every properties file.
	FormatVersion = "1.0"
	// supportedFormats is the range of properties files this build reads.
	supportedFormats = ">= 1.0, < 2.0"
)

// Properties is the per-composer state kept next to the repositories.
// Folder paths are project relative, "." being the project root.
type Properties struct {
	FormatVersion string `toml:"format_version"`

	LastTargetFolder    string `toml:"last_target_folder"`
	CurrentTargetFolder string `toml:"current_target_folder"`

	// CreatedFolderPathPart holds the trailing segments of CreatedFor that
	// copyfold created.
	CreatedFolderPathPart     string `toml:"created_folder_path_part"`
	CreatedFor                string `toml:"created_for"`
	LastCreatedFolderPathPart string `toml:"last_created_folder_path_part"`
	LastCreatedFor            string `toml:"last_created_for"`

	RelocationPhase1Finished bool `toml:"relocation_phase1_finished"`
}

func loadProperties(fsys types.FS, file string) (*Properties, error) {
	props := &Properties{FormatVersion: FormatVersion}
	data, err := fsys.ReadFile(file)
	if os.IsNotExist(err) {
		return props, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	if err := toml.Unmarshal(data, props); err != nil {
		return nil, errors.Wrapf(err, errors.ErrPersistenceCorrupt, "cannot parse %s", file)
	}
	if err := checkFormat(props.FormatVersion); err != nil {
		return nil, err
	}
	return props, nil
}

func checkFormat(v string) error {
	if v == "" {
		return nil
	}
	parsed, err := version.NewVersion(v)
	if err != nil {
		return errors.Wrapf(err, errors.ErrStateVersion, "invalid state format %q", v)
	}
	constraint, err := version.NewConstraint(supportedFormats)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "invalid format constraint")
	}
	if !constraint.Check(parsed) {
		return errors.Newf(errors.ErrStateVersion, "state format %s is not supported (want %s)", v, supportedFormats)
	}
	return nil
}

// save writes the file next to its final name and renames it into place.
func (p *Properties) save(fsys types.FS, file string) error {
	p.FormatVersion = FormatVersion
	data, err := toml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, errors.ErrPersistenceWrite, "cannot encode properties")
	}
	tmp := file + ".tmp"
	if err := fsys.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrPersistenceWrite, "cannot write %s", tmp)
	}
	if err := fsys.Rename(tmp, file); err != nil {
		return errors.Wrapf(err, errors.ErrPersistenceWrite, "cannot replace %s", file)
	}
	return nil
}

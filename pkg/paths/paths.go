package paths

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/mitchellh/go-homedir"
)

// Environment variable names
const (
	EnvProjectRoot = "COPYFOLD_ROOT"
	// EnvConfigDir overrides the XDG config folder of copyfold
	EnvConfigDir = "COPYFOLD_CONFIG_DIR"
)

const (
	DirName = "copyfold"
	// ConfigFile is the project configuration file name
	ConfigFile = "copyfold.toml"
	// UserConfigFile is read from the user's config folder
	UserConfigFile = "config.toml"
	LogFileName    = "copyfold.log"
)

// Paths holds the resolved folders of one run.
type Paths struct {
	root         string
	usedFallback bool
	configDir    string
	stateDir     string
}

// New resolves the project root. An empty root is searched for.
func New(projectRoot string) (*Paths, error) {
	p := &Paths{}
	if projectRoot == "" {
		root, usedFallback, err := findProjectRoot()
		if err != nil {
			return nil, err
		}
		p.root = root
		p.usedFallback = usedFallback
	} else {
		p.root = ExpandHome(projectRoot)
	}

	abs, err := filepath.Abs(p.root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "failed to get absolute path for project root")
	}
	p.root = abs

	xdg.Reload()
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		p.configDir = ExpandHome(dir)
	} else {
		p.configDir = filepath.Join(xdg.ConfigHome, DirName)
	}
	p.stateDir = filepath.Join(xdg.StateHome, DirName)
	return p, nil
}

func findProjectRoot() (string, bool, error) {
	if root := os.Getenv(EnvProjectRoot); root != "" {
		return ExpandHome(root), false, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, errors.Wrapf(err, errors.ErrInvalidInput, "failed to get current directory")
	}
	if root, ok := findConfigRoot(cwd); ok {
		return root, false, nil
	}
	if root, err := findGitRoot(); err == nil {
		return root, false, nil
	}
	return cwd, true, nil
}

// findConfigRoot walks up from dir to the first folder holding ConfigFile.
func findConfigRoot(dir string) (string, bool) {
	for {
		if info, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil && !info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func findGitRoot() (string, error) {
	output, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", err
	}
	root := strings.TrimSpace(string(output))
	if root == "" {
		return "", errors.New(errors.ErrNotFound, "git root is empty")
	}
	return root, nil
}

// ExpandHome expands a leading ~ and leaves anything it cannot expand as is.
func ExpandHome(p string) string {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}

// Root is the absolute project root.
func (p *Paths) Root() string {
	return p.root
}

// UsedFallback reports whether the working directory was used because
// nothing else identified the project.
func (p *Paths) UsedFallback() bool {
	return p.usedFallback
}

// ConfigFile is the project configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.root, ConfigFile)
}

// UserConfigFile is the per-user configuration file.
func (p *Paths) UserConfigFile() string {
	return filepath.Join(p.configDir, UserConfigFile)
}

// LogFile is where the file log goes.
func (p *Paths) LogFile() string {
	return filepath.Join(p.stateDir, LogFileName)
}

// Resolve expands p and makes it absolute against the project root.
func (p *Paths) Resolve(path string) string {
	if path == "" {
		return p.root
	}
	expanded := ExpandHome(path)
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded)
	}
	return filepath.Join(p.root, expanded)
}

package config

import (
	"time"
)

// Config is the decoded configuration.
type Config struct {
	Project   ProjectConfig    `koanf:"project"`
	Logging   LoggingConfig    `koanf:"logging"`
	Watch     WatchConfig      `koanf:"watch"`
	Composite string           `koanf:"composite"`
	Composers []ComposerConfig `koanf:"composers"`
	Items     []ItemConfig     `koanf:"items"`
}

type ProjectConfig struct {
	Root     string `koanf:"root"`
	StateDir string `koanf:"state_dir"`
}

type LoggingConfig struct {
	File bool `koanf:"file"`
}

type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
	// Ignore lists folder names the watcher never descends into.
	Ignore []string `koanf:"ignore"`
}

// ComposerConfig describes one target folder. ReadOnly is a pointer so an
// explicit false can override a preset.
type ComposerConfig struct {
	Name          string   `koanf:"name"`
	Preset        string   `koanf:"preset"`
	Target        string   `koanf:"target"`
	ExporterTypes []string `koanf:"exporter_types"`
	ReadOnly      *bool    `koanf:"read_only"`
}

// IsReadOnly reports whether copied files are made read-only.
func (c ComposerConfig) IsReadOnly() bool {
	return c.ReadOnly != nil && *c.ReadOnly
}

type ItemConfig struct {
	ID         string         `koanf:"id"`
	Name       string         `koanf:"name"`
	Root       string         `koanf:"root"`
	Components []string       `koanf:"components"`
	Exports    []ExportConfig `koanf:"exports"`
}

// Exporter kinds
const (
	ExporterFiles     = "files"
	ExporterClasspath = "classpath"
)

// ExportConfig binds one exporter to its item.
type ExportConfig struct {
	// Exporter is "files" or "classpath".
	Exporter string `koanf:"exporter"`
	// Type is the exporter type served. Classpath exports serve all their
	// types when it is empty.
	Type string `koanf:"type"`
	// ID tells apart several files exports of one type.
	ID      string `koanf:"id"`
	Path    string `koanf:"path"`
	Pattern string `koanf:"pattern"`
	// Target is the bucket label; empty means the composer's target.
	Target    string `koanf:"target"`
	Classpath string `koanf:"classpath"`
}

// Composer returns the composer called name.
func (c *Config) Composer(name string) (ComposerConfig, bool) {
	for _, comp := range c.Composers {
		if comp.Name == name {
			return comp, true
		}
	}
	return ComposerConfig{}, false
}

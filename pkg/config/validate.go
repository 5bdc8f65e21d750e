package config

import (
	"path/filepath"
	"regexp"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/paths"
)

// postProcess applies presets, expands paths and validates cfg.
func postProcess(cfg *Config, projectRoot string) error {
	if cfg.Project.Root == "" {
		cfg.Project.Root = projectRoot
	}
	cfg.Project.Root = paths.ExpandHome(cfg.Project.Root)
	cfg.Project.StateDir = paths.ExpandHome(cfg.Project.StateDir)

	for i := range cfg.Composers {
		c, err := applyPreset(cfg.Composers[i])
		if err != nil {
			return err
		}
		cfg.Composers[i] = c
	}
	for i := range cfg.Items {
		cfg.Items[i].Root = paths.ExpandHome(cfg.Items[i].Root)
		for j := range cfg.Items[i].Exports {
			e := &cfg.Items[i].Exports[j]
			if e.Exporter == ExporterClasspath && e.Classpath == "" {
				e.Classpath = ".classpath"
			}
		}
	}
	return Validate(cfg)
}

// Validate checks what can be checked without the filesystem.
func Validate(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return errors.New(errors.ErrConfigValid, "watch.debounce must not be negative")
	}

	names := make(map[string]bool)
	for i, c := range cfg.Composers {
		if c.Name == "" {
			return errors.Newf(errors.ErrConfigValid, "composer #%d has no name", i+1)
		}
		if names[c.Name] {
			return errors.Newf(errors.ErrConfigValid, "composer %q is defined twice", c.Name)
		}
		names[c.Name] = true
		if len(c.ExporterTypes) == 0 {
			return errors.Newf(errors.ErrConfigValid, "composer %q has no exporter types", c.Name)
		}
		if filepath.IsAbs(c.Target) {
			return errors.Newf(errors.ErrConfigValid, "composer %q target must be relative to the project", c.Name)
		}
	}

	for i, item := range cfg.Items {
		if item.ID == "" {
			return errors.Newf(errors.ErrConfigValid, "item #%d has no id", i+1)
		}
		for _, e := range item.Exports {
			if err := validateExport(item.ID, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateExport(item string, e ExportConfig) error {
	switch e.Exporter {
	case ExporterFiles:
		if e.Type == "" {
			return errors.Newf(errors.ErrConfigValid, "files export of %q needs a type", item)
		}
		if e.Pattern != "" {
			if _, err := regexp.Compile(e.Pattern); err != nil {
				return errors.Wrapf(err, errors.ErrConfigValid, "files export of %q has an invalid pattern", item)
			}
		}
	case ExporterClasspath:
	default:
		return errors.Newf(errors.ErrConfigValid, "item %q uses unknown exporter %q", item, e.Exporter).
			WithDetail("exporters", []string{ExporterFiles, ExporterClasspath})
	}
	return nil
}

package config

import (
	"sort"

	"github.com/arthur-debert/copyfold/pkg/errors"
)

func boolPtr(b bool) *bool { return &b }

// Presets are the ready-made composers a composer entry can start from.
var Presets = map[string]ComposerConfig{
	"java-copy": {
		Target:        "components-classes",
		ExporterTypes: []string{"ref-classes"},
	},
	"sources-copy": {
		Target:        "components-sources",
		ExporterTypes: []string{"ref-source-java", "ref-source-aj"},
		ReadOnly:      boolPtr(true),
	},
}

// PresetNames lists the presets, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyPreset fills the fields c leaves empty from its preset.
func applyPreset(c ComposerConfig) (ComposerConfig, error) {
	if c.Preset == "" {
		return c, nil
	}
	preset, ok := Presets[c.Preset]
	if !ok {
		return c, errors.Newf(errors.ErrConfigValid, "composer %q uses unknown preset %q", c.Name, c.Preset).
			WithDetail("presets", PresetNames())
	}
	if c.Name == "" {
		c.Name = c.Preset
	}
	if c.Target == "" {
		c.Target = preset.Target
	}
	if len(c.ExporterTypes) == 0 {
		c.ExporterTypes = append([]string(nil), preset.ExporterTypes...)
	}
	if c.ReadOnly == nil && preset.ReadOnly != nil {
		c.ReadOnly = boolPtr(*preset.ReadOnly)
	}
	return c, nil
}

package config

import (
	_ "embed"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// EnvPrefix starts every environment variable the loader reads.
const EnvPrefix = "COPYFOLD_"

// projectFiles are tried in order at the project root.
var projectFiles = []string{"copyfold.toml", "copyfold.yaml", "copyfold.yml"}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// LoadOptions say where the layers come from.
type LoadOptions struct {
	ProjectRoot string
	// ConfigFile replaces the search for a project file.
	ConfigFile     string
	UserConfigFile string
	// Overrides are flattened keys such as "watch.debounce".
	Overrides map[string]interface{}
}

// Load merges every layer and decodes the result.
func Load(opts LoadOptions) (*Config, error) {
	k, err := load(opts)
	if err != nil {
		return nil, err
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to decode configuration")
	}
	if err := postProcess(&cfg, opts.ProjectRoot); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Dump renders the merged layers as TOML, before decoding.
func Dump(opts LoadOptions) ([]byte, error) {
	k, err := load(opts)
	if err != nil {
		return nil, err
	}
	data, err := k.Marshal(toml.Parser())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to encode configuration")
	}
	return data, nil
}

func load(opts LoadOptions) (*koanf.Koanf, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	if opts.UserConfigFile != "" {
		if err := loadFile(k, opts.UserConfigFile, false); err != nil {
			return nil, err
		}
	}

	projectFile := opts.ConfigFile
	required := projectFile != ""
	if projectFile == "" && opts.ProjectRoot != "" {
		for _, name := range projectFiles {
			candidate := filepath.Join(opts.ProjectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				projectFile = candidate
				break
			}
		}
	}
	if projectFile != "" {
		if err := loadFile(k, projectFile, required); err != nil {
			return nil, err
		}
		logger.Debug().Str("file", projectFile).Msg("Loaded project configuration")
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}
	return k, nil
}

func loadFile(k *koanf.Koanf, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrapf(err, errors.ErrConfigLoad, "cannot read %s", path)
	}
	var parser koanf.Parser = toml.Parser()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return errors.Wrapf(err, errors.ErrConfigLoad, "failed to load %s", path)
	}
	return nil
}

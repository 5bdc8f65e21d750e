package copyfold

import (
	"fmt"
	"os"

	"github.com/arthur-debert/copyfold/internal/version"
	"github.com/arthur-debert/copyfold/pkg/config"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/logging"
	"github.com/arthur-debert/copyfold/pkg/paths"
	"github.com/arthur-debert/copyfold/pkg/report"
	"github.com/arthur-debert/copyfold/pkg/style"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/arthur-debert/copyfold/pkg/workspace"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// globalOptions hold the persistent flags.
type globalOptions struct {
	verbosity  int
	project    string
	configFile string
	noColor    bool
	format     string
}

// project is everything a command needs once the configuration is loaded.
type project struct {
	paths *paths.Paths
	cfg   *config.Config
	ws    *workspace.Workspace
	fs    types.FS
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "copyfold",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(logging.Options{Verbosity: opts.verbosity, NoColor: opts.noColor})
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			_, err := opts.outputFormat(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.StringVarP(&opts.project, "project", "p", "", MsgFlagProject)
	flags.StringVarP(&opts.configFile, "config", "c", "", MsgFlagConfig)
	flags.BoolVar(&opts.noColor, "no-color", false, MsgFlagNoColor)
	flags.StringVarP(&opts.format, "format", "f", "auto", MsgFlagFormat)

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})
	rootCmd.SetUsageTemplate(MsgUsageTemplate)
	rootCmd.SetHelpTemplate(MsgHelpTemplate)

	rootCmd.AddCommand(newBuildCmd(opts))
	rootCmd.AddCommand(newCleanCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd())

	return rootCmd
}

// outputFormat resolves --format and --no-color and configures styling.
func (g *globalOptions) outputFormat(cmd *cobra.Command) (style.Format, error) {
	format, err := style.ParseFormat(g.format)
	if err != nil {
		return format, errors.Wrap(err, errors.ErrInvalidInput, "invalid --format")
	}
	if format == style.FormatAuto {
		format = style.FormatText
		if f, ok := cmd.OutOrStdout().(*os.File); ok {
			format = style.DetectFormat(f)
		}
	}
	if g.noColor && format == style.FormatTerminal {
		format = style.FormatText
	}
	style.Apply(format)
	return format, nil
}

// initPaths resolves the project root and warns when it is only the
// working directory.
func (g *globalOptions) initPaths(cmd *cobra.Command) (*paths.Paths, error) {
	p, err := paths.New(g.project)
	if err != nil {
		return nil, fmt.Errorf(MsgErrInitPaths, err)
	}
	if p.UsedFallback() {
		fmt.Fprintf(cmd.ErrOrStderr(), MsgFallbackWarning, p.Root())
	}
	return p, nil
}

func (g *globalOptions) loadOptions(p *paths.Paths) config.LoadOptions {
	return config.LoadOptions{
		ProjectRoot:    p.Root(),
		ConfigFile:     g.configFile,
		UserConfigFile: p.UserConfigFile(),
	}
}

// openProject loads the configuration and builds the workspace.
func (g *globalOptions) openProject(cmd *cobra.Command) (*project, error) {
	p, err := g.initPaths(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(g.loadOptions(p))
	if err != nil {
		return nil, err
	}
	if cfg.Logging.File {
		logging.Setup(logging.Options{
			Verbosity: g.verbosity,
			NoColor:   g.noColor,
			LogFile:   true,
			Path:      p.LogFile(),
		})
	}
	ws, err := workspace.New(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("root", ws.Root()).
		Str("composite", string(ws.Composite())).
		Int("composers", len(cfg.Composers)).
		Msg("Project loaded")
	return &project{paths: p, cfg: cfg, ws: ws, fs: filesystem.NewOS()}, nil
}

// reporter shows progress on stderr and mirrors it into the log.
func reporter(cmd *cobra.Command) types.Reporter {
	return report.Multi{
		report.NewTerminal(cmd.ErrOrStderr()),
		report.NewLog(logging.GetLogger("progress")),
	}
}

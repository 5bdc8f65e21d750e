package copyfold

import (
	"fmt"
	"time"

	"github.com/arthur-debert/copyfold/pkg/composer"
	"github.com/arthur-debert/copyfold/pkg/delta"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/workspace"
	"github.com/spf13/cobra"
)

func newBuildCmd(g *globalOptions) *cobra.Command {
	var (
		composers []string
		changed   []string
	)
	cmd := &cobra.Command{
		Use:               "build",
		Short:             MsgBuildShort,
		Long:              MsgBuildLong,
		Example:           MsgBuildExample,
		GroupID:           "core",
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			prj, err := g.openProject(cmd)
			if err != nil {
				return err
			}
			deltas, err := delta.FromSpecs(changed)
			if err != nil {
				return err
			}
			for item := range deltas {
				if !prj.ws.IsComponent(prj.ws.Composite(), item) {
					return errors.Newf(errors.ErrItemNotFound, "%s is not a component of %s", item, prj.ws.Composite())
				}
			}

			list, err := prj.ws.Composers(workspace.ComposerOptions{FS: prj.fs, Reporter: reporter(cmd)}, composers...)
			if err != nil {
				return err
			}
			failed := 0
			for _, c := range list {
				result, err := c.Compose(cmd.Context(), deltas)
				if err != nil {
					return err
				}
				printResult(cmd, c, result)
				failed += result.Failed
			}
			if failed > 0 {
				return errors.Newf(errors.ErrResourceCopy, MsgErrFailures, failed)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&composers, "composer", nil, MsgFlagComposer)
	cmd.Flags().StringArrayVar(&changed, "changed", nil, MsgFlagChanged)
	_ = cmd.RegisterFlagCompletionFunc("composer", g.composerNames)
	return cmd
}

func printResult(cmd *cobra.Command, c *composer.Composer, r composer.Result) {
	fmt.Fprintf(cmd.OutOrStdout(), MsgBuildResult, c.Name(), r.Applied, r.Collected, r.Failed, r.Duration.Round(time.Millisecond))
}

// composerNames completes --composer from the configuration.
func (g *globalOptions) composerNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	p, err := g.initPaths(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	cfg, err := loadConfig(g, p)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names := make([]string, 0, len(cfg.Composers))
	for _, c := range cfg.Composers {
		names = append(names, c.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

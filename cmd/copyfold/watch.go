package copyfold

import (
	"context"
	"fmt"

	"github.com/arthur-debert/copyfold/pkg/composer"
	"github.com/arthur-debert/copyfold/pkg/delta"
	"github.com/arthur-debert/copyfold/pkg/logging"
	"github.com/arthur-debert/copyfold/pkg/watch"
	"github.com/arthur-debert/copyfold/pkg/workspace"
	"github.com/spf13/cobra"
)

func newWatchCmd(g *globalOptions) *cobra.Command {
	var composers []string
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   MsgWatchShort,
		Long:    MsgWatchLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prj, err := g.openProject(cmd)
			if err != nil {
				return err
			}
			list, err := prj.ws.Composers(workspace.ComposerOptions{FS: prj.fs, Reporter: reporter(cmd)}, composers...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := runPasses(ctx, cmd, list, nil); err != nil {
				return err
			}

			roots := prj.ws.WatchRoots()
			w, err := watch.New(prj.fs, roots, func(ctx context.Context, changes delta.Set) error {
				return runPasses(ctx, cmd, list, changes)
			}, watch.Options{
				Debounce: prj.cfg.Watch.Debounce,
				Ignore:   prj.cfg.Watch.Ignore,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), MsgWatchStarted, len(roots))
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringSliceVar(&composers, "composer", nil, MsgFlagComposer)
	_ = cmd.RegisterFlagCompletionFunc("composer", g.composerNames)
	return cmd
}

// runPasses runs every composer; failed resources are reported, only pass
// errors stop the loop.
func runPasses(ctx context.Context, cmd *cobra.Command, list []*composer.Composer, changes delta.Set) error {
	logger := logging.WithFields(map[string]interface{}{
		"component": "watch",
		"items":     len(changes),
	})
	for _, c := range list {
		result, err := c.Compose(ctx, changes)
		if err != nil {
			logger.Error().Err(err).Str("composer", c.Name()).Msg("Pass failed")
			return err
		}
		printResult(cmd, c, result)
	}
	return nil
}

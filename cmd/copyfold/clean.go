package copyfold

import (
	"fmt"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/workspace"
	"github.com/spf13/cobra"
)

func newCleanCmd(g *globalOptions) *cobra.Command {
	var composers []string
	cmd := &cobra.Command{
		Use:     "clean",
		Short:   MsgCleanShort,
		Long:    MsgCleanLong,
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
			failed := 0
			for _, c := range list {
				result, err := c.Clean(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), MsgCleanResult, c.Name(), result.Collected, result.Failed)
				failed += result.Failed
			}
			if failed > 0 {
				return errors.Newf(errors.ErrResourceDelete, MsgErrFailures, failed)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&composers, "composer", nil, MsgFlagComposer)
	_ = cmd.RegisterFlagCompletionFunc("composer", g.composerNames)
	return cmd
}

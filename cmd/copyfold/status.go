package copyfold

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/arthur-debert/copyfold/pkg/logging"
	"github.com/arthur-debert/copyfold/pkg/style"
	"github.com/arthur-debert/copyfold/pkg/workspace"
	"github.com/spf13/cobra"
)

func newStatusCmd(g *globalOptions) *cobra.Command {
	var composers []string
	cmd := &cobra.Command{
		Use:     "status",
		Short:   MsgStatusShort,
		Long:    MsgStatusLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer logging.LogDuration(time.Now(), "status")
			format, err := g.outputFormat(cmd)
			if err != nil {
				return err
			}
			prj, err := g.openProject(cmd)
			if err != nil {
				return err
			}
			list, err := prj.ws.Composers(workspace.ComposerOptions{FS: prj.fs}, composers...)
			if err != nil {
				return err
			}

			statuses := make([]style.TargetStatus, 0, len(list))
			for _, c := range list {
				st, err := c.Status()
				if err != nil {
					return err
				}
				statuses = append(statuses, st)
			}

			out := cmd.OutOrStdout()
			if format == style.FormatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(statuses)
			}
			for i, st := range statuses {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, style.RenderTargetStatus(st))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&composers, "composer", nil, MsgFlagComposer)
	_ = cmd.RegisterFlagCompletionFunc("composer", g.composerNames)
	return cmd
}

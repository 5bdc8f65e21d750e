package copyfold

import (
	"fmt"

	"github.com/arthur-debert/copyfold/pkg/config"
	"github.com/arthur-debert/copyfold/pkg/paths"
	"github.com/spf13/cobra"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	var sample bool
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sample {
				fmt.Fprint(cmd.OutOrStdout(), config.GenerateSample())
				return nil
			}
			p, err := g.initPaths(cmd)
			if err != nil {
				return err
			}
			// validate before printing so a broken file is reported
			if _, err := loadConfig(g, p); err != nil {
				return err
			}
			data, err := config.Dump(g.loadOptions(p))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&sample, "sample", false, MsgFlagSample)
	return cmd
}

func loadConfig(g *globalOptions, p *paths.Paths) (*config.Config, error) {
	return config.Load(g.loadOptions(p))
}

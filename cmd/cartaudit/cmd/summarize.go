package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"cartaudit/internal/output"
	"cartaudit/internal/pipeline"
)

func newSummarizeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "summarize",
		Aliases: []string{"summary"},
		GroupID: "core",
		Short:   "Total carts, bags and OVs per route from the picklist export",
		Example: `  cartaudit summarize -p SCCPick.csv
  cartaudit summarize -p SCCPick.csv -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Inputs.Picklist == "" {
				return errors.New("no picklist export given (--picklist or inputs.picklist)")
			}
			if err := a.checkConfig(false); err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := p.LoadPicklist(ctx, pipeline.State{}, a.source(a.cfg.Inputs.Picklist))
			if err != nil {
				return err
			}
			if s, err = p.Process(ctx, s); err != nil {
				return err
			}
			return a.render(cmd, output.Document{
				Tables: []output.Table{output.SummaryTable(*s.Summary)},
				Value:  s.Summary,
			})
		},
	}
}

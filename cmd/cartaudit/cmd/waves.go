package cmd

import (
	"github.com/spf13/cobra"

	"cartaudit/internal/output"
	"cartaudit/internal/wave"
)

func newWavesCommand(a *app) *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:     "waves",
		GroupID: "core",
		Short:   "Reconcile both exports and print the loading waves",
		Long: `Reconcile the dispatch export with the picklist route totals and print
the result in waves. The buffer view shows route, location and carts; the
bagcount view adds bags, OVs and an empty Departed column. Bags of exactly
one and OVs of exactly three are marked with "*".`,
		Example: `  cartaudit waves -d PickOrder.csv -p SCCPick.csv
  cartaudit waves -d PickOrder.csv -p SCCPick.csv --view buffer -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := wave.ParseView(view)
			if err != nil {
				return err
			}
			s, err := a.build(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd, output.Waves(s.Waves, v, s.Digest))
		},
	}
	cmd.Flags().StringVar(&view, "view", wave.BagCount.String(), "view: buffer or bagcount")
	return cmd
}

package cmd

import (
	"github.com/spf13/cobra"

	"cartaudit/internal/export"
	"cartaudit/internal/output"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		dir     string
		formats []string
	)

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "core",
		Short:   "Write the bag-count waves as a wide CSV and an XLSX workbook",
		Example: `  cartaudit export -d PickOrder.csv -p SCCPick.csv --dir out
  cartaudit export -d PickOrder.csv -p SCCPick.csv --format xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("dir") {
				a.cfg.Export.Dir = dir
			}
			if cmd.Flags().Changed("format") {
				a.cfg.Export.Formats = formats
			}
			fs, err := export.ParseFormats(a.cfg.Export.Formats)
			if err != nil {
				return err
			}

			s, err := a.build(cmd.Context())
			if err != nil {
				return err
			}
			paths, err := export.Export(cmd.Context(), a.cfg.Job, a.cfg.Export.Dir, fs, s.Waves)
			if err != nil {
				return err
			}

			rows := make([][]string, len(paths))
			for i, p := range paths {
				rows[i] = []string{p}
			}
			return a.render(cmd, output.Document{
				Tables: []output.Table{{Headers: []string{"Written"}, Rows: rows}},
				Value:  map[string]any{"files": paths, "waves": len(s.Waves), "rows": s.Rows()},
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default from export.dir)")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "formats to write: csv, xlsx")
	return cmd
}

package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"cartaudit/internal/output"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		GroupID: "management",
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := a.info
			return a.render(cmd, output.Document{
				Tables: []output.Table{{
					Headers: []string{"Version", "Commit", "Date", "Go"},
					Rows:    [][]string{{info.Version, info.Commit, info.Date, runtime.Version()}},
				}},
				Value: info,
			})
		},
	}
}

package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"cartaudit/internal/config"
	"cartaudit/internal/output"
)

func newValidateCommand(a *app) *cobra.Command {
	var inputs bool

	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: "management",
		Short:   "Check the configuration without reading the exports",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issues := config.Validate(a.cfg, inputs)

			rows := make([][]string, len(issues))
			for i, iss := range issues {
				rows[i] = []string{string(iss.Severity), iss.Path, iss.Message}
			}
			tbl := output.Table{Headers: []string{"Severity", "Path", "Message"}, Rows: rows}
			if len(issues) == 0 {
				tbl.Footer = "configuration is valid"
			}
			if issues == nil {
				issues = []config.Issue{}
			}
			if err := a.render(cmd, output.Document{Tables: []output.Table{tbl}, Value: issues}); err != nil {
				return err
			}
			if config.HasErrors(issues) {
				return errors.New("configuration has errors")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&inputs, "inputs", false, "also require both input paths")
	return cmd
}

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cartaudit/internal/output"
	pcsv "cartaudit/internal/parser/csv"
	"cartaudit/internal/probe"
)

func newProbeCommand(a *app) *cobra.Command {
	var maxBytes int

	cmd := &cobra.Command{
		Use:     "probe [FILE...]",
		GroupID: "core",
		Short:   "Sample exports and show how their headers resolve",
		Long: `Sample the start of each export and report the detected encoding and
delimiter, whether the quoting recovery ran, a type guess per column and how
the dispatch and picklist header tables resolve against it. Without
arguments the configured inputs are probed.`,
		Example: `  cartaudit probe SCCPick.csv
  cartaudit probe --bytes -1 PickOrder.csv -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				for _, p := range []string{a.cfg.Inputs.Dispatch, a.cfg.Inputs.Picklist} {
					if p != "" {
						paths = append(paths, p)
					}
				}
			}
			if len(paths) == 0 {
				return errors.New("nothing to probe: pass files or set --dispatch/--picklist")
			}

			comma, err := a.cfg.Parser.Comma()
			if err != nil {
				return err
			}
			dispatch, picklist, err := a.cfg.Schemas()
			if err != nil {
				return err
			}
			opt := probe.Options{
				MaxBytes: maxBytes,
				Encoding: a.cfg.Inputs.Encoding,
				Parser:   pcsv.Options{Comma: comma, DisableRecovery: a.cfg.Parser.DisableRecovery},
				Dispatch: dispatch,
				Picklist: picklist,
			}

			reports := make([]probe.Report, 0, len(paths))
			tables := make([]output.Table, 0, len(paths))
			for _, p := range paths {
				rep, err := probe.Probe(cmd.Context(), a.source(p), opt)
				if err != nil {
					return err
				}
				reports = append(reports, rep)
				tables = append(tables, probeTable(rep))
			}
			return a.render(cmd, output.Document{Tables: tables, Value: reports})
		},
	}
	cmd.Flags().IntVar(&maxBytes, "bytes", probe.DefaultMaxBytes, "bytes to sample from each file, -1 for all")
	return cmd
}

func probeTable(rep probe.Report) output.Table {
	t := output.Table{
		Title:   fmt.Sprintf("%s (%s, delimiter %q, %d row(s))", rep.Source, rep.Encoding, rep.Delimiter, rep.Rows),
		Headers: []string{"#", "Header", "Normalized", "Type"},
	}
	for _, c := range rep.Columns {
		t.Rows = append(t.Rows, []string{fmt.Sprint(c.Index), c.Name, c.Normalized, c.Type})
	}

	notes := []string{"looks like: " + rep.Guess}
	for _, m := range rep.Matches {
		notes = append(notes, m.Table+": "+m.Columns)
	}
	if rep.Recovered {
		notes = append(notes, "quoting recovery applied")
	}
	if rep.Truncated {
		notes = append(notes, fmt.Sprintf("sampled first %d bytes", rep.Bytes))
	}
	notes = append(notes, "fingerprint "+rep.Fingerprint)
	t.Footer = strings.Join(notes, "\n")
	return t
}

package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"cartaudit/internal/header"
	"cartaudit/internal/logging"
	"cartaudit/internal/wave"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is printed but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "waves.size",
// "columns.picklist.bags.fallback").
type Issue struct {
	Severity IssueSeverity `json:"severity" yaml:"severity"`
	Path     string        `json:"path" yaml:"path"`
	Message  string        `json:"message" yaml:"message"`
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of cfg without touching the inputs.
// When requireInputs is false, missing input paths are not reported.
func Validate(cfg Config, requireInputs bool) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics",
		})
	}
	issues = append(issues, validateInputs(cfg.Inputs, requireInputs)...)
	issues = append(issues, validateParser(cfg.Parser)...)
	issues = append(issues, validateWaves(cfg.Waves)...)
	issues = append(issues, validateColumns("dispatch", header.Dispatch, cfg.Columns.Dispatch)...)
	issues = append(issues, validateColumns("picklist", header.Picklist, cfg.Columns.Picklist)...)
	issues = append(issues, validateExport(cfg.Export)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	issues = append(issues, validateLog(cfg.Log)...)
	return issues
}

func validateInputs(in Inputs, required bool) []Issue {
	var issues []Issue
	if required {
		for path, v := range map[string]string{"inputs.dispatch": in.Dispatch, "inputs.picklist": in.Picklist} {
			if strings.TrimSpace(v) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path,
					Message:  "input path must not be empty",
				})
			}
		}
		sort.Slice(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	}
	if in.Dispatch == "-" && in.Picklist == "-" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "inputs",
			Message:  "only one input can be read from stdin",
		})
	}

	enc := strings.ToLower(strings.TrimSpace(in.Encoding))
	if enc != "" && enc != "auto" {
		if _, err := htmlindex.Get(enc); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "inputs.encoding",
				Message:  fmt.Sprintf("unknown encoding %q", in.Encoding),
			})
		}
	}
	return issues
}

func validateParser(p Parser) []Issue {
	if _, err := p.Comma(); err != nil {
		return []Issue{{
			Severity: SeverityError,
			Path:     "parser.delimiter",
			Message:  err.Error() + "; use auto, a single character, tab, comma or semicolon",
		}}
	}
	return nil
}

func validateWaves(w Waves) []Issue {
	switch {
	case w.Size < 1:
		return []Issue{{
			Severity: SeverityError,
			Path:     "waves.size",
			Message:  "waves.size must be >= 1",
		}}
	case w.Size != wave.DefaultSize:
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "waves.size",
			Message:  fmt.Sprintf("waves.size=%d differs from the %d-row print layout", w.Size, wave.DefaultSize),
		}}
	}
	return nil
}

func validateColumns(table string, s header.Schema, overrides map[string]ColumnOverride) []Issue {
	var issues []Issue
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		o := overrides[key]
		path := fmt.Sprintf("columns.%s.%s", table, key)
		if _, ok := s.Field(key); !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("unknown %s field %q", table, key),
			})
			continue
		}
		for i, v := range o.Variants {
			if header.NormalizeName(v) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("%s.variants[%d]", path, i),
					Message:  "header variant is empty after normalization",
				})
			}
		}
		if o.Fallback != nil && *o.Fallback < header.NoFallback {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".fallback",
				Message:  "fallback must be a column index or -1",
			})
		}
		if o.Fallback != nil && *o.Fallback == header.NoFallback {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".fallback",
				Message:  "no fallback; exports without a matching header will fail",
			})
		}
	}
	return issues
}

func validateExport(e Export) []Issue {
	var issues []Issue
	if strings.TrimSpace(e.Dir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "export.dir",
			Message:  "export.dir is empty; files go to the working directory",
		})
	}
	if len(e.Formats) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "export.formats",
			Message:  "no export formats configured; export writes nothing",
		})
	}
	for i, f := range e.Formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "csv", "xlsx":
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("export.formats[%d]", i),
				Message:  fmt.Sprintf("unknown export format %q; want csv or xlsx", f),
			})
		}
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	if m.Textfile != "" && filepath.Ext(m.Textfile) != ".prom" {
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "metrics.textfile",
			Message:  "node_exporter only collects files ending in .prom",
		}}
	}
	return nil
}

func validateLog(l logging.Config) []Issue {
	var issues []Issue
	if _, err := logging.ParseLevel(l.Level); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.level",
			Message:  err.Error(),
		})
	}
	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "", "auto", "console", "pretty", "json":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q; want auto, console or json", l.Format),
		})
	}
	return issues
}

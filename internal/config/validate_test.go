package config

import (
	"strings"
	"testing"

	"cartaudit/internal/header"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validConfig() Config {
	cfg := Default()
	cfg.Inputs.Dispatch = "PickOrder.csv"
	cfg.Inputs.Picklist = "SCCPick.csv"
	return cfg
}

func TestValidate_ValidMinimal(t *testing.T) {
	t.Parallel()

	if issues := Validate(validConfig(), true); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidate_Issues(t *testing.T) {
	t.Parallel()

	bad := -2
	none := header.NoFallback

	cases := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"empty_job", func(c *Config) { c.Job = " " }, SeverityError, "job", "must not be empty"},
		{"missing_dispatch", func(c *Config) { c.Inputs.Dispatch = "" }, SeverityError, "inputs.dispatch", "must not be empty"},
		{"both_stdin", func(c *Config) { c.Inputs.Dispatch, c.Inputs.Picklist = "-", "-" }, SeverityError, "inputs", "stdin"},
		{"bad_encoding", func(c *Config) { c.Inputs.Encoding = "klingon" }, SeverityError, "inputs.encoding", "unknown encoding"},
		{"bad_delimiter", func(c *Config) { c.Parser.Delimiter = "::" }, SeverityError, "parser.delimiter", "invalid delimiter"},
		{"zero_wave_size", func(c *Config) { c.Waves.Size = 0 }, SeverityError, "waves.size", ">= 1"},
		{"odd_wave_size", func(c *Config) { c.Waves.Size = 40 }, SeverityWarning, "waves.size", "print layout"},
		{"unknown_field", func(c *Config) {
			c.Columns.Picklist = map[string]ColumnOverride{"weight": {}}
		}, SeverityError, "columns.picklist.weight", "unknown picklist field"},
		{"empty_variant", func(c *Config) {
			c.Columns.Dispatch = map[string]ColumnOverride{header.RouteCode: {Variants: []string{` "" `}}}
		}, SeverityError, "columns.dispatch.route_code.variants[0]", "empty"},
		{"bad_fallback", func(c *Config) {
			c.Columns.Picklist = map[string]ColumnOverride{header.Bags: {Fallback: &bad}}
		}, SeverityError, "columns.picklist.bags.fallback", "-1"},
		{"no_fallback", func(c *Config) {
			c.Columns.Picklist = map[string]ColumnOverride{header.OVs: {Fallback: &none}}
		}, SeverityWarning, "columns.picklist.ovs.fallback", "no fallback"},
		{"bad_format", func(c *Config) { c.Export.Formats = []string{"csv", "pdf"} }, SeverityError, "export.formats[1]", "pdf"},
		{"no_formats", func(c *Config) { c.Export.Formats = nil }, SeverityWarning, "export.formats", "writes nothing"},
		{"empty_dir", func(c *Config) { c.Export.Dir = "" }, SeverityWarning, "export.dir", "working directory"},
		{"textfile_ext", func(c *Config) { c.Metrics.Textfile = "audit.txt" }, SeverityWarning, "metrics.textfile", ".prom"},
		{"bad_level", func(c *Config) { c.Log.Level = "chatty" }, SeverityError, "log.level", "chatty"},
		{"bad_log_format", func(c *Config) { c.Log.Format = "xml" }, SeverityError, "log.format", "xml"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(&cfg)
			issues := Validate(cfg, true)
			if !hasIssue(t, issues, tc.sev, tc.path, tc.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tc.sev, tc.path, tc.msg, issues)
			}
			if got := HasErrors(issues); got != (tc.sev == SeverityError) {
				t.Fatalf("HasErrors=%v for %+v", got, issues)
			}
		})
	}
}

func TestValidate_InputsOptional(t *testing.T) {
	t.Parallel()

	if issues := Validate(Default(), false); HasErrors(issues) {
		t.Fatalf("default config without inputs should be valid: %+v", issues)
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "waves.size", Message: "waves.size must be >= 1"}
	if got, want := iss.Error(), "error at waves.size: waves.size must be >= 1"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

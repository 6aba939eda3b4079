package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartaudit/internal/header"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, Default().Job, cfg.Job)
	assert.Equal(t, 36, cfg.Waves.Size)
	assert.Equal(t, []string{"csv", "xlsx"}, cfg.Export.Formats)
	assert.Equal(t, "auto", cfg.Inputs.Encoding)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "audit.yaml", `
job: nightly
inputs:
  dispatch: exports/PickOrder.csv
  picklist: exports/SCCPick.csv
  encoding: windows-1250
waves:
  size: 24
columns:
  picklist:
    bags:
      variants: ["bags", "bag count"]
      fallback: 4
    ovs:
      fallback: -1
export:
  dir: out
  formats: [xlsx]
log:
  level: debug
`)
	t.Setenv("CARTAUDIT_WAVES_SIZE", "12")
	t.Setenv("CARTAUDIT_EXPORT_DIR", "elsewhere")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "nightly", cfg.Job)
	assert.Equal(t, "exports/PickOrder.csv", cfg.Inputs.Dispatch)
	assert.Equal(t, "windows-1250", cfg.Inputs.Encoding)
	assert.Equal(t, 12, cfg.Waves.Size, "environment wins over the file")
	assert.Equal(t, "elsewhere", cfg.Export.Dir)
	assert.Equal(t, []string{"xlsx"}, cfg.Export.Formats)
	assert.Equal(t, "debug", cfg.Log.Level)

	bags := cfg.Columns.Picklist["bags"]
	require.NotNil(t, bags.Fallback)
	assert.Equal(t, 4, *bags.Fallback)
	assert.Equal(t, []string{"bags", "bag count"}, bags.Variants)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSchemasApplyOverrides(t *testing.T) {
	t.Parallel()

	four, none := 4, header.NoFallback
	cfg := Default()
	cfg.Columns.Picklist = map[string]ColumnOverride{
		header.Bags: {Variants: []string{"bag count"}, Fallback: &four},
		header.OVs:  {Fallback: &none},
	}
	cfg.Columns.Dispatch = map[string]ColumnOverride{
		header.DispatchArea: {Variants: []string{"dock"}},
	}

	d, p, err := cfg.Schemas()
	require.NoError(t, err)

	bags, _ := p.Field(header.Bags)
	assert.Equal(t, header.Field{Key: header.Bags, Variants: []string{"bag count"}, Fallback: 4}, bags)
	ovs, _ := p.Field(header.OVs)
	assert.Equal(t, header.NoFallback, ovs.Fallback)
	assert.Equal(t, []string{"ovs", "ov"}, ovs.Variants)

	area, _ := d.Field(header.DispatchArea)
	assert.Equal(t, []string{"dock"}, area.Variants)
	assert.Equal(t, 3, area.Fallback)

	orig, _ := header.Picklist.Field(header.Bags)
	assert.Equal(t, 10, orig.Fallback, "defaults must not change")
}

func TestSchemasRejectUnknownField(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Columns.Dispatch = map[string]ColumnOverride{"weight": {Variants: []string{"kg"}}}
	_, _, err := cfg.Schemas()
	assert.ErrorContains(t, err, "columns.dispatch.weight")
}

func TestParserComma(t *testing.T) {
	t.Parallel()

	cases := map[string]rune{"": 0, "auto": 0, "tab": '\t', `\t`: '\t', ";": ';', "semicolon": ';', "|": '|', "comma": ','}
	for in, want := range cases {
		got, err := Parser{Delimiter: in}.Comma()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{`"`, ";;", "\n"} {
		_, err := Parser{Delimiter: bad}.Comma()
		assert.Error(t, err, bad)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "CARTAUDIT_TEST_A=from-env\nCARTAUDIT_TEST_B=from-env\n")
	writeFile(t, dir, ".env.local", "CARTAUDIT_TEST_A=from-local\n")
	t.Setenv("CARTAUDIT_TEST_A", "")
	t.Setenv("CARTAUDIT_TEST_B", "")
	os.Unsetenv("CARTAUDIT_TEST_A")
	os.Unsetenv("CARTAUDIT_TEST_B")

	loaded := LoadDotenv(dir)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "from-local", os.Getenv("CARTAUDIT_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("CARTAUDIT_TEST_B"))
}

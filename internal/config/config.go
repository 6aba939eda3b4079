// Package config defines the cart-audit configuration model and loads it
// from a YAML file, CARTAUDIT_* environment variables and command flags.
//
// Example (configs/cartaudit.yaml, trimmed):
//
//	job: nightly
//	inputs:
//	  dispatch: exports/PickOrder.csv
//	  picklist: exports/SCCPick.csv
//	waves:
//	  size: 36
//	columns:
//	  picklist:
//	    bags: { variants: ["bags", "bag count"], fallback: 10 }
//	export:
//	  dir: out
//	  formats: [csv, xlsx]
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"cartaudit/internal/header"
	"cartaudit/internal/logging"
	"cartaudit/internal/wave"
)

// EnvPrefix prefixes every environment override, e.g. CARTAUDIT_WAVES_SIZE.
const EnvPrefix = "CARTAUDIT"

// Config is the top-level configuration of an audit run.
type Config struct {
	// Job labels log lines and metrics of the run.
	Job string `mapstructure:"job" yaml:"job"`

	Inputs  Inputs         `mapstructure:"inputs" yaml:"inputs"`
	Parser  Parser         `mapstructure:"parser" yaml:"parser"`
	Waves   Waves          `mapstructure:"waves" yaml:"waves"`
	Columns Columns        `mapstructure:"columns" yaml:"columns"`
	Export  Export         `mapstructure:"export" yaml:"export"`
	Metrics Metrics        `mapstructure:"metrics" yaml:"metrics"`
	Log     logging.Config `mapstructure:"log" yaml:"log"`
}

// Inputs names the two exports. "-" reads standard input.
type Inputs struct {
	Dispatch string `mapstructure:"dispatch" yaml:"dispatch"`
	Picklist string `mapstructure:"picklist" yaml:"picklist"`

	// Encoding is an encoding label or "auto".
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
}

// Parser tunes CSV parsing.
type Parser struct {
	// Delimiter forces a delimiter instead of sniffing line 1. Empty or
	// "auto" sniffs; "tab" and `\t` mean a tab.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`

	// DisableRecovery turns off the re-parse of over-dequoted exports.
	DisableRecovery bool `mapstructure:"disable_recovery" yaml:"disable_recovery"`
}

// Waves configures partitioning.
type Waves struct {
	Size int `mapstructure:"size" yaml:"size"`
}

// ColumnOverride replaces the accepted header names and/or the fallback
// position of one field. A nil Fallback keeps the default; -1 disables it.
type ColumnOverride struct {
	Variants []string `mapstructure:"variants" yaml:"variants"`
	Fallback *int     `mapstructure:"fallback" yaml:"fallback"`
}

// Columns holds per-table overrides keyed by field (route_code, bags, ...).
type Columns struct {
	Dispatch map[string]ColumnOverride `mapstructure:"dispatch" yaml:"dispatch"`
	Picklist map[string]ColumnOverride `mapstructure:"picklist" yaml:"picklist"`
}

// Export configures the export command.
type Export struct {
	Dir     string   `mapstructure:"dir" yaml:"dir"`
	Formats []string `mapstructure:"formats" yaml:"formats"`
}

// Metrics configures the optional node_exporter textfile.
type Metrics struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Job:     "cartaudit",
		Inputs:  Inputs{Encoding: "auto"},
		Parser:  Parser{Delimiter: "auto"},
		Waves:   Waves{Size: wave.DefaultSize},
		Export:  Export{Dir: ".", Formats: []string{"csv", "xlsx"}},
		Log:     logging.DefaultConfig(),
		Columns: Columns{},
	}
}

// SetDefaults registers Default() with v so every key can be overridden
// from the environment.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("job", d.Job)
	v.SetDefault("inputs.dispatch", d.Inputs.Dispatch)
	v.SetDefault("inputs.picklist", d.Inputs.Picklist)
	v.SetDefault("inputs.encoding", d.Inputs.Encoding)
	v.SetDefault("parser.delimiter", d.Parser.Delimiter)
	v.SetDefault("parser.disable_recovery", d.Parser.DisableRecovery)
	v.SetDefault("waves.size", d.Waves.Size)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.formats", d.Export.Formats)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.no_color", d.Log.NoColor)
}

// Load reads the configuration into v and decodes it. With an empty path,
// cartaudit.yaml is searched in the working directory and ./configs, and a
// missing file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cartaudit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// LoadDotenv loads .env.local and then .env into the process environment.
// Variables already set win, so .env.local overrides .env. It returns the
// files that were found.
func LoadDotenv(dir string) []string {
	var loaded []string
	for _, name := range []string{".env.local", ".env"} {
		p := filepath.Join(dir, name)
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	return loaded
}

// Comma returns the forced delimiter, or 0 to sniff.
func (p Parser) Comma() (rune, error) {
	switch d := strings.ToLower(p.Delimiter); d {
	case "", "auto":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	case "semicolon":
		return ';', nil
	case "comma":
		return ',', nil
	default:
		r := []rune(p.Delimiter)
		if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
			return 0, fmt.Errorf("invalid delimiter %q", p.Delimiter)
		}
		return r[0], nil
	}
}

// Schemas returns the dispatch and picklist header schemas with the
// configured overrides applied to the defaults.
func (c Config) Schemas() (dispatch, picklist header.Schema, err error) {
	dispatch, err = applyOverrides(header.Dispatch, c.Columns.Dispatch)
	if err != nil {
		return header.Schema{}, header.Schema{}, err
	}
	picklist, err = applyOverrides(header.Picklist, c.Columns.Picklist)
	if err != nil {
		return header.Schema{}, header.Schema{}, err
	}
	return dispatch, picklist, nil
}

func applyOverrides(s header.Schema, overrides map[string]ColumnOverride) (header.Schema, error) {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		o := overrides[key]
		f, ok := s.Field(key)
		if !ok {
			return header.Schema{}, fmt.Errorf("columns.%s.%s: unknown field", s.Table, key)
		}
		if len(o.Variants) > 0 {
			f.Variants = append([]string(nil), o.Variants...)
		}
		if o.Fallback != nil {
			if *o.Fallback < header.NoFallback {
				return header.Schema{}, fmt.Errorf("columns.%s.%s.fallback: must be >= -1", s.Table, key)
			}
			f.Fallback = *o.Fallback
		}
		s = s.With(f)
	}
	return s, nil
}

// Package cmd implements the cartaudit command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"cartaudit/internal/config"
	"cartaudit/internal/datasource"
	"cartaudit/internal/datasource/file"
	"cartaudit/internal/logging"
	"cartaudit/internal/metrics"
	"cartaudit/internal/metrics/promfile"
	"cartaudit/internal/output"
	pcsv "cartaudit/internal/parser/csv"
	"cartaudit/internal/pipeline"
)

// BuildInfo is the version information set by main.
type BuildInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

// app is the state shared by the commands of one invocation.
type app struct {
	info       BuildInfo
	v          *viper.Viper
	configFile string
	output     string

	cfg    config.Config
	log    zerolog.Logger
	closer io.Closer
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"job":              "job",
	"dispatch":         "inputs.dispatch",
	"picklist":         "inputs.picklist",
	"encoding":         "inputs.encoding",
	"delimiter":        "parser.delimiter",
	"no-recovery":      "parser.disable_recovery",
	"wave-size":        "waves.size",
	"metrics-textfile": "metrics.textfile",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"log-output":       "log.output",
}

// Execute runs the command line and returns the process exit code.
func Execute(info BuildInfo) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := NewRootCommand(info)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree. Every call returns an independent
// tree with its own viper instance.
func NewRootCommand(info BuildInfo) *cobra.Command {
	a := &app{info: info, v: viper.New()}

	root := &cobra.Command{
		Use:   "cartaudit",
		Short: "Reconcile dispatch and picklist exports into loading waves",
		Long: `cartaudit reads the dispatch ("pick order") and picklist exports of a
warehouse shift, totals carts, bags and over-volume units per route, joins
them onto the dispatch rows and slices the result into waves of 36 rows.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	root.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "management", Title: "Management Commands:"},
	)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default is ./cartaudit.yaml or ./configs/cartaudit.yaml)")
	pf.StringVarP(&a.output, "output", "o", "", "output format: table, json or yaml (default: table on a terminal, json otherwise)")
	pf.String("job", "", "job name attached to logs and metrics")
	pf.StringP("dispatch", "d", "", `dispatch export path, "-" for stdin`)
	pf.StringP("picklist", "p", "", `picklist export path, "-" for stdin`)
	pf.String("encoding", "", `input encoding label, or "auto"`)
	pf.String("delimiter", "", `force the CSV delimiter ("auto", "tab", ";" or ",")`)
	pf.Bool("no-recovery", false, "disable the re-parse of over-dequoted exports")
	pf.Int("wave-size", 0, "rows per wave")
	pf.String("metrics-textfile", "", "write run metrics to this node_exporter .prom file")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: auto, console or json")
	pf.String("log-output", "", "log output: stderr, stdout, discard or a file path")

	for name, key := range flagKeys {
		if err := a.v.BindPFlag(key, pf.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind %s flag: %v", name, err))
		}
	}

	root.AddCommand(
		newSummarizeCommand(a),
		newWavesCommand(a),
		newExportCommand(a),
		newProbeCommand(a),
		newValidateCommand(a),
		newVersionCommand(a),
	)
	return root
}

// setup loads .env files and the configuration, then installs the logger
// and the metrics backend.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	config.LoadDotenv(".")

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	// LOG_* variables override the config file; explicit flags override both.
	logCfg := logging.FromEnv(cfg.Log)
	flagOverride(cmd.Flags(), "log-level", &logCfg.Level)
	flagOverride(cmd.Flags(), "log-format", &logCfg.Format)
	flagOverride(cmd.Flags(), "log-output", &logCfg.Output)

	logger, closer, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	a.log, a.closer = logger, closer
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), &a.log))

	if path := cfg.Metrics.Textfile; path != "" {
		b, err := promfile.NewBackend(cfg.Job, path)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		metrics.SetBackend(b)
	}

	if a.output != "" {
		if _, err := output.ParseFormat(a.output); err != nil {
			return err
		}
	}
	return nil
}

func flagOverride(fs *pflag.FlagSet, name string, dst *string) {
	if f := fs.Lookup(name); f != nil && f.Changed {
		*dst = f.Value.String()
	}
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	var errs []error
	if a.cfg.Metrics.Textfile != "" {
		if err := metrics.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush metrics: %w", err))
		}
	}
	if a.closer != nil {
		errs = append(errs, a.closer.Close())
	}
	return errors.Join(errs...)
}

// checkConfig logs warnings and fails on errors.
func (a *app) checkConfig(requireInputs bool) error {
	issues := config.Validate(a.cfg, requireInputs)
	for _, iss := range issues {
		if iss.Severity == config.SeverityWarning {
			a.log.Warn().Str("path", iss.Path).Msg(iss.Message)
		}
	}
	for _, iss := range issues {
		if iss.Severity == config.SeverityError {
			return fmt.Errorf("invalid configuration: %w", iss)
		}
	}
	return nil
}

func (a *app) pipeline() (*pipeline.Pipeline, error) {
	comma, err := a.cfg.Parser.Comma()
	if err != nil {
		return nil, err
	}
	dispatch, picklist, err := a.cfg.Schemas()
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Options{
		Job:      a.cfg.Job,
		Dispatch: dispatch,
		Picklist: picklist,
		WaveSize: a.cfg.Waves.Size,
		Parser:   pcsv.Options{Comma: comma, DisableRecovery: a.cfg.Parser.DisableRecovery},
		Encoding: a.cfg.Inputs.Encoding,
	}), nil
}

// build loads both inputs and builds the waves.
func (a *app) build(ctx context.Context) (pipeline.State, error) {
	if err := a.checkConfig(true); err != nil {
		return pipeline.State{}, err
	}
	p, err := a.pipeline()
	if err != nil {
		return pipeline.State{}, err
	}
	return p.Run(ctx, a.source(a.cfg.Inputs.Dispatch), a.source(a.cfg.Inputs.Picklist))
}

func (a *app) source(path string) datasource.Source {
	return file.NewLocal(path)
}

func (a *app) render(cmd *cobra.Command, data any) error {
	return output.NewFormatter(output.DetectFormat(a.output)).Format(cmd.OutOrStdout(), data)
}

// Package logging configures the zerolog logger used across cartaudit and
// carries it through context.Context.
//
//	log, closer, err := logging.New(cfg)
//	ctx := logging.WithLogger(ctx, &log)
//	logging.FromContext(ctx).Info().Str("table", "dispatch").Msg("loaded")
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error, disabled.
	Level string `mapstructure:"level" yaml:"level"`

	// Format is auto, console or json. Auto picks console on a terminal.
	Format string `mapstructure:"format" yaml:"format"`

	// Output is stderr, stdout, discard, or a file path (appended to).
	Output string `mapstructure:"output" yaml:"output"`

	// NoColor disables color in console mode.
	NoColor bool `mapstructure:"no_color" yaml:"no_color"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "auto",
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// FromEnv overlays LOG_LEVEL, LOG_FORMAT and LOG_OUTPUT onto cfg.
func FromEnv(cfg Config) Config {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.Output = v
	}
	return cfg
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger from cfg. The returned closer releases the log file
// when Output names one.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
		tty    bool
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "", "stderr":
		out, tty = os.Stderr, isatty.IsTerminal(os.Stderr.Fd())
	case "stdout":
		out, tty = os.Stdout, isatty.IsTerminal(os.Stdout.Fd())
	case "discard", "none":
		out = io.Discard
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log output: %w", err)
		}
		out, closer = f, f
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "auto":
		if tty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: cfg.NoColor}
		}
	case "console", "pretty":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: cfg.NoColor || !tty}
	case "json":
	default:
		return zerolog.Nop(), closer, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger, closer, nil
}

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	case "none", "off":
		return zerolog.Disabled, nil
	}
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()
)

// Default returns the process-wide fallback logger.
func Default() *zerolog.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	l := defaultLogger
	return &l
}

// SetDefault replaces the process-wide fallback logger.
func SetDefault(l zerolog.Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

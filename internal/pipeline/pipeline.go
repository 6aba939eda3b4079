// Package pipeline runs the cart audit: load both exports, aggregate the
// picklist by route, reconcile it onto the dispatch order and cut waves.
//
// Every step takes a State and returns a new one. A failed step returns the
// State it was given together with the error, so earlier results survive.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"cartaudit/internal/aggregate"
	"cartaudit/internal/datasource"
	"cartaudit/internal/header"
	"cartaudit/internal/logging"
	"cartaudit/internal/metrics"
	pcsv "cartaudit/internal/parser/csv"
	"cartaudit/internal/wave"
)

// Options configures a Pipeline. Zero values select the defaults.
type Options struct {
	// Job labels logs and metrics.
	Job string

	Dispatch header.Schema
	Picklist header.Schema

	// WaveSize is the number of rows per wave.
	WaveSize int

	// Parser tunes CSV parsing of both tables.
	Parser pcsv.Options

	// Encoding is an encoding label or datasource.Auto.
	Encoding string
}

// Pipeline holds the configuration of an audit. It carries no table state
// and is safe for concurrent use.
type Pipeline struct {
	opt    Options
	parser *pcsv.Parser
}

// New returns a Pipeline for opt.
func New(opt Options) *Pipeline {
	if opt.Job == "" {
		opt.Job = "cartaudit"
	}
	if opt.Dispatch.Table == "" {
		opt.Dispatch = header.Dispatch
	}
	if opt.Picklist.Table == "" {
		opt.Picklist = header.Picklist
	}
	if opt.WaveSize < 1 {
		opt.WaveSize = wave.DefaultSize
	}
	if opt.Encoding == "" {
		opt.Encoding = datasource.Auto
	}
	return &Pipeline{opt: opt, parser: pcsv.NewParser(opt.Parser)}
}

func (p *Pipeline) logger(ctx context.Context, table, stage string) zerolog.Logger {
	return logging.FromContext(ctx).With().
		Str("job", p.opt.Job).
		Str("table", table).
		Str("stage", stage).
		Logger()
}

// Run loads both exports, processes the picklist and builds the waves.
func (p *Pipeline) Run(ctx context.Context, dispatch, picklist datasource.Source) (State, error) {
	s, err := p.LoadBoth(ctx, State{}, dispatch, picklist)
	if err != nil {
		return s, err
	}
	return p.EnsureBuilt(ctx, s)
}

// LoadBoth reads both exports concurrently. The tables are assigned only
// when both reads succeed.
func (p *Pipeline) LoadBoth(ctx context.Context, s State, dispatch, picklist datasource.Source) (State, error) {
	var dt, pt datasource.Text
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		dt, err = p.read(gctx, p.opt.Dispatch.Table, dispatch)
		return err
	})
	g.Go(func() (err error) {
		pt, err = p.read(gctx, p.opt.Picklist.Table, picklist)
		return err
	})
	if err := g.Wait(); err != nil {
		return s, err
	}
	s = p.assignDispatch(ctx, s, dt)
	return p.assignPicklist(ctx, s, pt), nil
}

// LoadPicklist reads the picklist export into s.
func (p *Pipeline) LoadPicklist(ctx context.Context, s State, src datasource.Source) (State, error) {
	t, err := p.read(ctx, p.opt.Picklist.Table, src)
	if err != nil {
		return s, err
	}
	return p.assignPicklist(ctx, s, t), nil
}

func (p *Pipeline) read(ctx context.Context, table string, src datasource.Source) (datasource.Text, error) {
	start := time.Now()
	t, err := datasource.ReadText(ctx, src, p.opt.Encoding)
	metrics.RecordStep(p.opt.Job, "load_"+table, err, time.Since(start))
	if err != nil {
		return datasource.Text{}, fmt.Errorf("load %s: %w", table, err)
	}
	if t.Encoding != "utf-8" {
		log := p.logger(ctx, table, "load")
		log.Info().Str("source", t.Source).Str("encoding", t.Encoding).Msg("decoded non-UTF-8 export")
	}
	return t, nil
}

func (p *Pipeline) parse(ctx context.Context, table string, t datasource.Text) pcsv.Table {
	tbl := p.parser.ParseString(t.Content)
	log := p.logger(ctx, table, "load")

	if tbl.Recovered {
		log.Info().Msg("header collapsed to one cell after dequoting; re-parsed original text")
	}
	ev := log.Info()
	if tbl.Len() == 0 {
		ev = log.Warn()
	}
	ev.Str("source", t.Source).
		Int("bytes", t.Bytes).
		Int("data_rows", tbl.Len()).
		Int("columns", tbl.Columns()).
		Str("delimiter", pcsv.DelimiterName(tbl.Delimiter)).
		Str("fingerprint", fmt.Sprintf("%016x", tbl.Fingerprint)).
		Msg("table loaded")

	metrics.RecordRow(p.opt.Job, table+"_loaded", int64(tbl.Len()))
	return tbl
}

func (p *Pipeline) assignDispatch(ctx context.Context, s State, t datasource.Text) State {
	s.Dispatch = p.parse(ctx, p.opt.Dispatch.Table, t)
	s.Waves, s.Digest = nil, 0
	return s
}

func (p *Pipeline) assignPicklist(ctx context.Context, s State, t datasource.Text) State {
	s.Picklist = p.parse(ctx, p.opt.Picklist.Table, t)
	p.checkPicklistHeader(ctx, s.Picklist.Header())
	s.Summary = nil
	s.Waves, s.Digest = nil, 0
	return s
}

// canonicalPicklist is the header layout the picklist export is known to
// carry.
var canonicalPicklist = []struct {
	index int
	name  string
}{
	{0, "Route Code"},
	{1, "Picklist Code"},
	{10, "Bags"},
	{11, "OVs"},
}

func (p *Pipeline) checkPicklistHeader(ctx context.Context, hdr []string) {
	for _, c := range canonicalPicklist {
		if c.index >= len(hdr) || hdr[c.index] != c.name {
			shown := hdr
			if len(shown) > 16 {
				shown = shown[:16]
			}
			log := p.logger(ctx, p.opt.Picklist.Table, "load")
			log.Warn().
				Str("got", strings.Join(shown, " | ")).
				Str("expected", "Route Code(0) Picklist Code(1) Bags(10) OVs(11)").
				Msg("picklist header differs from the usual export layout; columns are resolved by name")
			return
		}
	}
}

// Process aggregates the picklist into route summaries.
func (p *Pipeline) Process(ctx context.Context, s State) (State, error) {
	table := p.opt.Picklist.Table
	log := p.logger(ctx, table, "aggregate")
	start := time.Now()

	if s.Picklist.Len() == 0 {
		err := &TableError{Table: table, Rows: len(s.Picklist.Rows)}
		metrics.RecordStep(p.opt.Job, "aggregate", err, time.Since(start))
		log.Error().Err(err).Msg("load the picklist export first")
		return s, err
	}

	res, err := aggregate.Summarize(s.Picklist, p.opt.Picklist)
	metrics.RecordStep(p.opt.Job, "aggregate", err, time.Since(start))
	if err != nil {
		log.Error().Err(err).Msg("aggregation aborted")
		return s, err
	}

	warnFallback(log, res.Resolution)
	log.Info().Str("columns", res.Resolution.Describe(p.opt.Picklist)).Msg("resolved columns")
	if res.Skipped > 0 {
		log.Warn().Int("rows", res.Skipped).Msg("skipped rows without a picklist code column")
		metrics.RecordRow(p.opt.Job, "picklist_skipped", int64(res.Skipped))
	}
	log.Info().Int("routes", res.Len()).Msg("picklist processed")

	s.Summary = &res
	s.Waves, s.Digest = nil, 0
	return s, nil
}

// Build reconciles the dispatch table with the route summaries and cuts
// the result into waves.
func (p *Pipeline) Build(ctx context.Context, s State) (State, error) {
	table := p.opt.Dispatch.Table
	log := p.logger(ctx, table, "reconcile")
	start := time.Now()

	var err error
	switch {
	case s.Dispatch.Len() == 0:
		err = &TableError{Table: table, Rows: len(s.Dispatch.Rows)}
	case s.Summary == nil:
		err = ErrNotProcessed
	case s.Summary.Len() == 0:
		err = fmt.Errorf("%w: no routes in picklist", ErrNotProcessed)
	}
	if err != nil {
		metrics.RecordStep(p.opt.Job, "reconcile", err, time.Since(start))
		log.Error().Err(err).Msg("cannot build waves")
		return s, err
	}

	rows, res, err := wave.Reconcile(s.Dispatch, p.opt.Dispatch, *s.Summary)
	metrics.RecordStep(p.opt.Job, "reconcile", err, time.Since(start))
	if err != nil {
		log.Error().Err(err).Msg("reconciliation aborted")
		return s, err
	}
	warnFallback(log, res)

	s.Waves = wave.Partition(rows, p.opt.WaveSize)
	s.Digest = wave.Digest(s.Waves)

	dropped := s.Dispatch.Len() - len(rows)
	metrics.RecordRow(p.opt.Job, "reconciled", int64(len(rows)))
	metrics.RecordRow(p.opt.Job, "dispatch_dropped", int64(dropped))
	metrics.RecordWaves(p.opt.Job, int64(len(s.Waves)))
	log.Info().
		Int("waves", len(s.Waves)).
		Int("rows", len(rows)).
		Int("dropped", dropped).
		Str("digest", fmt.Sprintf("%016x", s.Digest)).
		Msg("waves built")
	return s, nil
}

// EnsureBuilt returns s with waves, processing and building as needed.
func (p *Pipeline) EnsureBuilt(ctx context.Context, s State) (State, error) {
	if s.Built() {
		return s, nil
	}
	var err error
	if !s.Processed() {
		if s, err = p.Process(ctx, s); err != nil {
			return s, err
		}
	}
	return p.Build(ctx, s)
}

func warnFallback(log zerolog.Logger, res header.Resolution) {
	for _, key := range res.Fallback {
		i, _ := res.Lookup(key)
		log.Warn().Str("field", key).Int("column", i).Msg("header not found; using fallback column")
	}
}

// Package probe samples an export and reports how cartaudit would read it:
// encoding, delimiter, header resolution against both table schemas and a
// per-column type guess. It is the first thing to run on an export from a
// new system version.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"cartaudit/internal/datasource"
	"cartaudit/internal/header"
	pcsv "cartaudit/internal/parser/csv"
)

// DefaultMaxBytes is the sample size used when Options.MaxBytes is zero.
const DefaultMaxBytes = 20000

// Table guesses.
const (
	Dispatch = "dispatch"
	Picklist = "picklist"
	Unknown  = "unknown"
)

// Options control sampling.
type Options struct {
	// MaxBytes to sample from the start of the source. Zero means
	// DefaultMaxBytes; a negative value reads everything.
	MaxBytes int

	// Encoding is an encoding label or datasource.Auto.
	Encoding string

	Parser pcsv.Options

	// Dispatch and Picklist are the schemas to resolve against. Zero values
	// select header.Dispatch and header.Picklist.
	Dispatch header.Schema
	Picklist header.Schema
}

// Match is the resolution of one schema against the sampled header.
type Match struct {
	Table    string   `json:"table" yaml:"table"`
	ByName   int      `json:"by_name" yaml:"by_name"`
	Fallback []string `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	Missing  []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	Columns  string   `json:"columns" yaml:"columns"`
}

// Column is one sampled header cell.
type Column struct {
	Index      int    `json:"index" yaml:"index"`
	Name       string `json:"name" yaml:"name"`
	Normalized string `json:"normalized" yaml:"normalized"`
	Type       string `json:"type" yaml:"type"`
}

// Report is the outcome of Probe.
type Report struct {
	Source      string   `json:"source" yaml:"source"`
	Encoding    string   `json:"encoding" yaml:"encoding"`
	Bytes       int      `json:"bytes" yaml:"bytes"`
	Truncated   bool     `json:"truncated" yaml:"truncated"`
	Delimiter   string   `json:"delimiter" yaml:"delimiter"`
	Recovered   bool     `json:"recovered" yaml:"recovered"`
	// Fingerprint equals the one logged when the pipeline loads the same
	// file, provided the whole file was sampled.
	Fingerprint string   `json:"fingerprint" yaml:"fingerprint"`
	Rows        int      `json:"rows" yaml:"rows"`
	Columns     []Column `json:"columns" yaml:"columns"`
	Guess       string   `json:"guess" yaml:"guess"`
	Matches     []Match  `json:"matches" yaml:"matches"`
}

// Probe samples src and reports how it parses.
//
// When the sample is cut at MaxBytes the partial last line is dropped so a
// truncated row does not skew the type guess.
func Probe(ctx context.Context, src datasource.Source, opt Options) (Report, error) {
	if opt.MaxBytes == 0 {
		opt.MaxBytes = DefaultMaxBytes
	}
	if opt.Dispatch.Table == "" {
		opt.Dispatch = header.Dispatch
	}
	if opt.Picklist.Table == "" {
		opt.Picklist = header.Picklist
	}

	name := datasource.NameOf(src)
	sample, truncated, err := peek(ctx, src, opt.MaxBytes)
	if err != nil {
		return Report{}, fmt.Errorf("probe %s: %w", name, err)
	}
	if truncated {
		sample = cutLine(sample, opt.Encoding)
	}

	text, enc, err := datasource.Decode(sample, opt.Encoding)
	if err != nil {
		return Report{}, fmt.Errorf("probe %s: %w", name, err)
	}
	t := pcsv.NewParser(opt.Parser).ParseString(text)

	rep := Report{
		Source:      name,
		Encoding:    enc,
		Bytes:       len(sample),
		Truncated:   truncated,
		Delimiter:   pcsv.DelimiterName(t.Delimiter),
		Recovered:   t.Recovered,
		Rows:        t.Len(),
		Fingerprint: fmt.Sprintf("%016x", t.Fingerprint),
	}

	hdr := t.Header()
	types := inferTypes(len(hdr), t.Data())
	for i, h := range hdr {
		rep.Columns = append(rep.Columns, Column{
			Index:      i,
			Name:       h,
			Normalized: header.NormalizeName(h),
			Type:       types[i],
		})
	}

	rep.Matches = []Match{match(hdr, opt.Dispatch), match(hdr, opt.Picklist)}
	rep.Guess = guess(rep.Matches)
	return rep, nil
}

func match(hdr []string, s header.Schema) Match {
	res := header.Resolve(hdr, s)
	return Match{
		Table:    s.Table,
		ByName:   len(res.Index) - len(res.Fallback),
		Fallback: res.Fallback,
		Missing:  res.Missing,
		Columns:  res.Describe(s),
	}
}

// guess picks the table whose fields matched by name most completely.
// Without any name match, or on a tie, the guess is Unknown.
func guess(ms []Match) string {
	best, score, tie := Unknown, 0.0, false
	for _, m := range ms {
		total := m.ByName + len(m.Fallback) + len(m.Missing)
		if m.ByName == 0 || total == 0 {
			continue
		}
		s := float64(m.ByName) / float64(total)
		switch {
		case s > score:
			best, score, tie = m.Table, s, false
		case s == score:
			tie = true
		}
	}
	if tie {
		return Unknown
	}
	return best
}

// peek reads at most n bytes of src (all of it when n < 0) and reports
// whether more was available.
func peek(ctx context.Context, src datasource.Source, n int) ([]byte, bool, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, false, err
	}
	defer rc.Close()

	if n < 0 {
		b, err := io.ReadAll(rc)
		return b, false, err
	}

	b, err := io.ReadAll(io.LimitReader(rc, int64(n)+1))
	if err != nil {
		return nil, false, err
	}
	if len(b) <= n {
		return b, false, nil
	}
	return b[:n], true, nil
}

var (
	utf16LE = []byte{0xFF, 0xFE}
	utf16BE = []byte{0xFE, 0xFF}
)

// cutLine drops the partial last line of a truncated sample. UTF-16 samples
// are cut after a whole two-byte newline on an even offset.
func cutLine(b []byte, enc string) []byte {
	var nl []byte
	enc = strings.ToLower(strings.TrimSpace(enc))
	switch {
	case bytes.HasPrefix(b, utf16LE), enc == "utf-16le", enc == "utf-16":
		nl = []byte{'\n', 0}
	case bytes.HasPrefix(b, utf16BE), enc == "utf-16be":
		nl = []byte{0, '\n'}
	default:
		if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
			return b[:i+1]
		}
		return b
	}

	end := len(b) &^ 1
	for end > 0 {
		i := bytes.LastIndex(b[:end], nl)
		if i < 0 {
			break
		}
		if i%2 == 0 {
			return b[:i+2]
		}
		end = i + 1
	}
	return b[:len(b)&^1]
}

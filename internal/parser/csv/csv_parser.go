// Package csv implements the tolerant CSV reader used for warehouse exports.
//
// The exports come out of several versions of a pick/dispatch system and are
// frequently malformed: whole lines wrapped in quotes, a BOM on the first
// line, semicolon or tab delimiters, quoted cells with embedded newlines.
// encoding/csv rejects most of these, so this package scans the text itself
// and recovers what it can instead of failing the file.
package csv

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
)

// ErrNoData is returned by Table.RequireData when a table has a header but no
// data rows (or no rows at all).
var ErrNoData = errors.New("table has no data rows")

// splitQuoted matches a quote, comma, optional whitespace, quote sequence. On
// the first line of an export it indicates structural quoting that the
// whole-line normalization may have destroyed.
var splitQuoted = regexp.MustCompile(`",\s*"`)

// Options configures Parser behavior. The zero value sniffs the delimiter and
// enables recovery.
type Options struct {
	// Comma forces the field delimiter. When zero it is sniffed from the first
	// line (see SniffDelimiter).
	Comma rune

	// DisableRecovery turns off the re-parse of the original text when the
	// normalized header collapsed into a single cell.
	DisableRecovery bool
}

// Parser turns raw export text into a Table. It is safe to reuse across
// inputs and holds no per-call state.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads all of r and parses it. r must yield UTF-8 text; decoding other
// encodings is the caller's job (see package datasource).
func (p *Parser) Parse(r io.Reader) (Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	return p.ParseString(string(b)), nil
}

// ParseString normalizes raw, picks a delimiter and parses the rows. When the
// header row comes out as a single cell but the original first line looks
// like `"a","b"`, the original text is parsed again without normalization and
// the result is flagged as Recovered.
func (p *Parser) ParseString(raw string) Table {
	text := Normalize(raw)
	delim := p.delimiter(text)
	t := Table{
		Rows:        ParseRows(text, delim),
		Delimiter:   delim,
		Fingerprint: xxh3.HashString(raw),
	}

	if p.opt.DisableRecovery || len(t.Rows) == 0 || len(t.Rows[0]) != 1 {
		return t
	}
	if !splitQuoted.MatchString(FirstLine(raw)) {
		return t
	}

	orig := StripBOM(raw)
	delim = p.delimiter(orig)
	t.Rows = ParseRows(orig, delim)
	t.Delimiter = delim
	t.Recovered = true
	return t
}

func (p *Parser) delimiter(text string) rune {
	if p.opt.Comma != 0 {
		return p.opt.Comma
	}
	return SniffDelimiter(text)
}

// ParseTable parses raw with default options.
func ParseTable(raw string) Table {
	return NewParser(Options{}).ParseString(raw)
}

// ParseRows scans text left to right and returns rows of trimmed cells.
//
// Inside quotes a doubled quote yields one literal quote, a lone quote closes
// the quoted span and everything else (delimiters and newlines included) is
// kept verbatim. Outside quotes a quote opens a span, delim ends the cell and
// CR or LF ends the row; CRLF counts as a single terminator.
//
// Rows without cells, or whose cells are all empty, are dropped. That absorbs
// trailing blank lines and also swallows a row made only of "" cells.
func ParseRows(text string, delim rune) [][]string {
	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
	)

	endCell := func() {
		row = append(row, strings.TrimSpace(cell.String()))
		cell.Reset()
	}
	endRow := func() {
		if cell.Len() > 0 || len(row) > 0 {
			endCell()
			rows = append(rows, row)
			row = nil
		}
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size

		if inQuotes {
			switch {
			case r == '"' && next < len(text) && text[next] == '"':
				cell.WriteByte('"')
				next++
			case r == '"':
				inQuotes = false
			default:
				cell.WriteString(text[i:next])
			}
			i = next
			continue
		}

		switch {
		case r == '"':
			inQuotes = true
		case r == delim:
			endCell()
		case r == '\n' || r == '\r':
			endRow()
			if r == '\r' && next < len(text) && text[next] == '\n' {
				next++
			}
		default:
			cell.WriteString(text[i:next])
		}
		i = next
	}
	endRow()

	out := rows[:0]
	for _, r := range rows {
		if !blank(r) {
			out = append(out, r)
		}
	}
	return out
}

func blank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

// Package export writes the bag-count waves to files the floor team prints:
// a wide CSV with the waves side by side and an XLSX workbook with one sheet
// per wave.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cartaudit/internal/logging"
	"cartaudit/internal/metrics"
	"cartaudit/internal/wave"
)

// File names written by Export.
const (
	CSVName  = "CartAudit_BagCount_View.csv"
	XLSXName = "CartAudit_BagCount.xlsx"
)

// MinRows is the number of body rows every wave is padded to.
const MinRows = wave.DefaultSize

// Format is an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrNoWaves is returned when there is nothing to export.
var ErrNoWaves = errors.New("export: no waves to export")

// ParseFormats converts names to formats, dropping duplicates and keeping
// order.
func ParseFormats(names []string) ([]Format, error) {
	out := make([]Format, 0, len(names))
	seen := make(map[Format]bool, len(names))
	for _, n := range names {
		f := Format(strings.ToLower(strings.TrimSpace(n)))
		switch f {
		case FormatCSV, FormatXLSX:
		default:
			return nil, fmt.Errorf("unknown export format %q (want csv or xlsx)", n)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// FileName returns the file name f is written to.
func (f Format) FileName() string {
	if f == FormatXLSX {
		return XLSXName
	}
	return CSVName
}

func (f Format) write(w io.Writer, waves []wave.Wave) error {
	if f == FormatXLSX {
		return WriteXLSX(w, waves)
	}
	return WriteCSV(w, waves)
}

// Export writes waves in every format to dir and returns the written paths.
// dir is created when missing.
func Export(ctx context.Context, job, dir string, formats []Format, waves []wave.Wave) ([]string, error) {
	if len(waves) == 0 {
		return nil, ErrNoWaves
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	log := logging.FromContext(logging.WithStage(ctx, "export"))
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, f.FileName())
		start := time.Now()
		err := writeFile(path, func(w io.Writer) error { return f.write(w, waves) })
		metrics.RecordStep(job, "export_"+string(f), err, time.Since(start))
		if err != nil {
			return paths, fmt.Errorf("export %s: %w", f, err)
		}
		log.Info().Str("path", path).Int("waves", len(waves)).Msg("exported")
		paths = append(paths, path)
	}
	return paths, nil
}

// writeFile writes through a temp file in the target directory so a failed
// export never leaves a truncated file behind.
func writeFile(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

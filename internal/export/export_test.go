package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cartaudit/internal/wave"
)

func sampleWaves() []wave.Wave {
	return []wave.Wave{
		{Number: 1, Rows: []wave.Row{
			{RouteCode: "R1", Location: `Dock "A"`, Carts: 2, Bags: 2, OVs: 1},
			{RouteCode: "R2", Location: "Dock B", Carts: 1, Bags: 1, OVs: 3},
		}},
		{Number: 2, Rows: []wave.Row{
			{RouteCode: "R3", Location: "Dock C"},
		}},
	}
}

func TestWideRowsLayout(t *testing.T) {
	t.Parallel()

	rows := WideRows(sampleWaves())
	require.Len(t, rows, 2+MinRows)
	for _, r := range rows {
		require.Len(t, r, 14)
	}

	assert.Equal(t, []string{"Wave 1", "", "", "", "", "", "", "Wave 2", "", "", "", "", "", ""}, rows[0])
	assert.Equal(t, []string{
		"Route Code", "Location", "Carts", "Bags", "OVs", "Departed", "",
		"Route Code", "Location", "Carts", "Bags", "OVs", "Departed", "",
	}, rows[1])
	assert.Equal(t, []string{"R1", `Dock "A"`, "2", "2", "1", "", "", "R3", "Dock C", "0", "0", "0", "", ""}, rows[2])
	assert.Equal(t, []string{"R2", "Dock B", "1", "1", "3", "", "", "", "", "", "", "", "", ""}, rows[3])
	assert.Equal(t, make([]string, 14), rows[len(rows)-1])
}

func TestWideRowsGrowsPastMinimum(t *testing.T) {
	t.Parallel()

	long := wave.Wave{Number: 1, Rows: make([]wave.Row, MinRows+4)}
	rows := WideRows([]wave.Wave{long})
	assert.Len(t, rows, 2+MinRows+4)
}

func TestWriteCSVQuotesEveryCell(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleWaves()[:1]))

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 2+MinRows)
	assert.Equal(t, `"Wave 1","","","","","",""`, lines[0])
	assert.Equal(t, `"R1","Dock ""A""","2","2","1","",""`, lines[2])
	assert.False(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestWorkbook(t *testing.T) {
	t.Parallel()

	f, err := Workbook(sampleWaves())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Wave 1", "Wave 2"}, f.GetSheetList())

	title, err := f.GetCellValue("Wave 1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Wave 1", title)

	hdr, err := f.GetCellValue("Wave 1", "F2")
	require.NoError(t, err)
	assert.Equal(t, "Departed", hdr)

	route, err := f.GetCellValue("Wave 1", "A4")
	require.NoError(t, err)
	assert.Equal(t, "R2", route)

	assertFill(t, f, "Wave 1", "D4", BagFill)
	assertFill(t, f, "Wave 1", "E4", OVsFill)
	assertFill(t, f, "Wave 1", "A2", headerFill)
	assertFill(t, f, "Wave 1", "F2", headerFill)

	plain, err := f.GetCellStyle("Wave 1", "D3")
	require.NoError(t, err)
	assert.Zero(t, plain)

	h, err := f.GetRowHeight("Wave 2", firstRow+MinRows-1)
	require.NoError(t, err)
	assert.InDelta(t, rowHeight, h, 0.01)
}

func assertFill(t *testing.T, f *excelize.File, sheet, cell, color string) {
	t.Helper()

	idx, err := f.GetCellStyle(sheet, cell)
	require.NoError(t, err)
	style, err := f.GetStyle(idx)
	require.NoError(t, err)
	require.NotEmpty(t, style.Fill.Color, "cell %s has no fill", cell)
	got := strings.TrimPrefix(style.Fill.Color[0], "#")
	assert.True(t, strings.HasSuffix(strings.ToUpper(got), strings.TrimPrefix(color, "#")), "cell %s fill %v", cell, style.Fill.Color)
	assert.True(t, style.Font != nil && style.Font.Bold, "cell %s not bold", cell)
}

func TestExportWritesFiles(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	formats, err := ParseFormats([]string{"CSV", "xlsx", "csv"})
	require.NoError(t, err)
	require.Equal(t, []Format{FormatCSV, FormatXLSX}, formats)

	paths, err := Export(context.Background(), "test", dir, formats, sampleWaves())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, CSVName), filepath.Join(dir, XLSXName)}, paths)

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), `"Wave 1"`))

	wb, err := excelize.OpenFile(paths[1])
	require.NoError(t, err)
	defer wb.Close()
	assert.Len(t, wb.GetSheetList(), 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files left behind")
}

func TestExportErrors(t *testing.T) {
	t.Parallel()

	_, err := Export(context.Background(), "test", t.TempDir(), []Format{FormatCSV}, nil)
	assert.ErrorIs(t, err, ErrNoWaves)

	_, err = ParseFormats([]string{"pdf"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Export(ctx, "test", t.TempDir(), []Format{FormatCSV}, sampleWaves())
	assert.ErrorIs(t, err, context.Canceled)
}

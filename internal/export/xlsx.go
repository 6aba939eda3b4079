package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"cartaudit/internal/wave"
)

// Fill colours of highlighted cells.
const (
	BagFill = "#FFDF6E"
	OVsFill = "#FFD24D"
)

const (
	headerFill = "#D9D9D9"
	titleRow   = 1
	headerRow  = 2
	firstRow   = 3
	rowHeight  = 18
)

var columnWidths = []float64{14, 24, 8, 8, 8, 12}

type styles struct {
	title, header, bag, ovs int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	}); err != nil {
		return s, err
	}
	if s.bag, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{BagFill}},
	}); err != nil {
		return s, err
	}
	s.ovs, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{OVsFill}},
	})
	return s, err
}

// SheetName returns the sheet name of wave n.
func SheetName(n int) string {
	return fmt.Sprintf("Wave %d", n)
}

// Workbook builds the bag-count workbook: one sheet per wave with a title, a
// bold grey header and MinRows body rows at least. Bags of exactly one and
// OVs of exactly three are filled and bold. The caller closes the file.
func Workbook(waves []wave.Wave) (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, w := range waves {
		sheet := SheetName(w.Number)
		if i == 0 {
			err = f.SetSheetName("Sheet1", sheet)
		} else {
			_, err = f.NewSheet(sheet)
		}
		if err == nil {
			err = writeSheet(f, sheet, w, st)
		}
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, w wave.Wave, st styles) error {
	fields := wave.BagCount.Fields()

	title, _ := excelize.CoordinatesToCellName(1, titleRow)
	if err := f.SetCellValue(sheet, title, SheetName(w.Number)); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, title, title, st.title); err != nil {
		return err
	}

	for i, h := range wave.BagCount.Header() {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(fields), headerRow)
	if err := f.SetCellStyle(sheet, first, last, st.header); err != nil {
		return err
	}

	for r, row := range w.Rows {
		for i, field := range fields {
			cell, _ := excelize.CoordinatesToCellName(i+1, firstRow+r)
			if err := f.SetCellValue(sheet, cell, cellValue(field, row)); err != nil {
				return err
			}
			style := 0
			switch wave.Highlight(field, row) {
			case wave.EmphasisBag:
				style = st.bag
			case wave.EmphasisOVs:
				style = st.ovs
			}
			if style != 0 {
				if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
					return err
				}
			}
		}
	}

	// Body rows, padding included, share one height so every printed sheet
	// has the same layout.
	for r := 0; r < max(MinRows, len(w.Rows)); r++ {
		if err := f.SetRowHeight(sheet, firstRow+r, rowHeight); err != nil {
			return err
		}
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(f wave.Field, r wave.Row) any {
	switch f {
	case wave.FieldCarts:
		return r.Carts
	case wave.FieldBags:
		return r.Bags
	case wave.FieldOVs:
		return r.OVs
	}
	return r.Value(f)
}

// WriteXLSX writes the Workbook of waves to w.
func WriteXLSX(w io.Writer, waves []wave.Wave) error {
	f, err := Workbook(waves)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

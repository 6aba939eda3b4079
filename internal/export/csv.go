package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"cartaudit/internal/wave"
)

// blockWidth is the number of columns one wave occupies in the wide CSV,
// spacer excluded.
const blockWidth = 6

// WideRows lays waves out side by side: a title row, a header row and
// max(MinRows, longest wave) body rows. Each wave takes the bag-count columns
// followed by one empty spacer column.
func WideRows(waves []wave.Wave) [][]string {
	height := MinRows
	for _, w := range waves {
		height = max(height, len(w.Rows))
	}
	width := len(waves) * (blockWidth + 1)

	rows := make([][]string, 0, height+2)

	title := make([]string, width)
	header := make([]string, 0, width)
	for i, w := range waves {
		title[i*(blockWidth+1)] = fmt.Sprintf("Wave %d", w.Number)
		header = append(header, wave.BagCount.Header()...)
		header = append(header, "")
	}
	rows = append(rows, title, header)

	for r := 0; r < height; r++ {
		line := make([]string, 0, width)
		for _, w := range waves {
			if r < len(w.Rows) {
				line = append(line, wave.BagCount.Cells(w.Rows[r])...)
			} else {
				line = append(line, make([]string, blockWidth)...)
			}
			line = append(line, "")
		}
		rows = append(rows, line)
	}
	return rows
}

// WriteCSV writes WideRows to w. Every cell is quoted with embedded quotes
// doubled. Lines end in "\n" with no trailing newline.
func WriteCSV(w io.Writer, waves []wave.Wave) error {
	bw := bufio.NewWriter(w)
	for i, row := range WideRows(waves) {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		for j, cell := range row {
			if j > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(quote(cell)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

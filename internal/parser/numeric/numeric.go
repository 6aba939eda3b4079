// Package numeric provides lenient number extraction for count columns in
// warehouse exports, where cells such as "12 bags", " 3 ", "1,5" or "n/a"
// all show up in the same column.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// Lenient removes every character that is not an ASCII digit, '.' or '-'
// from s and parses what is left as a float64.
//
// Anything that does not form a valid number afterwards ("" , "-", "1.2.3",
// "4-5") yields 0, as do values that overflow float64. Lenient never returns
// negative zero.
func Lenient(s string) float64 {
	kept := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if kept == "" {
		return 0
	}

	v, err := strconv.ParseFloat(kept, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return 0
	}
	return v
}

// Format renders v the way counts are displayed: integers without a decimal
// point, fractions with the shortest exact representation.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

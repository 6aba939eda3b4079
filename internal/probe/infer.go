package probe

import (
	"regexp"
	"strconv"
	"strings"
)

// Column types reported by inferTypes.
const (
	TypeEmpty   = "empty"
	TypeInteger = "integer"
	TypeReal    = "real"
	TypeCount   = "count"
	TypeTime    = "time"
	TypeCode    = "code"
	TypeText    = "text"
)

var (
	clock     = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
	codeLike  = regexp.MustCompile(`^[^\s#]+#\S*$`)
	withUnits = regexp.MustCompile(`^-?\d+([.,]\d+)?\s*[\p{L}.]*$`)
)

// inferTypes returns one type per column based on the sampled rows.
func inferTypes(n int, rows [][]string) []string {
	cols := make([][]string, n)
	for _, row := range rows {
		for i := 0; i < n && i < len(row); i++ {
			cols[i] = append(cols[i], row[i])
		}
	}
	types := make([]string, n)
	for i := range cols {
		types[i] = inferTypeForColumn(cols[i])
	}
	return types
}

// inferTypeForColumn requires all non-empty values to satisfy a narrower
// type before settling on text. "count" is a number followed by a unit, as in
// bag cells like "3 bags", which lenient parsing still reads as 3.
func inferTypeForColumn(values []string) string {
	nonEmpty := nonEmptyTrimmed(values)
	switch {
	case len(nonEmpty) == 0:
		return TypeEmpty
	case allMatch(nonEmpty, isInt):
		return TypeInteger
	case allMatch(nonEmpty, isFloat):
		return TypeReal
	case allMatch(nonEmpty, clock.MatchString):
		return TypeTime
	case allMatch(nonEmpty, codeLike.MatchString):
		return TypeCode
	case allMatch(nonEmpty, withUnits.MatchString):
		return TypeCount
	}
	return TypeText
}

func nonEmptyTrimmed(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isFloat also accepts integers; a column mixing both is real.
func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

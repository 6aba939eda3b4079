package csv

import "strings"

// Normalize repairs the export quirks seen in warehouse CSV dumps before the
// structural parse:
//
//   - a UTF-8 BOM at the start of the first line is removed;
//   - a line whose trimmed text both starts and ends with a double quote is
//     treated as "over-quoted": the outer quotes are dropped and every doubled
//     quote ("") inside is collapsed to a single quote.
//
// Lines are split on LF or CRLF and re-joined with LF. Lines that are not
// wrapped in quotes pass through byte-for-byte. Normalize never fails; input
// it cannot make sense of is returned as-is.
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if i == 0 {
			line = StripBOM(line)
		}
		t := strings.TrimSpace(line)
		if len(t) >= 2 && t[0] == '"' && t[len(t)-1] == '"' {
			line = strings.ReplaceAll(t[1:len(t)-1], `""`, `"`)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

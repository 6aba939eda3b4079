package csv

import "strings"

// FirstLine returns text up to the first LF, without a trailing CR.
func FirstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSuffix(line, "\r")
}

// SniffDelimiter picks the delimiter from the first line only: ';' when the
// line contains one, otherwise tab when present, otherwise ','.
//
// Only line 1 is inspected, so a semicolon inside a quoted header value makes
// the whole file parse as semicolon-delimited. Exports seen so far never do
// that and the behavior is kept deliberately simple.
func SniffDelimiter(text string) rune {
	head := FirstLine(text)
	switch {
	case strings.Contains(head, ";"):
		return ';'
	case strings.Contains(head, "\t"):
		return '\t'
	default:
		return ','
	}
}

// DelimiterName renders a delimiter for log output.
func DelimiterName(r rune) string {
	switch r {
	case '\t':
		return `\t`
	case 0:
		return "none"
	default:
		return string(r)
	}
}

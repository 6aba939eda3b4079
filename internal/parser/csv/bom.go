package csv

import "strings"

// utf8BOM is stripped from the first line of an export and from header cells.
const utf8BOM = "\uFEFF"

// StripBOM removes a single leading UTF-8 byte-order mark from s.
func StripBOM(s string) string {
	return strings.TrimPrefix(s, utf8BOM)
}

package csv

import "strings"

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// stripBOM removes a leading UTF-8 byte order mark from s.
func stripBOM(s string) string { return strings.TrimPrefix(s, utf8BOM) }

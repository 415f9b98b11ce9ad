package diag

import (
	"fmt"
	"strings"
)

// FormatShort renders diagnostics one per line:
//
//	<severity> <code> <file>:<line>:<col> <message>
//
// Coordinates are one-based, paths are printed with forward slashes and the code
// column is "-" when the compiler gave none. Input order is kept.
func FormatShort(diags []Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range diags {
		code := d.Code
		if code == "" {
			code = "-"
		}
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity.Label(), code, normalizePath(d.File), d.Line+1, d.Column+1, sanitizeMessage(d.Message))
		if i < len(diags)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func normalizePath(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}

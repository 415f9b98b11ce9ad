package diagfmt

import (
	"os"
	"strings"

	"mqltools/internal/complog"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints paths relative to BaseDir when they live under it.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always prints the path as reported.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode accepts auto|absolute|relative|basename.
func ParsePathMode(s string) (PathMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PathModeAuto, true
	case "absolute", "abs":
		return PathModeAbsolute, true
	case "relative", "rel":
		return PathModeRelative, true
	case "basename", "base":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// SourceFunc loads file contents for context previews.
type SourceFunc func(path string) ([]byte, error)

// ReadSource is the default SourceFunc. MQL sources saved by MetaEditor are
// often UTF-16, so the bytes go through the log decoder.
func ReadSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := complog.Decode(data)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	Context  int8 // строк контекста вокруг позиции, <0 - без превью
	PathMode PathMode
	BaseDir  string
	Width    uint8 // максимальная ширина строки, 0 - не ограничено
	Source   SourceFunc
	Summary  bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludeRange bool // добавить end line/col
	PathMode     PathMode
	BaseDir      string
	Max          int // обрезка вывода, не Bag
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}

func slashes(p string) string { return strings.ReplaceAll(p, `\`, "/") }

// FormatPath renders path according to mode. Both slash styles are accepted;
// output always uses forward slashes.
func FormatPath(path string, mode PathMode, base string) string {
	p := slashes(path)
	switch mode {
	case PathModeAbsolute:
		return p
	case PathModeBasename:
		if i := strings.LastIndex(p, "/"); i >= 0 {
			return p[i+1:]
		}
		return p
	case PathModeRelative, PathModeAuto:
		if rel, ok := relTo(p, slashes(base)); ok {
			return rel
		}
	}
	return p
}

// relTo compares case-insensitively since MetaEditor reports Windows paths.
func relTo(p, base string) (string, bool) {
	base = strings.TrimSuffix(base, "/")
	if base == "" || len(p) <= len(base)+1 {
		return "", false
	}
	if !strings.EqualFold(p[:len(base)], base) || p[len(base)] != '/' {
		return "", false
	}
	return p[len(base)+1:], true
}

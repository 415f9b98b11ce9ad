package lsp

import (
	"net/url"
	"path/filepath"
	"strings"

	"mqltools/internal/complog"
	"mqltools/internal/dialect"
)

func hasDrive(p string) bool {
	return len(p) >= 2 && p[1] == ':' && (p[0]|0x20) >= 'a' && (p[0]|0x20) <= 'z'
}

func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" && parsed.Scheme != "file" {
		return ""
	}
	path := parsed.Path
	if parsed.Scheme == "" {
		path = uri
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	// file:///C:/x -> C:/x
	if strings.HasPrefix(path, "/") && hasDrive(path[1:]) {
		path = path[1:]
	}
	if hasDrive(path) {
		return filepath.FromSlash(path)
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

func pathToURI(path string) string {
	if path == "" {
		return ""
	}
	if !hasDrive(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return complog.FileURI(path)
}

// pathKey identifies a file independent of slash style, drive letter case
// and URI escaping.
func pathKey(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
}

// canonicalURI returns uri when it names an MQL source or header on disk,
// or "" for anything the server does not handle.
func canonicalURI(uri string) string {
	path := uriToPath(uri)
	if path == "" || !dialect.IsSourceFile(path) {
		return ""
	}
	return uri
}

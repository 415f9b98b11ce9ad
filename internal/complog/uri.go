package complog

import (
	"net/url"
	"strings"

	"mqltools/internal/flags"
)

// FileURI converts a Windows or POSIX path into a file:// URI.
// `C:\Project\Main.mq5` becomes `file:///C:/Project/Main.mq5`.
func FileURI(path string) string {
	p := flags.NormalizePath(path)
	if !strings.HasPrefix(p, "/") {
		// drive-letter and relative paths
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

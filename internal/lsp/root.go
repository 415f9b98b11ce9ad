package lsp

import (
	"os"
	"path/filepath"

	"mqltools/internal/config"
)

// resolveWorkspace picks the workspace used for a check: the directory of
// the nearest settings file above path, then the client root, then the
// file's own directory.
func resolveWorkspace(clientRoot, path string) string {
	dir := resolveStartDir(path)
	if dir != "" {
		if found, err := config.Find(dir); err == nil {
			return filepath.Dir(found)
		}
	}
	if clientRoot != "" {
		return clientRoot
	}
	return dir
}

func resolveStartDir(path string) string {
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

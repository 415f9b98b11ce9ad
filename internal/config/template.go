package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Template is the file written by `mqltools init`.
const Template = `# mqltools settings

[metaeditor]
# Paths to metaeditor.exe / metaeditor64.exe for each terminal.
editor4 = ""
editor5 = ""
# MQL4/MQL5 data folders (their Include subfolder is used when present).
include4 = ""
include5 = ""

[log]
# Log file name; "<source>.log" next to the source when empty.
name = ""
delete = false

[help]
prefer_web = false
mql4_language = "en"
mql5_language = "en"

[clangd]
compiler = "clang++"
compat_header = ""
broad_suppression = false

[compile]
timeout = "30s"
jobs = 0
cache = true
`

// WriteTemplate creates FileName in dir. It refuses to overwrite an existing
// file unless force is set.
func WriteTemplate(dir string, force bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %q: %w", path, err)
		}
	}
	if err := os.WriteFile(path, []byte(Template), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

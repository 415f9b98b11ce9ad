package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	editorName   = "metaeditor.exe"
	editor64Name = "metaeditor64.exe"
)

// baseName splits on both slash styles so Windows paths work on any host.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

func dirName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[:i]
	}
	return "."
}

func validateEditor(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: no editor configured", ErrEditorNotFound)
	}
	name := strings.ToLower(baseName(path))
	if name != editorName && name != editor64Name {
		return "", fmt.Errorf("%w: %s is not %s or %s", ErrEditorNotFound, path, editorName, editor64Name)
	}
	if _, err := os.Stat(dirName(path)); err != nil {
		return "", fmt.Errorf("%w: %s", ErrEditorNotFound, path)
	}
	return path, nil
}

// validateInclude accepts an empty directory (no /include switch).
func validateInclude(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrIncludeNotFound, dir)
	}
	return dir, nil
}

// otherEditor suggests the sibling binary when the wrong bitness was configured.
func otherEditor(path string) string {
	other := editorName
	if strings.EqualFold(baseName(path), editorName) {
		other = editor64Name
	}
	return siblingPath(path, other)
}

// siblingPath replaces the last element of ref with name, keeping ref's
// separator style.
func siblingPath(ref, name string) string {
	sep := string(filepath.Separator)
	if strings.Contains(ref, `\`) {
		sep = `\`
	}
	return dirName(ref) + sep + name
}

// LogPath places the compiler log next to target. A configured name gets a
// ".log" extension when it has none; otherwise the log is "<stem>.log".
func LogPath(target, name string) string {
	if name != "" {
		if strings.ToLower(filepath.Ext(name)) != ".log" {
			name += ".log"
		}
		return siblingPath(target, name)
	}
	base := baseName(target)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return siblingPath(target, base+".log")
}

// Args builds the MetaEditor switches. Values are unquoted; CommandLine adds
// the quotes MetaEditor expects.
func Args(target, include, logPath string, mode Mode) []string {
	args := []string{"/compile:" + target}
	if include != "" {
		args = append(args, "/include:"+include)
	}
	if mode == Check {
		args = append(args, "/s")
	}
	return append(args, "/log:"+logPath)
}

// CommandLine renders the full invocation the way MetaEditor parses it:
// `"<editor>" /compile:"<src>" [/include:"<dir>"] [/s] /log:"<log>"`.
func CommandLine(editor string, args []string) string {
	var b strings.Builder
	b.WriteString(`"` + editor + `"`)
	for _, a := range args {
		b.WriteByte(' ')
		key, val, ok := strings.Cut(a, ":")
		if !ok || !strings.HasPrefix(key, "/") {
			b.WriteString(a)
			continue
		}
		b.WriteString(key + `:"` + val + `"`)
	}
	return b.String()
}

package compiledb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"mqltools/internal/dialect"
	"mqltools/internal/flags"
)

const (
	CommandsFile    = "compile_commands.json"
	LegacyFlagsFile = "compile_flags.txt"
	ClangdFile      = ".clangd"
)

// Command is one compile_commands.json entry.
type Command struct {
	Directory string   `json:"directory"`
	Arguments []string `json:"arguments"`
	File      string   `json:"file"`
}

// ListFiles returns the sorted .mq4/.mq5/.mqh files below root, skipping
// hidden directories.
func ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && len(d.Name()) > 1 && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if dialect.IsSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sources in %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Build returns one entry per file: compiler, then every flag, then the file.
// Paths are written with forward slashes.
func Build(root, compiler string, set flags.Set, files []string) []Command {
	dir := flags.NormalizePath(root)
	cmds := make([]Command, 0, len(files))
	for _, f := range files {
		file := flags.NormalizePath(f)
		args := make([]string, 0, len(set)+2)
		args = append(args, compiler)
		for _, flag := range set {
			if flag != "" {
				args = append(args, flag)
			}
		}
		args = append(args, file)
		cmds = append(cmds, Command{Directory: dir, Arguments: args, File: file})
	}
	return cmds
}

// Encode renders the database as a 4-space indented JSON array.
func Encode(cmds []Command) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(cmds); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteCommands writes compile_commands.json into root and removes a stale
// compile_flags.txt, which clangd would otherwise prefer for some files.
// Nothing is written for an empty database; the returned bool reports
// whether the file was written.
func WriteCommands(root string, cmds []Command) (bool, error) {
	if len(cmds) == 0 {
		return false, nil
	}
	data, err := Encode(cmds)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", CommandsFile, err)
	}
	if err := WriteFileAtomic(filepath.Join(root, CommandsFile), data, 0o644); err != nil {
		return false, err
	}
	legacy := filepath.Join(root, LegacyFlagsFile)
	if err := os.Remove(legacy); err != nil && !errors.Is(err, os.ErrNotExist) {
		return true, fmt.Errorf("remove %s: %w", legacy, err)
	}
	return true, nil
}

// WriteFileAtomic writes through a temp file in the same directory and
// renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	// атомарная замена
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Package workspace prepares an MQL folder for clangd: it composes the
// compiler flags for the folder's dialect and writes them to
// compile_commands.json, .clangd and .vscode/settings.json.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"mqltools/internal/compiledb"
	"mqltools/internal/config"
	"mqltools/internal/dialect"
	"mqltools/internal/flags"
	"mqltools/internal/trace"
)

// Result summarises what Setup changed.
type Result struct {
	Root     string
	Dialect  dialect.Kind
	Flags    flags.Set
	Files    int
	Commands bool // compile_commands.json written
	Clangd   bool
	Settings string // path of the updated settings file, empty when skipped
}

// Options control which files Setup writes.
type Options struct {
	SkipClangd   bool
	SkipSettings bool
}

// ExternalInclude picks the include flag for an MQL data folder: its Include
// subfolder when present, else the folder itself when it exists.
func ExternalInclude(dir string) string {
	if dir == "" {
		return ""
	}
	if isDir(filepath.Join(dir, "Include")) {
		return flags.IncludeFlag(filepath.Join(dir, "Include"))
	}
	if isDir(dir) {
		return flags.IncludeFlag(dir)
	}
	return ""
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// Flags composes the clangd flags for root: the dialect's project flags, the
// compatibility header, the workspace and its Include folder, then the
// configured external include directory.
func Flags(cfg config.Config, root string) (dialect.Kind, flags.Set) {
	kind := dialect.Detect(root, "")
	if kind == dialect.Unknown {
		kind = dialect.MQL5
	}
	set := flags.Project(kind, flags.Base())
	var extra []string
	if cfg.Clangd.CompatHeader != "" {
		extra = append(extra, flags.ForceIncludeFlag(cfg.Clangd.CompatHeader))
	}
	extra = append(extra,
		flags.IncludeFlag(root),
		flags.IncludeFlag(filepath.Join(root, "Include")),
		ExternalInclude(cfg.Include(kind)),
	)
	return kind, flags.Merge(set, extra)
}

// Setup writes the clangd support files into root.
func Setup(ctx context.Context, cfg config.Config, root string, opts Options) (*Result, error) {
	ctx, span := trace.Start(ctx, trace.ScopePass, "workspace setup")
	defer span.End("")

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	if !isDir(abs) {
		return nil, fmt.Errorf("workspace %s is not a directory", abs)
	}
	res := &Result{Root: abs}
	res.Dialect, res.Flags = Flags(cfg, abs)

	files, err := compiledb.ListFiles(abs)
	if err != nil {
		return nil, err
	}
	res.Files = len(files)
	compiler := cfg.Clangd.Compiler
	if compiler == "" {
		compiler = "clang++"
	}
	res.Commands, err = compiledb.WriteCommands(abs, compiledb.Build(abs, compiler, res.Flags, files))
	if err != nil {
		return nil, err
	}
	span.WithExtra("files", strconv.Itoa(res.Files))

	if !opts.SkipClangd {
		if err := compiledb.WriteClangd(abs, cfg.Clangd.BroadSuppression); err != nil {
			return nil, err
		}
		res.Clangd = true
	}

	if !opts.SkipSettings {
		path := filepath.Join(abs, ".vscode", "settings.json")
		if err := UpdateSettingsFile(path, res.Flags); err != nil {
			return nil, err
		}
		res.Settings = path
	}
	trace.Point(trace.FromContext(ctx), trace.ScopePass, "workspace", fmt.Sprintf("%s %s", res.Dialect, abs))
	return res, nil
}

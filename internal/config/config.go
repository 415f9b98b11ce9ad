// Package config loads mqltools.toml, the per-project settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"mqltools/internal/dialect"
)

// FileName is the settings file looked up from the working directory upwards.
const FileName = "mqltools.toml"

// ErrNotFound is returned by Find when no settings file exists up to the root.
var ErrNotFound = errors.New("no " + FileName + " found")

// DefaultTimeout bounds a single MetaEditor run.
const DefaultTimeout = 30 * time.Second

type Config struct {
	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
	// Root is the directory holding Path, or the start directory for defaults.
	Root string `toml:"-"`

	MetaEditor MetaEditor `toml:"metaeditor"`
	Log        Log        `toml:"log"`
	Help       Help       `toml:"help"`
	Clangd     Clangd     `toml:"clangd"`
	Compile    Compile    `toml:"compile"`
}

// MetaEditor holds the vendor compiler locations per dialect.
type MetaEditor struct {
	Editor4  string `toml:"editor4"`
	Editor5  string `toml:"editor5"`
	Include4 string `toml:"include4"`
	Include5 string `toml:"include5"`
}

type Log struct {
	// Name of the compiler log placed next to the source; "<stem>.log" when empty.
	Name   string `toml:"name"`
	Delete bool   `toml:"delete"`
}

type Help struct {
	PreferWeb    bool   `toml:"prefer_web"`
	MQL4Language string `toml:"mql4_language"`
	MQL5Language string `toml:"mql5_language"`
}

type Clangd struct {
	// Compiler is the first argument of every compile_commands.json entry.
	Compiler string `toml:"compiler"`
	// CompatHeader is force-included so clangd understands dialect built-ins.
	CompatHeader     string `toml:"compat_header"`
	BroadSuppression bool   `toml:"broad_suppression"`
}

type Compile struct {
	Timeout Duration `toml:"timeout"`
	Jobs    int      `toml:"jobs"`
	// Cache enables the on-disk cache of check results.
	Cache    bool   `toml:"cache"`
	CacheDir string `toml:"cache_dir"`
}

// Duration decodes TOML strings such as "45s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		Help: Help{
			MQL4Language: "en",
			MQL5Language: "en",
		},
		Clangd: Clangd{
			Compiler: "clang++",
		},
		Compile: Compile{
			Timeout: Duration{DefaultTimeout},
			Cache:   true,
		},
	}
}

// Editor returns the configured MetaEditor path for the dialect.
func (c Config) Editor(k dialect.Kind) string {
	if k == dialect.MQL4 {
		return c.MetaEditor.Editor4
	}
	return c.MetaEditor.Editor5
}

// Include returns the configured MQL include directory for the dialect.
func (c Config) Include(k dialect.Kind) string {
	if k == dialect.MQL4 {
		return c.MetaEditor.Include4
	}
	return c.MetaEditor.Include5
}

// HelpLanguage returns the documentation language for the dialect.
func (c Config) HelpLanguage(k dialect.Kind) string {
	if k == dialect.MQL4 {
		return c.Help.MQL4Language
	}
	return c.Help.MQL5Language
}

// Find walks up from startDir to the first directory holding FileName.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Discover finds and loads the settings file above startDir, falling back to
// Default when there is none.
func Discover(startDir string) (Config, error) {
	path, err := Find(startDir)
	if errors.Is(err, ErrNotFound) {
		cfg := Default()
		cfg.Root, _ = filepath.Abs(startDir)
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	return Load(path)
}

// Load decodes path on top of Default. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("compile", "jobs") && cfg.Compile.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [compile].jobs must not be negative", path)
	}
	if meta.IsDefined("compile", "timeout") && cfg.Compile.Timeout.Duration <= 0 {
		return Config{}, fmt.Errorf("%s: [compile].timeout must be positive", path)
	}
	if meta.IsDefined("clangd", "compiler") && strings.TrimSpace(cfg.Clangd.Compiler) == "" {
		return Config{}, fmt.Errorf("%s: [clangd].compiler must not be empty", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.Path = abs
	cfg.Root = filepath.Dir(abs)
	return cfg, nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mqltools/internal/cache"
	"mqltools/internal/compiler"
	"mqltools/internal/config"
)

// loadConfig reads --config when given, otherwise the nearest settings file
// above start. Defaults apply when there is none.
func loadConfig(cmd *cobra.Command, start string) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.Load(path)
	}
	if start == "" {
		start = "."
	}
	if info, err := os.Stat(start); err == nil && !info.IsDir() {
		start = filepath.Dir(start)
	}
	return config.Discover(start)
}

// newRunner builds a compiler runner with the disk cache when enabled.
func newRunner(cmd *cobra.Command, cfg config.Config, noCache bool) *compiler.Runner {
	var opts []compiler.Option
	if cfg.Compile.Cache && !noCache {
		disk, err := cache.Open(cfg.Compile.CacheDir)
		if err != nil {
			warnf(cmd, "cache disabled: %v", err)
		} else {
			opts = append(opts, compiler.WithCache(disk))
		}
	}
	return compiler.NewRunner(cfg, opts...)
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return q
}

func warnf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: "+format+"\n", args...)
}

func workspaceFor(cfg config.Config, flagValue, target string) string {
	switch {
	case flagValue != "":
		return flagValue
	case cfg.Root != "":
		return cfg.Root
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return target
	}
	return filepath.Dir(target)
}

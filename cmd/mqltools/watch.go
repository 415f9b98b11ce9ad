package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mqltools/internal/compiler"
	"mqltools/internal/dialect"
	"mqltools/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] [dir]",
	Short: "Check MQL sources whenever they change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().String("format", formatTranscript, formatFlagHelp())
	watchCmd.Flags().StringSlice("pattern", nil, "doublestar glob of files to watch (repeatable, default "+watch.DefaultPattern+")")
	watchCmd.Flags().Duration("debounce", 200*time.Millisecond, "quiet period before a changed file is checked")
	watchCmd.Flags().Bool("no-cache", false, "bypass the check result cache")
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	patterns, err := cmd.Flags().GetStringSlice("pattern")
	if err != nil {
		return fmt.Errorf("failed to get pattern flag: %w", err)
	}
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	runner := newRunner(cmd, cfg, noCache)
	ws := workspaceFor(cfg, "", root)

	w, err := watch.New(root, watch.Options{
		Patterns: patterns,
		Debounce: debounce,
		Logf: func(format string, args ...any) {
			warnf(cmd, format, args...)
		},
	})
	if err != nil {
		cmd.SilenceUsage = true
		return err
	}
	ctx := cmd.Context()
	w.Start(ctx)
	if !quiet(cmd) {
		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (ctrl+c to stop)\n", root)
	}

	for ev := range w.Events {
		if !dialect.IsSourceFile(ev.Path) {
			continue
		}
		rep, err := runner.Run(ctx, compiler.Request{Source: ev.Path, Mode: compiler.Check, Workspace: ws})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", ev.Path, errorColor.Sprint(err))
			continue
		}
		if err := writeResult(cmd, cmd.OutOrStdout(), format, rep.Result, false, ws); err != nil {
			return err
		}
		printTimings(cmd, filepath.Base(ev.Path), rep.Timings)
	}
	return nil
}

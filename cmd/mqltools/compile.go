package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"mqltools/internal/compiler"
	"mqltools/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file|dir>",
	Short: "Syntax-check MQL sources with MetaEditor (/s)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompile(cmd, args[0], compiler.Check)
	},
}

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <file|dir>",
	Short: "Compile MQL sources with MetaEditor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompile(cmd, args[0], compiler.Compile)
	},
}

func init() {
	for _, c := range []*cobra.Command{checkCmd, compileCmd} {
		c.Flags().String("format", formatTranscript, formatFlagHelp())
		c.Flags().String("workspace", "", "workspace root for header parents and dialect detection")
		c.Flags().Bool("fix-literals", false, "join spaced C'...'/D'...' literals before the run")
		c.Flags().Bool("no-cache", false, "bypass the check result cache")
		c.Flags().Int("jobs", 0, "max parallel MetaEditor runs for directories (0=settings or auto)")
		c.Flags().String("ui", "auto", "progress UI for directories (auto|on|off)")
	}
}

type compileFlags struct {
	format      string
	workspace   string
	fixLiterals bool
	noCache     bool
	jobs        int
	ui          uiMode
}

func readCompileFlags(cmd *cobra.Command) (compileFlags, error) {
	var (
		f   compileFlags
		err error
	)
	if f.format, err = cmd.Flags().GetString("format"); err != nil {
		return f, fmt.Errorf("failed to get format flag: %w", err)
	}
	if f.workspace, err = cmd.Flags().GetString("workspace"); err != nil {
		return f, fmt.Errorf("failed to get workspace flag: %w", err)
	}
	if f.fixLiterals, err = cmd.Flags().GetBool("fix-literals"); err != nil {
		return f, fmt.Errorf("failed to get fix-literals flag: %w", err)
	}
	if f.noCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
		return f, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if f.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return f, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return f, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if f.ui, err = readUIMode(uiStr); err != nil {
		return f, err
	}
	return f, nil
}

func runCompile(cmd *cobra.Command, target string, mode compiler.Mode) error {
	fl, err := readCompileFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, target)
	if err != nil {
		return err
	}
	runner := newRunner(cmd, cfg, fl.noCache)
	ws := workspaceFor(cfg, fl.workspace, target)

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if info.IsDir() {
		jobs := fl.jobs
		if jobs <= 0 {
			jobs = cfg.Compile.Jobs
		}
		return runBatch(cmd, runner, target, ws, mode, fl, jobs)
	}

	rep, err := runner.Run(cmd.Context(), compiler.Request{
		Source:      target,
		Mode:        mode,
		Workspace:   ws,
		FixLiterals: fl.fixLiterals,
	})
	if err != nil {
		cmd.SilenceUsage = true
		return err
	}
	if rep.LiteralsFixed > 0 && !quiet(cmd) {
		fmt.Fprintf(cmd.ErrOrStderr(), "fixed %d literal(s) in %s\n", rep.LiteralsFixed, target)
	}
	if err := writeResult(cmd, cmd.OutOrStdout(), fl.format, rep.Result, mode == compiler.Compile, ws); err != nil {
		return err
	}
	label := filepath.Base(rep.Target)
	if rep.Cached {
		label += " (cached)"
	}
	printTimings(cmd, label, rep.Timings)
	if rep.HasError() {
		return reported(cmd)
	}
	return nil
}

func runBatch(cmd *cobra.Command, runner *compiler.Runner, dir, ws string, mode compiler.Mode, fl compileFlags, jobs int) error {
	files, err := compiler.ListSources(dir)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	if len(files) == 0 {
		if !quiet(cmd) {
			fmt.Fprintf(cmd.ErrOrStderr(), "no .mq4/.mq5 files in %s\n", dir)
		}
		return nil
	}
	reqs := make([]compiler.Request, len(files))
	for i, f := range files {
		reqs[i] = compiler.Request{Source: f, Mode: mode, Workspace: ws, FixLiterals: fl.fixLiterals}
	}

	var results []compiler.BatchResult
	if shouldUseTUI(fl.ui) && !quiet(cmd) {
		results, err = runBatchWithUI(cmd.Context(), runner, mode.String(), files, reqs, jobs)
	} else {
		results, err = runner.RunAll(cmd.Context(), reqs, jobs, batchLogger(cmd))
	}
	if err != nil {
		return err
	}

	failed := false
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Err != nil {
			failed = true
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Source, errorColor.Sprint(r.Err))
			continue
		}
		if r.Report == nil {
			continue
		}
		if r.Report.HasError() {
			failed = true
		}
		if fl.format == formatTranscript && !r.Report.HasError() && len(r.Report.Result.Diagnostics) == 0 && quiet(cmd) {
			continue
		}
		if err := writeResult(cmd, out, fl.format, r.Report.Result, mode == compiler.Compile, ws); err != nil {
			return err
		}
		printTimings(cmd, filepath.Base(r.Source), r.Report.Timings)
	}
	if failed {
		return reported(cmd)
	}
	return nil
}

// batchLogger prints one line per finished file unless --quiet.
func batchLogger(cmd *cobra.Command) func(compiler.Event) {
	if quiet(cmd) {
		return nil
	}
	var mu sync.Mutex
	out := cmd.ErrOrStderr()
	return func(ev compiler.Event) {
		var status string
		switch ev.Stage {
		case compiler.StageFailed:
			status = errorColor.Sprint("failed")
		case compiler.StageDone:
			switch {
			case ev.Report.HasError():
				status = errorColor.Sprint("errors")
			case ev.Report != nil && ev.Report.Cached:
				status = doneColor.Sprint("cached")
			default:
				status = doneColor.Sprint("done")
			}
		default:
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "[%d/%d] %s %s\n", ev.Index+1, ev.Total, status, ev.Source)
	}
}

type batchOutcome struct {
	results []compiler.BatchResult
	err     error
}

func runBatchWithUI(ctx context.Context, runner *compiler.Runner, title string, files []string, reqs []compiler.Request, jobs int) ([]compiler.BatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan compiler.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		res, err := runner.RunAll(ctx, reqs, jobs, func(ev compiler.Event) { events <- ev })
		outcomeCh <- batchOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()

	var outcome batchOutcome
	select {
	case outcome = <-outcomeCh:
	default:
		// UI закрыт раньше батча (ctrl+c): отменяем и дочитываем события
		cancel()
		go func() {
			for range events {
			}
		}()
		outcome = <-outcomeCh
		if outcome.err == nil {
			outcome.err = context.Canceled
		}
	}
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

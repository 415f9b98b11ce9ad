package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mqltools/internal/config"
	"mqltools/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "mqltools",
	Short: "MQL4/MQL5 compiler driver and editor tooling",
	Long: `mqltools runs MetaEditor in check or compile mode, turns its logs into
diagnostics and prepares MQL folders for clangd based editors`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyColorMode(cmd); err != nil {
			return err
		}
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		stopProfile, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		profileCleanup = stopProfile
		return nil
	},
}

// errReported signals a run whose problems were already printed.
var errReported = errors.New("errors reported")

// traceCleanup is set by setupTracing and runs once the command returns.
var traceCleanup = func() {}

// profileCleanup stops the profilers started by setupProfiling.
var profileCleanup = func() {}

// main registers subcommands and persistent flags, then executes the root
// command. Any returned error exits with status 1.
func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(flagsCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetHelpCommand(helpCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("config", "", "settings file (default: nearest "+config.FileName+")")
	rootCmd.PersistentFlags().String("trace", "", "write trace events to file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit heartbeat trace events at this interval (0=off)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	profileCleanup()
	traceCleanup()
	if err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// reported marks cmd as having printed its own problems and returns the
// silent error that yields exit status 1.
func reported(cmd *cobra.Command) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return errReported
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mqltools/internal/complog"
	"mqltools/internal/observ"
	"mqltools/internal/trace"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <logfile>",
	Short: "Interpret an existing MetaEditor log",
	Long: `Decode a MetaEditor log (UTF-16LE or UTF-8) and print the transcript or the
extracted diagnostics`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("format", formatTranscript, formatFlagHelp())
	parseCmd.Flags().Bool("full", false, "keep full result lines (compile mode transcript)")
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}

	_, span := trace.Start(cmd.Context(), trace.ScopeDriver, "parse")
	defer span.End(path)

	timer := observ.NewTimer()
	var raw []byte
	if err := timer.Measure("read", func() error {
		raw, err = os.ReadFile(path)
		return err
	}); err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}
	var text string
	if err := timer.Measure("decode", func() error {
		text, err = complog.Decode(raw)
		return err
	}); err != nil {
		return fmt.Errorf("failed to decode log: %w", err)
	}
	idx := timer.Begin("parse")
	res := complog.Parse(text, full)
	timer.End(idx, fmt.Sprintf("%d diagnostics", len(res.Diagnostics)))

	if err := writeResult(cmd, cmd.OutOrStdout(), format, res, full, filepath.Dir(path)); err != nil {
		return err
	}
	printTimings(cmd, filepath.Base(path), timer.Report())
	if res.HasError {
		return reported(cmd)
	}
	return nil
}

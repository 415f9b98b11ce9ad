package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mqltools/internal/complog"
	"mqltools/internal/diag"
	"mqltools/internal/diagfmt"
	"mqltools/internal/observ"
	"mqltools/internal/version"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	doneColor    = color.New(color.FgGreen, color.Bold)
	noticeColor  = color.New(color.FgCyan)
)

// writeTranscript prints the classified log the way the editor output
// channel shows it, one entry per line.
func writeTranscript(w io.Writer, res complog.Result, full bool) error {
	for _, e := range res.Entries {
		line := e.Render(full)
		if c := entryColor(e); c != nil {
			line = c.Sprint(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// entryColor picks the transcript colour of e. Diagnostics without a
// location carry no severity and stay uncoloured.
func entryColor(e complog.Entry) *color.Color {
	switch e := e.(type) {
	case complog.ResultSummary:
		switch {
		case e.IsError:
			return errorColor
		case e.IsWarning:
			return warningColor
		}
		return doneColor
	case complog.PositionedDiagnostic:
		if !e.Precise {
			return nil
		}
		if e.Severity == diag.SevError {
			return errorColor
		}
		return warningColor
	case complog.CompilingNotice:
		return noticeColor
	}
	return nil
}

const formatTranscript = "transcript"

func formatFlagHelp() string {
	return "output format (transcript|pretty|json|sarif|short)"
}

// writeResult renders res in the chosen format. baseDir shortens paths for
// the diagnostic formats.
func writeResult(cmd *cobra.Command, w io.Writer, format string, res complog.Result, full bool, baseDir string) error {
	if strings.EqualFold(format, formatTranscript) || format == "" {
		return writeTranscript(w, res, full)
	}
	f, err := diagfmt.ParseFormat(format)
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	bag := res.Bag(maxDiagnostics)
	return diagfmt.Write(w, f, bag, diagfmt.Options{
		Pretty: diagfmt.PrettyOpts{
			Color:    useColor(),
			Context:  1,
			PathMode: diagfmt.PathModeAuto,
			BaseDir:  baseDir,
			Source:   diagfmt.ReadSource,
			Summary:  true,
		},
		JSON: diagfmt.JSONOpts{
			IncludeRange: true,
			PathMode:     diagfmt.PathModeAbsolute,
			Max:          maxDiagnostics,
		},
		Sarif: diagfmt.SarifRunMeta{
			ToolName:       "mqltools",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		},
	})
}

func printTimings(cmd *cobra.Command, label string, report observ.Report) {
	show, _ := cmd.Root().PersistentFlags().GetBool("timings")
	if !show || len(report.Phases) == 0 {
		return
	}
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "timings %s:\n", label)
	for _, p := range report.Phases {
		fmt.Fprintf(out, "  %-12s %8.1f ms\n", p.Name, p.DurationMS)
	}
	fmt.Fprintf(out, "  %-12s %8.1f ms\n", "total", report.TotalMS)
}

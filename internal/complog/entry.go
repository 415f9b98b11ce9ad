package complog

import (
	"fmt"

	"mqltools/internal/diag"
)

// Entry is one classified log line.
type Entry interface {
	// Render returns the transcript text for the entry without a trailing newline.
	Render(full bool) string
}

// CompilingNotice announces the file the compiler started on.
type CompilingNotice struct {
	Name string // quoted file name as printed, e.g. 'Main.mq5'
	Path string
}

func (n CompilingNotice) Render(bool) string { return n.Name }

// IncludeNotice announces a header pulled in by the current file.
type IncludeNotice struct {
	Name string
	Path string
}

func (n IncludeNotice) Render(bool) string { return n.Name }

// InfoNotice is any other informational line that carries a source path.
type InfoNotice struct {
	Name string
	Path string
}

func (n InfoNotice) Render(bool) string { return n.Name }

// ResultSummary is the closing tally of a compiler run.
type ResultSummary struct {
	IsError   bool
	IsWarning bool
	Raw       string
	// Short is the "N errors, M warnings ..." tail of Raw, or Raw itself.
	Short string
}

// Status is the bracketed tag printed in front of the summary.
func (r ResultSummary) Status() string {
	switch {
	case r.IsError:
		return "[Error]"
	case r.IsWarning:
		return "[Warning]"
	}
	return "[Done]"
}

func (r ResultSummary) Render(full bool) string {
	if full {
		return r.Status() + " " + r.Raw
	}
	return r.Status() + " Result: " + r.Short
}

// PositionedDiagnostic is a message the compiler anchored to a source location.
// Line and Column are zero-based and only meaningful when Precise is set.
type PositionedDiagnostic struct {
	File     string
	Line     int
	Column   int
	Message  string
	Code     string
	Severity diag.Severity
	// Position is the "(line,col)" suffix as printed by the compiler.
	Position string
	Precise  bool
}

func (d PositionedDiagnostic) Render(bool) string {
	if d.Precise && d.Position != "" {
		return d.Message + " " + d.Position
	}
	return d.Message
}

// Diagnostic converts the entry into the shared diagnostic model.
func (d PositionedDiagnostic) Diagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		File:     d.File,
		Line:     d.Line,
		Column:   d.Column,
		Message:  d.Message,
		Severity: d.Severity,
		Code:     d.Code,
	}
}

// PlainText is a line nothing else recognised.
type PlainText struct {
	Text string
}

func (p PlainText) Render(bool) string { return p.Text }

// HoverRef points a rendered label back at its source.
type HoverRef struct {
	Target   string // file:// URI
	Fragment string // "line,col" as printed, one-based; empty for notices
	Code     string // vendor error code, empty when absent
}

// Link returns the target with the location fragment appended.
func (h HoverRef) Link() string {
	if h.Fragment == "" {
		return h.Target
	}
	return fmt.Sprintf("%s#%s", h.Target, h.Fragment)
}

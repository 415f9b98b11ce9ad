package complog

import (
	"strings"

	"mqltools/internal/diag"
)

// Result is everything extracted from one compiler log.
type Result struct {
	// Text is the rendered transcript, one entry per line.
	Text string
	// HasError is set once any error summary or error diagnostic is seen.
	HasError    bool
	Diagnostics []diag.Diagnostic
	// Hover maps rendered labels to their source; later labels overwrite earlier ones.
	Hover map[string]HoverRef
	// Entries keeps the classified lines in log order.
	Entries []Entry
}

// Parse interprets the raw compiler log. In compact mode (full == false) the
// transcript starts with two blank lines and result lines are shortened to the
// error/warning tally.
func Parse(raw string, full bool) Result {
	res := Result{Hover: make(map[string]HoverRef)}
	var b strings.Builder
	if !full {
		b.WriteString("\n\n")
	}
	if raw == "" {
		res.Text = b.String()
		return res
	}

	raw = strings.ReplaceAll(raw, "\ufeff", "")
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		e := Classify(line)
		if e == nil {
			continue
		}
		res.record(e)
		b.WriteString(e.Render(full))
		b.WriteByte('\n')
	}
	res.Text = b.String()
	return res
}

func (r *Result) record(e Entry) {
	r.Entries = append(r.Entries, e)
	switch e := e.(type) {
	case CompilingNotice:
		r.Hover[e.Name] = HoverRef{Target: FileURI(e.Path)}
	case IncludeNotice:
		r.Hover[e.Name] = HoverRef{Target: FileURI(e.Path)}
	case InfoNotice:
		r.Hover[e.Name] = HoverRef{Target: FileURI(e.Path)}
	case ResultSummary:
		if e.IsError {
			r.HasError = true
		}
	case PositionedDiagnostic:
		if !e.Precise {
			return
		}
		if e.Severity == diag.SevError {
			r.HasError = true
		}
		r.Diagnostics = append(r.Diagnostics, e.Diagnostic())
		key := strings.TrimSpace(e.Message + " " + e.Position)
		r.Hover[key] = HoverRef{
			Target:   FileURI(e.File),
			Fragment: strings.Trim(e.Position, "()"),
			Code:     e.Code,
		}
	}
}

// Summary returns the last result summary seen, if any.
func (r Result) Summary() (ResultSummary, bool) {
	for i := len(r.Entries) - 1; i >= 0; i-- {
		if s, ok := r.Entries[i].(ResultSummary); ok {
			return s, true
		}
	}
	return ResultSummary{}, false
}

// Bag collects the diagnostics into a bag capped at max entries.
func (r Result) Bag(max int) *diag.Bag {
	b := diag.NewBag(max)
	b.AddAll(r.Diagnostics)
	return b
}

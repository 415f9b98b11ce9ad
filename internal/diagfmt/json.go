package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"fortio.org/safecast"

	"mqltools/internal/diag"
)

// LocationJSON представляет местоположение в файле для JSON.
// Координаты one-based.
type LocationJSON struct {
	File      string `json:"file"`
	StartLine uint32 `json:"start_line"`
	StartCol  uint32 `json:"start_col"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code,omitempty"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
}

func oneBased(v int) (uint32, error) {
	return safecast.Conv[uint32](v + 1)
}

func makeLocation(d diag.Diagnostic, opts JSONOpts) (LocationJSON, error) {
	loc := LocationJSON{File: FormatPath(d.File, opts.PathMode, opts.BaseDir)}
	var err error
	if loc.StartLine, err = oneBased(d.Line); err != nil {
		return loc, fmt.Errorf("line overflow: %w", err)
	}
	if loc.StartCol, err = oneBased(d.Column); err != nil {
		return loc, fmt.Errorf("column overflow: %w", err)
	}
	if opts.IncludeRange {
		r := d.Range()
		if loc.EndLine, err = oneBased(r.End.Line); err != nil {
			return loc, fmt.Errorf("line overflow: %w", err)
		}
		if loc.EndCol, err = oneBased(r.End.Column); err != nil {
			return loc, fmt.Errorf("column overflow: %w", err)
		}
	}
	return loc, nil
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, opts JSONOpts) (DiagnosticsOutput, error) {
	items := bag.Items()
	n := len(items)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, n)}
	out.Errors, out.Warnings = bag.Counts()
	for _, d := range items[:n] {
		loc, err := makeLocation(d, opts)
		if err != nil {
			return DiagnosticsOutput{}, err
		}
		out.Diagnostics = append(out.Diagnostics, DiagnosticJSON{
			Severity: d.Severity.Label(),
			Code:     d.Code,
			Message:  d.Message,
			Location: loc,
		})
	}
	out.Count = len(out.Diagnostics)
	return out, nil
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	output, err := BuildDiagnosticsOutput(bag, opts)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

package diag

import "fmt"

// Position is a zero-based line/column pair.
type Position struct {
	Line   int
	Column int
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position
	End   Position
}

type Diagnostic struct {
	File     string
	Line     int
	Column   int
	Message  string
	Severity Severity
	Code     string
}

// Range returns the point-width range anchored at the reported column.
func (d Diagnostic) Range() Range {
	return Range{
		Start: Position{Line: d.Line, Column: d.Column},
		End:   Position{Line: d.Line, Column: d.Column + 1},
	}
}

// Location renders file:line:col with one-based coordinates.
func (d Diagnostic) Location() string {
	return fmt.Sprintf("%s:%d:%d", d.File, d.Line+1, d.Column+1)
}

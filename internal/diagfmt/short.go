package diagfmt

import (
	"io"

	"mqltools/internal/diag"
)

// Short writes the one-line-per-diagnostic form used by editors and scripts.
func Short(w io.Writer, bag *diag.Bag) error {
	s := diag.FormatShort(bag.Items())
	if s == "" {
		return nil
	}
	_, err := io.WriteString(w, s+"\n")
	return err
}

package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"mqltools/internal/diag"
)

// Format selects the diagnostics renderer.
type Format string

const (
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
	FormatSarif  Format = "sarif"
	FormatShort  Format = "short"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPretty, nil
	case FormatPretty, FormatJSON, FormatSarif, FormatShort:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (expected pretty|json|sarif|short)", s)
}

// Options bundles the per-format settings for Write.
type Options struct {
	Pretty PrettyOpts
	JSON   JSONOpts
	Sarif  SarifRunMeta
}

// Write renders bag in the chosen format.
func Write(w io.Writer, f Format, bag *diag.Bag, opts Options) error {
	switch f {
	case FormatJSON:
		return JSON(w, bag, opts.JSON)
	case FormatSarif:
		return Sarif(w, bag, opts.Sarif)
	case FormatShort:
		return Short(w, bag)
	default:
		return Pretty(w, bag, opts.Pretty)
	}
}

package diagfmt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"mqltools/internal/diag"
)

type palette struct {
	err, warn, info, loc, code, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan),
		loc:    color.New(color.Bold),
		code:   color.New(color.FgMagenta),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.loc, p.code, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^ под колонкой.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	bw := bufio.NewWriter(w)
	pal := newPalette(opts.Color)
	src := newSourceCache(opts.Source)

	for _, d := range bag.Items() {
		head := pal.loc.Sprint(FormatPath(d.File, opts.PathMode, opts.BaseDir)+fmt.Sprintf(":%d:%d:", d.Line+1, d.Column+1)) +
			" " + pal.severity(d.Severity).Sprint(d.Severity.String())
		if d.Code != "" {
			head += " " + pal.code.Sprint(d.Code)
		}
		msg := d.Message
		if opts.Width > 0 {
			avail := int(opts.Width) - runewidth.StringWidth(stripLen(d, opts)) - 2
			if avail > 3 {
				msg = runewidth.Truncate(msg, avail, "...")
			}
		}
		fmt.Fprintf(bw, "%s: %s\n", head, msg)

		if opts.Context >= 0 {
			if lines := src.lines(d.File); lines != nil {
				writeContext(bw, pal, lines, d, int(opts.Context))
			}
		}
	}

	if opts.Summary {
		errs, warns := bag.Counts()
		fmt.Fprintf(bw, "%s, %s\n",
			pal.err.Sprint(plural(errs, "error")),
			pal.warn.Sprint(plural(warns, "warning")))
	}
	return bw.Flush()
}

// stripLen returns the uncolored header so width accounting ignores escapes.
func stripLen(d diag.Diagnostic, opts PrettyOpts) string {
	s := FormatPath(d.File, opts.PathMode, opts.BaseDir) + fmt.Sprintf(":%d:%d: ", d.Line+1, d.Column+1) + d.Severity.String()
	if d.Code != "" {
		s += " " + d.Code
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func writeContext(w io.Writer, pal palette, lines []string, d diag.Diagnostic, context int) {
	if d.Line < 0 || d.Line >= len(lines) {
		return
	}
	from := max(d.Line-context, 0)
	to := min(d.Line+context, len(lines)-1)
	gw := len(fmt.Sprint(to + 1))

	for i := from; i <= to; i++ {
		fmt.Fprintf(w, "%s %s\n", pal.gutter.Sprintf("%*d |", gw, i+1), lines[i])
		if i == d.Line {
			fmt.Fprintf(w, "%s %s%s\n", pal.gutter.Sprintf("%*s |", gw, ""), caretPad(lines[i], d.Column), pal.caret.Sprint("^"))
		}
	}
}

// caretPad mirrors tabs and wide runes of the prefix so the caret lines up.
func caretPad(line string, col int) string {
	var b strings.Builder
	i := 0
	for _, r := range line {
		if i >= col {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteString(strings.Repeat(" ", max(runewidth.RuneWidth(r), 1)))
		}
		i++
	}
	for ; i < col; i++ {
		b.WriteByte(' ')
	}
	return b.String()
}

type sourceCache struct {
	load  SourceFunc
	files map[string][]string
}

func newSourceCache(load SourceFunc) *sourceCache {
	return &sourceCache{load: load, files: make(map[string][]string)}
}

func (c *sourceCache) lines(path string) []string {
	if c.load == nil {
		return nil
	}
	if ls, ok := c.files[path]; ok {
		return ls
	}
	data, err := c.load(path)
	var ls []string
	if err == nil {
		text := strings.ReplaceAll(string(data), "\r\n", "\n")
		text = strings.TrimPrefix(text, "\ufeff")
		ls = strings.Split(text, "\n")
	}
	c.files[path] = ls
	return ls
}

package format

import (
	"bytes"
	"regexp"
	"sort"
)

// Colour and datetime literals must not have a space between the prefix
// letter and the quote: `C '1,2,3'` is written `C'1,2,3'`.
var literalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bC '\d{1,3},\d{1,3},\d{1,3}'`),
	regexp.MustCompile(`\bC '0x[A-Fa-f0-9]{2},0x[A-Fa-f0-9]{2},0x[A-Fa-f0-9]{2}'`),
	regexp.MustCompile(`\bD '(?:(?:\d{2}|\d{4})\.\d{2}\.(?:\d{2}|\d{4})|(?:\d{2}|\d{4})\.\d{2}\.(?:\d{2}|\d{4})\s+[\d:]+)'`),
}

// Edit replaces content[Start:End] with Data.
type Edit struct {
	Start int
	End   int
	Data  []byte
}

// LiteralEdits finds every spaced colour/datetime literal. Each edit removes
// the single space after the prefix letter. Edits are sorted by Start.
func LiteralEdits(content []byte) []Edit {
	var edits []Edit
	seen := make(map[int]bool)
	for _, re := range literalPatterns {
		for _, loc := range re.FindAllIndex(content, -1) {
			space := loc[0] + 1
			if seen[space] {
				continue
			}
			seen[space] = true
			edits = append(edits, Edit{Start: space, End: space + 1})
		}
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].Start < edits[j].Start })
	return edits
}

// Apply returns a copy of content with the non-overlapping edits applied.
func Apply(content []byte, edits []Edit) []byte {
	if len(edits) == 0 {
		return append([]byte(nil), content...)
	}
	sorted := append([]Edit(nil), edits...)
	// с конца, чтобы смещения оставались валидными
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start > sorted[j].Start
	})
	out := append([]byte(nil), content...)
	for _, e := range sorted {
		if e.Start < 0 || e.End > len(out) || e.Start > e.End {
			continue
		}
		var buf bytes.Buffer
		buf.Grow(len(out) - (e.End - e.Start) + len(e.Data))
		buf.Write(out[:e.Start])
		buf.Write(e.Data)
		buf.Write(out[e.End:])
		out = buf.Bytes()
	}
	return out
}

// FixLiterals returns content with spaced literals joined and the number of
// literals changed.
func FixLiterals(content []byte) ([]byte, int) {
	edits := LiteralEdits(content)
	return Apply(content, edits), len(edits)
}

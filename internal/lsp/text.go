package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// applyChanges replays didChange edits on the buffered document. A change
// without a range replaces the whole text.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := byteOffset(text, change.Range.Start)
		end := max(byteOffset(text, change.Range.End), start)
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

// byteOffset converts an LSP position (line, UTF-16 column) to a byte offset
// in text, clamped to the line and document ends.
func byteOffset(text string, pos position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	off := 0
	for range pos.Line {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return len(text)
		}
		off += nl + 1
	}
	line := text[off:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	units := 0
	for i, r := range line {
		if units >= pos.Character {
			return off + i
		}
		if r == utf8.RuneError {
			units++
			continue
		}
		units += utf16.RuneLen(r)
	}
	return off + len(line)
}

// Package complog turns the text log written by the vendor MQL compiler into a
// rendered transcript, structured diagnostics and a hover index.
//
// Each non-blank log line is classified by an ordered table of matchers; the
// first matcher that accepts the line produces an Entry. Lines no matcher
// accepts are kept verbatim as PlainText. Parsing never fails: a line whose
// captures cannot be extracted degrades to a simpler rendering.
package complog

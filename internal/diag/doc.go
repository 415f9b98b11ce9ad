// Package diag defines the diagnostic model shared by the log parser, the
// renderers and the language server.
//
// # Data model
//
// Diagnostic is a single finding reported by the vendor compiler:
//
//   - File – the source path exactly as the compiler printed it.
//   - Line, Column – zero-based position; the compiler reports one-based values.
//   - Severity – Info, Warning or Error.
//   - Code – the vendor's numeric code as text, empty when the line carried none.
//
// The compiler only ever reports a point, so Range always spans one character.
//
// Bag collects diagnostics for one or more compiler runs and supports the usual
// sort / dedup / grouping helpers. It performs no formatting; rendering lives in
// internal/diagfmt.
package diag

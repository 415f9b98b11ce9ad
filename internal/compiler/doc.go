// Package compiler drives MetaEditor, the vendor MQL compiler.
//
// A run validates the configured editor and include directory, picks the file
// to compile (a header may name its parent with a `//###<path.mq5>` first
// line), invokes the editor with /compile and /log, then reads, decodes and
// parses the log it wrote. Check runs (/s, syntax only) may be served from
// the on-disk cache.
package compiler

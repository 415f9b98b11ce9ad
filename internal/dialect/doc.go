// Package dialect decides which MQL language generation a file or folder belongs to.
//
// Detection is purely lexical: it never touches the filesystem. A source file
// extension always wins over a folder hint, and a folder with no version marker
// falls back to MQL5 so that neutral headers still get a usable flag set.
package dialect

// Package compiledb writes the files clangd reads from a workspace root:
// compile_commands.json and .clangd.
package compiledb

// Package flags composes the clang command-line flags that let a C-family
// language server read MQL sources.
package flags

import (
	"strings"

	"mqltools/internal/dialect"
)

const (
	includePrefix = "-I"
	definePrefix  = "-D"
	forcePrefix   = "-include"
)

// Set is an ordered list of distinct, non-blank flags.
type Set []string

// NormalizePath turns every backslash into a forward slash.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	return strings.ReplaceAll(p, `\`, "/")
}

// Merge returns a copy of existing followed by every addition that is not blank
// and not already present. Existing entries keep their order and are never dropped.
func Merge(existing Set, additions []string) Set {
	out := make(Set, len(existing), len(existing)+len(additions))
	copy(out, existing)
	seen := make(map[string]struct{}, len(out)+len(additions))
	for _, f := range out {
		seen[f] = struct{}{}
	}
	for _, f := range additions {
		if strings.TrimSpace(f) == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Contains reports whether flag is in s.
func (s Set) Contains(flag string) bool {
	for _, f := range s {
		if f == flag {
			return true
		}
	}
	return false
}

// IncludeFlag returns -I<path> with the path normalized.
func IncludeFlag(path string) string {
	return includePrefix + NormalizePath(path)
}

// ForceIncludeFlag returns -include<path> with the path normalized.
func ForceIncludeFlag(path string) string {
	return forcePrefix + NormalizePath(path)
}

// DefineFlag returns -D<symbol>.
func DefineFlag(symbol string) string {
	return definePrefix + symbol
}

// Base is the version independent battery: C++ mode, language standard, no error cap,
// and warning suppressions for constructs that are legal MQL but odd C++.
func Base() Set {
	return Set{
		"-xc++",
		"-std=c++17",
		"-fms-extensions",
		"-fms-compatibility",
		"-ferror-limit=0",
		"-Wno-invalid-token-paste",
		"-Wno-unused-value",
		"-Wno-unknown-pragmas",
		"-Wno-writable-strings",
		"-Xclang", "-Wno-invalid-pp-directive",
		"-Wno-unknown-directives",
		"-Wno-language-extension-token",
	}
}

// Defines returns the preprocessor symbols predefined for k.
// Unknown gets the MQL5 set, the same default Detect applies.
func Defines(k dialect.Kind) []string {
	if k == dialect.MQL4 {
		return []string{"__MQL__", "__MQL4__", "__MQL4_BUILD__"}
	}
	return []string{"__MQL__", "__MQL5__", "__MQL5_BUILD__"}
}

// Project appends the version defines to a copy of base. base is not modified.
func Project(k dialect.Kind, base Set) Set {
	syms := Defines(k)
	defs := make([]string, 0, len(syms))
	for _, s := range syms {
		defs = append(defs, DefineFlag(s))
	}
	return Merge(base, defs)
}

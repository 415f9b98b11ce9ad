package compiledb

import (
	"bytes"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Clangd mirrors the subset of the .clangd schema mqltools writes.
type Clangd struct {
	Diagnostics  ClangdDiagnostics  `yaml:"Diagnostics"`
	CompileFlags ClangdCompileFlags `yaml:"CompileFlags"`
}

type ClangdDiagnostics struct {
	Suppress  []string        `yaml:"Suppress"`
	ClangTidy ClangdClangTidy `yaml:"ClangTidy"`
}

type ClangdClangTidy struct {
	Remove []string `yaml:"Remove"`
}

type ClangdCompileFlags struct {
	Add []string `yaml:"Add"`
}

// Diagnostics clangd reports for valid MQL: preprocessor directives like
// #property, permissive arrays and conversions, MQL overload rules, and
// `this.` member access.
var suppressed = []string{
	"pp_invalid_directive",
	"unknown_directive",
	"pp_import_directive_ms",

	"typecheck_incomplete_array_needs_initializer",
	"illegal_decl_array_of_references",
	"typecheck_subscript_not_integer",

	"typecheck_invalid_operands",
	"typecheck_convert_incompatible_pointer",
	"init_conversion_failed",
	"reference_bind_drops_quals",
	"lvalue_reference_bind_to_temporary",
	"err_lvalue_reference_bind_to_unrelated",

	"ovl_no_conversion_in_cast",
	"ovl_no_viable_conversion_in_cast",
	"ovl_no_viable_function_in_call",
	"ovl_no_viable_function_in_init",
	"ovl_diff_return_type",
	"ovl_ambiguous_call",
	"ovl_ambiguous_conversion",
	"ovl_ambiguous_conversion_in_cast",
	"ovl_ambiguous_oper_binary",
	"ovl_ambiguous_oper_unary",
	"ambig_derived_to_base_conv",

	"undeclared_var_use",
	"undeclared_var_use_suggest",
	"redefinition",
	"param_default_argument_redefinition",

	"non-pod-varargs",
	"duplicate_case",
	"writable-strings",
	"conditional_ambiguous",
	"err_typecheck_member_reference_suggestion",
	"err_field_incomplete_or_sizeless",
	"err_typecheck_bool_condition",
	"err_typecheck_ambiguous_condition",
	"tautological-constant-out-of-range-compare",

	"err_member_reference_needs_call",
	"member_reference_needs_call",
}

var (
	tidyChecks   = []string{"readability-identifier-naming", "bugprone-narrowing-conversions"}
	tidyFamilies = []string{"modernize-*", "cppcoreguidelines-*", "cert-*", "hicpp-*", "performance-*", "google-*"}
)

const clangdHeader = `# MQL clangd configuration
# Generated by mqltools setup; suppresses clangd errors for valid MQL syntax.
`

// NewClangd returns the configuration. broad also removes whole ClangTidy
// check families instead of only the named checks.
func NewClangd(broad bool) Clangd {
	remove := append([]string(nil), tidyChecks...)
	if broad {
		remove = append(append([]string(nil), tidyFamilies...), remove...)
	}
	return Clangd{
		Diagnostics: ClangdDiagnostics{
			Suppress:  append([]string(nil), suppressed...),
			ClangTidy: ClangdClangTidy{Remove: remove},
		},
		CompileFlags: ClangdCompileFlags{
			// targeted -Wno-* flags already come from the compile database
			Add: []string{"-Wno-everything"},
		},
	}
}

// Marshal renders the configuration as YAML with a generated-file header.
func (c Clangd) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(clangdHeader)
	buf.WriteByte('\n')
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ClangdFile, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseClangd decodes a .clangd document.
func ParseClangd(data []byte) (Clangd, error) {
	var c Clangd
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Clangd{}, fmt.Errorf("decode %s: %w", ClangdFile, err)
	}
	return c, nil
}

// WriteClangd writes .clangd into root.
func WriteClangd(root string, broad bool) error {
	data, err := NewClangd(broad).Marshal()
	if err != nil {
		return err
	}
	return WriteFileAtomic(filepath.Join(root, ClangdFile), data, 0o644)
}

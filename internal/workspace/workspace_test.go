package workspace

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/tidwall/gjson"

	"mqltools/internal/compiledb"
	"mqltools/internal/config"
	"mqltools/internal/dialect"
	"mqltools/internal/flags"
)

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	p := filepath.Join(parts...)
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFlagsMQL4WithExternalInclude(t *testing.T) {
	base := t.TempDir()
	root := mkdir(t, base, "MQL4")
	data := mkdir(t, base, "Terminal", "MQL4")
	mkdir(t, data, "Include")

	cfg := config.Default()
	cfg.MetaEditor.Include4 = data
	cfg.Clangd.CompatHeader = `C:\tools\mql_clangd_compat.h`

	kind, set := Flags(cfg, root)
	if kind != dialect.MQL4 {
		t.Fatalf("kind = %v", kind)
	}
	if !set.Contains("-D__MQL4__") || set.Contains("-D__MQL5__") {
		t.Fatalf("wrong defines: %v", set)
	}
	n := len(set)
	want := []string{
		"-includeC:/tools/mql_clangd_compat.h",
		flags.IncludeFlag(root),
		flags.IncludeFlag(filepath.Join(root, "Include")),
		flags.IncludeFlag(filepath.Join(data, "Include")),
	}
	if !slices.Equal([]string(set[n-4:]), want) {
		t.Fatalf("tail = %v, want %v", set[n-4:], want)
	}
	if set[0] != "-xc++" {
		t.Fatalf("base flags must come first: %v", set)
	}
}

func TestExternalInclude(t *testing.T) {
	dir := t.TempDir()
	if got := ExternalInclude(dir); got != flags.IncludeFlag(dir) {
		t.Errorf("without Include subfolder = %q", got)
	}
	if got := ExternalInclude(filepath.Join(dir, "missing")); got != "" {
		t.Errorf("missing dir = %q", got)
	}
	if got := ExternalInclude(""); got != "" {
		t.Errorf("empty = %q", got)
	}
}

func TestMergeSettings(t *testing.T) {
	in := []byte(`{
    "editor.tabSize": 3,
    "clangd.fallbackFlags": ["-xc++", "-DUSER"],
    "files.associations": {"*.h": "c"}
}`)
	out, err := MergeSettings(in, flags.Set{"-xc++", "-std=c++17"})
	if err != nil {
		t.Fatalf("MergeSettings: %v", err)
	}
	got := gjson.GetBytes(out, `clangd\.fallbackFlags`).Array()
	var fl []string
	for _, v := range got {
		fl = append(fl, v.String())
	}
	if !slices.Equal(fl, []string{"-xc++", "-DUSER", "-std=c++17"}) {
		t.Errorf("fallbackFlags = %v", fl)
	}
	if gjson.GetBytes(out, `editor\.tabSize`).Int() != 3 {
		t.Error("unrelated setting lost")
	}
	assoc := gjson.GetBytes(out, `files\.associations`).Map()
	if assoc["*.h"].String() != "c" || assoc["*.mq5"].String() != "cpp" || assoc["*.mqh"].String() != "cpp" {
		t.Errorf("associations = %v", assoc)
	}
	if gjson.GetBytes(out, `C_Cpp\.intelliSenseEngine`).String() != "Disabled" {
		t.Error("intelliSenseEngine not disabled")
	}
}

func TestMergeSettingsRejectsComments(t *testing.T) {
	if _, err := MergeSettings([]byte("{ // hi\n}"), nil); err == nil {
		t.Fatal("expected error for JSON with comments")
	}
	if _, err := MergeSettings([]byte("[]"), nil); err == nil {
		t.Fatal("expected error for non-object settings")
	}
}

func TestSetup(t *testing.T) {
	root := mkdir(t, t.TempDir(), "MQL5")
	mkdir(t, root, "Experts")
	if err := os.WriteFile(filepath.Join(root, "Experts", "Main.mq5"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	res, err := Setup(context.Background(), config.Default(), root, Options{})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if res.Dialect != dialect.MQL5 || res.Files != 1 || !res.Commands || !res.Clangd {
		t.Fatalf("unexpected result %+v", res)
	}
	for _, name := range []string{compiledb.CommandsFile, compiledb.ClangdFile, filepath.Join(".vscode", "settings.json")} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	// second run keeps the settings stable
	before, _ := os.ReadFile(res.Settings)
	if _, err := Setup(context.Background(), config.Default(), root, Options{SkipClangd: true}); err != nil {
		t.Fatalf("second Setup: %v", err)
	}
	after, _ := os.ReadFile(res.Settings)
	if string(before) != string(after) {
		t.Errorf("settings changed on rerun:\n%s\n---\n%s", before, after)
	}
}

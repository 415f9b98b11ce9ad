package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"mqltools/internal/complog"
	"mqltools/internal/config"
	"mqltools/internal/diag"
)

func TestReadColorMode(t *testing.T) {
	cases := map[string]colorMode{
		"":       colorAuto,
		"auto":   colorAuto,
		"ON":     colorOn,
		"always": colorOn,
		"off":    colorOff,
		"never":  colorOff,
	}
	for in, want := range cases {
		got, err := readColorMode(in)
		if err != nil {
			t.Fatalf("readColorMode(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("readColorMode(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := readColorMode("sometimes"); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
}

func TestReadUIMode(t *testing.T) {
	if m, err := readUIMode("On"); err != nil || m != uiModeOn {
		t.Fatalf("readUIMode(On) = %q, %v", m, err)
	}
	if _, err := readUIMode("tui"); err == nil {
		t.Fatalf("expected error for invalid ui mode")
	}
}

func TestWorkspaceFor(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.mq5")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if got := workspaceFor(config.Config{}, "/explicit", file); got != "/explicit" {
		t.Errorf("flag value ignored: %q", got)
	}
	if got := workspaceFor(config.Config{Root: "/cfg"}, "", file); got != "/cfg" {
		t.Errorf("config root ignored: %q", got)
	}
	if got := workspaceFor(config.Config{}, "", file); got != dir {
		t.Errorf("file workspace = %q, want %q", got, dir)
	}
	if got := workspaceFor(config.Config{}, "", dir); got != dir {
		t.Errorf("dir workspace = %q, want %q", got, dir)
	}
}

func TestCollectMQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mq4", "b.MQH", "notes.txt", ".git/c.mq5", "sub/d.mq5"} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	files, err := collectMQLFiles([]string{dir})
	if err != nil {
		t.Fatalf("collectMQLFiles: %v", err)
	}
	var names []string
	for _, f := range files {
		rel, _ := filepath.Rel(dir, f)
		names = append(names, filepath.ToSlash(rel))
	}
	got := strings.Join(names, ",")
	if got != "a.mq4,b.MQH,sub/d.mq5" {
		t.Fatalf("files = %s", got)
	}
}

func TestWriteTranscriptKeepsOrder(t *testing.T) {
	log := strings.Join([]string{
		`C:\Project : information: compiling 'Main.mq5'`,
		`C:\Project\Main.mq5(3,5) : error 256: 'x' - undeclared identifier`,
		`C:\Project\Main.mq5 : information: result 1 errors, 0 warnings, 12 msec elapsed`,
	}, "\r\n")
	res := complog.Parse(log, false)

	var buf bytes.Buffer
	if err := writeTranscript(&buf, res, false); err != nil {
		t.Fatalf("writeTranscript: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "\n") != len(res.Entries) {
		t.Fatalf("want one line per entry, got:\n%s", out)
	}
	if !strings.Contains(out, "undeclared identifier") {
		t.Fatalf("diagnostic missing:\n%s", out)
	}
}

func TestEntryColor(t *testing.T) {
	tests := []struct {
		name  string
		entry complog.Entry
		want  *color.Color
	}{
		{"error summary", complog.ResultSummary{IsError: true}, errorColor},
		{"warning summary", complog.ResultSummary{IsWarning: true}, warningColor},
		{"clean summary", complog.ResultSummary{}, doneColor},
		{"precise error", complog.PositionedDiagnostic{Precise: true, Severity: diag.SevError}, errorColor},
		{"precise warning", complog.PositionedDiagnostic{Precise: true, Severity: diag.SevWarning}, warningColor},
		{"imprecise error", complog.PositionedDiagnostic{Message: "error: something failed"}, nil},
		{"compiling", complog.CompilingNotice{Name: "'Main.mq5'"}, noticeColor},
		{"plain", complog.PlainText{Text: "x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryColor(tt.entry); got != tt.want {
				t.Fatalf("entryColor = %p, want %p", got, tt.want)
			}
		})
	}
}

package compiler

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLogPath(t *testing.T) {
	tests := []struct {
		target string
		name   string
		want   string
	}{
		{target: `C:\MQL5\Experts\Main.mq5`, want: `C:\MQL5\Experts\Main.log`},
		{target: `C:\MQL5\Experts\Main.mq5`, name: "out", want: `C:\MQL5\Experts\out.log`},
		{target: `C:\MQL5\Experts\Main.mq5`, name: "out.LOG", want: `C:\MQL5\Experts\out.LOG`},
		{target: "/work/Experts/v1.2.mq4", want: "/work/Experts/v1.2.log"},
	}
	for _, tt := range tests {
		if got := LogPath(tt.target, tt.name); got != tt.want {
			t.Errorf("LogPath(%q, %q) = %q, want %q", tt.target, tt.name, got, tt.want)
		}
	}
}

func TestCommandLine(t *testing.T) {
	args := Args(`C:\P\Main.mq5`, `C:\MT5\MQL5`, `C:\P\Main.log`, Check)
	got := CommandLine(`C:\MT5\metaeditor64.exe`, args)
	want := `"C:\MT5\metaeditor64.exe" /compile:"C:\P\Main.mq5" /include:"C:\MT5\MQL5" /s /log:"C:\P\Main.log"`
	if got != want {
		t.Fatalf("CommandLine =\n%s\nwant\n%s", got, want)
	}
}

func TestOtherEditor(t *testing.T) {
	if got := otherEditor(`C:\MT5\metaeditor.exe`); got != `C:\MT5\metaeditor64.exe` {
		t.Fatalf("otherEditor = %q", got)
	}
	if got := otherEditor(`C:\MT5\MetaEditor64.exe`); got != `C:\MT5\metaeditor.exe` {
		t.Fatalf("otherEditor = %q", got)
	}
}

func TestParentFile(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "Lib.mqh")
	if err := os.WriteFile(header, []byte("\ufeff//###<Experts\\Old.mq4> //###<Experts/Robot.mq5>\nint x;"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := ParentFile(header, dir)
	if err != nil {
		t.Fatalf("ParentFile: %v", err)
	}
	if want := filepath.Join(dir, "Experts", "Robot.mq5"); got != want {
		t.Fatalf("ParentFile = %q, want %q", got, want)
	}

	plain := filepath.Join(dir, "Plain.mqh")
	if err := os.WriteFile(plain, []byte("// just a header\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got, err := ParentFile(plain, dir); err != nil || got != "" {
		t.Fatalf("ParentFile(plain) = %q, %v", got, err)
	}
}

package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mqltools/internal/cache"
	"mqltools/internal/config"
	"mqltools/internal/diag"
	"mqltools/internal/dialect"
)

func utf16le(s string) []byte {
	out := []byte{0xFF, 0xFE}
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

type fakeEditor struct {
	mu    sync.Mutex
	calls [][]string
	log   func(args []string) string
	n     atomic.Int32
}

func (f *fakeEditor) exec(_ context.Context, _ string, args []string) (string, error) {
	f.n.Add(1)
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	f.mu.Unlock()
	var logPath string
	for _, a := range args {
		if strings.HasPrefix(a, "/log:") {
			logPath = strings.TrimPrefix(a, "/log:")
		}
	}
	if err := os.WriteFile(logPath, utf16le(f.log(args)), 0o600); err != nil {
		return "", err
	}
	return "", nil
}

func (f *fakeEditor) lastArgs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fixture struct {
	dir    string
	cfg    config.Config
	editor *fakeEditor
}

func newFixture(t *testing.T, log string) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.MetaEditor.Editor4 = filepath.Join(dir, "metaeditor.exe")
	cfg.MetaEditor.Editor5 = filepath.Join(dir, "metaeditor64.exe")
	return &fixture{
		dir: dir,
		cfg: cfg,
		editor: &fakeEditor{log: func([]string) string {
			return log
		}},
	}
}

func (fx *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(fx.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func (fx *fixture) runner(opts ...Option) *Runner {
	return NewRunner(fx.cfg, append([]Option{WithExec(fx.editor.exec)}, opts...)...)
}

const errorLog = "C:\\Project\\Main.mq5(10,5) : error 123: unexpected token\r\n" +
	"Result: 1 errors, 0 warnings, 50 msec elapsed\r\n"

func TestRunCheck(t *testing.T) {
	fx := newFixture(t, errorLog)
	src := fx.write(t, "Experts/Main.mq5", "void OnTick(){}")

	rep, err := fx.runner().Run(context.Background(), Request{Source: src, Mode: Check})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantLog := filepath.Join(fx.dir, "Experts", "Main.log")
	if rep.LogPath != wantLog {
		t.Errorf("LogPath = %q, want %q", rep.LogPath, wantLog)
	}
	args := fx.editor.lastArgs()
	want := []string{"/compile:" + src, "/s", "/log:" + wantLog}
	if strings.Join(args, "|") != strings.Join(want, "|") {
		t.Errorf("args = %q, want %q", args, want)
	}
	if rep.Dialect != dialect.MQL5 || rep.Editor != fx.cfg.MetaEditor.Editor5 {
		t.Errorf("dialect/editor = %v %q", rep.Dialect, rep.Editor)
	}
	if !rep.HasError() || len(rep.Result.Diagnostics) != 1 {
		t.Fatalf("unexpected result %+v", rep.Result)
	}
	if rep.Result.Diagnostics[0].Severity != diag.SevError {
		t.Errorf("severity = %v", rep.Result.Diagnostics[0].Severity)
	}
	if !strings.HasPrefix(rep.Result.Text, "\n\n") {
		t.Errorf("check runs render compact text, got %q", rep.Result.Text)
	}
	if len(rep.RunID) != 26 {
		t.Errorf("RunID = %q", rep.RunID)
	}
	if len(rep.Timings.Phases) != 4 {
		t.Errorf("timings = %+v", rep.Timings)
	}
	if _, err := os.Stat(wantLog); err != nil {
		t.Errorf("log should be kept: %v", err)
	}
}

func TestRunCompileUsesIncludeAndLogName(t *testing.T) {
	fx := newFixture(t, "Result: 0 errors, 0 warnings, 10 msec elapsed")
	inc := filepath.Join(fx.dir, "MQL4")
	if err := os.MkdirAll(inc, 0o755); err != nil {
		t.Fatal(err)
	}
	fx.cfg.MetaEditor.Include4 = inc
	fx.cfg.Log.Name = "build"
	fx.cfg.Log.Delete = true
	src := fx.write(t, "Scripts/Tool.mq4", "void OnStart(){}")

	rep, err := fx.runner().Run(context.Background(), Request{Source: src, Mode: Compile})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantLog := filepath.Join(fx.dir, "Scripts", "build.log")
	want := []string{"/compile:" + src, "/include:" + inc, "/log:" + wantLog}
	if got := fx.editor.lastArgs(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("args = %q, want %q", got, want)
	}
	if rep.Editor != fx.cfg.MetaEditor.Editor4 {
		t.Errorf("editor = %q", rep.Editor)
	}
	if rep.Result.Text != "[Done] Result: 0 errors, 0 warnings, 10 msec elapsed\n" {
		t.Errorf("text = %q", rep.Result.Text)
	}
	if _, err := os.Stat(wantLog); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("log not deleted: %v", err)
	}
}

func TestRunHeader(t *testing.T) {
	fx := newFixture(t, "Result: 0 errors, 0 warnings")
	parent := fx.write(t, "Experts/Robot.mq5", "#include \"Lib.mqh\"")
	withMarker := fx.write(t, "Experts/Lib.mqh", "//###<Experts/Robot.mq5>\nint x;")
	noMarker := fx.write(t, "Include/Other.mqh", "int y;")
	r := fx.runner()

	rep, err := r.Run(context.Background(), Request{Source: withMarker, Mode: Compile, Workspace: fx.dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Target != parent || rep.Source != withMarker {
		t.Errorf("target = %q, source = %q", rep.Target, rep.Source)
	}

	_, err = r.Run(context.Background(), Request{Source: noMarker, Mode: Compile, Workspace: fx.dir})
	if !errors.Is(err, ErrHeaderOnly) {
		t.Errorf("err = %v, want ErrHeaderOnly", err)
	}

	rep, err = r.Run(context.Background(), Request{Source: noMarker, Mode: Check, Workspace: filepath.Join(fx.dir, "MQL4")})
	if err != nil {
		t.Fatalf("check header: %v", err)
	}
	if rep.Target != noMarker || rep.Dialect != dialect.MQL4 {
		t.Errorf("check header target = %q dialect = %v", rep.Target, rep.Dialect)
	}
}

func TestRunValidation(t *testing.T) {
	fx := newFixture(t, "")
	src := fx.write(t, "Main.mq5", "")
	txt := fx.write(t, "notes.txt", "")

	tests := []struct {
		name   string
		mutate func(*config.Config)
		source string
		want   error
	}{
		{name: "wrong editor name", mutate: func(c *config.Config) { c.MetaEditor.Editor5 = filepath.Join(fx.dir, "terminal64.exe") }, source: src, want: ErrEditorNotFound},
		{name: "missing editor dir", mutate: func(c *config.Config) { c.MetaEditor.Editor5 = filepath.Join(fx.dir, "nope", "metaeditor64.exe") }, source: src, want: ErrEditorNotFound},
		{name: "missing include", mutate: func(c *config.Config) { c.MetaEditor.Include5 = filepath.Join(fx.dir, "MQL5") }, source: src, want: ErrIncludeNotFound},
		{name: "unsupported file", mutate: func(*config.Config) {}, source: txt, want: ErrUnsupportedFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fx.cfg
			tt.mutate(&cfg)
			r := NewRunner(cfg, WithExec(fx.editor.exec))
			_, err := r.Run(context.Background(), Request{Source: tt.source})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if n := fx.editor.n.Load(); n != 0 {
		t.Fatalf("editor invoked %d times on invalid setup", n)
	}
}

func TestRunEditorStderr(t *testing.T) {
	fx := newFixture(t, "")
	src := fx.write(t, "Main.mq5", "")
	r := NewRunner(fx.cfg, WithExec(func(context.Context, string, []string) (string, error) {
		return "bad image format", nil
	}))
	_, err := r.Run(context.Background(), Request{Source: src})
	if !errors.Is(err, ErrEditorFailed) || !strings.Contains(err.Error(), "metaeditor.exe") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunTimeout(t *testing.T) {
	fx := newFixture(t, "")
	fx.cfg.Compile.Timeout = config.Duration{Duration: 20 * time.Millisecond}
	src := fx.write(t, "Main.mq5", "")
	r := NewRunner(fx.cfg, WithExec(func(ctx context.Context, _ string, _ []string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}))
	_, err := r.Run(context.Background(), Request{Source: src})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestRunCheckCache(t *testing.T) {
	fx := newFixture(t, errorLog)
	src := fx.write(t, "Main.mq5", "void OnTick(){}")
	dc, err := cache.Open(filepath.Join(fx.dir, ".cache"))
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	r := fx.runner(WithCache(dc))

	first, err := r.Run(context.Background(), Request{Source: src})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := r.Run(context.Background(), Request{Source: src})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Cached || second.RunID != first.RunID || fx.editor.n.Load() != 1 {
		t.Fatalf("expected cache hit, cached=%v calls=%d", second.Cached, fx.editor.n.Load())
	}
	if len(second.Result.Diagnostics) != 1 {
		t.Fatalf("cached result lost diagnostics: %+v", second.Result)
	}

	fx.write(t, "Main.mq5", "void OnTick(){ int x; }")
	third, err := r.Run(context.Background(), Request{Source: src})
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.Cached || fx.editor.n.Load() != 2 {
		t.Fatal("edited source served from cache")
	}

	if _, err := r.Run(context.Background(), Request{Source: src, Mode: Compile}); err != nil {
		t.Fatalf("compile run: %v", err)
	}
	if fx.editor.n.Load() != 3 {
		t.Fatal("compile runs must bypass the cache")
	}
}

func TestRunFixLiterals(t *testing.T) {
	fx := newFixture(t, "Result: 0 errors, 0 warnings")
	src := fx.write(t, "Main.mq5", "color c = C '1,2,3';")
	rep, err := fx.runner().Run(context.Background(), Request{Source: src, FixLiterals: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := os.ReadFile(src)
	if string(got) != "color c = C'1,2,3';" || rep.LiteralsFixed != 1 {
		t.Fatalf("source = %q, fixed = %d", got, rep.LiteralsFixed)
	}
}

func TestRunAll(t *testing.T) {
	fx := newFixture(t, "Result: 0 errors, 0 warnings")
	fx.write(t, "Experts/B.mq5", "")
	fx.write(t, "Experts/A.mq5", "")
	fx.write(t, "Experts/Lib.mqh", "")
	fx.write(t, "Scripts/C.mq4", "")
	fx.write(t, ".git/hooks/X.mq5", "")

	files, err := ListSources(fx.dir)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(files) != 3 || filepath.Base(files[0]) != "A.mq5" || filepath.Base(files[2]) != "C.mq4" {
		t.Fatalf("files = %v", files)
	}

	reqs := make([]Request, len(files))
	for i, f := range files {
		reqs[i] = Request{Source: f, Mode: Compile}
	}
	var mu sync.Mutex
	stages := make(map[Stage]int)
	results, err := fx.runner().RunAll(context.Background(), reqs, 2, func(ev Event) {
		mu.Lock()
		stages[ev.Stage]++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	for i, res := range results {
		if res.Source != files[i] || res.Err != nil || res.Report == nil {
			t.Errorf("result %d = %+v", i, res)
		}
	}
	if stages[StageQueued] != 3 || stages[StageRunning] != 3 || stages[StageDone] != 3 {
		t.Errorf("stages = %v", stages)
	}
}

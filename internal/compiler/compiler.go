package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mqltools/internal/cache"
	"mqltools/internal/complog"
	"mqltools/internal/config"
	"mqltools/internal/dialect"
	"mqltools/internal/format"
	"mqltools/internal/observ"
	"mqltools/internal/trace"
)

var (
	// ErrEditorNotFound means the configured path is not metaeditor.exe or
	// metaeditor64.exe inside an existing directory.
	ErrEditorNotFound = errors.New("metaeditor not found")
	// ErrIncludeNotFound means the configured include directory is missing.
	ErrIncludeNotFound = errors.New("include directory not found")
	// ErrHeaderOnly is returned when compiling a header that names no parent.
	ErrHeaderOnly = errors.New("header files cannot be compiled on their own")
	// ErrUnsupportedFile is returned for files that are not .mq4/.mq5/.mqh.
	ErrUnsupportedFile = errors.New("not an MQL source file")
	// ErrEditorFailed wraps anything the editor printed to stderr.
	ErrEditorFailed = errors.New("metaeditor failed")
)

// Mode selects between a syntax check and a full compile.
type Mode uint8

const (
	Check Mode = iota
	Compile
)

func (m Mode) String() string {
	if m == Compile {
		return "compile"
	}
	return "check"
}

// Request describes one run.
type Request struct {
	Source string
	Mode   Mode
	// Workspace resolves header parent paths and the dialect of headers.
	Workspace string
	// FixLiterals joins spaced colour/datetime literals in Source before the run.
	FixLiterals bool
}

// Report is the outcome of a run.
type Report struct {
	RunID   string
	Source  string
	Target  string // file handed to MetaEditor; differs from Source for headers
	Dialect dialect.Kind
	Mode    Mode
	Editor  string
	LogPath string
	Args    []string
	Log     string // decoded log text
	Result  complog.Result
	Timings observ.Report
	Cached  bool
	// LiteralsFixed counts literals rewritten in Source before the run.
	LiteralsFixed int
}

// HasError reports whether the compiler reported an error.
func (r *Report) HasError() bool {
	return r != nil && r.Result.HasError
}

// ExecFunc runs the editor and returns what it wrote to stderr.
type ExecFunc func(ctx context.Context, editor string, args []string) (stderr string, err error)

// Runner executes MetaEditor runs with a fixed configuration.
type Runner struct {
	cfg   config.Config
	exec  ExecFunc
	cache *cache.Disk
	now   func() time.Time
}

// Option customises a Runner.
type Option func(*Runner)

// WithExec replaces the process runner, mainly for tests.
func WithExec(fn ExecFunc) Option {
	return func(r *Runner) { r.exec = fn }
}

// WithCache enables result caching for check runs.
func WithCache(c *cache.Disk) Option {
	return func(r *Runner) { r.cache = c }
}

func NewRunner(cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:  cfg,
		exec: execEditor,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the configuration the runner was built with.
func (r *Runner) Config() config.Config { return r.cfg }

// Run compiles or checks req.Source and parses the resulting log.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	ctx, span := trace.Start(ctx, trace.ScopeFile, "compiler:"+filepath.Base(req.Source))
	rep, err := r.run(ctx, req)
	detail := "ok"
	switch {
	case err != nil:
		detail = err.Error()
	case rep.Cached:
		detail = "cached"
	case rep.HasError():
		detail = "errors"
	}
	span.End(detail)
	return rep, err
}

func (r *Runner) run(ctx context.Context, req Request) (*Report, error) {
	timer := observ.NewTimer()
	rep := &Report{
		RunID:  newRunID(r.now()),
		Source: req.Source,
		Mode:   req.Mode,
	}

	if req.FixLiterals {
		n, err := format.FixFile(req.Source)
		if err != nil {
			return nil, err
		}
		rep.LiteralsFixed = n
	}

	target, kind, err := r.resolveTarget(req)
	if err != nil {
		return nil, err
	}
	rep.Target = target
	rep.Dialect = kind

	editor, err := validateEditor(r.cfg.Editor(kind))
	if err != nil {
		return nil, err
	}
	rep.Editor = editor
	include, err := validateInclude(r.cfg.Include(kind))
	if err != nil {
		return nil, err
	}

	rep.LogPath = LogPath(target, r.cfg.Log.Name)
	rep.Args = Args(target, include, rep.LogPath, req.Mode)

	var key cache.Digest
	useCache := r.cache != nil && req.Mode == Check
	if useCache {
		content, err := os.ReadFile(target)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", target, err)
		}
		key = cache.KeyOf([]byte(editor), []byte(include), []byte(target), content)
		if r.fromCache(key, rep) {
			rep.Timings = timer.Report()
			trace.Point(trace.FromContext(ctx), trace.ScopeFile, "cache", "hit "+filepath.Base(target))
			return rep, nil
		}
	}

	if err := timer.Measure("metaeditor", func() error {
		return r.invoke(ctx, editor, rep.Args)
	}); err != nil {
		return nil, err
	}

	var raw []byte
	if err := timer.Measure("read log", func() error {
		var err error
		raw, err = os.ReadFile(rep.LogPath)
		if err != nil {
			return fmt.Errorf("read compiler log: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if r.cfg.Log.Delete {
		if err := os.Remove(rep.LogPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove compiler log: %w", err)
		}
	}

	if err := timer.Measure("decode", func() error {
		var err error
		rep.Log, err = complog.Decode(raw)
		return err
	}); err != nil {
		return nil, err
	}

	idx := timer.Begin("parse")
	rep.Result = complog.Parse(rep.Log, req.Mode == Compile)
	timer.End(idx, fmt.Sprintf("%d diagnostics", len(rep.Result.Diagnostics)))
	rep.Timings = timer.Report()

	if useCache {
		r.store(ctx, key, rep)
	}
	return rep, nil
}

// resolveTarget picks the file to hand to MetaEditor and its dialect.
func (r *Runner) resolveTarget(req Request) (string, dialect.Kind, error) {
	src := req.Source
	switch dialect.Ext(src) {
	case dialect.ExtMQ4:
		return src, dialect.MQL4, nil
	case dialect.ExtMQ5:
		return src, dialect.MQL5, nil
	case dialect.ExtMQH:
	default:
		return "", dialect.Unknown, fmt.Errorf("%s: %w", src, ErrUnsupportedFile)
	}

	if req.Mode == Check {
		return src, headerDialect(req.Workspace), nil
	}
	parent, err := ParentFile(src, req.Workspace)
	if err != nil {
		return "", dialect.Unknown, err
	}
	if parent == "" {
		return "", dialect.Unknown, fmt.Errorf("%s: %w", src, ErrHeaderOnly)
	}
	if _, err := os.Stat(parent); err != nil {
		return "", dialect.Unknown, fmt.Errorf("%s: parent %s: %w", src, parent, ErrHeaderOnly)
	}
	return parent, dialect.FromExt(dialect.Ext(parent)), nil
}

// headerDialect follows the workspace path: MQL4 only when it says so.
func headerDialect(workspace string) dialect.Kind {
	if dialect.Detect(workspace, "") == dialect.MQL4 {
		return dialect.MQL4
	}
	return dialect.MQL5
}

func (r *Runner) invoke(ctx context.Context, editor string, args []string) error {
	timeout := r.cfg.Compile.Timeout.Duration
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hb := trace.StartHeartbeat(trace.FromContext(ctx), "metaeditor", 5*time.Second)
	defer hb.Stop()

	stderr, err := r.exec(ctx, editor, args)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("metaeditor did not finish within %s: %w", timeout, ctxErr)
	}
	if strings.TrimSpace(stderr) != "" {
		return fmt.Errorf("%w: %s (try %s)", ErrEditorFailed, strings.TrimSpace(stderr), otherEditor(editor))
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", editor, err)
	}
	return nil
}


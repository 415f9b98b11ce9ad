package compiler

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"mqltools/internal/dialect"
	"mqltools/internal/trace"
)

// Stage is the progress state of one file in a batch.
type Stage uint8

const (
	StageQueued Stage = iota
	StageRunning
	StageDone
	StageFailed
)

// Event reports batch progress. Events for one file arrive in stage order;
// events for different files may interleave.
type Event struct {
	Index  int
	Total  int
	Source string
	Stage  Stage
	Report *Report
	Err    error
}

// BatchResult is the outcome for one file of a batch.
type BatchResult struct {
	Source string
	Report *Report
	Err    error
}

// ListSources returns the sorted .mq4/.mq5 programs below dir. Headers are
// skipped since they compile through their parents.
func ListSources(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() != "" && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		switch dialect.Ext(path) {
		case dialect.ExtMQ4, dialect.ExtMQ5:
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// RunAll runs every request with at most jobs MetaEditor processes at once
// (jobs <= 0 means GOMAXPROCS). A failing file does not stop the batch; only
// cancellation of ctx does. Results keep the order of reqs. progress is
// called from worker goroutines and must be safe for concurrent use.
func (r *Runner) RunAll(ctx context.Context, reqs []Request, jobs int, progress func(Event)) ([]BatchResult, error) {
	ctx, span := trace.Start(ctx, trace.ScopePass, "batch")
	defer span.End("")

	if progress == nil {
		progress = func(Event) {}
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]BatchResult, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}
	for i, req := range reqs {
		progress(Event{Index: i, Total: len(reqs), Source: req.Source, Stage: StageQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(reqs)))
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			progress(Event{Index: i, Total: len(reqs), Source: req.Source, Stage: StageRunning})
			rep, err := r.Run(gctx, req)
			// индекс i уникален, мьютекс не нужен
			results[i] = BatchResult{Source: req.Source, Report: rep, Err: err}
			stage := StageDone
			if err != nil {
				stage = StageFailed
			}
			progress(Event{Index: i, Total: len(reqs), Source: req.Source, Stage: stage, Report: rep, Err: err})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

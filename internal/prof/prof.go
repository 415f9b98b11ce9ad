// Package prof captures pprof profiles of a single mqltools process.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Options name the profile files; empty paths disable that profile.
type Options struct {
	CPU  string
	Heap string
}

// Session owns the profile files of one process run.
type Session struct {
	cpu  *os.File
	heap string
	done bool
}

// Start begins CPU sampling when requested. The heap profile is taken by Stop.
func Start(opts Options) (*Session, error) {
	s := &Session{heap: opts.Heap}
	if opts.CPU == "" {
		return s, nil
	}
	f, err := os.Create(opts.CPU)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("start cpu profile: %w", err)
	}
	s.cpu = f
	return s, nil
}

// Stop ends CPU sampling and writes the heap profile. Later calls do nothing.
func (s *Session) Stop() error {
	if s == nil || s.done {
		return nil
	}
	s.done = true
	var errs []error
	if s.cpu != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpu.Close())
	}
	if s.heap != "" {
		errs = append(errs, writeHeap(s.heap))
	}
	return errors.Join(errs...)
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

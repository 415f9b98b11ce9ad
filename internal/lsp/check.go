package lsp

import (
	"context"
	"sort"
	"time"

	"mqltools/internal/diag"
	"mqltools/internal/trace"
)

const diagnosticSource = "mql"

func (s *Server) scheduleCheck(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkSeq[uri]++
	seq := s.checkSeq[uri]
	if t := s.timers[uri]; t != nil {
		t.Stop()
	}
	s.timers[uri] = time.AfterFunc(s.debounce, func() {
		s.runCheck(uri, seq)
	})
}

func (s *Server) isLatest(uri string, seq uint64) bool {
	_, open := s.openDocs[uri]
	return open && s.checkSeq[uri] == seq
}

func (s *Server) runCheck(uri string, seq uint64) {
	s.mu.Lock()
	if !s.isLatest(uri, seq) {
		s.mu.Unlock()
		return
	}
	if cancel := s.cancels[uri]; cancel != nil {
		cancel()
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancels[uri] = cancel
	root := s.workspaceRoot
	verbose := s.traceLSP
	s.mu.Unlock()
	defer cancel()

	path := uriToPath(uri)
	workspace := resolveWorkspace(root, path)
	if verbose {
		s.logf("check: uri=%s workspace=%s seq=%d", uri, workspace, seq)
	}

	ctx, span := trace.Start(ctx, trace.ScopeFile, "lsp check")
	res, err := s.check(ctx, path, workspace)
	span.End(path)

	s.mu.Lock()
	if !s.isLatest(uri, seq) || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	delete(s.cancels, uri)
	if err != nil {
		s.mu.Unlock()
		s.logf("check failed: %v", err)
		if sendErr := s.sendShowMessage(1, "MQL check: "+err.Error()); sendErr != nil {
			s.logf("failed to report error: %v", sendErr)
		}
		return
	}
	groups := s.groupDiagnosticsLocked(uri, res.Bag(s.maxDiagnostics))
	stale := s.published[uri]
	current := make(map[string]struct{}, len(groups))
	for target := range groups {
		current[target] = struct{}{}
	}
	s.published[uri] = current
	s.mu.Unlock()

	targets := make([]string, 0, len(groups))
	for target := range groups {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	for _, target := range targets {
		if err := s.sendPublish(target, groups[target]); err != nil {
			s.logf("failed to publish diagnostics: %v", err)
		}
	}
	for target := range stale {
		if _, ok := current[target]; ok {
			continue
		}
		if err := s.sendPublish(target, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

// groupDiagnosticsLocked splits a check result per published URI. Files that
// are open keep the client's URI spelling. The checked document is always
// present so earlier diagnostics on it get cleared.
func (s *Server) groupDiagnosticsLocked(owner string, bag *diag.Bag) map[string][]lspDiagnostic {
	open := make(map[string]string, len(s.openDocs))
	for uri := range s.openDocs {
		open[pathKey(uriToPath(uri))] = uri
	}
	groups := map[string][]lspDiagnostic{owner: {}}
	for file, diags := range bag.ByFile() {
		target, ok := open[pathKey(file)]
		if !ok {
			target = pathToURI(file)
		}
		for _, d := range diags {
			groups[target] = append(groups[target], toLSPDiagnostic(d))
		}
	}
	return groups
}

func toLSPDiagnostic(d diag.Diagnostic) lspDiagnostic {
	r := d.Range()
	return lspDiagnostic{
		Range: lspRange{
			Start: position{Line: r.Start.Line, Character: r.Start.Column},
			End:   position{Line: r.End.Line, Character: r.End.Column},
		},
		Severity: lspSeverity(d.Severity),
		Code:     d.Code,
		Source:   diagnosticSource,
		Message:  d.Message,
	}
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	targets := make(map[string]struct{})
	for owner, set := range s.published {
		for target := range set {
			targets[target] = struct{}{}
		}
		delete(s.published, owner)
	}
	s.mu.Unlock()
	for target := range targets {
		if err := s.sendPublish(target, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

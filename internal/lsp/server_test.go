package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mqltools/internal/complog"
	"mqltools/internal/config"
	"mqltools/internal/diag"
)

type published struct {
	method string
	params publishDiagnosticsParams
	show   showMessageParams
}

func readAll(t *testing.T, out *bytes.Buffer) []published {
	t.Helper()
	reader := bufio.NewReader(bytes.NewReader(out.Bytes()))
	var msgs []published
	for {
		payload, err := readMessage(reader)
		if err != nil {
			break
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		p := published{method: msg.Method}
		switch msg.Method {
		case "textDocument/publishDiagnostics":
			if err := json.Unmarshal(msg.Params, &p.params); err != nil {
				t.Fatalf("decode params: %v", err)
			}
		case "window/showMessage":
			if err := json.Unmarshal(msg.Params, &p.show); err != nil {
				t.Fatalf("decode params: %v", err)
			}
		}
		msgs = append(msgs, p)
	}
	out.Reset()
	return msgs
}

func openDoc(t *testing.T, s *Server, uri, text string) {
	t.Helper()
	payload, _ := json.Marshal(didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, Version: 1, Text: text},
	})
	if err := s.handleDidOpen(&rpcMessage{Method: "textDocument/didOpen", Params: payload}); err != nil {
		t.Fatalf("didOpen: %v", err)
	}
}

func runPending(s *Server, uri string) {
	s.mu.Lock()
	seq := s.checkSeq[uri]
	if t := s.timers[uri]; t != nil {
		t.Stop()
	}
	s.mu.Unlock()
	s.runCheck(uri, seq)
}

func TestPublishDiagnosticsPerFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Expert.mq5")
	header := filepath.Join(dir, "Include", "Lib.mqh")
	uri := pathToURI(path)

	results := []complog.Result{
		{Diagnostics: []diag.Diagnostic{
			{File: path, Line: 2, Column: 3, Message: "boom", Severity: diag.SevError, Code: "256"},
			{File: header, Line: 0, Column: 0, Message: "careful", Severity: diag.SevWarning, Code: "43"},
		}},
		{},
	}
	calls := 0
	check := func(ctx context.Context, p, workspace string) (complog.Result, error) {
		if p != path {
			t.Errorf("check path = %q, want %q", p, path)
		}
		res := results[calls]
		calls++
		return res, nil
	}

	var out bytes.Buffer
	s := NewServer(bytes.NewReader(nil), &out, ServerOptions{Debounce: time.Hour, Check: check})
	openDoc(t, s, uri, "int x;\n")
	runPending(s, uri)

	msgs := readAll(t, &out)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 publishes, got %+v", msgs)
	}
	byURI := map[string][]lspDiagnostic{}
	for _, m := range msgs {
		byURI[m.params.URI] = m.params.Diagnostics
	}
	own := byURI[uri]
	if len(own) != 1 {
		t.Fatalf("expected 1 diagnostic on %s, got %+v", uri, byURI)
	}
	got := own[0]
	if got.Range.Start != (position{Line: 2, Character: 3}) || got.Range.End != (position{Line: 2, Character: 4}) {
		t.Fatalf("unexpected range %+v", got.Range)
	}
	if got.Severity != 1 || got.Code != "256" || got.Message != "boom" {
		t.Fatalf("unexpected diagnostic %+v", got)
	}
	hdr := byURI[pathToURI(header)]
	if len(hdr) != 1 || hdr[0].Severity != 2 {
		t.Fatalf("unexpected header diagnostics %+v", hdr)
	}

	// a clean check clears both files
	payload, _ := json.Marshal(didSaveTextDocumentParams{TextDocument: textDocumentIdentifier{URI: uri}})
	if err := s.handleDidSave(&rpcMessage{Params: payload}); err != nil {
		t.Fatalf("didSave: %v", err)
	}
	runPending(s, uri)
	msgs = readAll(t, &out)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 clearing publishes, got %+v", msgs)
	}
	for _, m := range msgs {
		if len(m.params.Diagnostics) != 0 {
			t.Fatalf("expected empty publish, got %+v", m.params)
		}
	}
}

func TestStaleCheckIsDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mq4")
	uri := pathToURI(path)
	var out bytes.Buffer
	s := NewServer(bytes.NewReader(nil), &out, ServerOptions{
		Debounce: time.Hour,
		Check: func(ctx context.Context, p, ws string) (complog.Result, error) {
			return complog.Result{}, nil
		},
	})
	openDoc(t, s, uri, "")
	s.mu.Lock()
	stale := s.checkSeq[uri]
	s.mu.Unlock()
	s.scheduleCheck(uri)
	s.runCheck(uri, stale)
	if msgs := readAll(t, &out); len(msgs) != 0 {
		t.Fatalf("stale check published %+v", msgs)
	}
	s.stopChecks()
}

func TestCheckErrorShowsMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mq5")
	uri := pathToURI(path)
	var out bytes.Buffer
	s := NewServer(bytes.NewReader(nil), &out, ServerOptions{
		Debounce: time.Hour,
		Check: func(ctx context.Context, p, ws string) (complog.Result, error) {
			return complog.Result{}, errors.New("metaeditor not found")
		},
	})
	openDoc(t, s, uri, "")
	runPending(s, uri)
	msgs := readAll(t, &out)
	if len(msgs) != 1 || msgs[0].method != "window/showMessage" || !strings.Contains(msgs[0].show.Message, "metaeditor") {
		t.Fatalf("unexpected messages %+v", msgs)
	}
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mq5")
	uri := pathToURI(path)
	var out bytes.Buffer
	s := NewServer(bytes.NewReader(nil), &out, ServerOptions{
		Debounce: time.Hour,
		Check: func(ctx context.Context, p, ws string) (complog.Result, error) {
			return complog.Result{Diagnostics: []diag.Diagnostic{{File: p, Message: "x", Severity: diag.SevError}}}, nil
		},
	})
	openDoc(t, s, uri, "")
	runPending(s, uri)
	readAll(t, &out)

	payload, _ := json.Marshal(didCloseTextDocumentParams{TextDocument: textDocumentIdentifier{URI: uri}})
	if err := s.handleDidClose(&rpcMessage{Params: payload}); err != nil {
		t.Fatalf("didClose: %v", err)
	}
	msgs := readAll(t, &out)
	if len(msgs) != 1 || msgs[0].params.URI != uri || len(msgs[0].params.Diagnostics) != 0 {
		t.Fatalf("unexpected messages %+v", msgs)
	}
}

func TestIgnoresNonMQLDocuments(t *testing.T) {
	var out bytes.Buffer
	s := NewServer(bytes.NewReader(nil), &out, ServerOptions{Debounce: time.Hour})
	openDoc(t, s, pathToURI(filepath.Join(t.TempDir(), "notes.txt")), "hi")
	s.mu.Lock()
	n := len(s.openDocs)
	s.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected non-MQL document to be ignored, got %d open", n)
	}
}

func TestHoverLinksDocumentation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "MQL4", "Experts")
	uri := pathToURI(filepath.Join(dir, "a.mq4"))
	cfg := config.Default()
	cfg.Help.MQL4Language = "ru"
	s := NewServer(bytes.NewReader(nil), &bytes.Buffer{}, ServerOptions{Debounce: time.Hour, Config: cfg})
	openDoc(t, s, uri, "void OnStart()\n{\n   OrderSend(x);\n}\n")

	h := s.buildHover(uri, s.openDocs[uri], position{Line: 2, Character: 6})
	if h == nil {
		t.Fatal("expected hover")
	}
	want := "[OrderSend](https://docs.mql4.com/ru/search?keyword=OrderSend)"
	if !strings.Contains(h.Contents.Value, want) || h.Contents.Kind != "markdown" {
		t.Fatalf("hover = %+v, want link %q", h.Contents, want)
	}
	if h := s.buildHover(uri, s.openDocs[uri], position{Line: 1, Character: 0}); h != nil {
		t.Fatalf("expected no hover on punctuation, got %+v", h)
	}
	if h := s.buildHover(uri, s.openDocs[uri], position{Line: 40, Character: 0}); h != nil {
		t.Fatalf("expected no hover past the end, got %+v", h)
	}
}

func TestRunInitializeShutdownExit(t *testing.T) {
	var in bytes.Buffer
	for _, m := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"rootUri":"file:///tmp/ws"}}`,
		`{"jsonrpc":"2.0","method":"initialized","params":{}}`,
		`{"jsonrpc":"2.0","id":2,"method":"textDocument/definition","params":{}}`,
		`{"jsonrpc":"2.0","id":3,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	} {
		if err := writeMessage(&in, []byte(m)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	var out bytes.Buffer
	s := NewServer(&in, &out, ServerOptions{Debounce: time.Hour})
	if err := s.Run(context.Background()); !errors.Is(err, ErrExit) {
		t.Fatalf("Run = %v, want ErrExit", err)
	}
	reader := bufio.NewReader(bytes.NewReader(out.Bytes()))
	var responses []rpcMessage
	for {
		payload, err := readMessage(reader)
		if err != nil {
			break
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		responses = append(responses, msg)
	}
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}
	var init initializeResult
	if err := json.Unmarshal(responses[0].Result, &init); err != nil {
		t.Fatalf("decode initialize: %v", err)
	}
	if !init.Capabilities.HoverProvider || !init.Capabilities.TextDocumentSync.OpenClose {
		t.Fatalf("unexpected capabilities %+v", init.Capabilities)
	}
	if responses[1].Error == nil || responses[1].Error.Code != -32601 {
		t.Fatalf("expected method-not-found, got %+v", responses[1])
	}
	if s.workspaceRoot != filepath.FromSlash("/tmp/ws") {
		t.Fatalf("workspace root = %q", s.workspaceRoot)
	}
}

func TestURIRoundTrip(t *testing.T) {
	if got := uriToPath("file:///c%3A/Users/Me/MQL5/a.mq5"); got != filepath.FromSlash("c:/Users/Me/MQL5/a.mq5") {
		t.Fatalf("uriToPath = %q", got)
	}
	if got := pathToURI(`C:\Users\Me\a.mq5`); got != "file:///C:/Users/Me/a.mq5" {
		t.Fatalf("pathToURI = %q", got)
	}
	if pathKey(`C:\A\b.MQ5`) != pathKey("c:/a/B.mq5") {
		t.Fatal("pathKey should ignore case and slash style")
	}
	if canonicalURI("untitled:Untitled-1") != "" {
		t.Fatal("non-file URIs must be ignored")
	}
}

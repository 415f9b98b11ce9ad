package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "off", want: LevelOff},
		{in: "PHASE", want: LevelPhase},
		{in: "detail", want: LevelDetail},
		{in: "debug", want: LevelDebug},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err = %v", tt.in, err)
		}
		if err == nil && got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelShouldEmit(t *testing.T) {
	if LevelPhase.ShouldEmit(ScopeFile) {
		t.Fatal("phase level must not emit file scope")
	}
	if !LevelDetail.ShouldEmit(ScopeFile) || LevelDetail.ShouldEmit(ScopeLine) {
		t.Fatal("detail level covers file but not line scope")
	}
	if LevelError.ShouldEmit(ScopeDriver) {
		t.Fatal("error level streams nothing")
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	ctx := WithTracer(context.Background(), tr)

	ctx, outer := Start(ctx, ScopeDriver, "check")
	_, inner := Start(ctx, ScopePass, "parse")
	inner.WithExtra("lines", "3").End("ok")
	_, skipped := Start(ctx, ScopeFile, "file:Main.mq5")
	skipped.End("")
	outer.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "\u2192 check") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[2], "\u2190 parse (ok) {lines=3}") || !strings.Contains(lines[2], "]   ") {
		t.Errorf("unexpected nested end line %q", lines[2])
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDebug, Format: FormatNDJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	Point(tr, ScopeLine, "classify", "result")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if got["kind"] != "point" || got["scope"] != "line" || got["detail"] != "result" {
		t.Fatalf("unexpected event %v", got)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Enabled() {
		t.Fatal("off tracer reports enabled")
	}
	if d := Begin(tr, ScopeDriver, "x", 0).End(""); d < 0 {
		t.Fatalf("negative duration %v", d)
	}
}

func TestHeartbeatStop(t *testing.T) {
	// StreamTracer serialises writes; buf is read only after Stop.
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	h := StartHeartbeat(tr, "metaeditor", time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	h.Stop()
	h.Stop()
	if !strings.Contains(buf.String(), "metaeditor (#1") {
		t.Fatalf("no heartbeat recorded: %q", buf.String())
	}
	if StartHeartbeat(Nop, "x", time.Millisecond) != nil {
		t.Fatal("heartbeat started on nop tracer")
	}
}

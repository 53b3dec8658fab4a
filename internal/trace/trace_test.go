package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestStartNestsSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)

	outer, ctx := Start(ctx, ScopePass, "expand")
	inner, _ := Start(ctx, ScopeItem, "type:[]f32")
	inner.End("")
	outer.End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d events, want 4:\n%s", len(lines), buf.String())
	}
	var ev struct {
		Kind     string `json:"kind"`
		Name     string `json:"name"`
		SpanID   uint64 `json:"span_id"`
		ParentID uint64 `json:"parent_id"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Name != "type:[]f32" || ev.Kind != "begin" {
		t.Fatalf("unexpected second event %+v", ev)
	}
	if ev.ParentID != outer.ID() {
		t.Fatalf("parent = %d, want %d", ev.ParentID, outer.ID())
	}
}

func TestLevelFiltersItems(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithTracer(context.Background(), NewStreamTracer(&buf, LevelPhase, FormatText))

	outer, ctx := Start(ctx, ScopePass, "expand")
	inner, innerCtx := Start(ctx, ScopeItem, "entry:main")
	if inner.ID() != 0 {
		t.Fatalf("item span should be disabled at phase level")
	}
	if CurrentSpan(innerCtx) != outer.ID() {
		t.Fatalf("filtered span must not replace the current span")
	}
	inner.End("")
	outer.End("")

	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", got, buf.String())
	}
	if !strings.Contains(buf.String(), "→ expand") {
		t.Fatalf("missing begin line:\n%s", buf.String())
	}
}

func TestNopContext(t *testing.T) {
	s, ctx := Start(context.Background(), ScopeDriver, "generate")
	if s.ID() != 0 || CurrentSpan(ctx) != 0 {
		t.Fatalf("nop tracer produced a span")
	}
	if s.End("") != 0 {
		t.Fatalf("nop span reported a duration")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"off": LevelOff, "PHASE": LevelPhase, "detail": LevelDetail} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("debug"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}

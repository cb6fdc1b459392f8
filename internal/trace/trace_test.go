package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelPhase, ScopePipeline, true},
		{LevelPhase, ScopeSession, false},
		{LevelDetail, ScopeSession, true},
		{LevelDetail, ScopeMutation, false},
		{LevelError, ScopeSession, true},
		{LevelDebug, ScopeMutation, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel(DETAIL) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestStartNestsSpans(t *testing.T) {
	ring := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), ring)

	ctx, outer := Start(ctx, ScopePipeline, "build")
	_, inner := Start(ctx, ScopeSession, "session:Gen.Proxy")
	inner.WithExtra("mutations", "3").End("")
	outer.End("ok")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[1].ParentID != outer.ID() {
		t.Fatalf("inner parent = %d, want %d", events[1].ParentID, outer.ID())
	}
	if events[2].Kind != KindSpanEnd || events[2].Extra["mutations"] != "3" {
		t.Fatalf("inner end = %+v", events[2])
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Fatalf("sequence not increasing: %d then %d", events[i-1].Seq, events[i].Seq)
		}
	}
}

func TestDisabledScopeIsDropped(t *testing.T) {
	ring := NewRingTracer(8, LevelPhase)
	ctx := WithTracer(context.Background(), ring)
	_, span := Start(ctx, ScopeMutation, "add-field")
	span.End("")
	if span.ID() != 0 {
		t.Fatalf("mutation span recorded at phase level")
	}
	if n := len(ring.Snapshot()); n != 0 {
		t.Fatalf("got %d events, want 0", n)
	}
}

func TestRingWraps(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopeDriver, Name: name})
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if got := strings.Join(names, ","); got != "c,d,e" {
		t.Fatalf("snapshot = %s, want c,d,e", got)
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)
	ctx := WithTracer(context.Background(), st)
	Point(ctx, ScopeSession, "diagnostic", "MOD3001")

	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if decoded["kind"] != "point" || decoded["scope"] != "session" || decoded["detail"] != "MOD3001" {
		t.Fatalf("unexpected event %v", decoded)
	}
}

func TestTextFormatSortsExtras(t *testing.T) {
	ev := &Event{Time: startTime, Kind: KindSpanEnd, Name: "load", Extra: map[string]string{"z": "1", "a": "2"}}
	got := string(FormatEvent(ev, FormatText))
	if !strings.Contains(got, "← load {a=2, z=1}") {
		t.Fatalf("text = %q", got)
	}
}

func TestNewLevelErrorUsesRing(t *testing.T) {
	tr, err := New(Config{Level: LevelError, Mode: ModeStream})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := tr.(*RingTracer); !ok {
		t.Fatalf("tracer = %T, want *RingTracer", tr)
	}
	off, err := New(Config{Level: LevelOff})
	if err != nil || off.Enabled() {
		t.Fatalf("off tracer = %v, %v", off, err)
	}
}

func TestMultiRingDump(t *testing.T) {
	ring := NewRingTracer(4, LevelPhase)
	var sink bytes.Buffer
	multi := NewMultiTracer(LevelPhase, NewStreamTracer(&sink, LevelPhase, FormatText), ring)
	Begin(multi, ScopeDriver, "plan", 0).End("")

	var dump bytes.Buffer
	if err := DumpRing(multi, &dump); err != nil {
		t.Fatalf("DumpRing: %v", err)
	}
	if strings.Count(dump.String(), "plan") != 2 || strings.Count(sink.String(), "plan") != 2 {
		t.Fatalf("dump = %q, stream = %q", dump.String(), sink.String())
	}
}

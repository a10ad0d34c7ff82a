package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/textarea"
)

func newRecallModel(history ...string) *ChatModel {
	m := &ChatModel{input: textarea.New()}
	m.input.SetHeight(1)
	m.history = history
	m.historyPos = len(history)
	m.historyLoaded = true
	return m
}

func TestRecallCyclesThroughHistory(t *testing.T) {
	m := newRecallModel("first", "second")

	m.recallPrev()
	if got := m.input.Value(); got != "second" {
		t.Fatalf("input = %q after one step back, want second", got)
	}
	m.recallPrev()
	if got := m.input.Value(); got != "first" {
		t.Fatalf("input = %q after two steps back, want first", got)
	}
	// At the oldest entry a further step is a no-op.
	m.recallPrev()
	if got := m.input.Value(); got != "first" {
		t.Fatalf("input = %q at the oldest entry, want first", got)
	}

	m.recallNext()
	if got := m.input.Value(); got != "second" {
		t.Fatalf("input = %q stepping forward, want second", got)
	}
}

func TestRecallRestoresDraft(t *testing.T) {
	m := newRecallModel("earlier prompt")
	m.input.SetValue("half-typed thought")

	m.recallPrev()
	if got := m.input.Value(); got != "earlier prompt" {
		t.Fatalf("input = %q, want the recalled prompt", got)
	}
	m.recallNext()
	if got := m.input.Value(); got != "half-typed thought" {
		t.Fatalf("input = %q, want the stashed draft back", got)
	}
	// Past the draft there is nothing newer.
	m.recallNext()
	if got := m.input.Value(); got != "half-typed thought" {
		t.Fatalf("input = %q after a second forward step, want the draft", got)
	}
}

func TestRecallEmptyHistoryIsNoop(t *testing.T) {
	m := newRecallModel()
	m.input.SetValue("draft")
	m.recallPrev()
	if got := m.input.Value(); got != "draft" {
		t.Fatalf("input = %q, want the draft untouched", got)
	}
}

func TestRememberPromptResetsRecallPosition(t *testing.T) {
	m := newRecallModel("first")
	m.recallPrev()
	m.rememberPrompt("second")

	if m.historyPos != len(m.history) {
		t.Fatalf("history position = %d, want %d (live draft)", m.historyPos, len(m.history))
	}
	m.recallPrev()
	if got := m.input.Value(); got != "second" {
		t.Fatalf("input = %q, want the newest prompt", got)
	}
}

func TestFmtClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{605, "10:05"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{7325, "2:02:05"},
	}
	for _, tt := range tests {
		if got := fmtClock(tt.seconds); got != tt.want {
			t.Errorf("fmtClock(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello there", 5, "hell…"},
		{"hello", 1, "h"},
		{"hello", 0, ""},
		{"héllo wörld", 6, "héllo…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

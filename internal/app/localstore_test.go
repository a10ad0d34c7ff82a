package app

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDailyTotalNeverDecreases(t *testing.T) {
	store := openTestStore(t)
	date := "2025-03-10"

	if err := store.SetDailyTotal(date, 600); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.SetDailyTotal(date, 300); err != nil {
		t.Fatalf("set lower: %v", err)
	}

	got, ok, err := store.DailyTotal(date)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected a row")
	}
	if got != 600 {
		t.Fatalf("total = %d, want 600 (lower write must not regress)", got)
	}

	if err := store.SetDailyTotal(date, 900); err != nil {
		t.Fatalf("set higher: %v", err)
	}
	got, _, _ = store.DailyTotal(date)
	if got != 900 {
		t.Fatalf("total = %d, want 900", got)
	}
}

func TestDailyTotalIsPerDate(t *testing.T) {
	store := openTestStore(t)

	if err := store.SetDailyTotal("2025-03-10", 600); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.SetDailyTotal("2025-03-11", 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := store.DailyTotal("2025-03-11")
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	if got != 60 {
		t.Fatalf("total = %d, want 60 (non-regression is per day)", got)
	}

	if _, ok, _ := store.DailyTotal("2025-03-12"); ok {
		t.Fatal("unknown date must report no row")
	}
}

func TestPromptHistoryOrderAndTrim(t *testing.T) {
	store := openTestStore(t)

	for _, entry := range []string{"first", "second", "third"} {
		if err := store.AppendPromptHistory(entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.PromptHistory(10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("history = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	limited, err := store.PromptHistory(2)
	if err != nil {
		t.Fatalf("read limited: %v", err)
	}
	if len(limited) != 2 || limited[0] != "second" || limited[1] != "third" {
		t.Fatalf("limited = %v, want the most recent two oldest-first", limited)
	}
}

func TestOnboardingDraftRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if draft, err := store.OnboardingDraft(); err != nil || draft != nil {
		t.Fatalf("empty store: draft=%v err=%v", draft, err)
	}

	in := map[string]any{"goal": "sleep better", "checkins": true}
	if err := store.SaveOnboardingDraft(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := store.OnboardingDraft()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out["goal"] != "sleep better" {
		t.Fatalf("draft = %v", out)
	}

	if err := store.ClearOnboardingDraft(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if draft, _ := store.OnboardingDraft(); draft != nil {
		t.Fatal("draft must be gone after clear")
	}
}

func TestDateKey(t *testing.T) {
	ts := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC)
	if got := DateKey(ts); got != "2025-03-10" {
		t.Fatalf("date key = %q", got)
	}
}

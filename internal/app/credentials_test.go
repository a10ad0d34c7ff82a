package app

import (
	"os"
	"path/filepath"
	"testing"

	"carecompanion/internal/api"
)

func TestCredentialStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewCredentialStore(path)

	if got := store.Token(); got != "" {
		t.Fatalf("token = %q before login, want empty", got)
	}

	user := &api.User{ID: "u1", Name: "Jordan", Email: "jordan@example.test", UserType: "user"}
	if err := store.SetSession("tok-round-trip", user); err != nil {
		t.Fatalf("set: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("credentials file mode = %o, want 600", perm)
	}

	// A fresh store reads the same session back from disk.
	reloaded := NewCredentialStore(path)
	if got := reloaded.Token(); got != "tok-round-trip" {
		t.Fatalf("token = %q after reload", got)
	}
	if u := reloaded.User(); u == nil || u.Email != "jordan@example.test" {
		t.Fatalf("user = %+v after reload", u)
	}
}

func TestCredentialStoreEnvTokenWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewCredentialStore(path)
	if err := store.SetSession("file-token", nil); err != nil {
		t.Fatalf("set: %v", err)
	}

	t.Setenv("CARE_TOKEN", "env-token")
	if got := store.Token(); got != "env-token" {
		t.Fatalf("token = %q, want the env token", got)
	}
}

func TestCredentialStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewCredentialStore(path)
	if err := store.SetSession("tok-clear", nil); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := store.Token(); got != "" {
		t.Fatalf("token = %q after clear, want empty", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("credentials file still present: %v", err)
	}

	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

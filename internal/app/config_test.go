package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://localhost:5000" {
		t.Fatalf("base url = %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("timeout = %v", cfg.RequestTimeout)
	}
	if cfg.SessionTitle != "New Chat" {
		t.Fatalf("session title = %q", cfg.SessionTitle)
	}
	if cfg.Theme != "porcelain" {
		t.Fatalf("theme = %q", cfg.Theme)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "base_url: http://example.test:9000\ntheme: midnight\nauto_speak: true\ndefault_session_title: Evening Chat\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://example.test:9000" {
		t.Fatalf("base url = %q", cfg.BaseURL)
	}
	if cfg.Theme != "midnight" {
		t.Fatalf("theme = %q", cfg.Theme)
	}
	if !cfg.AutoSpeak {
		t.Fatal("auto_speak not applied")
	}
	if cfg.SessionTitle != "Evening Chat" {
		t.Fatalf("session title = %q", cfg.SessionTitle)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("base_url: http://file.test\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CARE_BASE_URL", "http://env.test")
	t.Setenv("CARE_REQUEST_TIMEOUT", "5s")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://env.test" {
		t.Fatalf("base url = %q, want the env value", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("timeout = %v, want 5s", cfg.RequestTimeout)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg := DefaultConfig()
	cfg.Theme = "midnight"
	cfg.SessionTitle = "Morning Chat"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Theme != "midnight" || loaded.SessionTitle != "Morning Chat" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestSaveConfigRequiresPath(t *testing.T) {
	if err := SaveConfig(DefaultConfig(), ""); err == nil {
		t.Fatal("expected an error for an empty path")
	}
}

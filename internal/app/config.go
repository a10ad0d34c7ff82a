package app

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	BaseURL        string        `yaml:"base_url" env:"CARE_BASE_URL"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"CARE_REQUEST_TIMEOUT"`
	Theme          string        `yaml:"theme" env:"CARE_THEME"`
	AutoSpeak      bool          `yaml:"auto_speak" env:"CARE_AUTO_SPEAK"`
	SpeakDelay     time.Duration `yaml:"speak_delay" env:"CARE_SPEAK_DELAY"`
	SessionTitle   string        `yaml:"default_session_title" env:"CARE_SESSION_TITLE"`
	LogFile        string        `yaml:"log_file" env:"CARE_LOG_FILE"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:5000",
		RequestTimeout: 30 * time.Second,
		Theme:          "porcelain",
		AutoSpeak:      false,
		SpeakDelay:     500 * time.Millisecond,
		SessionTitle:   "New Chat",
	}
}

// LoadConfig reads the YAML config file (a missing file is fine) and then
// applies CARE_* environment overrides on top.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5000"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.SpeakDelay < 0 {
		cfg.SpeakDelay = 0
	}
	if cfg.SessionTitle == "" {
		cfg.SessionTitle = "New Chat"
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "carecompanion", "config.yml")
}

// DefaultDataDir is where the local fallback store and logs live.
func DefaultDataDir() string {
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, "carecompanion")
	}
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".local", "share", "carecompanion")
	}
	return filepath.Join(os.TempDir(), "carecompanion")
}

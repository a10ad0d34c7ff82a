package app

import (
	"io"
	"os"
	"path/filepath"

	"carecompanion/internal/api"
)

// Application wires the API client, controllers and supporting stores for
// the TUI and the one-shot commands.
type Application struct {
	Config       Config
	Logger       *Logger
	Client       *api.Client
	Credentials  *CredentialStore
	Local        *LocalStore
	Speaker      *Speaker
	Timer        *TimerController
	Conversation *ConversationController
}

func NewApplication(cfg Config) (*Application, error) {
	logger := NewLogger(DefaultLogWriter(cfg))

	creds := NewCredentialStore("")
	client := api.NewClient(cfg.BaseURL, creds, cfg.RequestTimeout)

	local, err := NewLocalStore("")
	if err != nil {
		// The fallback cache is optional; run without it.
		logger.Warn("local store unavailable", map[string]any{"error": err.Error()})
		local = nil
	}

	speaker := NewSpeaker(logger)
	timer := NewTimerController(client, local, logger)
	conversation := NewConversationController(client, timer, speaker, local, logger, cfg)

	return &Application{
		Config:       cfg,
		Logger:       logger,
		Client:       client,
		Credentials:  creds,
		Local:        local,
		Speaker:      speaker,
		Timer:        timer,
		Conversation: conversation,
	}, nil
}

// DefaultLogWriter opens the log file (config override, else the data dir).
// Logging never blocks startup: failures degrade to a discard writer.
func DefaultLogWriter(cfg Config) io.Writer {
	path := cfg.LogFile
	if path == "" {
		path = filepath.Join(DefaultDataDir(), "care.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return io.Discard
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return io.Discard
	}
	return f
}

func (a *Application) Close() {
	if a.Local != nil {
		_ = a.Local.Close()
	}
}

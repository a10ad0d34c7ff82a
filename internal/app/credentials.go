package app

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"carecompanion/internal/api"
)

// CredentialStore persists the auth token and the last known user record
// under the config dir. It is the terminal analog of the browser's local
// storage and implements api.TokenSource.
type CredentialStore struct {
	Path string

	mu     sync.Mutex
	loaded bool
	creds  storedCredentials
}

type storedCredentials struct {
	Token     string    `json:"token,omitempty"`
	User      *api.User `json:"user,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCredentialStore(path string) *CredentialStore {
	if strings.TrimSpace(path) == "" {
		if cfgPath := DefaultConfigPath(); cfgPath != "" {
			path = filepath.Join(filepath.Dir(cfgPath), "credentials.json")
		}
	}
	return &CredentialStore{Path: path}
}

func (s *CredentialStore) load() {
	if s.loaded {
		return
	}
	s.loaded = true
	if s.Path == "" {
		return
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return
	}
	var creds storedCredentials
	if json.Unmarshal(data, &creds) == nil {
		s.creds = creds
		RegisterSecret(creds.Token)
	}
}

func (s *CredentialStore) save() error {
	if s.Path == "" {
		return errors.New("no credentials path")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	s.creds.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return err
	}
	// Token material: owner-only.
	return os.WriteFile(s.Path, data, 0o600)
}

// Token implements api.TokenSource. Env token wins so scripts can run
// one-shot commands without a login file.
func (s *CredentialStore) Token() string {
	if envToken := strings.TrimSpace(os.Getenv("CARE_TOKEN")); envToken != "" {
		return envToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.creds.Token
}

func (s *CredentialStore) User() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.creds.User
}

// SetSession stores the token and user returned by login/register/verify.
func (s *CredentialStore) SetSession(token string, user *api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.creds.Token = token
	s.creds.User = user
	RegisterSecret(token)
	return s.save()
}

// Clear forgets the stored session. Logout is purely local; there is no
// server-side token invalidation.
func (s *CredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.creds = storedCredentials{}
	if s.Path == "" {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

package app

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// LocalStore is the offline fallback cache: daily timer totals keyed by
// date string, the onboarding draft, and prompt history. It is never
// authoritative; a successful server load always overwrites it.
type LocalStore struct {
	Root   string
	dbPath string

	mu   sync.Mutex
	db   *sql.DB
	once sync.Once
	err  error
}

func NewLocalStore(root string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		root = DefaultDataDir()
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	st := &LocalStore{
		Root:   root,
		dbPath: filepath.Join(root, "carecompanion.db"),
	}
	// Initialize eagerly so callers fail fast.
	if err := st.init(); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *LocalStore) init() error {
	s.once.Do(func() {
		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			s.err = err
			return
		}
		_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
		_, _ = db.Exec("PRAGMA journal_mode = WAL;")
		_, _ = db.Exec("PRAGMA synchronous = NORMAL;")

		schema := []string{
			`CREATE TABLE IF NOT EXISTS daily_totals (
				date TEXT PRIMARY KEY,
				seconds INTEGER NOT NULL,
				updated_at_ns INTEGER NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS onboarding_draft (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				payload TEXT NOT NULL,
				updated_at_ns INTEGER NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS prompt_history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				entry TEXT NOT NULL,
				created_at_ns INTEGER NOT NULL
			);`,
		}
		for _, stmt := range schema {
			if _, err := db.Exec(stmt); err != nil {
				_ = db.Close()
				s.err = err
				return
			}
		}

		s.db = db
	})
	return s.err
}

func (s *LocalStore) dbConn() (*sql.DB, error) {
	if err := s.init(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, errors.New("local store unavailable")
	}
	return db, nil
}

func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DateKey is the calendar-day key used for daily totals.
func DateKey(t time.Time) string { return t.Format("2006-01-02") }

// SetDailyTotal caches the total for a date. Within a date the cached value
// never decreases: stale writes lose.
func (s *LocalStore) SetDailyTotal(date string, seconds int) error {
	db, err := s.dbConn()
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT INTO daily_totals (date, seconds, updated_at_ns)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			seconds = MAX(daily_totals.seconds, excluded.seconds),
			updated_at_ns = excluded.updated_at_ns`,
		date, seconds, time.Now().UnixNano())
	return err
}

// DailyTotal returns the cached total for a date, or 0 with ok=false when
// none is cached.
func (s *LocalStore) DailyTotal(date string) (int, bool, error) {
	db, err := s.dbConn()
	if err != nil {
		return 0, false, err
	}
	var seconds int
	err = db.QueryRow(`SELECT seconds FROM daily_totals WHERE date = ?`, date).Scan(&seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return seconds, true, nil
}

func (s *LocalStore) SaveOnboardingDraft(draft map[string]any) error {
	db, err := s.dbConn()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT INTO onboarding_draft (id, payload, updated_at_ns)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			updated_at_ns = excluded.updated_at_ns`,
		string(payload), time.Now().UnixNano())
	return err
}

func (s *LocalStore) OnboardingDraft() (map[string]any, error) {
	db, err := s.dbConn()
	if err != nil {
		return nil, err
	}
	var payload string
	err = db.QueryRow(`SELECT payload FROM onboarding_draft WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var draft map[string]any
	if err := json.Unmarshal([]byte(payload), &draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *LocalStore) ClearOnboardingDraft() error {
	db, err := s.dbConn()
	if err != nil {
		return err
	}
	_, err = db.Exec(`DELETE FROM onboarding_draft`)
	return err
}

const promptHistoryLimit = 100

// AppendPromptHistory records a sent message for up-arrow recall in the TUI.
func (s *LocalStore) AppendPromptHistory(entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil
	}
	db, err := s.dbConn()
	if err != nil {
		return err
	}
	if _, err := db.Exec(`INSERT INTO prompt_history (entry, created_at_ns) VALUES (?, ?)`,
		entry, time.Now().UnixNano()); err != nil {
		return err
	}
	_, err = db.Exec(`DELETE FROM prompt_history WHERE id NOT IN (
		SELECT id FROM prompt_history ORDER BY id DESC LIMIT ?)`, promptHistoryLimit)
	return err
}

// PromptHistory returns recent entries, oldest first.
func (s *LocalStore) PromptHistory(limit int) ([]string, error) {
	if limit <= 0 || limit > promptHistoryLimit {
		limit = promptHistoryLimit
	}
	db, err := s.dbConn()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT entry FROM (
		SELECT id, entry FROM prompt_history ORDER BY id DESC LIMIT ?
	) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []string
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

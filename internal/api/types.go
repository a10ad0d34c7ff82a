package api

import "time"

// User mirrors the backend user record.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UserType  string    `json:"user_type"` // user|moderator|admin
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) IsAdmin() bool { return u.UserType == "admin" }

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
	User  User `json:"user"`
}

// ChatSession is the server-side session record. The server owns the
// authoritative copy; the client holds at most one open session at a time.
type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is immutable once created, except that a user message's
// content may be replaced post-hoc with the PII-redacted version returned
// by the backend.
type ChatMessage struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	MessageType  string    `json:"message_type"` // user|ai
	Content      string    `json:"content"`
	Mood         string    `json:"mood,omitempty"`
	ResponseType string    `json:"response_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionTimer is the server-authoritative timer record for one session.
type SessionTimer struct {
	ID             string `json:"id"`
	SessionID      string `json:"session_id"`
	IsActive       bool   `json:"is_active"`
	ElapsedSeconds int    `json:"current_elapsed_seconds"`
}

type DailyTotal struct {
	Date         string `json:"date"`
	TotalSeconds int    `json:"total_seconds"`
}

// MoodAnalysis is the backend's classification of a message into one of a
// small fixed set of mood tags.
type MoodAnalysis struct {
	Mood       string  `json:"mood"`
	Confidence float64 `json:"confidence,omitempty"`
}

type ResponseGuidance struct {
	Approach string `json:"approach"`
}

// ProcessingResults is the side channel returned alongside an AI reply:
// moderation outcomes, mood classification and redirect proposals.
type ProcessingResults struct {
	PIIScrubbed         bool              `json:"pii_scrubbed"`
	ProcessedMessage    string            `json:"processed_message,omitempty"`
	MoodAnalysis        *MoodAnalysis     `json:"mood_analysis,omitempty"`
	ShouldRedirect      bool              `json:"should_redirect"`
	RedirectSuggestions []string          `json:"redirect_suggestions,omitempty"`
	Warnings            []string          `json:"warnings,omitempty"`
	ResponseGuidance    *ResponseGuidance `json:"response_guidance,omitempty"`
}

// ChatResponse is the full fan-out payload for one sent message.
type ChatResponse struct {
	AIResponse        ChatMessage       `json:"ai_response"`
	ProcessingResults ProcessingResults `json:"processing_results"`
}

// MoodHistoryEntry is one append-only mood sample.
type MoodHistoryEntry struct {
	Mood      string    `json:"mood"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationContext is the server-side rollup used to rebuild mood state
// when a session is (re)loaded.
type ConversationContext struct {
	CurrentMood    string             `json:"current_mood"`
	MoodHistory    []MoodHistoryEntry `json:"mood_history"`
	ShouldRedirect bool               `json:"should_redirect"`
	Suggestions    []string           `json:"redirect_suggestions,omitempty"`
}

// CollaborationSummary is an on-demand digest of a session for sharing with
// a trusted third party. The server rejects duplicate generation.
type CollaborationSummary struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Admin reporting payloads.

type AdminStats struct {
	TotalUsers      int    `json:"total_users"`
	ActiveUsers     int    `json:"active_users"`
	BlockedMessages int    `json:"blocked_messages"`
	ToxicAttempts   int    `json:"toxic_content_attempts"`
	PIIDetections   int    `json:"pii_detections"`
	SystemHealth    string `json:"system_health"`
	LastUpdated     string `json:"last_updated"`
}

type AdminUser struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`   // admin|moderator|user
	Status         string    `json:"status"` // active|banned|suspended
	ViolationCount int       `json:"violation_count"`
	LastActivity   time.Time `json:"last_activity"`
	CreatedAt      time.Time `json:"created_at"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	Action        string    `json:"action"`
	ViolationType string    `json:"violation_type"`
	Severity      string    `json:"severity"` // low|medium|high|critical
	Details       string    `json:"details"`
	Timestamp     time.Time `json:"timestamp"`
}

// AuditFilter narrows an audit log listing. Zero values mean "no filter".
type AuditFilter struct {
	User          string
	ViolationType string
	Severity      string
	From          string // YYYY-MM-DD
	To            string // YYYY-MM-DD
}

type SecurityAlert struct {
	ID          string    `json:"id"`
	AlertType   string    `json:"alert_type"`
	Severity    string    `json:"severity"` // low|medium|high|critical
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserID      string    `json:"user_id"`
	Resolved    bool      `json:"resolved"`
	CreatedAt   time.Time `json:"created_at"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// AlertFilter narrows a security alert listing. Resolved is tri-state:
// "", "true" or "false".
type AlertFilter struct {
	Severity string
	Resolved string
}

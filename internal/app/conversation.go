package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"carecompanion/internal/api"

	"github.com/google/uuid"
)

// chatAPI is the slice of the REST client the conversation controller
// needs, injected for testability.
type chatAPI interface {
	CreateSession(ctx context.Context, title string) (*api.ChatSession, error)
	GetSession(ctx context.Context, sessionID string) (*api.ChatSession, []api.ChatMessage, error)
	RenameSession(ctx context.Context, sessionID, title string) (*api.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]api.ChatSession, error)
	SendMessage(ctx context.Context, sessionID, content string) (*api.ChatResponse, error)
	GetConversationContext(ctx context.Context, sessionID string) (*api.ConversationContext, error)
}

// LocalMessage is one transcript entry. Entries are immutable once created,
// with a single exception: a user entry's content may be rewritten in place
// with the PII-redacted version returned by the backend.
type LocalMessage struct {
	ID           string // local id; optimistic entries get a uuid
	ServerID     string
	Role         string // user|ai
	Content      string
	Mood         string
	ResponseType string
	Pending      bool
	CreatedAt    time.Time
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

// Notice is a non-blocking user-visible notification (toast analog).
type Notice struct {
	Level NoticeLevel
	Text  string
}

type RedirectState int

const (
	RedirectIdle RedirectState = iota
	RedirectSuggesting
)

// SendOutcome is what one completed send hands back to the UI.
type SendOutcome struct {
	AI           *LocalMessage
	Notices      []Notice
	PIIRewritten bool
	Blocked      bool
}

// ConversationController submits user messages, fans the AI reply and its
// moderation/analysis side channel out into transcript, mood and redirect
// state, and owns the session lifecycle. Network methods block and are run
// from UI commands; a mutex guards state so the render path can read while
// a send is in flight.
type ConversationController struct {
	api     chatAPI
	timer   *TimerController
	speaker *Speaker
	store   *LocalStore
	logger  *Logger
	cfg     Config

	mu          sync.Mutex
	session     *api.ChatSession
	transcript  []LocalMessage
	currentMood string
	moodHistory []api.MoodHistoryEntry
	redirect    RedirectState
	suggestions []string
}

func NewConversationController(apiClient chatAPI, timer *TimerController, speaker *Speaker, store *LocalStore, logger *Logger, cfg Config) *ConversationController {
	return &ConversationController{
		api:         apiClient,
		timer:       timer,
		speaker:     speaker,
		store:       store,
		logger:      logger,
		cfg:         cfg,
		currentMood: MoodNeutral,
		redirect:    RedirectIdle,
	}
}

// AppendOptimistic adds the user's message to the transcript synchronously,
// before any network round trip, so the sender sees their own message
// immediately. Returns the appended entry.
func (c *ConversationController) AppendOptimistic(text string) (LocalMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return LocalMessage{}, ErrEmptyMessage
	}
	entry := LocalMessage{
		ID:        uuid.NewString(),
		Role:      "user",
		Content:   text,
		Pending:   true,
		CreatedAt: time.Now(),
	}
	c.mu.Lock()
	c.transcript = append(c.transcript, entry)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.AppendPromptHistory(text); err != nil {
			c.logger.Warn("prompt history write failed", map[string]any{"error": err.Error()})
		}
	}
	return entry, nil
}

// Send submits the previously appended optimistic entry. With no open
// session one is created implicitly (first-message-creates-session) and its
// timer started. The optimistic entry is never rolled back on failure; it
// stays visible and the failure is surfaced as a notice only.
func (c *ConversationController) Send(ctx context.Context, entryID, text string) SendOutcome {
	sessionID, err := c.ensureSession(ctx)
	if err != nil {
		c.finishEntry(entryID)
		c.logger.Error("session create failed", map[string]any{"error": err.Error()})
		return SendOutcome{Notices: []Notice{{Level: NoticeError, Text: "Could not reach the server. Please try again later."}}}
	}

	resp, err := c.api.SendMessage(ctx, sessionID, text)
	if err != nil {
		c.finishEntry(entryID)
		if apiErr, ok := api.AsError(err); ok && apiErr.IsPolicyRejection() {
			// Blocked server-side: nothing was persisted and no AI reply
			// exists. The optimistic entry remains on screen.
			c.logger.Warn("message blocked", map[string]any{"warnings": apiErr.Warnings})
			return SendOutcome{
				Blocked: true,
				Notices: []Notice{{Level: NoticeWarning, Text: "Message blocked: " + strings.Join(apiErr.Warnings, "; ")}},
			}
		}
		c.logger.Error("send failed", map[string]any{"error": err.Error()})
		return SendOutcome{Notices: []Notice{{Level: NoticeError, Text: "Something went wrong. Please try again later."}}}
	}

	return c.applyResponse(entryID, resp)
}

// applyResponse fans one successful response out into transcript, mood and
// redirect state.
func (c *ConversationController) applyResponse(entryID string, resp *api.ChatResponse) SendOutcome {
	results := resp.ProcessingResults
	outcome := SendOutcome{}

	c.mu.Lock()
	for i := range c.transcript {
		if c.transcript[i].ID != entryID {
			continue
		}
		c.transcript[i].Pending = false
		if results.PIIScrubbed && results.ProcessedMessage != "" {
			// The one allowed post-hoc mutation: replace the optimistic
			// content with the redacted version. Keyed by local id, so a
			// repeated response cannot duplicate the rewrite.
			c.transcript[i].Content = results.ProcessedMessage
			outcome.PIIRewritten = true
		}
		break
	}

	ai := LocalMessage{
		ID:           uuid.NewString(),
		ServerID:     resp.AIResponse.ID,
		Role:         "ai",
		Content:      resp.AIResponse.Content,
		Mood:         resp.AIResponse.Mood,
		ResponseType: resp.AIResponse.ResponseType,
		CreatedAt:    resp.AIResponse.CreatedAt,
	}
	if ai.CreatedAt.IsZero() {
		ai.CreatedAt = time.Now()
	}
	c.transcript = append(c.transcript, ai)
	outcome.AI = &ai

	if results.MoodAnalysis != nil {
		mood := NormalizeMood(results.MoodAnalysis.Mood)
		c.currentMood = mood
		c.moodHistory = append(c.moodHistory, api.MoodHistoryEntry{Mood: mood, Timestamp: ai.CreatedAt})
	}

	if results.ShouldRedirect && len(results.RedirectSuggestions) > 0 {
		c.redirect = RedirectSuggesting
		c.suggestions = append([]string(nil), results.RedirectSuggestions...)
	} else {
		c.redirect = RedirectIdle
		c.suggestions = nil
	}
	autoSpeak := c.cfg.AutoSpeak
	mood := c.currentMood
	c.mu.Unlock()

	if results.PIIScrubbed {
		outcome.Notices = append(outcome.Notices, Notice{Level: NoticeInfo, Text: "Personal information was removed from your message."})
	}
	if len(results.Warnings) > 0 {
		outcome.Notices = append(outcome.Notices, Notice{Level: NoticeWarning, Text: strings.Join(results.Warnings, "; ")})
	}

	if autoSpeak && c.speaker != nil && c.speaker.Available() {
		text := ai.Content
		time.AfterFunc(c.cfg.SpeakDelay, func() {
			_ = c.speaker.Speak(context.Background(), text, mood)
		})
	}
	return outcome
}

func (c *ConversationController) finishEntry(entryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.transcript {
		if c.transcript[i].ID == entryID {
			c.transcript[i].Pending = false
			return
		}
	}
}

// ensureSession returns the open session id, creating one (and starting its
// timer) when none is open yet.
func (c *ConversationController) ensureSession(ctx context.Context) (string, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session != nil {
		return session.ID, nil
	}

	created, err := c.api.CreateSession(ctx, c.cfg.SessionTitle)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.session = created
	c.mu.Unlock()
	if err := c.timer.Start(ctx, created.ID); err == nil {
		c.timer.LoadDailyTotal(ctx)
	}
	return created.ID, nil
}

// LoadSession replaces the open session: transcript and mood history are
// reloaded wholesale from the server, never merged, and the timer
// reconciles with the server record.
func (c *ConversationController) LoadSession(ctx context.Context, sessionID string) error {
	session, messages, err := c.api.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	transcript := make([]LocalMessage, 0, len(messages))
	for _, msg := range messages {
		transcript = append(transcript, LocalMessage{
			ID:           msg.ID,
			ServerID:     msg.ID,
			Role:         msg.MessageType,
			Content:      msg.Content,
			Mood:         msg.Mood,
			ResponseType: msg.ResponseType,
			CreatedAt:    msg.CreatedAt,
		})
	}

	var mood = MoodNeutral
	var history []api.MoodHistoryEntry
	redirect := RedirectIdle
	var suggestions []string
	if convCtx, ctxErr := c.api.GetConversationContext(ctx, sessionID); ctxErr == nil {
		mood = NormalizeMood(convCtx.CurrentMood)
		history = convCtx.MoodHistory
		if convCtx.ShouldRedirect && len(convCtx.Suggestions) > 0 {
			redirect = RedirectSuggesting
			suggestions = convCtx.Suggestions
		}
	} else {
		c.logger.Warn("conversation context load failed", map[string]any{
			"session_id": sessionID,
			"error":      ctxErr.Error(),
		})
	}

	c.mu.Lock()
	c.session = session
	c.transcript = transcript
	c.currentMood = mood
	c.moodHistory = history
	c.redirect = redirect
	c.suggestions = suggestions
	c.mu.Unlock()

	c.timer.LoadExisting(ctx, sessionID)
	c.timer.LoadDailyTotal(ctx)
	return nil
}

// NewSession explicitly opens a fresh session and starts its timer.
func (c *ConversationController) NewSession(ctx context.Context, title string) error {
	if strings.TrimSpace(title) == "" {
		title = c.cfg.SessionTitle
	}
	created, err := c.api.CreateSession(ctx, title)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.session = created
	c.transcript = nil
	c.currentMood = MoodNeutral
	c.moodHistory = nil
	c.redirect = RedirectIdle
	c.suggestions = nil
	c.mu.Unlock()

	if err := c.timer.Start(ctx, created.ID); err == nil {
		c.timer.LoadDailyTotal(ctx)
	}
	return nil
}

func (c *ConversationController) RenameSession(ctx context.Context, sessionID, title string) error {
	updated, err := c.api.RenameSession(ctx, sessionID, title)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.session != nil && c.session.ID == sessionID {
		c.session = updated
	}
	c.mu.Unlock()
	return nil
}

// DeleteSession removes the session server-side; deleting the open session
// cascades a local transcript clear.
func (c *ConversationController) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.api.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	c.mu.Lock()
	if c.session != nil && c.session.ID == sessionID {
		c.session = nil
		c.transcript = nil
		c.currentMood = MoodNeutral
		c.moodHistory = nil
		c.redirect = RedirectIdle
		c.suggestions = nil
	}
	c.mu.Unlock()
	c.timer.Stop(ctx, sessionID)
	return nil
}

func (c *ConversationController) ListSessions(ctx context.Context) ([]api.ChatSession, error) {
	return c.api.ListSessions(ctx)
}

// AcceptSuggestion clears the redirect prompt immediately (optimistically,
// regardless of the follow-up call's outcome) and returns the suggestion
// text which the caller feeds back through the normal send flow.
func (c *ConversationController) AcceptSuggestion(index int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.redirect != RedirectSuggesting || index < 0 || index >= len(c.suggestions) {
		return "", false
	}
	text := c.suggestions[index]
	c.redirect = RedirectIdle
	c.suggestions = nil
	return text, true
}

// Accessors return copies; the UI render path must not alias internal state.

func (c *ConversationController) Session() *api.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	session := *c.session
	return &session
}

func (c *ConversationController) Transcript() []LocalMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LocalMessage(nil), c.transcript...)
}

func (c *ConversationController) CurrentMood() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentMood
}

func (c *ConversationController) MoodHistory() []api.MoodHistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.MoodHistoryEntry(nil), c.moodHistory...)
}

// Redirect returns the current redirect state and a copy of the offered
// suggestions (empty unless Suggesting).
func (c *ConversationController) Redirect() (RedirectState, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect, append([]string(nil), c.suggestions...)
}

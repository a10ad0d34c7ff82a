package api

import (
	"context"
	"net/http"
)

func (c *Client) ListSessions(ctx context.Context) ([]ChatSession, error) {
	var out struct {
		Sessions []ChatSession `json:"sessions"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/chat/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *Client) CreateSession(ctx context.Context, title string) (*ChatSession, error) {
	var out struct {
		Session ChatSession `json:"session"`
	}
	body := map[string]string{"title": title}
	if err := c.Do(ctx, http.MethodPost, "/api/chat/sessions", body, &out); err != nil {
		return nil, err
	}
	return &out.Session, nil
}

// GetSession fetches a session together with its full message history,
// ordered by creation time.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*ChatSession, []ChatMessage, error) {
	var out struct {
		Session  ChatSession   `json:"session"`
		Messages []ChatMessage `json:"messages"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/chat/sessions/"+pathEscape(sessionID), nil, &out); err != nil {
		return nil, nil, err
	}
	return &out.Session, out.Messages, nil
}

func (c *Client) RenameSession(ctx context.Context, sessionID, title string) (*ChatSession, error) {
	var out struct {
		Session ChatSession `json:"session"`
	}
	body := map[string]string{"title": title}
	if err := c.Do(ctx, http.MethodPut, "/api/chat/sessions/"+pathEscape(sessionID), body, &out); err != nil {
		return nil, err
	}
	return &out.Session, nil
}

// DeleteSession soft-deletes the session server-side. Callers clear the
// local transcript themselves.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.Do(ctx, http.MethodDelete, "/api/chat/sessions/"+pathEscape(sessionID), nil, nil)
}

// SendMessage submits a user message and returns the AI reply plus the
// moderation/analysis side channel. A policy rejection surfaces as *Error
// with IsPolicyRejection() true; the message was not persisted server-side.
func (c *Client) SendMessage(ctx context.Context, sessionID, content string) (*ChatResponse, error) {
	var out ChatResponse
	body := map[string]string{"message_type": "user", "content": content}
	if err := c.Do(ctx, http.MethodPost, "/api/chat/sessions/"+pathEscape(sessionID)+"/messages", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConversationContext returns the server rollup of mood history and
// redirect state for a session, used when (re)loading a session view.
func (c *Client) GetConversationContext(ctx context.Context, sessionID string) (*ConversationContext, error) {
	var out ConversationContext
	if err := c.Do(ctx, http.MethodGet, "/api/chat/sessions/"+pathEscape(sessionID)+"/context", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

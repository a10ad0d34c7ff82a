package api

import (
	"context"
	"net/http"
)

// StartSessionTimer creates or reactivates the server-side timer record for
// the session. The server resets its elapsed counter on start.
func (c *Client) StartSessionTimer(ctx context.Context, sessionID string) (*SessionTimer, error) {
	var out struct {
		Timer SessionTimer `json:"timer"`
	}
	if err := c.Do(ctx, http.MethodPost, "/api/chat/sessions/"+pathEscape(sessionID)+"/timer/start", nil, &out); err != nil {
		return nil, err
	}
	return &out.Timer, nil
}

func (c *Client) StopSessionTimer(ctx context.Context, sessionID string) error {
	return c.Do(ctx, http.MethodPost, "/api/chat/sessions/"+pathEscape(sessionID)+"/timer/stop", nil, nil)
}

// GetSessionTimer fetches the current timer record. A missing record is not
// an error: the returned timer is nil.
func (c *Client) GetSessionTimer(ctx context.Context, sessionID string) (*SessionTimer, error) {
	var out struct {
		Timer *SessionTimer `json:"timer"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/chat/sessions/"+pathEscape(sessionID)+"/timer", nil, &out); err != nil {
		if apiErr, ok := AsError(err); ok && apiErr.StatusCode == 404 {
			return nil, nil
		}
		return nil, err
	}
	return out.Timer, nil
}

// GetDailyTotal returns the authoritative aggregate of active session
// seconds across all of the user's sessions for the current calendar day.
func (c *Client) GetDailyTotal(ctx context.Context) (*DailyTotal, error) {
	var out DailyTotal
	if err := c.Do(ctx, http.MethodGet, "/api/chat/timer/daily-total", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

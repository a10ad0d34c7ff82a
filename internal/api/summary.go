package api

import (
	"context"
	"net/http"
)

// GenerateSummary asks the backend to produce a collaboration summary for a
// session. The server rejects duplicate generation for the same session;
// callers detect that via Error.IsConflict.
func (c *Client) GenerateSummary(ctx context.Context, sessionID string) (*CollaborationSummary, error) {
	var out struct {
		Summary CollaborationSummary `json:"summary"`
	}
	if err := c.Do(ctx, http.MethodPost, "/api/chat/sessions/"+pathEscape(sessionID)+"/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out.Summary, nil
}

func (c *Client) ListSummaries(ctx context.Context) ([]CollaborationSummary, error) {
	var out struct {
		Summaries []CollaborationSummary `json:"summaries"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/chat/summaries", nil, &out); err != nil {
		return nil, err
	}
	return out.Summaries, nil
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const DefaultBaseURL = "http://localhost:5000"

// TokenSource supplies the current bearer token, or "" when logged out.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource, used by tests and one-shot commands.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client is a thin typed wrapper over the CareCompanion REST API. It is the
// sole transport in the program; every backend interaction goes through Do.
// Safe for concurrent use.
type Client struct {
	BaseURL string
	Tokens  TokenSource
	HTTP    *http.Client
}

func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		Tokens:  tokens,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Do performs one request. A non-2xx status decodes into *Error so callers
// can distinguish policy rejections and conflicts from transport failures.
// out may be nil when the response body is irrelevant.
func (c *Client) Do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Tokens != nil {
		if token := c.Tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "decode response (status %d)", resp.StatusCode)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	apiErr := &Error{StatusCode: status}
	var payload struct {
		Error       string   `json:"error"`
		Message     string   `json:"message"`
		Code        string   `json:"code"`
		Warnings    []string `json:"warnings"`
		Details     string   `json:"details"`
		Suggestions []string `json:"suggestions"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
		apiErr.Code = payload.Code
		apiErr.Warnings = payload.Warnings
		apiErr.Details = payload.Details
		apiErr.Suggestions = payload.Suggestions
	}
	if apiErr.Message == "" && len(apiErr.Warnings) == 0 {
		apiErr.Message = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}
	return apiErr
}

// Health pings the backend.
func (c *Client) Health(ctx context.Context) error {
	return c.Do(ctx, http.MethodGet, "/api/health", nil, nil)
}

func pathEscape(id string) string { return url.PathEscape(id) }

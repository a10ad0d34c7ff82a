package api

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a decoded non-2xx response. The backend signals a content-policy
// rejection with HTTP 400 plus a warnings array; everything else is a generic
// failure. Older backends report duplicate resources only through the message
// text, so Code may be empty.
type Error struct {
	StatusCode  int      `json:"-"`
	Code        string   `json:"code,omitempty"`
	Message     string   `json:"message,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Details     string   `json:"details,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Warnings) > 0 {
		return fmt.Sprintf("blocked by content policy (status %d): %s", e.StatusCode, strings.Join(e.Warnings, "; "))
	}
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.StatusCode)
}

// IsPolicyRejection reports whether the message was blocked server-side.
// Blocked messages are never persisted; callers must not append an AI reply.
func (e *Error) IsPolicyRejection() bool {
	return e.StatusCode == 400 && len(e.Warnings) > 0
}

// IsAuthFailure reports an expired or invalid token.
func (e *Error) IsAuthFailure() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsConflict reports a duplicate-resource rejection, e.g. generating a
// collaboration summary twice for the same session. Prefers the structured
// code; falls back to message sniffing for backends that predate it.
func (e *Error) IsConflict() bool {
	if e.StatusCode == 409 || e.Code == "already_exists" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "already exists")
}

// AsError returns err as an *Error when one is found in its chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

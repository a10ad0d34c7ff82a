package api

import (
	"testing"

	"github.com/pkg/errors"
)

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name     string
		err      Error
		policy   bool
		auth     bool
		conflict bool
	}{
		{
			name:   "policy rejection",
			err:    Error{StatusCode: 400, Warnings: []string{"Detected toxic content"}},
			policy: true,
		},
		{
			name: "plain bad request",
			err:  Error{StatusCode: 400, Message: "title is required"},
		},
		{
			name: "expired token",
			err:  Error{StatusCode: 401, Message: "token expired"},
			auth: true,
		},
		{
			name: "forbidden",
			err:  Error{StatusCode: 403, Message: "admin only"},
			auth: true,
		},
		{
			name:     "structured conflict",
			err:      Error{StatusCode: 409},
			conflict: true,
		},
		{
			name:     "coded conflict",
			err:      Error{StatusCode: 400, Code: "already_exists"},
			conflict: true,
		},
		{
			name:     "legacy message conflict",
			err:      Error{StatusCode: 400, Message: "Summary already exists for this session"},
			conflict: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsPolicyRejection(); got != tt.policy {
				t.Fatalf("IsPolicyRejection() = %v, want %v", got, tt.policy)
			}
			if got := tt.err.IsAuthFailure(); got != tt.auth {
				t.Fatalf("IsAuthFailure() = %v, want %v", got, tt.auth)
			}
			if got := tt.err.IsConflict(); got != tt.conflict {
				t.Fatalf("IsConflict() = %v, want %v", got, tt.conflict)
			}
		})
	}
}

func TestAsErrorFindsWrapped(t *testing.T) {
	inner := &Error{StatusCode: 400, Warnings: []string{"blocked"}}
	wrapped := errors.Wrap(inner, "send message")

	apiErr, ok := AsError(wrapped)
	if !ok {
		t.Fatal("expected to find the wrapped *Error")
	}
	if !apiErr.IsPolicyRejection() {
		t.Fatalf("predicates lost through wrapping: %+v", apiErr)
	}

	if _, ok := AsError(errors.New("plain")); ok {
		t.Fatal("plain errors must not match")
	}
	if _, ok := AsError(nil); ok {
		t.Fatal("nil must not match")
	}
}

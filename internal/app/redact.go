package app

import (
	"os"
	"strings"
	"sync"
)

const redactedPlaceholder = "[REDACTED]"

var (
	secretsMu sync.Mutex
	secrets   []string
)

// RegisterSecret adds a value (e.g. the bearer token after login) that must
// never appear in log output.
func RegisterSecret(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	secretsMu.Lock()
	defer secretsMu.Unlock()
	for _, s := range secrets {
		if s == value {
			return
		}
	}
	secrets = append(secrets, value)
}

// RedactSecrets replaces registered secret values and the well-known env
// token with a placeholder. Conservative: only known values are replaced.
func RedactSecrets(input string) string {
	if strings.TrimSpace(input) == "" {
		return input
	}
	secretsMu.Lock()
	known := append([]string(nil), secrets...)
	secretsMu.Unlock()
	if envToken := strings.TrimSpace(os.Getenv("CARE_TOKEN")); envToken != "" {
		known = append(known, envToken)
	}

	out := input
	for _, s := range known {
		out = strings.ReplaceAll(out, s, redactedPlaceholder)
	}
	return out
}

package app

import (
	"strings"
	"testing"
)

func TestRedactSecrets(t *testing.T) {
	RegisterSecret("tok-abc123")
	RegisterSecret("") // ignored

	out := RedactSecrets("authorization failed for tok-abc123, retrying")
	if strings.Contains(out, "tok-abc123") {
		t.Fatalf("secret survived redaction: %q", out)
	}
	if !strings.Contains(out, redactedPlaceholder) {
		t.Fatalf("placeholder missing: %q", out)
	}
}

func TestRedactSecretsEnvToken(t *testing.T) {
	t.Setenv("CARE_TOKEN", "env-token-xyz")
	out := RedactSecrets("bearer env-token-xyz rejected")
	if strings.Contains(out, "env-token-xyz") {
		t.Fatalf("env token survived redaction: %q", out)
	}
}

func TestRedactSecretsLeavesOtherTextAlone(t *testing.T) {
	in := "nothing sensitive here"
	if out := RedactSecrets(in); out != in {
		t.Fatalf("out = %q, want unchanged", out)
	}
}

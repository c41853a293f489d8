package token

import (
	"strings"
	"testing"
)

func TestNewProducesDistinctURLSafeTokens(t *testing.T) {
	first, err := New(32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	second, err := New(32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if first == second {
		t.Fatal("two generated tokens are identical")
	}
	if strings.ContainsAny(first, "+/=") {
		t.Errorf("token %q is not URL-safe", first)
	}
}

func TestHashIsDeterministicHexDigest(t *testing.T) {
	raw := "session-cookie-value"
	if Hash(raw) != Hash(raw) {
		t.Fatal("hashing the same token twice gave different digests")
	}
	if got := len(Hash(raw)); got != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", got)
	}
	if Hash(raw) == raw {
		t.Error("digest must differ from the raw token")
	}
}

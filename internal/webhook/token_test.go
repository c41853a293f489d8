package webhook

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUnsubscribeTokenRoundTrip(t *testing.T) {
	leadID := uuid.New()
	secret := "test-secret"

	token := UnsubscribeToken(secret, leadID)
	if len(token) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars", len(token))
	}
	if !VerifyUnsubscribeToken(secret, leadID, token) {
		t.Fatal("freshly minted token must verify")
	}
}

func TestUnsubscribeTokenRejectsTampering(t *testing.T) {
	leadID := uuid.New()
	secret := "test-secret"
	token := UnsubscribeToken(secret, leadID)

	// flip one hex digit
	tampered := []byte(token)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	if VerifyUnsubscribeToken(secret, leadID, string(tampered)) {
		t.Error("tampered token must not verify")
	}

	if VerifyUnsubscribeToken(secret, uuid.New(), token) {
		t.Error("token minted for one lead must not verify for another")
	}
	if VerifyUnsubscribeToken("other-secret", leadID, token) {
		t.Error("token must be bound to the secret")
	}
	if VerifyUnsubscribeToken(secret, leadID, "") {
		t.Error("empty token must not verify")
	}
}

func TestUnsubscribeTokenIsDeterministic(t *testing.T) {
	leadID := uuid.New()
	if UnsubscribeToken("s", leadID) != UnsubscribeToken("s", leadID) {
		t.Error("token must be stable so old email links keep working")
	}
}

func TestUnsubscribeURL(t *testing.T) {
	leadID := uuid.New()
	url := UnsubscribeURL("https://app.example.com", "s", leadID)
	if !strings.HasPrefix(url, "https://app.example.com/api/leads/unsubscribe?id="+leadID.String()) {
		t.Errorf("unexpected url %q", url)
	}
	if !strings.Contains(url, "&token="+UnsubscribeToken("s", leadID)) {
		t.Errorf("url %q missing token", url)
	}
}

// Package webhook handles inbound events from the email provider and
// from recipients: reply notifications and unsubscribe links.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// UnsubscribeToken derives the per-lead unsubscribe token:
// hex(HMAC-SHA256(secret, leadID)). Deterministic, so links in
// already-delivered email never expire.
func UnsubscribeToken(secret string, leadID uuid.UUID) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(leadID.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyUnsubscribeToken checks a presented token in constant time.
func VerifyUnsubscribeToken(secret string, leadID uuid.UUID, presented string) bool {
	expected := UnsubscribeToken(secret, leadID)
	return hmac.Equal([]byte(expected), []byte(presented))
}

// UnsubscribeURL builds the absolute link embedded in outgoing email.
func UnsubscribeURL(baseURL, secret string, leadID uuid.UUID) string {
	return fmt.Sprintf("%s/api/leads/unsubscribe?id=%s&token=%s",
		baseURL, leadID.String(), UnsubscribeToken(secret, leadID))
}

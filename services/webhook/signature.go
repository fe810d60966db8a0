package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature authenticates the exact bytes a sender transmitted against
// an "sha256=<hex>" signature header. Callers must pass the raw request body
// captured before any parsing; re-serializing a parsed payload can reorder
// fields and invalidate a legitimate signature.
func VerifySignature(raw []byte, header, secret string) bool {
	if header == "" {
		return false
	}

	parts := strings.Split(header, "=")
	if len(parts) != 2 || parts[0] != "sha256" {
		return false
	}

	received, err := hex.DecodeString(parts[1])
	if err != nil || len(received) != sha256.Size {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(raw)

	// hmac.Equal is constant time
	return hmac.Equal(received, mac.Sum(nil))
}

// Sign produces the signature header for a payload. Used by tests and by
// trusted senders.
func Sign(raw []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(raw)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

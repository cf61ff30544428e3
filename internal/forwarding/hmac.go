package forwarding

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Verify reports whether signature is the HMAC-SHA256 of rawPayload keyed by
// secret, compared in constant time. rawPayload must be the exact byte slice
// read off the wire for the plugin response, not a re-serialization of its
// parsed fields.
func Verify(secret, rawPayload, signature []byte) bool {
	mac := hmac.New(sha256.New, secret)
	mac.Write(rawPayload)
	expected := mac.Sum(nil)
	return hmac.Equal(expected, signature)
}

// Package webhook authenticates and applies knowledge-base mutations.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

// Authenticator verifies webhook payload signatures against a shared secret.
//
// The signing input is the exact raw byte sequence the sender transmitted.
// Re-serializing the JSON before verifying would break signatures on any
// formatting difference, so callers must pass the body bytes untouched.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator. An empty secret puts it in a
// degraded mode where every payload passes; the server logs this at startup.
func NewAuthenticator(secret string) *Authenticator {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &Authenticator{secret: key}
}

// Enabled reports whether a shared secret is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Verify checks the provided signature header against the HMAC-SHA256 of the
// raw body. With no secret configured it always passes. A missing or
// malformed header fails when a secret is set.
func (a *Authenticator) Verify(rawBody []byte, header string) bool {
	if !a.Enabled() {
		return true
	}

	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}

	provided, err := hex.DecodeString(strings.ToLower(header))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, a.secret)
	mac.Write(rawBody)
	return hmac.Equal(provided, mac.Sum(nil))
}

// Sign computes the lowercase hex HMAC-SHA256 of body; used by tests and by
// outbound integrations that need to produce compatible signatures.
func (a *Authenticator) Sign(body []byte) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

package shuftipro

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Signature"

// Sign computes hex(sha256(body || hex(sha256(secret)))).
func Sign(body []byte, secret string) string {
	secretHash := sha256.Sum256([]byte(secret))
	h := sha256.New()
	h.Write(body)
	h.Write([]byte(hex.EncodeToString(secretHash[:])))
	return hex.EncodeToString(h.Sum(nil))
}

func (d *Driver) ValidateWebhookSignature(payload []byte, headers http.Header) bool {
	got := headers.Get(SignatureHeader)
	if got == "" || d.cfg.SecretKey == "" {
		return false
	}
	want := Sign(payload, d.cfg.SecretKey)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

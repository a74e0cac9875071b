package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader is the request header GitHub signs deliveries with.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

// Sign returns the X-Hub-Signature-256 value for body under secret,
// prefix included.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether header carries a valid HMAC-SHA256
// signature of body under secret, as delivered in X-Hub-Signature-256.
// The comparison is constant time and the result is a bare bool; callers
// must not learn whether the header was absent, malformed, or merely wrong.
func VerifySignature(secret, body []byte, header string) bool {
	if len(secret) == 0 {
		return false
	}

	hexDigest, ok := strings.CutPrefix(header, signaturePrefix)
	if !ok {
		return false
	}

	received, err := hex.DecodeString(hexDigest)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(received, mac.Sum(nil))
}

package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signBody(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := []byte("s3cr3t")
	body := []byte(`{"action":"opened","number":7}`)

	tests := []struct {
		name   string
		secret []byte
		body   []byte
		header string
		want   bool
	}{
		{
			name:   "valid signature",
			secret: secret,
			body:   body,
			header: signBody(secret, body),
			want:   true,
		},
		{
			name:   "valid signature for empty body",
			secret: secret,
			body:   []byte{},
			header: signBody(secret, []byte{}),
			want:   true,
		},
		{
			name:   "wrong secret",
			secret: secret,
			body:   body,
			header: signBody([]byte("other"), body),
			want:   false,
		},
		{
			name:   "tampered body",
			secret: secret,
			body:   []byte(`{"action":"opened","number":8}`),
			header: signBody(secret, body),
			want:   false,
		},
		{
			name:   "missing header",
			secret: secret,
			body:   body,
			header: "",
			want:   false,
		},
		{
			name:   "wrong scheme prefix",
			secret: secret,
			body:   body,
			header: "sha1=" + signBody(secret, body)[len(signaturePrefix):],
			want:   false,
		},
		{
			name:   "non-hex digest",
			secret: secret,
			body:   body,
			header: "sha256=not-hex-at-all",
			want:   false,
		},
		{
			name:   "truncated digest",
			secret: secret,
			body:   body,
			header: signBody(secret, body)[:20],
			want:   false,
		},
		{
			name:   "empty secret",
			secret: nil,
			body:   body,
			header: signBody(secret, body),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.secret, tt.body, tt.header); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSign(t *testing.T) {
	secret := []byte("s3cr3t")
	body := []byte(`{"action":"opened","number":7}`)

	header := Sign(secret, body)
	if header != signBody(secret, body) {
		t.Errorf("Sign() = %q, want %q", header, signBody(secret, body))
	}
	if !VerifySignature(secret, body, header) {
		t.Error("Sign() output should verify against the same secret and body")
	}
	if VerifySignature(secret, []byte(`{}`), header) {
		t.Error("Sign() output should not verify against a different body")
	}
}

// Flipping any single bit of a valid signature must fail verification.
func TestVerifySignatureBitFlip(t *testing.T) {
	secret := []byte("s3cr3t")
	body := []byte(`{"action":"synchronize","number":12}`)
	header := signBody(secret, body)

	digest, err := hex.DecodeString(header[len(signaturePrefix):])
	if err != nil {
		t.Fatalf("failed to decode test digest: %v", err)
	}

	for i := range digest {
		for bit := 0; bit < 8; bit++ {
			mutated := make([]byte, len(digest))
			copy(mutated, digest)
			mutated[i] ^= 1 << bit

			flipped := signaturePrefix + hex.EncodeToString(mutated)
			if VerifySignature(secret, body, flipped) {
				t.Fatalf("signature with bit %d of byte %d flipped should not verify", bit, i)
			}
		}
	}
}

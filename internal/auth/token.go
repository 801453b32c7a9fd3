// Package auth verifies bearer tokens presented to the tool endpoint.
package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// ErrEmptySecret indicates the configured token is blank.
var ErrEmptySecret = errors.New("auth secret must not be empty")

// fingerprintKey domain-separates fingerprints from verification digests.
var fingerprintKey = []byte("usermcp/token-fingerprint/v1")

// Verifier compares presented bearer tokens with the configured secret.
// Only a BLAKE2b digest of the secret is retained; comparison runs over
// fixed-length digests in constant time, so token length is not leaked.
type Verifier struct {
	digest [blake2b.Size256]byte
}

// NewVerifier creates a Verifier for secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Verifier{digest: blake2b.Sum256([]byte(secret))}, nil
}

// Verify reports whether token matches the configured secret.
func (v *Verifier) Verify(token string) bool {
	if token == "" {
		return false
	}
	presented := blake2b.Sum256([]byte(token))
	return subtle.ConstantTimeCompare(presented[:], v.digest[:]) == 1
}

// Fingerprint returns a short, non-reversible identifier for token,
// safe to use in logs and rate limit keys.
func Fingerprint(token string) string {
	h, err := blake2b.New256(fingerprintKey)
	if err != nil {
		// Only possible with a key longer than 64 bytes.
		panic(err)
	}
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil)[:8])
}

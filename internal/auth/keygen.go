package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// Token format: umcp_{env}_{secret}
// Example: umcp_live_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	TokenSecretLen = 64 // hex encoded 32 bytes
)

// Environment indicators for the token prefix.
const (
	EnvLive = "live"
	EnvTest = "test"
)

var tokenFormatRegex = regexp.MustCompile(`^umcp_(live|test)_[a-f0-9]{64}$`)

// GeneratedToken is a newly generated bearer token.
type GeneratedToken struct {
	Plaintext   string // value for MCP_API_TOKEN; show once
	Fingerprint string // identifier that appears in logs
}

// GenerateToken creates a random bearer token for env.
// Unknown environments default to live.
func GenerateToken(env string) (*GeneratedToken, error) {
	if env != EnvLive && env != EnvTest {
		env = EnvLive
	}

	secret := make([]byte, TokenSecretLen/2)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := fmt.Sprintf("umcp_%s_%s", env, hex.EncodeToString(secret))
	return &GeneratedToken{
		Plaintext:   plaintext,
		Fingerprint: Fingerprint(plaintext),
	}, nil
}

// ValidateTokenFormat reports whether token looks like a generated token.
// Any non-empty secret is accepted by Verifier; this is advisory.
func ValidateTokenFormat(token string) bool {
	return tokenFormatRegex.MatchString(token)
}

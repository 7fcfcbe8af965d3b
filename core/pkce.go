package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const pkceVerifierBytes = 48

// NewState returns a 32-hex-char CSRF token from a cryptographically secure
// source. The state doubles as the callback lookup key, so it must be
// unpredictable.
func NewState() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("core: generate oauth state: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// NewPKCE returns a fresh verifier/challenge pair. The verifier is 48 random
// bytes base64url-encoded without padding; the challenge is the unpadded
// base64url SHA-256 digest of the verifier, per RFC 7636 S256.
func NewPKCE() (PKCEPair, error) {
	raw := make([]byte, pkceVerifierBytes)
	if _, err := rand.Read(raw); err != nil {
		return PKCEPair{}, fmt.Errorf("core: generate pkce verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(raw)
	return PKCEPair{
		Verifier:  verifier,
		Challenge: ChallengeFor(verifier),
	}, nil
}

// ChallengeFor computes the S256 challenge for a verifier.
func ChallengeFor(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

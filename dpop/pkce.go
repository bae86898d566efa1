package dpop

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierSize is the number of random bytes backing a PKCE verifier,
// rendered as base64url this yields a 43-character string comfortably
// inside RFC 7636's 43-128 character range.
const verifierSize = 32

// NewPKCEVerifier generates a random S256 PKCE verifier/challenge pair,
// grounded in the teacher's random-token generation idiom.
func NewPKCEVerifier() (verifier, challenge string, err error) {
	buf := make([]byte, verifierSize)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("dpop: pkce: %w", err)
	}
	verifier = base64.RawURLEncoding.EncodeToString(buf)
	challenge = challengeFromVerifier(verifier)
	return verifier, challenge, nil
}

// VerifyPKCE reports whether verifier hashes to challenge under S256.
func VerifyPKCE(verifier, challenge string) bool {
	return challengeFromVerifier(verifier) == challenge
}

func challengeFromVerifier(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

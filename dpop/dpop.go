// Package dpop implements RFC 9449 demonstrating-proof-of-possession
// JWTs for OAuth, plus a companion RFC 7636 PKCE helper.
package dpop

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/primal-host/atcore/key"
)

// Error kinds, per the crypto/auth-errors taxonomy.
var (
	ErrInvalidJWTFormat = errors.New("dpop: invalid_jwt_format")
	ErrInvalidTyp       = errors.New("dpop: invalid_typ")
	ErrInvalidSignature = errors.New("dpop: invalid_signature")
	ErrHTMMismatch      = errors.New("dpop: htm_mismatch")
	ErrHTUMismatch      = errors.New("dpop: htu_mismatch")
	ErrInvalidTimestamp = errors.New("dpop: invalid_timestamp")
	ErrMissingJTI       = errors.New("dpop: missing_jti")
	ErrMissingATH       = errors.New("dpop: missing_ath")
	ErrInvalidATH       = errors.New("dpop: invalid_ath")
)

// clockSkewTolerance is the bidirectional window iat must fall within.
const clockSkewTolerance = 60 * time.Second

// GenerateProof issues an ES256 DPoP proof JWT for an HTTP method and
// URL, signed by priv (which must be an ES256 key). nonce and
// accessToken are both optional; an empty string omits the corresponding
// claim.
func GenerateProof(method, url string, priv key.PrivateKey, nonce, accessToken string) (string, error) {
	if priv.Type != key.TypeES256 || priv.P256 == nil {
		return "", fmt.Errorf("dpop: generate proof: %w: only ES256 keys are supported", ErrInvalidJWK)
	}
	jwkFields, err := jwkFromPublicKey(priv.Public())
	if err != nil {
		return "", err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("dpop: generate proof: jti: %w", err)
	}

	claims := jwt.MapClaims{
		"htm": method,
		"htu": url,
		"jti": base64.RawURLEncoding.EncodeToString(id[:]),
		"iat": time.Now().Unix(),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	if accessToken != "" {
		claims["ath"] = athValue(accessToken)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["typ"] = "dpop+jwt"
	token.Header["jwk"] = jwkFields

	signed, err := token.SignedString(priv.P256)
	if err != nil {
		return "", fmt.Errorf("dpop: generate proof: sign: %w", err)
	}
	return signed, nil
}

// VerifyProof validates a DPoP proof JWT against the expected method and
// URL, returning the embedded public key on success. If accessToken is
// non-empty, the proof's "ath" claim must match its hash.
//
// The verification key for an ES256 token normally comes from a
// Keyfunc's own knowledge of the signer; a DPoP proof instead carries
// its key inside its own "jwk" header, so the header is read once with
// an unverified parse to recover that key before golang-jwt's keyed
// Parse checks the signature against it.
func VerifyProof(proof, method, url, accessToken string) (key.PublicKey, error) {
	pub, err := extractPublicKey(proof)
	if err != nil {
		return key.PublicKey{}, err
	}

	token, err := jwt.Parse(proof, func(t *jwt.Token) (any, error) {
		return pub.P256, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return key.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidJWTFormat, err)
		}
		return key.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return key.PublicKey{}, fmt.Errorf("%w: unexpected claims type", ErrInvalidJWTFormat)
	}

	htm, _ := claims["htm"].(string)
	if htm != method {
		return key.PublicKey{}, fmt.Errorf("%w: %q != %q", ErrHTMMismatch, htm, method)
	}
	htu, _ := claims["htu"].(string)
	if htu != url {
		return key.PublicKey{}, fmt.Errorf("%w: %q != %q", ErrHTUMismatch, htu, url)
	}
	iat, ok := asUnixTime(claims["iat"])
	if !ok {
		return key.PublicKey{}, fmt.Errorf("%w: missing or malformed iat", ErrInvalidTimestamp)
	}
	if skew := time.Now().Unix() - iat; skew > int64(clockSkewTolerance.Seconds()) || skew < -int64(clockSkewTolerance.Seconds()) {
		return key.PublicKey{}, fmt.Errorf("%w: iat %d out of tolerance", ErrInvalidTimestamp, iat)
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return key.PublicKey{}, ErrMissingJTI
	}
	if accessToken != "" {
		ath, _ := claims["ath"].(string)
		if ath == "" {
			return key.PublicKey{}, ErrMissingATH
		}
		if ath != athValue(accessToken) {
			return key.PublicKey{}, ErrInvalidATH
		}
	}

	return pub, nil
}

// ExtractJKT returns the thumbprint of the JWK embedded in proof's
// header without verifying its signature — useful for a quick
// token-binding check.
func ExtractJKT(proof string) (string, error) {
	pub, err := extractPublicKey(proof)
	if err != nil {
		return "", err
	}
	return CalculateJKT(pub)
}

// extractPublicKey reads the embedded JWK out of proof's header via an
// unverified parse, ahead of and independent from any signature check.
func extractPublicKey(proof string) (key.PublicKey, error) {
	token, _, err := jwt.NewParser().ParseUnverified(proof, jwt.MapClaims{})
	if err != nil {
		return key.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidJWTFormat, err)
	}
	typ, _ := token.Header["typ"].(string)
	if typ != "dpop+jwt" {
		return key.PublicKey{}, fmt.Errorf("%w: %q", ErrInvalidTyp, typ)
	}
	jwkRaw, ok := token.Header["jwk"].(map[string]any)
	if !ok {
		return key.PublicKey{}, ErrMissingJWK
	}
	return publicKeyFromJWK(jwkRaw)
}

func asUnixTime(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func athValue(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

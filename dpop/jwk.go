package dpop

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/primal-host/atcore/key"
)

// ErrMissingJWK is returned when a DPoP header carries no embedded key.
var ErrMissingJWK = errors.New("dpop: missing_jwk")

// ErrInvalidJWK is returned when an embedded JWK is structurally invalid
// or names an unsupported curve.
var ErrInvalidJWK = errors.New("dpop: invalid_jwk")

const p256CoordSize = 32

// jwkFromPublicKey renders an ES256 public key as the canonical JWK
// fields {crv, kty, x, y} this package embeds in a DPoP header.
func jwkFromPublicKey(pub key.PublicKey) (map[string]any, error) {
	if pub.Type != key.TypeES256 || pub.P256 == nil {
		return nil, fmt.Errorf("dpop: jwk: %w: only ES256 keys are supported", ErrInvalidJWK)
	}
	x := make([]byte, p256CoordSize)
	y := make([]byte, p256CoordSize)
	pub.P256.X.FillBytes(x)
	pub.P256.Y.FillBytes(y)
	return map[string]any{
		"kty": "EC",
		"crv": "P-256",
		"x":   base64.RawURLEncoding.EncodeToString(x),
		"y":   base64.RawURLEncoding.EncodeToString(y),
	}, nil
}

// publicKeyFromJWK parses the JWK fields back into an ES256 public key.
func publicKeyFromJWK(jwk map[string]any) (key.PublicKey, error) {
	kty, _ := jwk["kty"].(string)
	crv, _ := jwk["crv"].(string)
	xStr, _ := jwk["x"].(string)
	yStr, _ := jwk["y"].(string)
	if kty != "EC" || crv != "P-256" {
		return key.PublicKey{}, fmt.Errorf("%w: unsupported kty/crv %q/%q", ErrInvalidJWK, kty, crv)
	}
	if xStr == "" || yStr == "" {
		return key.PublicKey{}, fmt.Errorf("%w: missing x/y", ErrInvalidJWK)
	}
	xBytes, err := base64.RawURLEncoding.DecodeString(xStr)
	if err != nil {
		return key.PublicKey{}, fmt.Errorf("%w: bad x encoding: %v", ErrInvalidJWK, err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(yStr)
	if err != nil {
		return key.PublicKey{}, fmt.Errorf("%w: bad y encoding: %v", ErrInvalidJWK, err)
	}
	x := new(big.Int).SetBytes(xBytes)
	y := new(big.Int).SetBytes(yBytes)
	curve := elliptic.P256()
	if !curve.IsOnCurve(x, y) {
		return key.PublicKey{}, fmt.Errorf("%w: point not on P-256", ErrInvalidJWK)
	}
	return key.PublicKey{Type: key.TypeES256, P256: &ecdsa.PublicKey{Curve: curve, X: x, Y: y}}, nil
}

// canonicalJWKJSON renders the RFC 7638 canonical-subset JSON
// (alphabetically-ordered keys, no whitespace) used for thumbprinting.
func canonicalJWKJSON(jwk map[string]any) ([]byte, error) {
	type canonical struct {
		Crv string `json:"crv"`
		Kty string `json:"kty"`
		X   string `json:"x"`
		Y   string `json:"y"`
	}
	crv, _ := jwk["crv"].(string)
	kty, _ := jwk["kty"].(string)
	x, _ := jwk["x"].(string)
	y, _ := jwk["y"].(string)
	return json.Marshal(canonical{Crv: crv, Kty: kty, X: x, Y: y})
}

// CalculateJKT computes the RFC 7638 JWK thumbprint of pub.
func CalculateJKT(pub key.PublicKey) (string, error) {
	jwk, err := jwkFromPublicKey(pub)
	if err != nil {
		return "", err
	}
	return thumbprint(jwk)
}

func thumbprint(jwk map[string]any) (string, error) {
	canonical, err := canonicalJWKJSON(jwk)
	if err != nil {
		return "", fmt.Errorf("dpop: thumbprint: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

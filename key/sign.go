package key

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/asn1"
	"fmt"
	"math/big"

	ecdsaSecp "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// fieldByteSize is the encoded width of each curve's scalars: both P-256
// and secp256k1 use 32-byte field elements, so compact signatures are
// always 64 bytes (r || s) regardless of algorithm.
const fieldByteSize = 32

// ErrInvalidSignature is returned for a malformed or non-verifying
// signature.
var ErrInvalidSignature = fmt.Errorf("key: invalid_signature")

// secp256k1Order is the group order of the secp256k1 curve, used to fold
// signatures into low-S canonical form.
var secp256k1Order, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

// derSignature mirrors the ASN.1 SEQUENCE{r,s} shape of a DER ECDSA
// signature, used only to move between the decred package's DER form and
// the compact (r||s) form this package exposes.
type derSignature struct {
	R, S *big.Int
}

// Sign produces a compact (r || s, low-S) signature over the SHA-256
// digest of msg.
func (k PrivateKey) Sign(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	switch k.Type {
	case TypeES256:
		r, s, err := ecdsa.Sign(rand.Reader, k.P256, digest[:])
		if err != nil {
			return nil, fmt.Errorf("key: sign es256: %w", err)
		}
		s = toLowS(s, k.P256.Curve.Params().N)
		return encodeCompact(r, s), nil
	case TypeES256K:
		sig := ecdsaSecp.Sign(k.Secp256k1, digest[:])
		var der derSignature
		if _, err := asn1.Unmarshal(sig.Serialize(), &der); err != nil {
			return nil, fmt.Errorf("key: sign es256k: decode der: %w", err)
		}
		s := toLowS(der.S, secp256k1Order)
		return encodeCompact(der.R, s), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, k.Type)
	}
}

// Verify checks a compact (r || s) signature over the SHA-256 digest of
// msg.
func (pub PublicKey) Verify(msg, sig []byte) error {
	if len(sig) != 2*fieldByteSize {
		return fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidSignature, 2*fieldByteSize, len(sig))
	}
	r := new(big.Int).SetBytes(sig[:fieldByteSize])
	s := new(big.Int).SetBytes(sig[fieldByteSize:])
	digest := sha256.Sum256(msg)

	switch pub.Type {
	case TypeES256:
		if pub.P256 == nil {
			return fmt.Errorf("%w: nil P256 key", ErrInvalidKey)
		}
		if !ecdsa.Verify(pub.P256, digest[:], r, s) {
			return ErrInvalidSignature
		}
		return nil
	case TypeES256K:
		if pub.Secp256k1 == nil {
			return fmt.Errorf("%w: nil secp256k1 key", ErrInvalidKey)
		}
		der, err := asn1.Marshal(derSignature{R: r, S: s})
		if err != nil {
			return fmt.Errorf("%w: encode der: %v", ErrInvalidSignature, err)
		}
		parsed, err := ecdsaSecp.ParseDERSignature(der)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		if !parsed.Verify(digest[:], pub.Secp256k1) {
			return ErrInvalidSignature
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedKeyType, pub.Type)
	}
}

func encodeCompact(r, s *big.Int) []byte {
	out := make([]byte, 2*fieldByteSize)
	r.FillBytes(out[:fieldByteSize])
	s.FillBytes(out[fieldByteSize:])
	return out
}

// toLowS normalizes s to the lower half of the curve order, per the
// canonical-signature convention ATProto and most ECDSA consumers expect.
func toLowS(s, order *big.Int) *big.Int {
	half := new(big.Int).Rsh(order, 1)
	if s.Cmp(half) > 0 {
		return new(big.Int).Sub(order, s)
	}
	return s
}

// Package key implements the cryptographic keypair types ATProto signs
// with (ES256 over P-256 and ES256K over secp256k1), and the multicodec
// encoding used by did:key and by DPoP proof verification.
package key

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/primal-host/atcore/multibase"
	"github.com/primal-host/atcore/varint"
)

// Type names a supported signature algorithm.
type Type string

// Supported types, per spec.md §4.12 (DPoP signing) and §4.4 (did:key).
const (
	TypeES256  Type = "ES256"  // NIST P-256
	TypeES256K Type = "ES256K" // secp256k1
)

// Multicodec points for compressed public keys, per the multicodec table.
const (
	codecP256Pub      = 0x1200
	codecSecp256k1Pub = 0xe7
)

// ErrUnsupportedKeyType is returned for a multicodec point this package
// does not recognize.
var ErrUnsupportedKeyType = errors.New("key: unsupported_key_type")

// ErrInvalidKey is returned for a structurally invalid key (wrong length,
// point not on curve, non-canonical encoding).
var ErrInvalidKey = errors.New("key: invalid_key")

// PublicKey is an algorithm-tagged public key usable for signature
// verification.
type PublicKey struct {
	Type     Type
	P256     *ecdsa.PublicKey  // set iff Type == TypeES256
	Secp256k1 *secp256k1.PublicKey // set iff Type == TypeES256K
}

// PrivateKey is an algorithm-tagged private key usable for signing.
type PrivateKey struct {
	Type      Type
	P256      *ecdsa.PrivateKey
	Secp256k1 *secp256k1.PrivateKey
}

// Public returns the corresponding PublicKey.
func (k PrivateKey) Public() PublicKey {
	switch k.Type {
	case TypeES256:
		return PublicKey{Type: TypeES256, P256: &k.P256.PublicKey}
	case TypeES256K:
		return PublicKey{Type: TypeES256K, Secp256k1: k.Secp256k1.PubKey()}
	}
	return PublicKey{}
}

// GenerateP256 creates a new ES256 (P-256) keypair.
func GenerateP256() (PrivateKey, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("key: generate p256: %w", err)
	}
	return PrivateKey{Type: TypeES256, P256: priv}, nil
}

// GenerateSecp256k1 creates a new ES256K (secp256k1) keypair.
func GenerateSecp256k1() (PrivateKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return PrivateKey{}, fmt.Errorf("key: generate secp256k1: %w", err)
	}
	return PrivateKey{Type: TypeES256K, Secp256k1: priv}, nil
}

// MarshalMulticodec encodes a public key as a multicodec-tagged,
// compressed-point byte string: varint(codec) || compressed point.
func (pub PublicKey) MarshalMulticodec() ([]byte, error) {
	switch pub.Type {
	case TypeES256:
		if pub.P256 == nil {
			return nil, fmt.Errorf("%w: nil P256 key", ErrInvalidKey)
		}
		compressed := elliptic.MarshalCompressed(elliptic.P256(), pub.P256.X, pub.P256.Y)
		out := varint.AppendEncode(nil, codecP256Pub)
		return append(out, compressed...), nil
	case TypeES256K:
		if pub.Secp256k1 == nil {
			return nil, fmt.Errorf("%w: nil secp256k1 key", ErrInvalidKey)
		}
		compressed := pub.Secp256k1.SerializeCompressed()
		out := varint.AppendEncode(nil, codecSecp256k1Pub)
		return append(out, compressed...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, pub.Type)
	}
}

// UnmarshalMulticodec decodes a multicodec-tagged compressed public key.
func UnmarshalMulticodec(data []byte) (PublicKey, error) {
	point, rest, err := varint.Decode(data)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: codec varint: %v", ErrInvalidKey, err)
	}
	switch point {
	case codecP256Pub:
		if len(rest) != 33 {
			return PublicKey{}, fmt.Errorf("%w: p256 compressed point must be 33 bytes, got %d", ErrInvalidKey, len(rest))
		}
		x, y := unmarshalCompressedP256(rest)
		if x == nil {
			return PublicKey{}, fmt.Errorf("%w: p256 point not on curve", ErrInvalidKey)
		}
		return PublicKey{Type: TypeES256, P256: &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}}, nil
	case codecSecp256k1Pub:
		if len(rest) != 33 {
			return PublicKey{}, fmt.Errorf("%w: secp256k1 compressed point must be 33 bytes, got %d", ErrInvalidKey, len(rest))
		}
		pub, err := secp256k1.ParsePubKey(rest)
		if err != nil {
			return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return PublicKey{Type: TypeES256K, Secp256k1: pub}, nil
	default:
		return PublicKey{}, fmt.Errorf("%w: multicodec point 0x%x", ErrUnsupportedKeyType, point)
	}
}

func unmarshalCompressedP256(data []byte) (*big.Int, *big.Int) {
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), data)
	return x, y
}

// DIDKey renders a public key as a did:key string (multibase base58btc
// over the multicodec-tagged key bytes).
func (pub PublicKey) DIDKey() (string, error) {
	raw, err := pub.MarshalMulticodec()
	if err != nil {
		return "", err
	}
	encoded, err := multibase.Encode(multibase.Base58BTC, raw)
	if err != nil {
		return "", err
	}
	return "did:key:" + encoded, nil
}

// ParseDIDKey decodes a "did:key:z..." string into its public key.
func ParseDIDKey(s string) (PublicKey, error) {
	const prefix = "did:key:"
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return PublicKey{}, fmt.Errorf("%w: missing did:key: prefix", ErrInvalidKey)
	}
	identifier := s[len(prefix):]
	_, raw, err := multibase.Decode(identifier)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return UnmarshalMulticodec(raw)
}

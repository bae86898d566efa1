// Package cid implements IPFS Content Identifiers (CID) as used by
// ATProto: CIDv0 (implicit base58btc dag-pb sha2-256) and CIDv1 (explicit
// multibase + multicodec + multihash), restricted to the codecs and
// bases ATProto actually produces.
package cid

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/primal-host/atcore/multibase"
	"github.com/primal-host/atcore/varint"
)

// Codec names the multicodec content type a CID addresses.
type Codec string

// Codecs ATProto uses.
const (
	CodecDagPB   Codec = "dag-pb"
	CodecDagCBOR Codec = "dag-cbor"
	CodecRaw     Codec = "raw"
)

var codecPoints = map[Codec]uint64{
	CodecDagPB:   0x70,
	CodecDagCBOR: 0x71,
	CodecRaw:     0x55,
}

var pointCodecs = map[uint64]Codec{
	0x70: CodecDagPB,
	0x71: CodecDagCBOR,
	0x55: CodecRaw,
}

const sha256MultihashCode = 0x12
const sha256Size = 0x20

// MultibaseKind names the multibase encoding a CID string was parsed
// from (and will round-trip back out as).
type MultibaseKind string

// Multibase kinds ATProto uses.
const (
	MultibaseBase58BTC MultibaseKind = "base58btc"
	MultibaseBase32    MultibaseKind = "base32"
)

// ErrInvalidFormat is returned when a string does not parse as any known
// CID form.
var ErrInvalidFormat = errors.New("cid: invalid_format")

// CID is an immutable, content-addressed identifier. Equality is by
// string form — compare with Equal or by comparing String() results.
type CID struct {
	version   int
	codec     Codec
	multibase MultibaseKind
	hash      string // the original string form, authoritative for equality
}

// Version returns 0 or 1.
func (c CID) Version() int { return c.version }

// Codec returns the multicodec content type.
func (c CID) Codec() Codec { return c.codec }

// Multibase returns the multibase encoding of the string form.
func (c CID) Multibase() MultibaseKind { return c.multibase }

// String returns the original/canonical string form.
func (c CID) String() string { return c.hash }

// Equal reports whether two CIDs have the same string form.
func (c CID) Equal(o CID) bool { return c.hash == o.hash }

// IsZero reports whether c is the zero value (never produced by Parse or
// FromData, but possible via a bare var declaration).
func (c CID) IsZero() bool { return c.hash == "" }

// Parse validates and decomposes a CID string per spec.md §4.3:
//
//   - CIDv0: exactly 46 characters, starts "Qm" -> dag-pb / base58btc.
//   - CIDv1 base32: starts 'b', non-empty tail of [a-z2-7].
//   - CIDv1 base58btc: starts 'z', non-empty tail of [1-9A-Za-z].
//
// Any other shape is ErrInvalidFormat.
func Parse(s string) (CID, error) {
	switch {
	case strings.HasPrefix(s, "Qm") && len(s) == 46:
		if _, err := base58.Decode(s); err != nil {
			return CID{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return CID{version: 0, codec: CodecDagPB, multibase: MultibaseBase58BTC, hash: s}, nil

	case strings.HasPrefix(s, "b") && len(s) > 1 && isBase32Body(s[1:]):
		codec, err := decodeV1Body(s[1:], multibase.Base32Lower)
		if err != nil {
			return CID{}, err
		}
		return CID{version: 1, codec: codec, multibase: MultibaseBase32, hash: s}, nil

	case strings.HasPrefix(s, "z") && len(s) > 1 && isBase58Body(s[1:]):
		codec, err := decodeV1Body(s[1:], multibase.Base58BTC)
		if err != nil {
			return CID{}, err
		}
		return CID{version: 1, codec: codec, multibase: MultibaseBase58BTC, hash: s}, nil

	default:
		return CID{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

func isBase32Body(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= '2' && c <= '7')) {
			return false
		}
	}
	return true
}

// isBase58Body checks the [1-9A-Za-z] character class spec.md §4.3
// requires for the CIDv1-base58btc string shape. Note this class is
// looser than the real base58 alphabet (it doesn't exclude O/I/l);
// base58.Decode is still run afterward and will reject anything that
// isn't valid base58.
func isBase58Body(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '1' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return true
}

// decodeV1Body decodes the multibase-stripped tail of a CIDv1 string and
// validates the version/codec/multihash header, returning the codec.
func decodeV1Body(body string, base multibase.Base) (Codec, error) {
	_, data, err := multibase.Decode(string(base) + body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return parseV1Header(data)
}

func parseV1Header(data []byte) (Codec, error) {
	if len(data) < 1 {
		return "", fmt.Errorf("%w: empty cid body", ErrInvalidFormat)
	}
	if data[0] != 0x01 {
		return "", fmt.Errorf("%w: unsupported cid version byte 0x%x", ErrInvalidFormat, data[0])
	}
	codecPoint, rest, err := varint.Decode(data[1:])
	if err != nil {
		return "", fmt.Errorf("%w: codec varint: %v", ErrInvalidFormat, err)
	}
	codec, ok := pointCodecs[codecPoint]
	if !ok {
		return "", fmt.Errorf("%w: unsupported codec point 0x%x", ErrInvalidFormat, codecPoint)
	}
	if len(rest) < 2 {
		return "", fmt.Errorf("%w: truncated multihash", ErrInvalidFormat)
	}
	if rest[0] != sha256MultihashCode {
		return "", fmt.Errorf("%w: unsupported multihash code 0x%x", ErrInvalidFormat, rest[0])
	}
	size, digest, err := varint.Decode(rest[1:])
	if err != nil {
		return "", fmt.Errorf("%w: multihash length varint: %v", ErrInvalidFormat, err)
	}
	if int(size) != len(digest) {
		return "", fmt.Errorf("%w: multihash length mismatch", ErrInvalidFormat)
	}
	return codec, nil
}

// FromData computes a CIDv1 over raw using SHA-256 and the given codec
// (default dag-cbor when codec == ""), base32-encoded with the 'b'
// multibase prefix.
func FromData(raw []byte, codec Codec) (CID, error) {
	if codec == "" {
		codec = CodecDagCBOR
	}
	point, ok := codecPoints[codec]
	if !ok {
		return CID{}, fmt.Errorf("cid: unsupported codec %q", codec)
	}
	digest := sha256.Sum256(raw)

	body := []byte{0x01}
	body = varint.AppendEncode(body, point)
	body = append(body, sha256MultihashCode)
	body = varint.AppendEncode(body, sha256Size)
	body = append(body, digest[:]...)

	s, err := multibase.Encode(multibase.Base32Lower, body)
	if err != nil {
		return CID{}, err
	}
	return CID{version: 1, codec: codec, multibase: MultibaseBase32, hash: s}, nil
}

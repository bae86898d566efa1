// Package multibase routes self-describing multibase strings (a single
// prefix character naming the base) to the underlying codec, and attaches
// the prefix back on when encoding. Only the bases ATProto actually uses
// are implemented: base16, base32 (lower/upper, no padding), base58btc,
// and base64 (standard and URL-safe, padded and unpadded).
package multibase

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/mr-tron/base58"
)

// Base names the encoding behind a multibase prefix character.
type Base byte

// Supported prefixes, per the multibase table.
const (
	Base16Lower  Base = 'f'
	Base16Upper  Base = 'F'
	Base32Lower  Base = 'b'
	Base32Upper  Base = 'B'
	Base58BTC    Base = 'z'
	Base64Pad    Base = 'm'
	Base64URL    Base = 'u'
	Base64URLPad Base = 'U'
)

// ErrUnknownBase is returned for a prefix character this package does not
// implement.
var ErrUnknownBase = errors.New("multibase: unknown base prefix")

// b32 is the RFC 4648 base32 alphabet with no padding, used for the
// 'b'/'B' multibase prefixes.
var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Encode attaches the multibase prefix for base and encodes data.
func Encode(base Base, data []byte) (string, error) {
	switch base {
	case Base16Lower:
		return string(base) + hex.EncodeToString(data), nil
	case Base16Upper:
		return string(base) + strings.ToUpper(hex.EncodeToString(data)), nil
	case Base32Lower:
		return string(base) + strings.ToLower(b32.EncodeToString(data)), nil
	case Base32Upper:
		return string(base) + strings.ToUpper(b32.EncodeToString(data)), nil
	case Base58BTC:
		return string(base) + base58.Encode(data), nil
	case Base64Pad:
		return string(base) + base64.StdEncoding.EncodeToString(data), nil
	case Base64URL:
		return string(base) + base64.RawURLEncoding.EncodeToString(data), nil
	case Base64URLPad:
		return string(base) + base64.URLEncoding.EncodeToString(data), nil
	default:
		return "", ErrUnknownBase
	}
}

// Decode inspects the leading prefix character of s and decodes the
// remainder with the corresponding base, returning the base used.
func Decode(s string) (Base, []byte, error) {
	if len(s) < 1 {
		return 0, nil, errors.New("multibase: empty string")
	}
	base := Base(s[0])
	rest := s[1:]
	switch base {
	case Base16Lower, Base16Upper:
		b, err := hex.DecodeString(strings.ToLower(rest))
		return base, b, err
	case Base32Lower, Base32Upper:
		b, err := b32.DecodeString(strings.ToUpper(rest))
		return base, b, err
	case Base58BTC:
		b, err := base58.Decode(rest)
		return base, b, err
	case Base64Pad:
		b, err := base64.StdEncoding.DecodeString(rest)
		return base, b, err
	case Base64URL:
		b, err := base64.RawURLEncoding.DecodeString(rest)
		return base, b, err
	case Base64URLPad:
		b, err := base64.URLEncoding.DecodeString(rest)
		return base, b, err
	default:
		return 0, nil, ErrUnknownBase
	}
}

// SortableAlphabet is the base32-sortable alphabet used for TID
// encoding (CIDv1's base32 form uses the RFC 4648 alphabet via the 'b'
// prefix instead): lowercase, no padding, and
// crucially ordered so that string comparison matches numeric comparison
// of the encoded value (unlike RFC 4648 base32, which is not
// order-preserving across its alphabet).
const SortableAlphabet = "234567abcdefghijklmnopqrstuvwxyz"

// sortableEncoding is a base32 variant using SortableAlphabet, used by
// the tid package for its string form.
var sortableEncoding = base32.NewEncoding(SortableAlphabet).WithPadding(base32.NoPadding)

// EncodeSortable base32-encodes data with the sortable alphabet, with no
// multibase prefix attached, since TID strings carry no prefix at all.
func EncodeSortable(data []byte) string {
	return sortableEncoding.EncodeToString(data)
}

// DecodeSortable decodes a sortable-alphabet base32 string.
func DecodeSortable(s string) ([]byte, error) {
	return sortableEncoding.DecodeString(s)
}

// IsSortableAlphabet reports whether every character of s is in
// SortableAlphabet.
func IsSortableAlphabet(s string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(SortableAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}

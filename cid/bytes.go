package cid

import (
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/primal-host/atcore/multibase"
)

// Bytes returns the raw (non-multibase) binary encoding of c: for CIDv0,
// just the multihash bytes; for CIDv1, the version byte, codec varint,
// and multihash bytes. This is the representation used inside CAR block
// framing, distinct from the multibase-prefixed string form.
func (c CID) Bytes() ([]byte, error) {
	switch c.version {
	case 0:
		raw, err := base58.Decode(c.hash)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return raw, nil
	case 1:
		_, body, err := multibase.Decode(c.hash)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return body, nil
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, c.version)
	}
}

// ParseBytes decodes a raw (non-multibase) CID byte encoding, as found
// within CAR block framing, into a CID. CIDv0 bytes are the bare
// multihash (leading byte 0x12); CIDv1 bytes begin with the version byte
// 0x01. The resulting CID's string form always uses base32 for v1 and
// base58btc for v0.
func ParseBytes(data []byte) (CID, error) {
	if len(data) == 0 {
		return CID{}, fmt.Errorf("%w: empty cid bytes", ErrInvalidFormat)
	}
	if data[0] == sha256MultihashCode {
		s := base58.Encode(data)
		return Parse(s)
	}
	codec, err := parseV1Header(data)
	if err != nil {
		return CID{}, err
	}
	s, err := multibase.Encode(multibase.Base32Lower, data)
	if err != nil {
		return CID{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return CID{version: 1, codec: codec, multibase: MultibaseBase32, hash: s}, nil
}

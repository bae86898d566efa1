// Package car implements the CAR (Content-Addressable aRchive) v1
// container format: a binary bundle of a root-CID header followed by a
// sequence of (CID, bytes) blocks, used for repository import/export.
package car

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	cbg "github.com/whyrusleeping/cbor-gen"

	"github.com/primal-host/atcore/cid"
	"github.com/primal-host/atcore/varint"
)

// ErrInsufficientData is returned when a length-prefixed slice would
// exceed the remaining input.
var ErrInsufficientData = errors.New("car: insufficient_data")

// Block is a single (CID, bytes) pair within a CAR.
type Block struct {
	CID  cid.CID
	Data []byte
}

// CAR is a decoded container: a version, an ordered list of root CIDs
// (the first is the canonical "head"), and an ordered list of blocks.
type CAR struct {
	Version int
	Roots   []cid.CID
	Blocks  []Block
}

// header is the CBOR-encoded shape that precedes the block stream.
type header struct {
	Version int      `cbor:"version"`
	Roots   []string `cbor:"roots"`
}

// Encode renders c to its binary CAR v1 form: varint(len(header)) ||
// header || block*, where each block is
// varint(len(payload)) || payload and payload is
// varint(len(cid-bytes)) || cid-bytes || data. CIDs are framed in their
// raw (non-multibase) byte form, per the canonical ATProto layout.
func Encode(c CAR) ([]byte, error) {
	headerBytes, err := encodeHeader(c.Version, c.Roots)
	if err != nil {
		return nil, err
	}

	out := varint.AppendEncode(nil, uint64(len(headerBytes)))
	out = append(out, headerBytes...)

	for i, b := range c.Blocks {
		cidBytes, err := b.CID.Bytes()
		if err != nil {
			return nil, fmt.Errorf("car: block %d: encode cid: %w", i, err)
		}
		payload := varint.AppendEncode(nil, uint64(len(cidBytes)))
		payload = append(payload, cidBytes...)
		payload = append(payload, b.Data...)

		out = varint.AppendEncode(out, uint64(len(payload)))
		out = append(out, payload...)
	}
	return out, nil
}

// encodeHeader writes the CAR header {version, roots: [...]} as a
// canonical CBOR map with fixed key order, using the same manual
// cbor-gen writer idiom the commit package uses for its own fixed-order
// map.
func encodeHeader(version int, roots []cid.CID) ([]byte, error) {
	var buf bytes.Buffer
	if err := cbg.WriteMajorTypeHeader(&buf, cbg.MajMap, 2); err != nil {
		return nil, fmt.Errorf("car: encode header: %w", err)
	}

	if err := cbg.WriteString(&buf, "version"); err != nil {
		return nil, fmt.Errorf("car: encode header: %w", err)
	}
	if err := cbg.WriteMajorTypeHeader(&buf, cbg.MajUnsignedInt, uint64(version)); err != nil {
		return nil, fmt.Errorf("car: encode header: %w", err)
	}

	if err := cbg.WriteString(&buf, "roots"); err != nil {
		return nil, fmt.Errorf("car: encode header: %w", err)
	}
	if err := cbg.WriteMajorTypeHeader(&buf, cbg.MajArray, uint64(len(roots))); err != nil {
		return nil, fmt.Errorf("car: encode header: %w", err)
	}
	for _, r := range roots {
		if err := cbg.WriteString(&buf, r.String()); err != nil {
			return nil, fmt.Errorf("car: encode header: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// Decode parses a binary CAR v1 stream.
func Decode(data []byte) (CAR, error) {
	headerLen, rest, err := varint.Decode(data)
	if err != nil {
		return CAR{}, fmt.Errorf("car: decode header length: %w", err)
	}
	if uint64(len(rest)) < headerLen {
		return CAR{}, fmt.Errorf("%w: header", ErrInsufficientData)
	}
	headerBytes, rest := rest[:headerLen], rest[headerLen:]

	var h header
	if err := cbor.Unmarshal(headerBytes, &h); err != nil {
		return CAR{}, fmt.Errorf("car: decode header: %w", err)
	}

	out := CAR{Version: h.Version}
	for _, rs := range h.Roots {
		c, err := cid.Parse(rs)
		if err != nil {
			return CAR{}, fmt.Errorf("car: decode root cid %q: %w", rs, err)
		}
		out.Roots = append(out.Roots, c)
	}

	for len(rest) > 0 {
		blockLen, tail, err := varint.Decode(rest)
		if err != nil {
			return CAR{}, fmt.Errorf("car: decode block length: %w", err)
		}
		if uint64(len(tail)) < blockLen {
			return CAR{}, fmt.Errorf("%w: block", ErrInsufficientData)
		}
		payload, next := tail[:blockLen], tail[blockLen:]
		rest = next

		cidLen, payloadRest, err := varint.Decode(payload)
		if err != nil {
			return CAR{}, fmt.Errorf("car: decode cid length: %w", err)
		}
		if uint64(len(payloadRest)) < cidLen {
			return CAR{}, fmt.Errorf("%w: block cid", ErrInsufficientData)
		}
		cidBytes, blockData := payloadRest[:cidLen], payloadRest[cidLen:]

		c, err := cid.ParseBytes(cidBytes)
		if err != nil {
			return CAR{}, fmt.Errorf("car: decode block cid: %w", err)
		}
		out.Blocks = append(out.Blocks, Block{CID: c, Data: append([]byte(nil), blockData...)})
	}

	return out, nil
}

// GetBlock scans blocks linearly for one whose CID string form matches
// target, per the O(n) lookup contract.
func GetBlock(c CAR, target cid.CID) (Block, bool) {
	for _, b := range c.Blocks {
		if b.CID.Equal(target) {
			return b, true
		}
	}
	return Block{}, false
}

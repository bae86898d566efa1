// Package record implements the repository record envelope: encoding a
// lexicon-shaped value to content-addressed bytes, and the structural
// validation of blob references embedded within records.
package record

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/primal-host/atcore/cid"
)

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("record: building canonical cbor encoder: %v", err))
	}
	return mode
}

// EncodeRecordValue serialises a lexicon-shaped value (maps, slices,
// strings, integers, floats, bools, nil) to canonical CBOR bytes.
func EncodeRecordValue(v any) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("record: encode: %w", err)
	}
	return b, nil
}

// DecodeRecordValue parses canonical CBOR bytes back into a generic
// lexicon-shaped value.
func DecodeRecordValue(b []byte) (any, error) {
	var v any
	if err := cbor.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("record: decode: %w", err)
	}
	return v, nil
}

// ComputeRecordCID hashes already-encoded record bytes into a dag-cbor
// CID, the identity a record is referenced by within an MST.
func ComputeRecordCID(raw []byte) (cid.CID, error) {
	return cid.FromData(raw, cid.CodecDagCBOR)
}

// Error kinds for blob reference validation, per the structural-errors
// taxonomy.
var (
	ErrMissingRef      = errors.New("record: missing_ref")
	ErrMissingSize     = errors.New("record: missing_size")
	ErrInvalidMimeType = errors.New("record: invalid_mime_type")
	ErrInvalidSize     = errors.New("record: invalid_size")
	ErrSizeExceeded    = errors.New("record: size_exceeded")
)

// BlobRef is an ATProto blob reference embedded in a record: a
// content-addressed pointer to out-of-band binary data.
type BlobRef struct {
	Ref      cid.CID
	MimeType string
	Size     int64
}

// Validate checks BlobRef's structural invariants: Ref must be set, Size
// must be non-negative, MimeType must be non-empty, and — if maxSize is
// positive — Size must not exceed it.
func (b BlobRef) Validate(maxSize int64) error {
	if b.Ref.IsZero() {
		return ErrMissingRef
	}
	if b.MimeType == "" {
		return fmt.Errorf("%w: mime type is required", ErrInvalidMimeType)
	}
	if b.Size < 0 {
		return fmt.Errorf("%w: size must be non-negative", ErrInvalidSize)
	}
	if maxSize > 0 && b.Size > maxSize {
		return fmt.Errorf("%w: %d exceeds limit %d", ErrSizeExceeded, b.Size, maxSize)
	}
	return nil
}

// blobRefWire is the JSON/CBOR wire shape of a blob reference:
// {"$type":"blob","ref":{"$link":"<cid>"},"mimeType":"...","size":N}.
type blobRefWire struct {
	Type     string         `cbor:"$type"`
	Ref      blobRefWireRef `cbor:"ref"`
	MimeType string         `cbor:"mimeType"`
	Size     int64          `cbor:"size"`
}

type blobRefWireRef struct {
	Link string `cbor:"$link"`
}

// EncodeBlobRef renders a BlobRef in its wire shape.
func EncodeBlobRef(b BlobRef) ([]byte, error) {
	if err := b.Validate(0); err != nil {
		return nil, err
	}
	wire := blobRefWire{
		Type:     "blob",
		Ref:      blobRefWireRef{Link: b.Ref.String()},
		MimeType: b.MimeType,
		Size:     b.Size,
	}
	out, err := encMode.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("record: encode blob ref: %w", err)
	}
	return out, nil
}

// DecodeBlobRef parses a blob reference from its wire shape.
func DecodeBlobRef(data []byte) (BlobRef, error) {
	var wire blobRefWire
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return BlobRef{}, fmt.Errorf("record: decode blob ref: %w", err)
	}
	if wire.Ref.Link == "" {
		return BlobRef{}, ErrMissingRef
	}
	c, err := cid.Parse(wire.Ref.Link)
	if err != nil {
		return BlobRef{}, fmt.Errorf("%w: %v", ErrMissingRef, err)
	}
	b := BlobRef{Ref: c, MimeType: wire.MimeType, Size: wire.Size}
	if err := b.Validate(0); err != nil {
		return BlobRef{}, err
	}
	return b, nil
}

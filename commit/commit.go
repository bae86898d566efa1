// Package commit implements the signed, versioned repository snapshot
// that anchors an ATProto repository and chains its revisions.
package commit

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	cbg "github.com/whyrusleeping/cbor-gen"

	"github.com/primal-host/atcore/cid"
	"github.com/primal-host/atcore/tid"
)

// CurrentVersion is the only commit protocol version this package
// produces or accepts.
const CurrentVersion = 3

// Error kinds, per the repo-errors taxonomy.
var (
	ErrUnsignedCommit = errors.New("commit: unsigned_commit")
	ErrInvalidVersion = errors.New("commit: invalid_version")
	ErrInvalidDID     = errors.New("commit: invalid_did")
	ErrInvalidRev     = errors.New("commit: invalid_rev")
	ErrInvalidDataCID = errors.New("commit: invalid_data_cid")
	ErrInvalidPrevCID = errors.New("commit: invalid_prev_cid")
)

// SigningFailedError wraps a panic-free error returned by a caller's
// signing callback.
type SigningFailedError struct{ Cause error }

func (e *SigningFailedError) Error() string { return fmt.Sprintf("commit: signing_failed: %v", e.Cause) }
func (e *SigningFailedError) Unwrap() error { return e.Cause }

// VerificationFailedError wraps an error returned by a caller's
// verification callback.
type VerificationFailedError struct{ Cause error }

func (e *VerificationFailedError) Error() string {
	return fmt.Sprintf("commit: verification_failed: %v", e.Cause)
}
func (e *VerificationFailedError) Unwrap() error { return e.Cause }

// Commit is a single repository snapshot.
type Commit struct {
	DID     string
	Version int
	Data    cid.CID
	Rev     string // TID string
	Prev    *cid.CID
	Sig     []byte
}

// Create constructs a new unsigned commit at CurrentVersion, with Rev
// freshly minted from clk. A nil clk leaves Rev empty, which Validate
// rejects.
func Create(did string, data cid.CID, clk *tid.Clock) Commit {
	rev := ""
	if clk != nil {
		rev = clk.Next().String()
	}
	return Commit{DID: did, Version: CurrentVersion, Data: data, Rev: rev}
}

// CreateNext builds the next commit in a chain, threading prev's CID
// into the new commit's Prev field.
func CreateNext(did string, data cid.CID, clk *tid.Clock, prev cid.CID) Commit {
	c := Create(did, data, clk)
	c.Prev = &prev
	return c
}

// SignFunc signs the canonical sig-less bytes of a commit, returning a
// raw signature.
type SignFunc func(unsignedBytes []byte) ([]byte, error)

// VerifyFunc verifies a signature over the canonical sig-less bytes of a
// commit.
type VerifyFunc func(unsignedBytes, sig []byte) error

// Sign calls fn over the commit's canonical unsigned bytes and stores the
// result in Sig, returning the updated commit.
func Sign(c Commit, fn SignFunc) (Commit, error) {
	unsigned, err := EncodeUnsigned(c)
	if err != nil {
		return Commit{}, err
	}
	sig, err := fn(unsigned)
	if err != nil {
		return Commit{}, &SigningFailedError{Cause: err}
	}
	c.Sig = sig
	return c, nil
}

// Verify calls fn over the commit's canonical unsigned bytes with the
// stored signature. Returns ErrUnsignedCommit if no signature is present.
func Verify(c Commit, fn VerifyFunc) error {
	if len(c.Sig) == 0 {
		return ErrUnsignedCommit
	}
	unsigned, err := EncodeUnsigned(c)
	if err != nil {
		return err
	}
	if err := fn(unsigned, c.Sig); err != nil {
		return &VerificationFailedError{Cause: err}
	}
	return nil
}

// Validate checks structural invariants: did begins "did:", version is
// CurrentVersion, rev is a valid TID, prev (if present) was already typed
// as a CID by construction.
func Validate(c Commit) error {
	if !strings.HasPrefix(c.DID, "did:") {
		return fmt.Errorf("%w: %q", ErrInvalidDID, c.DID)
	}
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, c.Version)
	}
	if c.Data.IsZero() {
		return fmt.Errorf("%w: missing data cid", ErrInvalidDataCID)
	}
	if _, err := tid.Parse(c.Rev); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRev, err)
	}
	return nil
}

// CompareRevs orders two revision strings by byte-wise comparison,
// matching TID's own ordering.
func CompareRevs(a, b string) int {
	return strings.Compare(a, b)
}

// EncodeUnsigned renders the stable, sig-less serialisation the signer
// and verifier operate over: a canonical DAG-CBOR map with fixed key
// order {did, version, data, rev, prev}, data and prev carried as their
// string forms.
func EncodeUnsigned(c Commit) ([]byte, error) {
	var buf bytes.Buffer

	if err := cbg.WriteMajorTypeHeader(&buf, cbg.MajMap, 5); err != nil {
		return nil, fmt.Errorf("commit: encode: %w", err)
	}

	if err := writeMapKey(&buf, "did"); err != nil {
		return nil, err
	}
	if err := cbg.WriteString(&buf, c.DID); err != nil {
		return nil, fmt.Errorf("commit: encode did: %w", err)
	}

	if err := writeMapKey(&buf, "version"); err != nil {
		return nil, err
	}
	if err := cbg.WriteMajorTypeHeader(&buf, cbg.MajUnsignedInt, uint64(c.Version)); err != nil {
		return nil, fmt.Errorf("commit: encode version: %w", err)
	}

	if err := writeMapKey(&buf, "data"); err != nil {
		return nil, err
	}
	if err := cbg.WriteString(&buf, c.Data.String()); err != nil {
		return nil, fmt.Errorf("commit: encode data: %w", err)
	}

	if err := writeMapKey(&buf, "rev"); err != nil {
		return nil, err
	}
	if err := cbg.WriteString(&buf, c.Rev); err != nil {
		return nil, fmt.Errorf("commit: encode rev: %w", err)
	}

	if err := writeMapKey(&buf, "prev"); err != nil {
		return nil, err
	}
	if c.Prev == nil {
		if _, err := buf.Write(cbg.CborNull); err != nil {
			return nil, fmt.Errorf("commit: encode prev: %w", err)
		}
	} else {
		if err := cbg.WriteString(&buf, c.Prev.String()); err != nil {
			return nil, fmt.Errorf("commit: encode prev: %w", err)
		}
	}

	return buf.Bytes(), nil
}

func writeMapKey(buf *bytes.Buffer, key string) error {
	if err := cbg.WriteMajorTypeHeader(buf, cbg.MajTextString, uint64(len(key))); err != nil {
		return fmt.Errorf("commit: encode key %q: %w", key, err)
	}
	if _, err := buf.WriteString(key); err != nil {
		return fmt.Errorf("commit: encode key %q: %w", key, err)
	}
	return nil
}

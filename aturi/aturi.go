// Package aturi implements AT-URIs: "at://<authority>/<collection>/<rkey>"
// references into a repository, composing the did and nsid grammars.
package aturi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/primal-host/atcore/did"
	"github.com/primal-host/atcore/nsid"
)

// ErrInvalidFormat is returned for a string that does not satisfy the
// AT-URI grammar.
var ErrInvalidFormat = errors.New("aturi: invalid_format")

const maxLength = 8192

// AuthorityKind distinguishes a DID authority from a (discouraged but
// legal) handle authority.
type AuthorityKind int

// Authority kinds.
const (
	AuthorityDID AuthorityKind = iota
	AuthorityHandle
)

// URI is a parsed AT-URI.
type URI struct {
	AuthorityKind AuthorityKind
	DID           did.DID // set iff AuthorityKind == AuthorityDID
	Handle        string  // set iff AuthorityKind == AuthorityHandle
	Collection    nsid.NSID
	HasCollection bool
	RecordKey     string
	HasRecordKey  bool
	Fragment      string // path-like "#/..." suffix, without the '#'
	raw           string
}

// String returns the original string form.
func (u URI) String() string { return u.raw }

// Authority returns the authority segment verbatim (DID string or
// handle).
func (u URI) Authority() string {
	if u.AuthorityKind == AuthorityDID {
		return u.DID.String()
	}
	return u.Handle
}

// Parse validates and decomposes an AT-URI per the "at://authority
// [/collection[/rkey]][#fragment]" grammar.
func Parse(s string) (URI, error) {
	if len(s) == 0 || len(s) > maxLength {
		return URI{}, fmt.Errorf("%w: length %d out of bounds", ErrInvalidFormat, len(s))
	}
	const scheme = "at://"
	if !strings.HasPrefix(s, scheme) {
		return URI{}, fmt.Errorf("%w: missing at:// scheme", ErrInvalidFormat)
	}
	rest := s[len(scheme):]
	if rest == "" {
		return URI{}, fmt.Errorf("%w: missing authority", ErrInvalidFormat)
	}

	fragment := ""
	if idx := strings.IndexByte(rest, '#'); idx >= 0 {
		fragment = rest[idx+1:]
		rest = rest[:idx]
	}

	pathParts := strings.SplitN(rest, "/", 3)
	authority := pathParts[0]
	if authority == "" {
		return URI{}, fmt.Errorf("%w: empty authority", ErrInvalidFormat)
	}

	u := URI{raw: s, Fragment: fragment}
	if strings.HasPrefix(authority, "did:") {
		d, err := did.Parse(authority)
		if err != nil {
			return URI{}, fmt.Errorf("%w: authority: %v", ErrInvalidFormat, err)
		}
		u.AuthorityKind = AuthorityDID
		u.DID = d
	} else {
		if err := validateHandle(authority); err != nil {
			return URI{}, fmt.Errorf("%w: authority: %v", ErrInvalidFormat, err)
		}
		u.AuthorityKind = AuthorityHandle
		u.Handle = authority
	}

	if len(pathParts) >= 2 {
		if pathParts[1] == "" {
			return URI{}, fmt.Errorf("%w: empty collection segment", ErrInvalidFormat)
		}
		n, err := nsid.Parse(pathParts[1])
		if err != nil {
			return URI{}, fmt.Errorf("%w: collection: %v", ErrInvalidFormat, err)
		}
		u.Collection = n
		u.HasCollection = true
	}
	if len(pathParts) >= 3 {
		if pathParts[2] == "" {
			return URI{}, fmt.Errorf("%w: empty record key segment", ErrInvalidFormat)
		}
		if err := validateRecordKey(pathParts[2]); err != nil {
			return URI{}, fmt.Errorf("%w: record key: %v", ErrInvalidFormat, err)
		}
		u.RecordKey = pathParts[2]
		u.HasRecordKey = true
	}

	return u, nil
}

// validateHandle checks the loose DNS-name shape a non-DID authority
// must have: dot-separated LDH labels.
func validateHandle(s string) error {
	if len(s) == 0 || len(s) > 253 {
		return errors.New("handle length out of bounds")
	}
	for _, label := range strings.Split(s, ".") {
		if len(label) == 0 || len(label) > 63 {
			return fmt.Errorf("label %q length out of bounds", label)
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return fmt.Errorf("label %q must not start or end with hyphen", label)
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-') {
				return fmt.Errorf("illegal character %q in label %q", c, label)
			}
		}
	}
	return nil
}

// validateRecordKey checks the record key character class: 1-512 chars
// of [A-Za-z0-9._~:@!$&'()*+,;=%-].
func validateRecordKey(s string) error {
	if len(s) == 0 || len(s) > 512 {
		return errors.New("record key length out of bounds")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '~', c == '.', c == ':', c == '-':
		case c == '@', c == '!', c == '$', c == '&', c == '\'', c == '(', c == ')':
		case c == '*', c == '+', c == ',', c == ';', c == '=', c == '%':
		default:
			return fmt.Errorf("illegal character %q", c)
		}
	}
	return nil
}

// Package nsid implements Namespaced Identifiers: the reverse-DNS-style
// names ATProto uses for lexicon schema IDs (e.g. "app.bsky.feed.post").
package nsid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat is returned for a string that does not satisfy the
// NSID grammar.
var ErrInvalidFormat = errors.New("nsid: invalid_format")

// ErrAuthorityTooLong is returned when the dotted authority portion
// (everything but the final name segment) exceeds its own 253-char cap,
// independent of the overall 317-char total.
var ErrAuthorityTooLong = errors.New("nsid: authority_too_long")

const (
	maxTotalLength     = 317
	maxAuthorityLength = 253
	maxSegmentCount    = 1000
	minSegments        = 3
)

// NSID is a parsed, validated namespaced identifier.
type NSID struct {
	Authority []string // domain segments, in their original (non-reversed) order
	Name      string   // the final, non-domain segment
	raw       string
}

// String returns the original string form.
func (n NSID) String() string { return n.raw }

// AuthorityString returns the dotted authority portion ("app.bsky.feed").
func (n NSID) AuthorityString() string { return strings.Join(n.Authority, ".") }

// Parse validates s against the NSID grammar: a dot-separated name where
// all but the last segment are domain labels (reverse-DNS order) and the
// last segment is the record/method name, itself alphanumeric starting
// with a letter.
func Parse(s string) (NSID, error) {
	if len(s) == 0 || len(s) > maxTotalLength {
		return NSID{}, fmt.Errorf("%w: length %d out of bounds", ErrInvalidFormat, len(s))
	}
	segments := strings.Split(s, ".")
	if len(segments) < minSegments {
		return NSID{}, fmt.Errorf("%w: need at least %d segments, got %d", ErrInvalidFormat, minSegments, len(segments))
	}
	if len(segments) > maxSegmentCount {
		return NSID{}, fmt.Errorf("%w: too many segments (%d)", ErrInvalidFormat, len(segments))
	}

	domainSegments := segments[:len(segments)-1]
	name := segments[len(segments)-1]

	if authorityLen := len(strings.Join(domainSegments, ".")); authorityLen > maxAuthorityLength {
		return NSID{}, fmt.Errorf("%w: authority length %d exceeds %d", ErrAuthorityTooLong, authorityLen, maxAuthorityLength)
	}

	for i, seg := range domainSegments {
		if err := validateDomainSegment(seg); err != nil {
			return NSID{}, fmt.Errorf("%w: segment %d (%q): %v", ErrInvalidFormat, i, seg, err)
		}
	}
	if err := validateNameSegment(name); err != nil {
		return NSID{}, fmt.Errorf("%w: name segment %q: %v", ErrInvalidFormat, name, err)
	}

	return NSID{
		Authority: append([]string(nil), domainSegments...),
		Name:      name,
		raw:       s,
	}, nil
}

// validateDomainSegment checks a single authority label: 1-63 chars,
// alphanumeric and hyphen, must not start with a digit, must not start
// or end with a hyphen.
func validateDomainSegment(seg string) error {
	if len(seg) == 0 || len(seg) > 63 {
		return errors.New("segment length out of bounds")
	}
	if seg[0] >= '0' && seg[0] <= '9' {
		return errors.New("segment must not start with a digit")
	}
	if seg[0] == '-' || seg[len(seg)-1] == '-' {
		return errors.New("segment must not start or end with a hyphen")
	}
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if !isAlphanum(c) && c != '-' {
			return fmt.Errorf("illegal character %q", c)
		}
	}
	return nil
}

// validateNameSegment checks the final segment: 1-63 chars, alphanumeric
// only (no hyphens), must start with a letter.
func validateNameSegment(seg string) error {
	if len(seg) == 0 || len(seg) > 63 {
		return errors.New("name length out of bounds")
	}
	if !isLetter(seg[0]) {
		return errors.New("name must start with a letter")
	}
	for i := 0; i < len(seg); i++ {
		if !isAlphanum(seg[i]) {
			return fmt.Errorf("illegal character %q in name segment", seg[i])
		}
	}
	return nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphanum(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9')
}

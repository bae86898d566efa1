// Package tid implements Timestamp Identifiers: 13-character, clock-ordered
// record keys encoded so that string sort order tracks creation order.
package tid

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/primal-host/atcore/multibase"
)

// Length is the fixed encoded length of a TID string.
const Length = 13

// ErrInvalidFormat is returned for a string that is not a well-formed TID.
var ErrInvalidFormat = errors.New("tid: invalid_format")

// TID is a 64-bit value packing a microsecond timestamp (53 bits) and a
// clock identifier (10 bits), per the TID layout.
type TID uint64

const (
	clockIDBits = 10
	clockIDMask = (uint64(1) << clockIDBits) - 1
)

// firstCharAlphabet is the restricted set of leading characters: the
// first 16 symbols of the sortable alphabet, guaranteeing the top bit of
// the encoded 64-bit value is always zero.
const firstCharAlphabet = "234567abcdefghij"

// Timestamp returns the microsecond timestamp component.
func (t TID) Timestamp() uint64 { return uint64(t) >> clockIDBits }

// ClockID returns the clock identifier component.
func (t TID) ClockID() uint64 { return uint64(t) & clockIDMask }

// String renders the TID in its 13-character sortable base32 form.
func (t TID) String() string {
	var buf [8]byte
	v := uint64(t)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return multibase.EncodeSortable(buf[:])[:Length]
}

// Parse validates and decodes a 13-character TID string.
func Parse(s string) (TID, error) {
	if len(s) != Length {
		return 0, fmt.Errorf("%w: length must be %d, got %d", ErrInvalidFormat, Length, len(s))
	}
	if !multibase.IsSortableAlphabet(s) {
		return 0, fmt.Errorf("%w: characters must be from the sortable base32 alphabet", ErrInvalidFormat)
	}
	if !strings.Contains(firstCharAlphabet, s[:1]) {
		return 0, fmt.Errorf("%w: first character %q not in restricted leading alphabet", ErrInvalidFormat, s[0])
	}
	// The sortable encoding of 8 bytes (64 bits) needs ceil(64/5) = 13
	// characters with 1 trailing bit of padding, which the unpadded
	// decoder drops.
	decoded, err := multibase.DecodeSortable(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(decoded) != 8 {
		return 0, fmt.Errorf("%w: decoded length %d, want 8", ErrInvalidFormat, len(decoded))
	}
	var v uint64
	for _, b := range decoded {
		v = v<<8 | uint64(b)
	}
	return TID(v), nil
}

// Clock issues monotonically increasing TIDs for a single logical
// repository writer. It is safe for concurrent use.
type Clock struct {
	mu      sync.Mutex
	clockID uint64
	last    uint64
	now     func() time.Time
}

// NewClock creates a Clock with the given 10-bit clock identifier. now
// defaults to time.Now when nil, letting tests substitute a deterministic
// clock.
func NewClock(clockID uint64, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{clockID: clockID & clockIDMask, now: now}
}

// Next returns the next TID, guaranteed strictly greater than every TID
// previously returned by this Clock.
func (c *Clock) Next() TID {
	c.mu.Lock()
	defer c.mu.Unlock()

	micros := uint64(c.now().UnixMicro())
	if micros <= c.last {
		micros = c.last + 1
	}
	c.last = micros
	return TID(micros<<clockIDBits | c.clockID)
}

package tid

import (
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	clk := NewClock(5, nil)
	got := clk.Next()
	s := got.String()
	if len(s) != Length {
		t.Fatalf("String() length = %d, want %d", len(s), Length)
	}
	parsed, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	if parsed != got {
		t.Errorf("parsed %v != original %v", parsed, got)
	}
	if parsed.ClockID() != 5 {
		t.Errorf("ClockID = %d, want 5", parsed.ClockID())
	}
}

func TestClockMonotonic(t *testing.T) {
	fixed := time.UnixMicro(1_700_000_000_000_000)
	clk := NewClock(1, func() time.Time { return fixed })
	var prev TID
	for i := 0; i < 100; i++ {
		next := clk.Next()
		if i > 0 && next <= prev {
			t.Fatalf("TID not strictly increasing: %v <= %v", next, prev)
		}
		prev = next
	}
}

func TestStringSortOrderTracksTimestamp(t *testing.T) {
	base := time.UnixMicro(1_700_000_000_000_000)
	clk := NewClock(2, func() time.Time { return base })
	a := clk.Next()
	clk.now = func() time.Time { return base.Add(time.Second) }
	b := clk.Next()
	if !(a.String() < b.String()) {
		t.Errorf("string order does not track time order: %q >= %q", a.String(), b.String())
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{"", "tooshort", "3jwdwj2ctlk2678", "3JWDWJ2CTLK26"}
	for _, s := range cases {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", s)
		}
	}
}

package varint

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 129, 300, 16384, 1 << 20, 1 << 40, 1<<53 - 1}
	for _, n := range cases {
		enc := Encode(n)
		got, rest, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(Encode(%d)) error: %v", n, err)
		}
		if got != n {
			t.Errorf("Decode(Encode(%d)) = %d", n, got)
		}
		if len(rest) != 0 {
			t.Errorf("Decode(Encode(%d)) left rest %v", n, rest)
		}
	}
}

func TestDecodeWithTrailer(t *testing.T) {
	enc := Encode(300)
	trailer := []byte{9, 9, 9}
	got, rest, err := Decode(append(enc, trailer...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 300 {
		t.Errorf("got %d, want 300", got)
	}
	if !bytes.Equal(rest, trailer) {
		t.Errorf("rest = %v, want %v", rest, trailer)
	}
}

func TestDecodeIncomplete(t *testing.T) {
	if _, _, err := Decode(nil); err != ErrIncomplete {
		t.Errorf("empty input: err = %v, want ErrIncomplete", err)
	}
	if _, _, err := Decode([]byte{0x80}); err != ErrIncomplete {
		t.Errorf("dangling continuation byte: err = %v, want ErrIncomplete", err)
	}
}

func TestSingleByteEncoding(t *testing.T) {
	if got := Encode(0); !bytes.Equal(got, []byte{0}) {
		t.Errorf("Encode(0) = %v", got)
	}
	if got := Encode(127); !bytes.Equal(got, []byte{127}) {
		t.Errorf("Encode(127) = %v", got)
	}
	if got := Encode(128); !bytes.Equal(got, []byte{0x80, 0x01}) {
		t.Errorf("Encode(128) = %v", got)
	}
}

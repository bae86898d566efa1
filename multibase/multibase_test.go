package multibase

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	data := []byte("hello, atproto")
	bases := []Base{Base16Lower, Base16Upper, Base32Lower, Base32Upper, Base58BTC, Base64Pad, Base64URL, Base64URLPad}
	for _, b := range bases {
		enc, err := Encode(b, data)
		if err != nil {
			t.Fatalf("Encode(%c): %v", b, err)
		}
		gotBase, dec, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(%q): %v", enc, err)
		}
		if gotBase != b {
			t.Errorf("Decode base = %c, want %c", gotBase, b)
		}
		if !bytes.Equal(dec, data) {
			t.Errorf("Decode(%q) = %v, want %v", enc, dec, data)
		}
	}
}

func TestUnknownBase(t *testing.T) {
	if _, _, err := Decode("?nope"); err != ErrUnknownBase {
		t.Errorf("err = %v, want ErrUnknownBase", err)
	}
}

func TestSortableAlphabetOrdering(t *testing.T) {
	// Sortable alphabet must place digits before letters so that string
	// comparison of encoded output tracks numeric comparison of input.
	lo := EncodeSortable([]byte{0x00})
	hi := EncodeSortable([]byte{0xF0})
	if lo >= hi {
		t.Errorf("EncodeSortable ordering broken: %q >= %q", lo, hi)
	}
	decoded, err := DecodeSortable(hi)
	if err != nil {
		t.Fatalf("DecodeSortable: %v", err)
	}
	if !bytes.Equal(decoded, []byte{0xF0}) {
		t.Errorf("DecodeSortable(%q) = %v", hi, decoded)
	}
}

func TestIsSortableAlphabet(t *testing.T) {
	if !IsSortableAlphabet("234567abc") {
		t.Error("expected valid")
	}
	if IsSortableAlphabet("234567ABC") {
		t.Error("uppercase should be rejected")
	}
	if IsSortableAlphabet("01189") {
		t.Error("digits 0,1,8,9 are not in the sortable alphabet")
	}
}

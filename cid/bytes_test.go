package cid

import "testing"

func TestBytesRoundTripV1(t *testing.T) {
	c, err := FromData([]byte("car block payload"), CodecDagCBOR)
	if err != nil {
		t.Fatalf("FromData: %v", err)
	}
	raw, err := c.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	parsed, err := ParseBytes(raw)
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if !parsed.Equal(c) {
		t.Errorf("round trip mismatch: %s != %s", parsed, c)
	}
}

func TestBytesRoundTripV0(t *testing.T) {
	s := "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	c, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	raw, err := c.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	parsed, err := ParseBytes(raw)
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if parsed.String() != s {
		t.Errorf("round trip mismatch: %s != %s", parsed, s)
	}
}

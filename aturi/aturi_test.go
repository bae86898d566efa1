package aturi

import "testing"

func TestParseDIDAuthorityOnly(t *testing.T) {
	s := "at://did:plc:z72i7hdynmk6r22z27h6tvur"
	u, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.AuthorityKind != AuthorityDID {
		t.Errorf("authority kind = %v, want DID", u.AuthorityKind)
	}
	if u.HasCollection {
		t.Error("expected no collection")
	}
}

func TestParseFull(t *testing.T) {
	s := "at://did:plc:z72i7hdynmk6r22z27h6tvur/app.bsky.feed.post/3jwdwj2ctlk26"
	u, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !u.HasCollection || u.Collection.String() != "app.bsky.feed.post" {
		t.Errorf("collection = %v", u.Collection)
	}
	if !u.HasRecordKey || u.RecordKey != "3jwdwj2ctlk26" {
		t.Errorf("record key = %q", u.RecordKey)
	}
}

func TestParseHandleAuthority(t *testing.T) {
	s := "at://alice.example.com/app.bsky.feed.post/abc123"
	u, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.AuthorityKind != AuthorityHandle {
		t.Errorf("authority kind = %v, want handle", u.AuthorityKind)
	}
	if u.Handle != "alice.example.com" {
		t.Errorf("handle = %q", u.Handle)
	}
}

func TestParseWithFragment(t *testing.T) {
	s := "at://did:plc:z72i7hdynmk6r22z27h6tvur/app.bsky.feed.post/abc#/foo/bar"
	u, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.Fragment != "/foo/bar" {
		t.Errorf("fragment = %q", u.Fragment)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"http://example.com",
		"at://",
		"at:///app.bsky.feed.post",
		"at://did:plc:z72i7hdynmk6r22z27h6tvur/app.bsky.feed.post/",
		"at://did:plc:z72i7hdynmk6r22z27h6tvur/app.bsky.feed.post/bad key",
	}
	for _, s := range cases {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", s)
		}
	}
}

func TestParseRecordKeyExtendedCharacterClass(t *testing.T) {
	cases := []string{
		"at://did:plc:z72i7hdynmk6r22z27h6tvur/app.bsky.feed.post/..",
		"at://did:plc:z72i7hdynmk6r22z27h6tvur/app.bsky.feed.post/abc@!$&'()*+,;=%-def",
	}
	for _, s := range cases {
		u, err := Parse(s)
		if err != nil {
			t.Errorf("Parse(%q): %v", s, err)
			continue
		}
		if !u.HasRecordKey {
			t.Errorf("Parse(%q): expected a record key", s)
		}
	}
}

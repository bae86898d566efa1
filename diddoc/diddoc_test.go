package diddoc

import "testing"

func TestCreateAssemblesDocument(t *testing.T) {
	doc := Create("did:plc:abc123", Options{
		Handle:              "alice.example.com",
		PDSEndpoint:         "https://pds.example.com",
		SigningKeyMultibase: "zQ3shABC",
	})

	if doc.ID != "did:plc:abc123" {
		t.Errorf("ID = %q", doc.ID)
	}
	if len(doc.AlsoKnownAs) != 1 || doc.AlsoKnownAs[0] != "at://alice.example.com" {
		t.Errorf("AlsoKnownAs = %v", doc.AlsoKnownAs)
	}
	if GetHandle(doc) != "alice.example.com" {
		t.Errorf("GetHandle = %q", GetHandle(doc))
	}
	if GetPDSEndpoint(doc) != "https://pds.example.com" {
		t.Errorf("GetPDSEndpoint = %q", GetPDSEndpoint(doc))
	}
	vm, ok := GetSigningKey(doc)
	if !ok {
		t.Fatal("GetSigningKey: not found")
	}
	if vm.ID != "did:plc:abc123#atproto" || vm.PublicKeyMultibase != "zQ3shABC" {
		t.Errorf("signing key = %+v", vm)
	}
}

func TestCreateWebDerivesEndpointAndID(t *testing.T) {
	doc := CreateWeb("pds.example.com", Options{Handle: "alice.example.com"})
	if doc.ID != "did:web:pds.example.com" {
		t.Errorf("ID = %q", doc.ID)
	}
	if GetPDSEndpoint(doc) != "https://pds.example.com" {
		t.Errorf("GetPDSEndpoint = %q", GetPDSEndpoint(doc))
	}
}

func TestCreateWebRespectsExplicitEndpoint(t *testing.T) {
	doc := CreateWeb("pds.example.com", Options{PDSEndpoint: "https://custom.example.com"})
	if GetPDSEndpoint(doc) != "https://custom.example.com" {
		t.Errorf("GetPDSEndpoint = %q", GetPDSEndpoint(doc))
	}
}

func TestGetServiceMissing(t *testing.T) {
	doc := Create("did:plc:abc123", Options{})
	if _, ok := GetService(doc, "AtprotoPersonalDataServer"); ok {
		t.Error("expected no service on an empty document")
	}
	if GetHandle(doc) != "" {
		t.Errorf("GetHandle = %q, want empty", GetHandle(doc))
	}
	if _, ok := GetSigningKey(doc); ok {
		t.Error("expected no signing key on an empty document")
	}
}

func TestAddService(t *testing.T) {
	doc := Create("did:plc:abc123", Options{})
	doc = AddService(doc, Service{ID: "#extra", Type: "SomeOtherService", ServiceEndpoint: "https://extra.example.com"})
	svc, ok := GetService(doc, "SomeOtherService")
	if !ok {
		t.Fatal("AddService: not found after adding")
	}
	if svc.ServiceEndpoint != "https://extra.example.com" {
		t.Errorf("ServiceEndpoint = %q", svc.ServiceEndpoint)
	}
}

func TestUpdateSigningKeyReplaces(t *testing.T) {
	doc := Create("did:plc:abc123", Options{SigningKeyMultibase: "zOld"})
	doc = UpdateSigningKey(doc, "zNew")
	if len(doc.VerificationMethod) != 1 {
		t.Fatalf("VerificationMethod = %v, want 1 entry", doc.VerificationMethod)
	}
	vm, ok := GetSigningKey(doc)
	if !ok || vm.PublicKeyMultibase != "zNew" {
		t.Errorf("signing key = %+v", vm)
	}
}

func TestUpdateSigningKeyAddsWhenAbsent(t *testing.T) {
	doc := Create("did:plc:abc123", Options{})
	doc = UpdateSigningKey(doc, "zNew")
	vm, ok := GetSigningKey(doc)
	if !ok || vm.PublicKeyMultibase != "zNew" {
		t.Errorf("signing key = %+v", vm)
	}
}

func TestBuildDIDWebURLNoPath(t *testing.T) {
	got, err := BuildDIDWebURL("example.com")
	if err != nil {
		t.Fatalf("BuildDIDWebURL: %v", err)
	}
	want := "https://example.com/.well-known/did.json"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildDIDWebURLWithPath(t *testing.T) {
	got, err := BuildDIDWebURL("example.com:user:alice")
	if err != nil {
		t.Fatalf("BuildDIDWebURL: %v", err)
	}
	want := "https://example.com/user/alice/did.json"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildDIDWebURLEmptyIdentifier(t *testing.T) {
	if _, err := BuildDIDWebURL(""); err == nil {
		t.Error("expected error for empty identifier")
	}
}

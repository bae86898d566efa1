// Package diddoc models AT Protocol DID documents: the JSON-LD shaped
// document a did:plc or did:web identity resolves to, plus the handful
// of lookups and builders a PDS needs over that shape.
package diddoc

import (
	"fmt"
	"strings"
)

// VerificationMethod describes a cryptographic key in a DID document.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase"`
}

// Service describes a service endpoint in a DID document.
type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// Document is an AT Protocol DID document.
type Document struct {
	Context            []string             `json:"@context"`
	ID                 string               `json:"id"`
	AlsoKnownAs        []string             `json:"alsoKnownAs"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	Service            []Service            `json:"service"`
}

// defaultContext is the @context used by every document this package
// builds; Multikey verification methods need both the base DID context
// and the multikey security vocabulary.
var defaultContext = []string{
	"https://www.w3.org/ns/did/v1",
	"https://w3id.org/security/multikey/v1",
}

const (
	signingKeyFragment = "#atproto"
	pdsServiceType     = "AtprotoPersonalDataServer"
	pdsServiceID       = "#atproto_pds"
)

// Options carries the fields Create/CreateWeb assemble a document from.
type Options struct {
	Handle              string
	PDSEndpoint         string
	SigningKeyMultibase string
	AlsoKnownAs         []string
}

// Create builds a DID document for did from opts. The handle, if set,
// is folded into AlsoKnownAs as an at:// URI ahead of any caller-supplied
// entries.
func Create(did string, opts Options) Document {
	doc := Document{
		Context:     append([]string(nil), defaultContext...),
		ID:          did,
		AlsoKnownAs: alsoKnownAs(opts),
	}
	if opts.SigningKeyMultibase != "" {
		doc.VerificationMethod = []VerificationMethod{{
			ID:                 did + signingKeyFragment,
			Type:               "Multikey",
			Controller:         did,
			PublicKeyMultibase: opts.SigningKeyMultibase,
		}}
	}
	if opts.PDSEndpoint != "" {
		doc.Service = []Service{{
			ID:              pdsServiceID,
			Type:            pdsServiceType,
			ServiceEndpoint: opts.PDSEndpoint,
		}}
	}
	return doc
}

// CreateWeb builds a did:web document, deriving the PDS endpoint from
// domain when opts.PDSEndpoint is unset.
func CreateWeb(domain string, opts Options) Document {
	did := "did:web:" + domain
	if opts.PDSEndpoint == "" {
		opts.PDSEndpoint = "https://" + domain
	}
	return Create(did, opts)
}

func alsoKnownAs(opts Options) []string {
	var out []string
	if opts.Handle != "" {
		out = append(out, "at://"+opts.Handle)
	}
	return append(out, opts.AlsoKnownAs...)
}

// GetPDSEndpoint returns the serviceEndpoint of the first
// AtprotoPersonalDataServer service, or "" if none is present.
func GetPDSEndpoint(doc Document) string {
	svc, ok := GetService(doc, pdsServiceType)
	if !ok {
		return ""
	}
	return svc.ServiceEndpoint
}

// GetService returns the first service of the given type.
func GetService(doc Document, serviceType string) (Service, bool) {
	for _, svc := range doc.Service {
		if svc.Type == serviceType {
			return svc, true
		}
	}
	return Service{}, false
}

// GetHandle returns the first at:// URI in alsoKnownAs, with the scheme
// stripped, or "" if none is present.
func GetHandle(doc Document) string {
	for _, aka := range doc.AlsoKnownAs {
		if strings.HasPrefix(aka, "at://") {
			return strings.TrimPrefix(aka, "at://")
		}
	}
	return ""
}

// GetSigningKey returns the first verification method whose id ends in
// "#atproto".
func GetSigningKey(doc Document) (VerificationMethod, bool) {
	for _, vm := range doc.VerificationMethod {
		if strings.HasSuffix(vm.ID, signingKeyFragment) {
			return vm, true
		}
	}
	return VerificationMethod{}, false
}

// AddService appends a service entry to doc and returns the updated
// document.
func AddService(doc Document, svc Service) Document {
	doc.Service = append(append([]Service(nil), doc.Service...), svc)
	return doc
}

// UpdateSigningKey replaces the "#atproto" verification method with one
// carrying publicKeyMultibase, appending a new entry if none existed.
func UpdateSigningKey(doc Document, publicKeyMultibase string) Document {
	vm := VerificationMethod{
		ID:                 doc.ID + signingKeyFragment,
		Type:               "Multikey",
		Controller:         doc.ID,
		PublicKeyMultibase: publicKeyMultibase,
	}
	methods := append([]VerificationMethod(nil), doc.VerificationMethod...)
	for i, existing := range methods {
		if strings.HasSuffix(existing.ID, signingKeyFragment) {
			methods[i] = vm
			doc.VerificationMethod = methods
			return doc
		}
	}
	doc.VerificationMethod = append(methods, vm)
	return doc
}

// BuildDIDWebURL computes the HTTPS resolution URL for a did:web
// identifier (the portion after "did:web:"). The first colon-separated
// segment is the host; any further segments are a URL path ahead of the
// document filename, with no further segments defaulting to
// /.well-known/did.json.
func BuildDIDWebURL(identifier string) (string, error) {
	segments := strings.Split(identifier, ":")
	if len(segments) == 0 || segments[0] == "" {
		return "", fmt.Errorf("diddoc: build did:web url: empty identifier")
	}
	host := segments[0]
	if len(segments) == 1 {
		return fmt.Sprintf("https://%s/.well-known/did.json", host), nil
	}
	path := strings.Join(segments[1:], "/")
	return fmt.Sprintf("https://%s/%s/did.json", host, path), nil
}

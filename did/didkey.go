package did

import (
	"fmt"

	"github.com/primal-host/atcore/key"
)

// ParseKeyIdentifier validates the method-specific-identifier of a
// did:key DID (everything after "did:key:") by decoding it as a
// multibase/multicodec public key. It returns the decoded key so callers
// that already hold a validated did:key DID can recover the key without
// re-parsing.
func ParseKeyIdentifier(identifier string) (key.PublicKey, error) {
	pub, err := key.ParseDIDKey("did:key:" + identifier)
	if err != nil {
		return key.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	return pub, nil
}

// PublicKey returns the decoded public key of a did:key DID. It is an
// error to call this on a DID whose Method is not MethodKey.
func (d DID) PublicKey() (key.PublicKey, error) {
	if d.Method != MethodKey {
		return key.PublicKey{}, fmt.Errorf("%w: not a did:key DID", ErrUnsupportedMethod)
	}
	return ParseKeyIdentifier(d.Identifier)
}

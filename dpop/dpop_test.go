package dpop

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/primal-host/atcore/key"
)

func testKey(t *testing.T) key.PrivateKey {
	t.Helper()
	priv, err := key.GenerateP256()
	if err != nil {
		t.Fatalf("GenerateP256: %v", err)
	}
	return priv
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	priv := testKey(t)
	proof, err := GenerateProof("POST", "https://pds.example/xrpc/com.atproto.server.createSession", priv, "", "")
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}

	pub, err := VerifyProof(proof, "POST", "https://pds.example/xrpc/com.atproto.server.createSession", "")
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if pub.P256.X.Cmp(priv.P256.X) != 0 || pub.P256.Y.Cmp(priv.P256.Y) != 0 {
		t.Error("recovered public key does not match signer")
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	priv := testKey(t)
	proof, err := GenerateProof("GET", "https://pds.example/", priv, "", "")
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}
	parts := strings.Split(proof, ".")
	sigBytes, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	sigBytes[0] ^= 0xff
	tampered := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(sigBytes)

	_, err = VerifyProof(tampered, "GET", "https://pds.example/", "")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyMethodMismatch(t *testing.T) {
	priv := testKey(t)
	proof, err := GenerateProof("GET", "https://pds.example/", priv, "", "")
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}
	_, err = VerifyProof(proof, "POST", "https://pds.example/", "")
	if !errors.Is(err, ErrHTMMismatch) {
		t.Errorf("err = %v, want ErrHTMMismatch", err)
	}
}

func TestVerifyURLMismatch(t *testing.T) {
	priv := testKey(t)
	proof, err := GenerateProof("GET", "https://pds.example/a", priv, "", "")
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}
	_, err = VerifyProof(proof, "GET", "https://pds.example/b", "")
	if !errors.Is(err, ErrHTUMismatch) {
		t.Errorf("err = %v, want ErrHTUMismatch", err)
	}
}

func TestAccessTokenBinding(t *testing.T) {
	priv := testKey(t)
	token := "opaque-access-token"
	proof, err := GenerateProof("GET", "https://pds.example/", priv, "", token)
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}

	if _, err := VerifyProof(proof, "GET", "https://pds.example/", token); err != nil {
		t.Errorf("VerifyProof with matching token: %v", err)
	}
	if _, err := VerifyProof(proof, "GET", "https://pds.example/", "different-token"); !errors.Is(err, ErrInvalidATH) {
		t.Errorf("err = %v, want ErrInvalidATH", err)
	}

	noAthProof, err := GenerateProof("GET", "https://pds.example/", priv, "", "")
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}
	if _, err := VerifyProof(noAthProof, "GET", "https://pds.example/", token); !errors.Is(err, ErrMissingATH) {
		t.Errorf("err = %v, want ErrMissingATH", err)
	}
}

func TestExtractJKTMatchesCalculateJKT(t *testing.T) {
	priv := testKey(t)
	proof, err := GenerateProof("GET", "https://pds.example/", priv, "", "")
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}
	extracted, err := ExtractJKT(proof)
	if err != nil {
		t.Fatalf("ExtractJKT: %v", err)
	}
	want, err := CalculateJKT(priv.Public())
	if err != nil {
		t.Fatalf("CalculateJKT: %v", err)
	}
	if extracted != want {
		t.Errorf("ExtractJKT = %q, want %q", extracted, want)
	}
}

func TestVerifyInvalidFormat(t *testing.T) {
	if _, err := VerifyProof("not-a-jwt", "GET", "https://x/", ""); !errors.Is(err, ErrInvalidJWTFormat) {
		t.Errorf("err = %v, want ErrInvalidJWTFormat", err)
	}
}

func TestPKCEVerifierRoundTrip(t *testing.T) {
	verifier, challenge, err := NewPKCEVerifier()
	if err != nil {
		t.Fatalf("NewPKCEVerifier: %v", err)
	}
	if !VerifyPKCE(verifier, challenge) {
		t.Error("VerifyPKCE failed for freshly generated pair")
	}
	if VerifyPKCE(verifier+"x", challenge) {
		t.Error("VerifyPKCE succeeded for a tampered verifier")
	}
}

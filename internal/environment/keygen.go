package environment

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
)

// RSAKeyGen holds the in-memory key used to sign identity tokens.
type RSAKeyGen struct {
	key *rsa.PrivateKey
	kid string
}

// NewRSAKeyGen generates a fresh RSA key. The key id is the base64url form
// of the first 8 bytes of the SHA-256 of the PKIX encoded public key.
func NewRSAKeyGen(bits int) (*RSAKeyGen, error) {
	k, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&k.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encode public key: %w", err)
	}
	h := sha256.Sum256(pub)
	return &RSAKeyGen{key: k, kid: base64.RawURLEncoding.EncodeToString(h[:8])}, nil
}

func (g *RSAKeyGen) SigningKey() *rsa.PrivateKey { return g.key }

func (g *RSAKeyGen) KeyID() string { return g.kid }

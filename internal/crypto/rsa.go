package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" // #nosec G505 -- OAEP label hash fixed by the wire protocol
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
)

// RSABits is the modulus size of the installation keypair.
const RSABits = 2048

const pemBlockType = "RSA PRIVATE KEY"

var errNoPEMBlock = errors.New("crypto: no RSA PEM block")

// GenerateRSA creates a fresh keypair. A nil random uses crypto/rand.
func GenerateRSA(random io.Reader, bits int) (*rsa.PrivateKey, error) {
	if random == nil {
		random = rand.Reader
	}
	return rsa.GenerateKey(random, bits)
}

// EncodePrivatePEM serialises priv as a PKCS#1 PEM block.
func EncodePrivatePEM(priv *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  pemBlockType,
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
}

// DecodePrivatePEM parses a PKCS#1 (or PKCS#8) PEM private key.
func DecodePrivatePEM(b []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errNoPEMBlock
	}
	if priv, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return priv, priv.Validate()
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errNoPEMBlock
	}
	return priv, priv.Validate()
}

// PublicDER returns the SubjectPublicKeyInfo DER encoding of pub.
func PublicDER(pub *rsa.PublicKey) ([]byte, error) {
	return x509.MarshalPKIXPublicKey(pub)
}

// UnwrapOAEP decrypts an RSA-OAEP (SHA-1) wrapped blob.
func UnwrapOAEP(priv *rsa.PrivateKey, ct []byte) ([]byte, error) {
	return rsa.DecryptOAEP(sha1.New(), nil, priv, ct, nil) // #nosec G401
}

// WrapOAEP is the inverse of UnwrapOAEP. The server side does this; it is
// exported for fakes and tests.
func WrapOAEP(pub *rsa.PublicKey, pt []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, pt, nil) // #nosec G401
}

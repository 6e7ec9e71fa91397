package types

import "crypto/rsa"

// KeyPair is the installation's RSA keypair, used only to unwrap the
// server-issued session keys during a handshake.
type KeyPair struct {
	Private *rsa.PrivateKey
}

// Public returns the public half of the pair.
func (k KeyPair) Public() *rsa.PublicKey { return &k.Private.PublicKey }

// KeyResponseData is the keyresponsedata block of a handshake response header.
type KeyResponseData struct {
	MasterToken MasterToken `json:"mastertoken"`
	Scheme      string      `json:"scheme,omitempty"`
	KeyData     struct {
		EncryptionKey string `json:"encryptionkey"`
		HMACKey       string `json:"hmackey"`
	} `json:"keydata"`
}

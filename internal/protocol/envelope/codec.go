package envelope

import (
	"encoding/json"
	"fmt"
	"strconv"

	"msl/internal/crypto"
	"msl/internal/domain"
)

// sha256Placeholder is what clients put in the envelope's sha256 field.
const sha256Placeholder = "AA=="

// KeyID names the key generation an envelope was produced under.
func KeyID(esn string, sequence int64) string {
	return esn + "_" + strconv.FormatInt(sequence, 10)
}

// Codec is bound to one SessionKeys generation. It holds no cipher state;
// every Encrypt builds a new cipher with a new IV.
type Codec struct {
	keys  domain.SessionKeys
	keyID string
}

// New returns a Codec for keys, stamping envelopes with keyID.
func New(keys domain.SessionKeys, keyID string) *Codec {
	return &Codec{keys: keys, keyID: keyID}
}

// Encrypt pads and encrypts plaintext under a fresh random IV.
func (c *Codec) Encrypt(plaintext []byte) (domain.Envelope, error) {
	iv, err := crypto.RandomBytes(crypto.BlockSize)
	if err != nil {
		return domain.Envelope{}, err
	}
	ct, err := crypto.EncryptCBC(c.keys.EncryptionKey, iv, plaintext)
	if err != nil {
		return domain.Envelope{}, err
	}
	return domain.Envelope{
		Ciphertext: ct,
		KeyID:      c.keyID,
		SHA256:     sha256Placeholder,
		IV:         iv,
	}, nil
}

// Decrypt decrypts and unpads env. Any failure is domain.ErrDecryption.
func (c *Codec) Decrypt(env domain.Envelope) ([]byte, error) {
	pt, err := crypto.DecryptCBC(c.keys.EncryptionKey, env.IV, env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	return pt, nil
}

// Sign returns HMAC-SHA256 of b under the signing key.
func (c *Codec) Sign(b []byte) []byte { return crypto.Sign(c.keys.SigningKey, b) }

// Verify checks sig against b in constant time.
func (c *Codec) Verify(b, sig []byte) bool { return crypto.Verify(c.keys.SigningKey, b, sig) }

// Seal encrypts plaintext and returns the envelope's JSON encoding together
// with the signature over exactly those bytes.
func (c *Codec) Seal(plaintext []byte) (encoded, sig []byte, err error) {
	env, err := c.Encrypt(plaintext)
	if err != nil {
		return nil, nil, err
	}
	encoded, err = json.Marshal(env)
	if err != nil {
		return nil, nil, err
	}
	return encoded, c.Sign(encoded), nil
}

// Open verifies sig over encoded, then decodes and decrypts the envelope.
// A bad signature is domain.ErrIntegrity and nothing is decrypted.
func (c *Codec) Open(encoded, sig []byte) ([]byte, error) {
	if !c.Verify(encoded, sig) {
		return nil, domain.ErrIntegrity
	}
	var env domain.Envelope
	if err := json.Unmarshal(encoded, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", domain.ErrDecryption, err)
	}
	return c.Decrypt(env)
}

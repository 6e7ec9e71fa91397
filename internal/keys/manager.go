package keys

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"msl/internal/crypto"
	"msl/internal/domain"
	"msl/internal/logging"
	"msl/internal/store"
)

var log = logging.Log

// jwk is the decrypted form of a wrapped session key.
type jwk struct {
	Kty string `json:"kty,omitempty"`
	K   string `json:"k"`
	Alg string `json:"alg,omitempty"`
}

// Manager implements domain.KeyMaterial on top of a key-value store.
type Manager struct {
	kv     domain.KeyValueStore
	random io.Reader
	bits   int

	mu     sync.Mutex
	cached *domain.KeyPair
}

// New returns a Manager persisting its keypair in kv.
func New(kv domain.KeyValueStore) *Manager {
	return &Manager{kv: kv, bits: crypto.RSABits}
}

// WithRandom overrides the entropy source; a failing reader surfaces as
// domain.ErrKeyGeneration.
func (m *Manager) WithRandom(r io.Reader) *Manager {
	m.random = r
	return m
}

// EnsureKeyPair loads the persisted keypair, generating and persisting a new
// one if it is absent or not a valid PEM key. A key sealed under another
// passphrase is reported as domain.ErrWrongPassphrase and left untouched.
func (m *Manager) EnsureKeyPair() (domain.KeyPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		return *m.cached, nil
	}

	b, err := m.kv.LoadFile(store.RSAKeyFile)
	switch {
	case err == nil:
		priv, perr := crypto.DecodePrivatePEM(b)
		if perr == nil {
			m.cached = &domain.KeyPair{Private: priv}
			return *m.cached, nil
		}
		log.WithError(perr).Warn("stored RSA key unreadable, generating a new one")
	case errors.Is(err, domain.ErrNotFound):
		log.Info("no RSA key stored, generating one")
	default:
		// Includes domain.ErrWrongPassphrase: the stored key must survive.
		return domain.KeyPair{}, fmt.Errorf("load %s: %w", store.RSAKeyFile, err)
	}

	priv, err := crypto.GenerateRSA(m.random, m.bits)
	if err != nil {
		return domain.KeyPair{}, fmt.Errorf("%w: %v", domain.ErrKeyGeneration, err)
	}
	if err := m.kv.SaveFile(store.RSAKeyFile, crypto.EncodePrivatePEM(priv)); err != nil {
		return domain.KeyPair{}, fmt.Errorf("save %s: %w", store.RSAKeyFile, err)
	}
	m.cached = &domain.KeyPair{Private: priv}
	return *m.cached, nil
}

// DeriveSessionKeys unwraps the encryption and HMAC keys carried in resp.
func (m *Manager) DeriveSessionKeys(kp domain.KeyPair, resp domain.KeyResponseData) (domain.SessionKeys, error) {
	if kp.Private == nil {
		return domain.SessionKeys{}, fmt.Errorf("%w: no private key", domain.ErrKeyDerivation)
	}
	enc, err := unwrap(kp, resp.KeyData.EncryptionKey)
	if err != nil {
		return domain.SessionKeys{}, fmt.Errorf("%w: encryption key: %v", domain.ErrKeyDerivation, err)
	}
	sig, err := unwrap(kp, resp.KeyData.HMACKey)
	if err != nil {
		return domain.SessionKeys{}, fmt.Errorf("%w: hmac key: %v", domain.ErrKeyDerivation, err)
	}
	keys := domain.SessionKeys{EncryptionKey: enc, SigningKey: sig}
	if !keys.Valid() {
		return domain.SessionKeys{}, fmt.Errorf("%w: unexpected key sizes %d/%d", domain.ErrKeyDerivation, len(enc), len(sig))
	}
	return keys, nil
}

func unwrap(kp domain.KeyPair, wrapped string) ([]byte, error) {
	if wrapped == "" {
		return nil, errors.New("missing")
	}
	ct, err := crypto.UnB64(wrapped)
	if err != nil {
		return nil, err
	}
	pt, err := crypto.UnwrapOAEP(kp.Private, ct)
	if err != nil {
		return nil, err
	}
	var k jwk
	if err := json.Unmarshal(pt, &k); err != nil {
		return nil, err
	}
	return crypto.DecodeJWKKey(k.K)
}

// Wrap produces what a server sends for key: RSA-OAEP(JWK{k}) in base64.
// Fakes and tests use it to stand in for the remote end.
func Wrap(pub *rsa.PublicKey, key []byte, alg string) (string, error) {
	b, err := json.Marshal(jwk{Kty: "oct", K: crypto.B64URL(key), Alg: alg})
	if err != nil {
		return "", err
	}
	ct, err := crypto.WrapOAEP(pub, b)
	if err != nil {
		return "", err
	}
	return crypto.B64(ct), nil
}

// Compile-time assertion that Manager implements domain.KeyMaterial.
var _ domain.KeyMaterial = (*Manager)(nil)

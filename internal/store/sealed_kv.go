package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"msl/internal/domain"
	"msl/internal/util/memzero"
)

const sealedVersion = 1

// Default scrypt cost for SealedKV.
const (
	ScryptN = 1 << 15
	ScryptR = 8
	ScryptP = 1
)

type kdfParams struct {
	Salt []byte `json:"salt"`
	N    int    `json:"n"`
	R    int    `json:"r"`
	P    int    `json:"p"`
}

// sealedFile is what SealedKV hands to the wrapped store.
type sealedFile struct {
	Version int       `json:"version"`
	KDF     kdfParams `json:"kdf"`
	Nonce   []byte    `json:"nonce"`
	Data    []byte    `json:"data"`
}

// SealedKV encrypts every blob under a passphrase before handing it to the
// wrapped store. Each blob is bound to its name, so blobs cannot be swapped
// between names unnoticed.
type SealedKV struct {
	inner      domain.KeyValueStore
	passphrase string
	n, r, p    int
}

// NewSealedKV wraps inner. An empty passphrase is allowed but offers no
// protection; callers decide whether to wrap at all.
func NewSealedKV(inner domain.KeyValueStore, passphrase string) *SealedKV {
	return &SealedKV{inner: inner, passphrase: passphrase, n: ScryptN, r: ScryptR, p: ScryptP}
}

// WithScryptParams overrides the KDF cost; tests use cheap parameters.
func (s *SealedKV) WithScryptParams(n, r, p int) *SealedKV {
	s.n, s.r, s.p = n, r, p
	return s
}

// LoadFile opens the blob stored under name. A wrong passphrase, a tampered
// blob or a blob sealed under another name yield domain.ErrWrongPassphrase.
func (s *SealedKV) LoadFile(name string) ([]byte, error) {
	b, err := s.inner.LoadFile(name)
	if err != nil {
		return nil, err
	}
	var sf sealedFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return nil, fmt.Errorf("store: %s is not sealed: %w", name, err)
	}
	if sf.Version != sealedVersion {
		return nil, fmt.Errorf("store: %s: unsupported sealed version %d", name, sf.Version)
	}
	aead, err := s.aead(sf.KDF)
	if err != nil {
		return nil, err
	}
	if len(sf.Nonce) != aead.NonceSize() {
		return nil, domain.ErrWrongPassphrase
	}
	pt, err := aead.Open(nil, sf.Nonce, sf.Data, []byte(name))
	if err != nil {
		return nil, domain.ErrWrongPassphrase
	}
	return pt, nil
}

// SaveFile seals data under a fresh salt and nonce and stores it under name.
func (s *SealedKV) SaveFile(name string, data []byte) error {
	kdf := kdfParams{Salt: make([]byte, 16), N: s.n, R: s.r, P: s.p}
	if _, err := rand.Read(kdf.Salt); err != nil {
		return err
	}
	aead, err := s.aead(kdf)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	b, err := json.Marshal(sealedFile{
		Version: sealedVersion,
		KDF:     kdf,
		Nonce:   nonce,
		Data:    aead.Seal(nil, nonce, data, []byte(name)),
	})
	if err != nil {
		return err
	}
	return s.inner.SaveFile(name, b)
}

func (s *SealedKV) aead(kdf kdfParams) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(s.passphrase), kdf.Salt, kdf.N, kdf.R, kdf.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("store: derive key: %w", err)
	}
	defer memzero.Zero(key)
	return chacha20poly1305.NewX(key)
}

// Compile-time assertion that SealedKV implements domain.KeyValueStore.
var _ domain.KeyValueStore = (*SealedKV)(nil)

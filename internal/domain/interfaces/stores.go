package interfaces

import domaintypes "msl/internal/domain/types"

// KeyValueStore is durable named-blob storage. LoadFile returns
// domaintypes.ErrNotFound when name has never been saved.
type KeyValueStore interface {
	LoadFile(name string) ([]byte, error)
	SaveFile(name string, data []byte) error
}

// SessionStore persists SessionState and decides when it must be renewed.
type SessionStore interface {
	// Load returns ok=false when nothing usable is stored.
	Load() (state domaintypes.SessionState, ok bool, err error)
	// Save replaces the stored state as a whole.
	Save(state domaintypes.SessionState) error
	IsRenewalDue(token domaintypes.MasterToken) bool
}

// KeyMaterial owns the RSA keypair and turns a handshake response into
// session keys.
type KeyMaterial interface {
	EnsureKeyPair() (domaintypes.KeyPair, error)
	DeriveSessionKeys(kp domaintypes.KeyPair, resp domaintypes.KeyResponseData) (domaintypes.SessionKeys, error)
}

package app

import (
	"context"
	"errors"

	"msl/internal/crypto"
	"msl/internal/domain"
	"msl/internal/store"
)

// Fingerprint returns the fingerprint of the device public key, creating
// the keypair on first use.
func (w *Wire) Fingerprint() (string, error) {
	kp, err := w.Keys.EnsureKeyPair()
	if err != nil {
		return "", err
	}
	der, err := crypto.PublicDER(kp.Public())
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(der), nil
}

// Reset discards the persisted session so the next request handshakes. The
// RSA keypair is kept. A session sealed under another passphrase is left
// alone.
func (w *Wire) Reset() error {
	if _, _, err := w.Sessions.Load(); err != nil {
		return err
	}
	return w.Sessions.Save(domain.SessionState{})
}

// Status describes the persisted session.
type Status struct {
	Present      bool
	Sequence     int64
	RenewalDue   bool
	HasUserToken bool
	Cookies      int
}

// SessionStatus loads the stored session without touching the network.
func (w *Wire) SessionStatus() (Status, error) {
	st, ok, err := w.Sessions.Load()
	if err != nil || !ok {
		return Status{}, err
	}
	td, err := st.MasterToken.Decode()
	if err != nil {
		return Status{}, err
	}
	return Status{
		Present:      true,
		Sequence:     td.SequenceNumber,
		RenewalDue:   w.Sessions.IsRenewalDue(st.MasterToken),
		HasUserToken: len(st.UserIDToken) > 0,
		Cookies:      len(st.Cookies),
	}, nil
}

// CachedManifest returns the last MPD saved by a manifest call.
func (w *Wire) CachedManifest() ([]byte, error) {
	b, err := w.Store.LoadFile(store.ManifestMPDFile)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errors.New("no cached manifest, run manifest first")
	}
	return b, err
}

// ForceHandshake runs a new key exchange even when the stored session is
// still usable.
func (w *Wire) ForceHandshake(ctx context.Context) error {
	return w.Playback.Handshake(ctx)
}

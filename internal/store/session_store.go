package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"msl/internal/domain"
	"msl/internal/logging"
)

// RenewalThreshold is how long before expiry a MasterToken stops being used.
const RenewalThreshold = 10 * time.Hour

var log = logging.Log

// SessionStore persists SessionState as msl_data.json in a key-value store.
type SessionStore struct {
	kv  domain.KeyValueStore
	mu  sync.Mutex
	now func() time.Time
}

// NewSessionStore returns a SessionStore on top of kv.
func NewSessionStore(kv domain.KeyValueStore) *SessionStore {
	return &SessionStore{kv: kv, now: time.Now}
}

// WithClock replaces the time source used by IsRenewalDue.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

// Load returns the persisted state. A missing, unparseable or incomplete blob
// is reported as ok=false so the caller starts a fresh handshake. Storage
// failures and domain.ErrWrongPassphrase are returned as errors; callers must
// not overwrite the blob in that case.
func (s *SessionStore) Load() (domain.SessionState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.kv.LoadFile(SessionFile)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.SessionState{}, false, nil
	}
	if err != nil {
		return domain.SessionState{}, false, fmt.Errorf("load %s: %w", SessionFile, err)
	}

	var st domain.SessionState
	if err := json.Unmarshal(b, &st); err != nil {
		log.WithError(err).Warn("session state corrupt, discarding")
		return domain.SessionState{}, false, nil
	}
	if !st.Keys.Valid() || st.MasterToken.IsZero() {
		log.Warn("session state incomplete, discarding")
		return domain.SessionState{}, false, nil
	}
	if _, err := st.MasterToken.Decode(); err != nil {
		log.WithError(err).Warn("master token unreadable, discarding")
		return domain.SessionState{}, false, nil
	}
	return st, true, nil
}

// Save replaces the persisted state as one document.
func (s *SessionStore) Save(st domain.SessionState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.SaveFile(SessionFile, b)
}

// IsRenewalDue reports whether token expires in less than RenewalThreshold.
// A token whose data cannot be read is always due.
func (s *SessionStore) IsRenewalDue(token domain.MasterToken) bool {
	d, err := token.Decode()
	if err != nil {
		return true
	}
	return d.ExpiresAt().Sub(s.now()) < RenewalThreshold
}

// Compile-time assertion that SessionStore implements domain.SessionStore.
var _ domain.SessionStore = (*SessionStore)(nil)

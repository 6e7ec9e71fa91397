package store_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msl/internal/domain"
	"msl/internal/logging"
	"msl/internal/store"
)

func init() { logging.Silence() }

func makeToken(t *testing.T, seq int64, exp time.Time) domain.MasterToken {
	t.Helper()
	b, err := json.Marshal(domain.MasterTokenData{SequenceNumber: seq, Expiration: exp.Unix()})
	require.NoError(t, err)
	return domain.MasterToken{
		TokenData: base64.StdEncoding.EncodeToString(b),
		Signature: "c2ln",
	}
}

func makeState(t *testing.T) domain.SessionState {
	t.Helper()
	return domain.SessionState{
		Keys: domain.SessionKeys{
			EncryptionKey: []byte("0123456789abcdef"),
			SigningKey:    []byte("0123456789abcdef0123456789abcdef"),
		},
		MasterToken: makeToken(t, 7, time.Now().Add(48*time.Hour)),
		UserIDToken: json.RawMessage(`{"tokendata":"dXNlcg==","signature":"c2ln"}`),
		ServiceTokens: map[string]json.RawMessage{
			"profile": json.RawMessage(`{"tokendata":"cA==","signature":"cw=="}`),
		},
		Cookies: []domain.Cookie{{Name: "NetflixId", Value: "v", Domain: ".netflix.com", Path: "/", Expires: 1700000000}},
	}
}

func TestSessionStore_SaveLoad_Idempotent(t *testing.T) {
	ss := store.NewSessionStore(makeFileKV(t))
	want := makeState(t)

	require.NoError(t, ss.Save(want))
	got, ok, err := ss.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	// Saving what was loaded changes nothing.
	require.NoError(t, ss.Save(got))
	again, ok, err := ss.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, got, again)
}

func TestSessionStore_Load_MissingIsAbsent(t *testing.T) {
	ss := store.NewSessionStore(makeFileKV(t))
	_, ok, err := ss.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_Load_CorruptIsAbsent(t *testing.T) {
	kv := makeFileKV(t)
	require.NoError(t, kv.SaveFile(store.SessionFile, []byte(`{"keys":`)))

	_, ok, err := store.NewSessionStore(kv).Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_Load_IncompleteIsAbsent(t *testing.T) {
	kv := makeFileKV(t)
	require.NoError(t, kv.SaveFile(store.SessionFile, []byte(`{"keys":{"encryption_key":"AAAA"}}`)))

	_, ok, err := store.NewSessionStore(kv).Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_IsRenewalDue_Boundary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ss := store.NewSessionStore(makeFileKV(t)).WithClock(func() time.Time { return now })

	exactly := makeToken(t, 1, now.Add(10*time.Hour))
	assert.False(t, ss.IsRenewalDue(exactly), "exactly 10h left is not due")

	justUnder := makeToken(t, 1, now.Add(10*time.Hour-time.Second))
	assert.True(t, ss.IsRenewalDue(justUnder), "10h-1s left is due")

	expired := makeToken(t, 1, now.Add(-time.Minute))
	assert.True(t, ss.IsRenewalDue(expired))

	assert.True(t, ss.IsRenewalDue(domain.MasterToken{TokenData: "!!"}), "unreadable token is due")
}

func TestSessionStore_OverSealedSQLite(t *testing.T) {
	db := makeSQLiteKV(t)
	kv := store.NewSealedKV(db, "pw").WithScryptParams(1<<10, 8, 1)
	ss := store.NewSessionStore(kv)
	want := makeState(t)

	require.NoError(t, ss.Save(want))
	got, ok, err := ss.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok, err = store.NewSessionStore(store.NewSealedKV(db, "other").WithScryptParams(1<<10, 8, 1)).Load()
	assert.ErrorIs(t, err, domain.ErrWrongPassphrase)
	assert.False(t, ok)
}

func TestSessionStore_WrongPassphraseIsErrorAndKeepsBlob(t *testing.T) {
	inner := makeFileKV(t)
	right := store.NewSessionStore(store.NewSealedKV(inner, "right").WithScryptParams(1<<10, 8, 1))
	want := makeState(t)
	require.NoError(t, right.Save(want))
	before, err := inner.LoadFile(store.SessionFile)
	require.NoError(t, err)

	_, ok, err := store.NewSessionStore(store.NewSealedKV(inner, "typo").WithScryptParams(1<<10, 8, 1)).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWrongPassphrase)
	assert.False(t, ok)

	after, err := inner.LoadFile(store.SessionFile)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, ok, err := right.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

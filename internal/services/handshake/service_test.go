package handshake_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msl/internal/domain"
	"msl/internal/keys"
	"msl/internal/logging"
	"msl/internal/metrics"
	"msl/internal/msltest"
	"msl/internal/protocol/framing"
	"msl/internal/services/handshake"
	"msl/internal/store"
	"msl/internal/transport"
)

func init() { logging.Silence() }

const esn = "NFCDIE-02-TESTESN"

// spyKeys counts derivations on top of a real key manager.
type spyKeys struct {
	*keys.Manager
	derived int
}

func (s *spyKeys) DeriveSessionKeys(kp domain.KeyPair, kr domain.KeyResponseData) (domain.SessionKeys, error) {
	s.derived++
	return s.Manager.DeriveSessionKeys(kp, kr)
}

type fixture struct {
	svc      *handshake.Service
	keys     *spyKeys
	sessions *store.SessionStore
	metrics  *metrics.Metrics
}

func makeService(t *testing.T, url string, timeout time.Duration) fixture {
	t.Helper()
	kv, err := store.NewFileKV(t.TempDir())
	require.NoError(t, err)
	k := &spyKeys{Manager: keys.New(kv)}
	sessions := store.NewSessionStore(kv)
	m := metrics.New(nil)
	svc := handshake.New(k, framing.New(esn, nil), transport.NewHTTP(timeout), sessions, url).WithMetrics(m)
	return fixture{svc: svc, keys: k, sessions: sessions, metrics: m}
}

func TestHandshake_EstablishesAndPersists(t *testing.T) {
	srv := msltest.New()
	defer srv.Close()
	f := makeService(t, srv.ManifestURL(), time.Second*10)

	st, err := f.svc.Handshake(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Keys.Valid())
	assert.Equal(t, 1, srv.Handshakes())

	td, err := st.MasterToken.Decode()
	require.NoError(t, err)
	assert.Equal(t, srv.Sequence(), td.SequenceNumber)
	assert.False(t, f.sessions.IsRenewalDue(st.MasterToken))

	loaded, ok, err := f.sessions.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st, loaded)
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.Handshake.Errors.WithLabelValues("errordata")))
}

func TestHandshake_ReusesKeyPairOnRenewal(t *testing.T) {
	srv := msltest.New()
	defer srv.Close()
	f := makeService(t, srv.ManifestURL(), time.Second*10)

	a, err := f.svc.Handshake(context.Background())
	require.NoError(t, err)
	b, err := f.svc.Handshake(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, srv.Handshakes())
	assert.NotEqual(t, a.Keys, b.Keys)
	assert.NotEqual(t, a.MasterToken, b.MasterToken)
}

func TestHandshake_ErrorDataSkipsKeyDerivation(t *testing.T) {
	srv := msltest.New()
	defer srv.Close()
	srv.HandshakeError = "ENTITYDATA_REAUTH"
	f := makeService(t, srv.ManifestURL(), time.Second*10)

	_, err := f.svc.Handshake(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrHandshake)
	assert.ErrorIs(t, err, domain.ErrRemoteAPI)

	var herr *domain.HandshakeError
	require.ErrorAs(t, err, &herr)
	var rerr *domain.RemoteAPIError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "ENTITYDATA_REAUTH", rerr.Code)

	assert.Zero(t, f.keys.derived)
	_, ok, err := f.sessions.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Handshake.Errors.WithLabelValues("errordata")))
}

func TestHandshake_HTTPErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	f := makeService(t, srv.URL, time.Second*10)

	_, err := f.svc.Handshake(context.Background())
	assert.ErrorIs(t, err, domain.ErrHandshake)
	assert.Zero(t, f.keys.derived)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Handshake.Errors.WithLabelValues("status")))
}

func TestHandshake_TimeoutIsHandshakeError(t *testing.T) {
	srv := msltest.New()
	defer srv.Close()
	srv.Delay = time.Second
	f := makeService(t, srv.ManifestURL(), 50*time.Millisecond)

	_, err := f.svc.Handshake(context.Background())
	assert.ErrorIs(t, err, domain.ErrHandshake)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestHandshake_MissingKeyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"headerdata":"e30=","signature":""}`))
	}))
	defer srv.Close()
	f := makeService(t, srv.URL, time.Second*10)

	_, err := f.svc.Handshake(context.Background())
	assert.ErrorIs(t, err, domain.ErrHandshake)
	assert.Zero(t, f.keys.derived)
}

func TestHandshake_GarbageKeysAreKeyDerivationErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// keyresponsedata with a valid token but keys nobody can unwrap.
		_, _ = w.Write([]byte(`{"headerdata":"eyJrZXlyZXNwb25zZWRhdGEiOnsibWFzdGVydG9rZW4iOnsidG9rZW5kYXRhIjoiZXlKelpYRjFaVzVqWlc1MWJXSmxjaUk2TVN3aVpYaHdhWEpoZEdsdmJpSTZPVGs1T1RrNU9UazVPWDA9Iiwic2lnbmF0dXJlIjoiYzJsbiJ9LCJrZXlkYXRhIjp7ImVuY3J5cHRpb25rZXkiOiJBQUFBIiwiaG1hY2tleSI6IkFBQUEifX19","signature":""}`))
	}))
	defer srv.Close()
	f := makeService(t, srv.URL, time.Second*10)

	_, err := f.svc.Handshake(context.Background())
	assert.ErrorIs(t, err, domain.ErrHandshake)
	assert.ErrorIs(t, err, domain.ErrKeyDerivation)
	assert.Equal(t, 1, f.keys.derived)
}

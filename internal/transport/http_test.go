package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msl/internal/transport"
)

func TestPost_SendsMSLHeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "msl_v1", r.Header.Get("Content-Encoding"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "a=1", r.Header.Get("Cookie"))
		b, _ := io.ReadAll(r.Body)
		assert.Equal(t, "{}{}", string(b))
		w.Header().Set("Set-Cookie", "nfvdid=x; Path=/")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := transport.NewHTTP(time.Second)
	c.HTTP = srv.Client()
	resp, err := c.Post(context.Background(), srv.URL, []byte("{}{}"), http.Header{"Cookie": {"a=1"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, "nfvdid=x; Path=/", resp.Header.Get("Set-Cookie"))
}

func TestPost_NonOKIsReturnedNotFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errordata":"x"}`))
	}))
	defer srv.Close()

	resp, err := transport.NewHTTP(time.Second).Post(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.JSONEq(t, `{"errordata":"x"}`, string(resp.Body))
}

func TestPost_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := transport.NewHTTP(50*time.Millisecond).Post(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestPost_CallerCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := transport.NewHTTP(time.Second).Post(ctx, srv.URL, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

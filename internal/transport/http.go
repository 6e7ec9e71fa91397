package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"msl/internal/domain"
)

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 64 << 20

// DefaultTimeout bounds one round trip when HTTP.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// DefaultHeader is sent with every MSL POST.
func DefaultHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Encoding", "msl_v1")
	h.Set("Content-Type", "application/json")
	h.Set("Accept-Encoding", "deflate, gzip")
	return h
}

type HTTP struct {
	HTTP    *http.Client
	Timeout time.Duration
}

func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{HTTP: http.DefaultClient, Timeout: timeout}
}

func (c *HTTP) Post(ctx context.Context, url string, body []byte, header http.Header) (domain.Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Response{}, err
	}
	for k, vs := range DefaultHeader() {
		req.Header[k] = vs
	}
	for k, vs := range header {
		req.Header[k] = append([]string(nil), vs...)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return domain.Response{}, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return domain.Response{}, fmt.Errorf("post %s: read body: %w", url, err)
	}
	if len(b) > MaxBodyBytes {
		return domain.Response{}, fmt.Errorf("post %s: body exceeds %d bytes", url, MaxBodyBytes)
	}
	return domain.Response{Status: resp.StatusCode, Body: b, Header: resp.Header}, nil
}

var _ domain.Transport = (*HTTP)(nil)

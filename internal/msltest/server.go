// Package msltest runs an in-process MSL endpoint for tests.
//
// The server answers key requests with wrapped session keys and a master
// token, then accepts framed requests encrypted under those keys. Manifest
// requests get Manifest back; anything else is treated as a license request.
package msltest

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"msl/internal/crypto"
	"msl/internal/domain"
	"msl/internal/keys"
	"msl/internal/protocol/envelope"
	"msl/internal/protocol/framing"
)

// Request is one decrypted client request as the server saw it.
type Request struct {
	Header framing.HeaderData
	Body   json.RawMessage
	Cookie string
}

// Server is a fake MSL endpoint. Exported fields may be changed between
// requests; they are read under the server's lock.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	// TokenLifetime is the validity of each issued master token.
	TokenLifetime time.Duration
	// HandshakeError, when set, is returned as errordata to key requests.
	HandshakeError string
	// Manifest is the result member of manifest responses.
	Manifest json.RawMessage
	// License is returned base64-encoded in licenseResponseBase64.
	License []byte
	// ChunkSize splits response data into several payload chunks.
	ChunkSize int
	// UserIDToken and ServiceTokens are echoed in every response header.
	UserIDToken   json.RawMessage
	ServiceTokens []json.RawMessage
	// SetCookie is sent with every non-handshake response.
	SetCookie *http.Cookie
	// Tamper signs responses with unrelated keys.
	Tamper bool
	// RemoteError makes non-handshake requests fail with this error code.
	RemoteError string
	// ResultError is returned as the error member of an otherwise valid,
	// encrypted response payload.
	ResultError string
	// Truncate cuts every non-handshake response off inside its last chunk.
	Truncate bool
	// Delay holds every response back.
	Delay time.Duration

	keys       domain.SessionKeys
	token      domain.MasterToken
	sequence   int64
	handshakes int
	requests   []Request
}

// New starts a Server. Close it when done.
func New() *Server {
	s := &Server{TokenLifetime: 24 * time.Hour, License: []byte("license-bytes")}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Handshakes returns how many key exchanges succeeded.
func (s *Server) Handshakes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshakes
}

// Requests returns the decrypted non-handshake requests seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Sequence returns the sequence number of the current master token.
func (s *Server) Sequence() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequence
}

// Update changes configuration fields under the server's lock.
func (s *Server) Update(fn func(*Server)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// ManifestURL and LicenseURL are the endpoint URLs for client configuration.
func (s *Server) ManifestURL() string { return s.URL + "/manifest" }
func (s *Server) LicenseURL() string  { return s.URL + "/license" }

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	delay := s.Delay
	s.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	var keyReq struct {
		EntityAuthData json.RawMessage `json:"entityauthdata"`
	}
	if json.Valid(body) && json.Unmarshal(body, &keyReq) == nil && keyReq.EntityAuthData != nil {
		s.handshake(w, body)
		return
	}
	s.request(w, r, body)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(code, msg string) map[string]string {
	ed, _ := json.Marshal(map[string]string{"errorcode": code, "errormsg": msg})
	return map[string]string{"errordata": base64.StdEncoding.EncodeToString(ed)}
}

func (s *Server) handshake(w http.ResponseWriter, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.HandshakeError != "" {
		writeJSON(w, errorBody(s.HandshakeError, "handshake rejected"))
		return
	}

	var req struct {
		HeaderData string `json:"headerdata"`
	}
	_ = json.Unmarshal(body, &req)
	raw, err := crypto.UnB64(req.HeaderData)
	if err != nil {
		http.Error(w, "bad headerdata", http.StatusBadRequest)
		return
	}
	var hd framing.HeaderData
	if err := json.Unmarshal(raw, &hd); err != nil || len(hd.KeyRequestData) == 0 {
		http.Error(w, "bad key request", http.StatusBadRequest)
		return
	}
	der, err := crypto.UnB64(hd.KeyRequestData[0].KeyData.PublicKey)
	if err != nil {
		http.Error(w, "bad public key", http.StatusBadRequest)
		return
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	pub, ok := parsed.(*rsa.PublicKey)
	if err != nil || !ok {
		http.Error(w, "bad public key", http.StatusBadRequest)
		return
	}

	enc, _ := crypto.RandomBytes(16)
	sig, _ := crypto.RandomBytes(32)
	s.sequence++
	td, _ := json.Marshal(domain.MasterTokenData{
		SequenceNumber: s.sequence,
		Expiration:     time.Now().Add(s.TokenLifetime).Unix(),
	})
	s.keys = domain.SessionKeys{EncryptionKey: enc, SigningKey: sig}
	s.token = domain.MasterToken{TokenData: crypto.B64(td), Signature: crypto.B64(sig[:8])}

	var kr domain.KeyResponseData
	kr.MasterToken = s.token
	kr.Scheme = framing.KeyExchangeWrapped
	if kr.KeyData.EncryptionKey, err = keys.Wrap(pub, enc, "A128CBC"); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if kr.KeyData.HMACKey, err = keys.Wrap(pub, sig, "HS256"); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out, _ := json.Marshal(framing.HeaderData{MessageID: hd.MessageID, KeyResponse: &kr})
	s.handshakes++
	writeJSON(w, map[string]string{"headerdata": crypto.B64(out), "signature": ""})
}

func (s *Server) request(w http.ResponseWriter, r *http.Request, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := framing.ParseChunkedResponse(body)
	if err != nil {
		writeJSON(w, errorBody("MSL_PARSE", err.Error()))
		return
	}
	var outer struct {
		MasterToken domain.MasterToken `json:"mastertoken"`
	}
	if json.Unmarshal(p.Header, &outer) != nil || outer.MasterToken != s.token || s.token.IsZero() {
		writeJSON(w, errorBody("MASTERTOKEN_UNTRUSTED", "unknown master token"))
		return
	}

	codec := envelope.New(s.keys, "")
	hd, err := framing.DecryptHeader(codec, p.Header)
	if err != nil {
		writeJSON(w, errorBody("MSL_DECRYPT", err.Error()))
		return
	}
	plain, err := framing.DecryptPayloads(codec, p.Payloads)
	if err != nil {
		writeJSON(w, errorBody("MSL_DECRYPT", err.Error()))
		return
	}
	s.requests = append(s.requests, Request{Header: hd, Body: plain, Cookie: r.Header.Get("Cookie")})

	if s.RemoteError != "" {
		writeJSON(w, errorBody(s.RemoteError, "request rejected"))
		return
	}

	var call struct {
		URL string `json:"url"`
	}
	_ = json.Unmarshal(plain, &call)
	var result any
	if call.URL == "/manifest" {
		result = s.Manifest
	} else {
		result = []map[string]string{{
			"sessionId":             "echo",
			"licenseResponseBase64": base64.StdEncoding.EncodeToString(s.License),
		}}
	}
	data, _ := json.Marshal(map[string]any{"version": 2, "result": result})
	if s.ResultError != "" {
		data, _ = json.Marshal(map[string]any{
			"version": 2,
			"error":   map[string]string{"code": s.ResultError, "detail": "request rejected"},
		})
	}

	if s.Tamper {
		other, _ := crypto.RandomBytes(32)
		codec = envelope.New(domain.SessionKeys{EncryptionKey: s.keys.EncryptionKey, SigningKey: other}, "")
	}
	resp, err := framing.EncodeResponse(codec, framing.HeaderData{
		MessageID:     hd.MessageID,
		Recipient:     hd.Sender,
		UserIDToken:   s.UserIDToken,
		ServiceTokens: s.ServiceTokens,
	}, nil, data, s.ChunkSize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if s.Truncate {
		resp = resp[:bytes.LastIndexByte(resp, '}')]
	}
	if s.SetCookie != nil {
		http.SetCookie(w, s.SetCookie)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(resp)
}

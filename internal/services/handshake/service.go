package handshake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"msl/internal/crypto"
	"msl/internal/domain"
	"msl/internal/logging"
	"msl/internal/metrics"
	"msl/internal/protocol/framing"
)

var log = logging.Log

// response is the outer object of a handshake answer. Unlike later
// responses its headerdata is plain base64 JSON.
type response struct {
	HeaderData string `json:"headerdata"`
	ErrorData  string `json:"errordata"`
	Signature  string `json:"signature"`
}

// Service performs handshakes against one endpoint.
type Service struct {
	keys      domain.KeyMaterial
	framer    *framing.Framer
	transport domain.Transport
	sessions  domain.SessionStore
	url       string
	metrics   *metrics.Metrics
}

// New constructs a handshake Service.
func New(
	keys domain.KeyMaterial,
	framer *framing.Framer,
	transport domain.Transport,
	sessions domain.SessionStore,
	url string,
) *Service {
	return &Service{
		keys:      keys,
		framer:    framer,
		transport: transport,
		sessions:  sessions,
		url:       url,
	}
}

// WithMetrics records every attempt in m.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Handshake runs one key exchange and persists the resulting state.
//
// Steps:
//  1. Load or create the RSA keypair.
//  2. Frame the key request and POST it.
//  3. Reject non-200 answers and errordata before touching any key material.
//  4. Decode keyresponsedata and unwrap both session keys.
//  5. Save keys and master token as a fresh SessionState.
func (s *Service) Handshake(ctx context.Context) (domain.SessionState, error) {
	start := time.Now()
	st, reason, err := s.handshake(ctx)
	s.metrics.ObserveHandshake(start, reason, err)
	if err != nil {
		log.WithFields(logrus.Fields{"esn": s.framer.ESN, "reason": reason}).WithError(err).Warn("handshake failed")
		return domain.SessionState{}, &domain.HandshakeError{Err: err}
	}
	return st, nil
}

func (s *Service) handshake(ctx context.Context) (domain.SessionState, string, error) {
	kp, err := s.keys.EnsureKeyPair()
	if err != nil {
		return domain.SessionState{}, "keypair", err
	}

	msg, err := s.framer.BuildHandshake(kp)
	if err != nil {
		return domain.SessionState{}, "build", err
	}
	log.WithFields(logrus.Fields{"esn": s.framer.ESN, "messageid": msg.MessageID}).Info("handshake: sending key request")

	resp, err := s.transport.Post(ctx, s.url, msg.Body, nil)
	if err != nil {
		return domain.SessionState{}, "transport", err
	}
	if resp.Status != http.StatusOK {
		if json.Valid(resp.Body) {
			return domain.SessionState{}, "status", fmt.Errorf("http %d: %w", resp.Status, framing.RemoteError(resp.Body))
		}
		return domain.SessionState{}, "status", fmt.Errorf("http %d", resp.Status)
	}

	var r response
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return domain.SessionState{}, "decode", fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	if r.ErrorData != "" {
		return domain.SessionState{}, "errordata", framing.RemoteError(resp.Body)
	}

	kr, err := keyResponse(r.HeaderData)
	if err != nil {
		return domain.SessionState{}, "decode", err
	}
	tok, err := kr.MasterToken.Decode()
	if err != nil {
		return domain.SessionState{}, "decode", fmt.Errorf("%w: master token: %v", domain.ErrDecryption, err)
	}

	keys, err := s.keys.DeriveSessionKeys(kp, kr)
	if err != nil {
		return domain.SessionState{}, "derive", err
	}

	st := domain.SessionState{Keys: keys, MasterToken: kr.MasterToken}
	if err := s.sessions.Save(st); err != nil {
		return domain.SessionState{}, "persist", err
	}
	log.WithFields(logrus.Fields{
		"esn":      s.framer.ESN,
		"sequence": tok.SequenceNumber,
		"expires":  tok.ExpiresAt().UTC().Format(time.RFC3339),
	}).Info("handshake: session established")
	return st, "", nil
}

var errNoKeyResponse = errors.New("handshake response has no keyresponsedata")

func keyResponse(headerdata string) (domain.KeyResponseData, error) {
	raw, err := crypto.UnB64(headerdata)
	if err != nil {
		return domain.KeyResponseData{}, fmt.Errorf("%w: headerdata: %v", domain.ErrDecryption, err)
	}
	var hd framing.HeaderData
	if err := json.Unmarshal(raw, &hd); err != nil {
		return domain.KeyResponseData{}, fmt.Errorf("%w: headerdata: %v", domain.ErrDecryption, err)
	}
	if hd.KeyResponse == nil || hd.KeyResponse.MasterToken.IsZero() {
		return domain.KeyResponseData{}, errNoKeyResponse
	}
	return *hd.KeyResponse, nil
}

// Compile-time assertion that Service implements domain.HandshakeService.
var _ domain.HandshakeService = (*Service)(nil)

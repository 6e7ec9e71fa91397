package types

import (
	"errors"
	"fmt"
)

// Error kinds. Components wrap these with %w; callers match with errors.Is.
var (
	ErrKeyGeneration   = errors.New("key generation failed")
	ErrKeyDerivation   = errors.New("session key derivation failed")
	ErrDecryption      = errors.New("envelope decryption failed")
	ErrIntegrity       = errors.New("signature verification failed")
	ErrMalformed       = errors.New("malformed response framing")
	ErrRemoteAPI       = errors.New("remote api error")
	ErrHandshake       = errors.New("handshake failed")
	ErrManifestParse   = errors.New("manifest parse error")
	ErrNotFound        = errors.New("not found")
	ErrSecureSession   = errors.New("cannot establish a secure session")
	ErrNoSession       = errors.New("no active session")
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted data")
)

// RemoteAPIError is returned when the server answers with a structured error
// instead of chunked data.
type RemoteAPIError struct {
	Code    string
	Message string
	Body    []byte
}

func (e *RemoteAPIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("remote api error %s: %s", e.Code, e.Message)
	case e.Message != "":
		return "remote api error: " + e.Message
	default:
		return fmt.Sprintf("remote api error: %.200s", e.Body)
	}
}

// Is lets errors.Is(err, ErrRemoteAPI) match.
func (e *RemoteAPIError) Is(target error) bool { return target == ErrRemoteAPI }

// HandshakeError wraps whatever failed during a key exchange.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	if e.Err == nil {
		return ErrHandshake.Error()
	}
	return "handshake failed: " + e.Err.Error()
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrHandshake) match.
func (e *HandshakeError) Is(target error) bool { return target == ErrHandshake }

package domain

import (
	interfaces "msl/internal/domain/interfaces"
	types "msl/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	MasterToken         = types.MasterToken
	MasterTokenData     = types.MasterTokenData
	SessionKeys         = types.SessionKeys
	SessionState        = types.SessionState
	Cookie              = types.Cookie
	KeyPair             = types.KeyPair
	KeyResponseData     = types.KeyResponseData
	Credentials         = types.Credentials
	Envelope            = types.Envelope
	PayloadChunk        = types.PayloadChunk
	Response            = types.Response
	ByteRange           = types.ByteRange
	ContentProtection   = types.ContentProtection
	VideoRepresentation = types.VideoRepresentation
	VideoTrack          = types.VideoTrack
	AudioRepresentation = types.AudioRepresentation
	AudioTrack          = types.AudioTrack
	TextRepresentation  = types.TextRepresentation
	TextTrack           = types.TextTrack
	ManifestDocument    = types.ManifestDocument
	RemoteAPIError      = types.RemoteAPIError
	HandshakeError      = types.HandshakeError
)

// Interface aliases expose contracts from the interfaces subpackage.
type (
	KeyValueStore    = interfaces.KeyValueStore
	SessionStore     = interfaces.SessionStore
	KeyMaterial      = interfaces.KeyMaterial
	Transport        = interfaces.Transport
	CredentialStore  = interfaces.CredentialStore
	HandshakeService = interfaces.HandshakeService
	PlaybackService  = interfaces.PlaybackService
)

const (
	CompressionNone = types.CompressionNone
	CompressionGZIP = types.CompressionGZIP
)

// Error kinds, re-exported so callers only import domain.
var (
	ErrKeyGeneration   = types.ErrKeyGeneration
	ErrKeyDerivation   = types.ErrKeyDerivation
	ErrDecryption      = types.ErrDecryption
	ErrIntegrity       = types.ErrIntegrity
	ErrMalformed       = types.ErrMalformed
	ErrRemoteAPI       = types.ErrRemoteAPI
	ErrHandshake       = types.ErrHandshake
	ErrManifestParse   = types.ErrManifestParse
	ErrNotFound        = types.ErrNotFound
	ErrSecureSession   = types.ErrSecureSession
	ErrNoSession       = types.ErrNoSession
	ErrWrongPassphrase = types.ErrWrongPassphrase
)

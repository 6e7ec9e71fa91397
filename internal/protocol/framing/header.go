package framing

import (
	"encoding/json"

	"msl/internal/domain"
)

// Key exchange and user authentication scheme names.
const (
	EntityAuthNone        = "NONE"
	KeyExchangeWrapped    = "ASYMMETRIC_WRAPPED"
	KeyMechanismJWKRSA    = "JWK_RSA"
	KeyPairID             = "superKeyPair"
	UserAuthEmailPassword = "EMAIL_PASSWORD"
	UserAuthNetflixID     = "NETFLIXID"
	EncoderFormatJSON     = "JSON"
)

// Capabilities advertises what the client can handle.
type Capabilities struct {
	Languages        []string `json:"languages"`
	CompressionAlgos []string `json:"compressionalgos"`
	EncoderFormats   []string `json:"encoderformats"`
}

// KeyRequestData asks the server to wrap new session keys for PublicKey.
type KeyRequestData struct {
	Scheme  string `json:"scheme"`
	KeyData struct {
		PublicKey string `json:"publickey"`
		Mechanism string `json:"mechanism"`
		KeyPairID string `json:"keypairid"`
	} `json:"keydata"`
}

// UserAuthData authenticates the account when no user id token is held.
type UserAuthData struct {
	Scheme   string            `json:"scheme"`
	AuthData map[string]string `json:"authdata"`
}

// HeaderData is the plaintext of a message header, both directions.
type HeaderData struct {
	Sender         string                  `json:"sender,omitempty"`
	Recipient      string                  `json:"recipient,omitempty"`
	Handshake      bool                    `json:"handshake"`
	NonReplayable  bool                    `json:"nonreplayable"`
	Capabilities   *Capabilities           `json:"capabilities,omitempty"`
	Renewable      bool                    `json:"renewable"`
	MessageID      int64                   `json:"messageid"`
	Timestamp      int64                   `json:"timestamp,omitempty"`
	KeyRequestData []KeyRequestData        `json:"keyrequestdata,omitempty"`
	KeyResponse    *domain.KeyResponseData `json:"keyresponsedata,omitempty"`
	UserAuthData   *UserAuthData           `json:"userauthdata,omitempty"`
	UserIDToken    json.RawMessage         `json:"useridtoken,omitempty"`
	ServiceTokens  []json.RawMessage       `json:"servicetokens,omitempty"`
}

// entityAuth identifies the device during the handshake.
type entityAuth struct {
	Scheme   string `json:"scheme"`
	AuthData struct {
		Identity string `json:"identity"`
	} `json:"authdata"`
}

// handshakeMessage fields are in sorted order; the server expects sorted keys.
type handshakeMessage struct {
	EntityAuthData entityAuth `json:"entityauthdata"`
	HeaderData     string     `json:"headerdata"`
	Signature      string     `json:"signature"`
}

// wireHeader is the outer header object of every non-handshake message.
type wireHeader struct {
	HeaderData  string              `json:"headerdata,omitempty"`
	Signature   string              `json:"signature,omitempty"`
	MasterToken *domain.MasterToken `json:"mastertoken,omitempty"`
	ErrorData   string              `json:"errordata,omitempty"`
}

// wireChunk is the outer object of one payload chunk.
type wireChunk struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

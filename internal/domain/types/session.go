package types

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// MasterToken is the opaque, server-signed token embedded in every request
// header after the handshake.
type MasterToken struct {
	TokenData string `json:"tokendata"`
	Signature string `json:"signature"`
}

// MasterTokenData is the decoded content of MasterToken.TokenData.
type MasterTokenData struct {
	SequenceNumber int64 `json:"sequencenumber"`
	Expiration     int64 `json:"expiration"`
	RenewalWindow  int64 `json:"renewalwindow,omitempty"`
	SerialNumber   int64 `json:"serialnumber,omitempty"`
}

// IsZero reports whether no token has been issued yet.
func (t MasterToken) IsZero() bool { return t.TokenData == "" }

// Decode base64-decodes and parses the token data.
func (t MasterToken) Decode() (MasterTokenData, error) {
	var d MasterTokenData
	raw, err := base64.StdEncoding.DecodeString(t.TokenData)
	if err != nil {
		return d, err
	}
	err = json.Unmarshal(raw, &d)
	return d, err
}

// ExpiresAt returns the expiration instant encoded in data.
func (d MasterTokenData) ExpiresAt() time.Time { return time.Unix(d.Expiration, 0) }

// SessionKeys are the negotiated symmetric keys used for every envelope until
// the next handshake.
type SessionKeys struct {
	EncryptionKey []byte `json:"encryption_key"`
	SigningKey    []byte `json:"sign_key"`
}

// Valid reports whether both keys are present and the encryption key is a
// usable AES key size.
func (k SessionKeys) Valid() bool {
	switch len(k.EncryptionKey) {
	case 16, 24, 32:
	default:
		return false
	}
	return len(k.SigningKey) > 0
}

// Cookie is the persisted form of an HTTP cookie issued by the MSL endpoints.
type Cookie struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Domain  string `json:"domain,omitempty"`
	Path    string `json:"path,omitempty"`
	Expires int64  `json:"expires,omitempty"`
}

// SessionState is everything that survives a restart: keys, tokens and cookies.
type SessionState struct {
	Keys          SessionKeys                `json:"keys"`
	MasterToken   MasterToken                `json:"mastertoken"`
	UserIDToken   json.RawMessage            `json:"useridtoken,omitempty"`
	ServiceTokens map[string]json.RawMessage `json:"servicetokens,omitempty"`
	Cookies       []Cookie                   `json:"cookies,omitempty"`
}

// Clone returns a deep copy so request workers can hold a snapshot while the
// owner mutates the live state.
func (s SessionState) Clone() SessionState {
	out := SessionState{
		Keys: SessionKeys{
			EncryptionKey: append([]byte(nil), s.Keys.EncryptionKey...),
			SigningKey:    append([]byte(nil), s.Keys.SigningKey...),
		},
		MasterToken: s.MasterToken,
	}
	if s.UserIDToken != nil {
		out.UserIDToken = append(json.RawMessage(nil), s.UserIDToken...)
	}
	if s.ServiceTokens != nil {
		out.ServiceTokens = make(map[string]json.RawMessage, len(s.ServiceTokens))
		for k, v := range s.ServiceTokens {
			out.ServiceTokens[k] = append(json.RawMessage(nil), v...)
		}
	}
	if s.Cookies != nil {
		out.Cookies = append([]Cookie(nil), s.Cookies...)
	}
	return out
}

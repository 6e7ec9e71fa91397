package crypto

import (
	"encoding/base64"
	"strings"
)

// B64 returns standard base64 encoding without newlines.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// UnB64 decodes standard base64.
func UnB64(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

// DecodeJWKKey decodes the "k" member of a JWK, which is base64url and
// usually unpadded.
func DecodeJWKKey(k string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(k, "="))
}

// B64URL returns unpadded base64url, the JWK encoding for key bytes.
func B64URL(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Sign returns HMAC-SHA256(key, msg).
func Sign(key, msg []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(msg)
	return m.Sum(nil)
}

// Verify recomputes the MAC and compares in constant time.
func Verify(key, msg, sig []byte) bool {
	return hmac.Equal(Sign(key, msg), sig)
}

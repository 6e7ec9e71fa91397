// Package envelope encrypts, decrypts, signs and verifies MSL envelopes.
//
// An envelope is AES-CBC ciphertext under the session encryption key with a
// fresh random IV, serialised as JSON {ciphertext, keyid, sha256, iv}. The
// HMAC-SHA256 signature under the session signing key is computed over those
// exact JSON bytes and travels next to them. Payload bodies are GZIP
// compressed before they are encrypted.
package envelope

// Package crypto exposes the minimal primitives used by the MSL client.
//
// Contents
//
//   - RSA keypair generation, PEM/DER encoding and RSA-OAEP unwrapping
//     (GenerateRSA, EncodePrivatePEM, DecodePrivatePEM, PublicDER, UnwrapOAEP)
//   - AES-CBC with PKCS#7 padding (EncryptCBC, DecryptCBC, Pad, Unpad)
//   - HMAC-SHA256 signing and constant-time verification (Sign, Verify)
//   - GZIP compression of payload bodies (Gzip, Gunzip)
//   - Random IVs and message ids (RandomBytes, MessageID)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Every call builds its own cipher.Block and mode; nothing here caches cipher
// state between envelopes, so an IV is never reused by construction.
package crypto

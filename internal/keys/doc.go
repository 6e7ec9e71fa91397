// Package keys owns the installation RSA keypair and the derivation of
// session keys from a handshake response.
//
// The keypair is created once, persisted as a PEM blob under "rsa_key" in the
// configured key-value store and regenerated only when missing or unreadable.
// Session keys arrive RSA-OAEP wrapped; each unwraps to a JWK whose "k"
// member is the raw symmetric key.
package keys

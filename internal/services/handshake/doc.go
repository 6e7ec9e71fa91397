// Package handshake performs the MSL key exchange.
//
// A handshake sends the installation's RSA public key under the NONE entity
// scheme and receives a master token plus two RSA-OAEP wrapped session keys.
// The same routine serves first contact and renewal; there is no separate
// renew request.
//
// Any failure (transport error or timeout, non-200 status, errordata in the
// response, missing key response, key derivation, persistence) is returned as
// a *domain.HandshakeError and is never retried here.
package handshake

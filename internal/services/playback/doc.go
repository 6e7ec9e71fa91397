// Package playback is the request orchestrator: it owns the live session and
// turns manifest and license calls into MSL round trips.
//
// Session lifecycle:
//
//	NoSession -> Handshaking -> Active -> (renewal due | crypto failure) -> Handshaking
//
// Requests are only framed in Active. Building, sending and decrypting one
// request happens under a read lock on the session, so concurrent manifest
// and license calls share one consistent key generation. A handshake takes
// the write lock, so no request built from an older generation can be sent
// once a newer one is installed. Old keys are wiped when replaced.
//
// A decrypt or verify failure marks the generation invalid and is returned
// to the caller; the next call performs a fresh handshake. Handshake failures
// and a second crypto failure in a row surface as domain.ErrSecureSession.
package playback

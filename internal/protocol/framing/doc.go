// Package framing builds MSL wire messages and takes responses apart.
//
// A request is a header object followed immediately, with no delimiter, by
// one payload chunk object:
//
//	{"headerdata":"<b64 envelope>","signature":"<b64>","mastertoken":{...}}
//	{"payload":"<b64 envelope>","signature":"<b64>"}
//
// The handshake is the exception: its header travels unencrypted beside an
// entityauthdata block and an empty signature.
//
// Responses use the same framing but may carry any number of payload chunks.
// They are split by tracking brace depth byte by byte (string literals are
// skipped); a response that is instead one well-formed JSON document is the
// server reporting an error and becomes a *domain.RemoteAPIError.
package framing

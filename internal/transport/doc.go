// Package transport is the HTTP implementation of domain.Transport used to
// reach the MSL endpoints.
//
// Every POST carries the MSL content headers (Content-Encoding msl_v1,
// Content-Type application/json) unless the caller overrides them. The
// response is returned whatever its status: a non-2xx MSL answer still has a
// body worth decoding, so interpreting the status is left to the caller.
// Network failures and timeouts come back as errors.
package transport

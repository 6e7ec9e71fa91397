// Package main runs the player-facing proxy in front of an MSL session.
//
// A local media player asks the proxy for manifests and licenses over plain
// HTTP; the proxy handles the key exchange, request framing and manifest
// transcoding. See package msl/internal/proxy for the endpoints.
//
// Behaviour
//
//   - Session state, the RSA key and the last manifest live under --home and
//     survive restarts. With -p they are sealed at rest.
//   - Credentials are read from MSL_EMAIL/MSL_PASSWORD or
//     MSL_NETFLIXID/MSL_SECURENETFLIXID; the proxy never prompts.
//   - Prometheus metrics are served on /metrics.
//   - The default listen address is 127.0.0.1:8080.
package main

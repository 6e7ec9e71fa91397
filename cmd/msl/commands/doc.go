// Package commands defines the msl CLI and wires dependencies for subcommands.
//
// Commands
//
//   - handshake    Force a new key exchange and persist the session
//   - manifest     Fetch a manifest and print it as an MPD
//   - license      Fetch a manifest, then exchange a CDM challenge for a license
//   - fingerprint  Print the device public key fingerprint
//   - status       Show the persisted session without touching the network
//   - reset        Discard the persisted session, keeping the RSA key
//
// # Implementation
//
// The root command builds the dependency graph (store, keys, session store,
// transport, services) before any subcommand runs and closes the store when
// it finishes. Credentials come from MSL_EMAIL/MSL_PASSWORD, or
// MSL_NETFLIXID/MSL_SECURENETFLIXID, falling back to a terminal prompt.
package commands

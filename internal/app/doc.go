// Package app wires application dependencies for the CLI and the proxy.
//
// It builds the key-value store, key manager, session store, framer,
// transport, handshake service and playback client from Config, exposing
// them via the Wire struct for commands to use.
package app

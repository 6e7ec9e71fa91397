// Package store provides persistence for the MSL client's durable state.
//
// It contains concrete implementations of the domain storage interfaces:
//   - Named-blob key-value stores: FileKV (one file per name, atomic
//     temp-file + rename writes, cross-process file lock) and SQLiteKV (a
//     single keystore table).
//   - SealedKV, a decorator that encrypts every blob at rest under a
//     passphrase (scrypt + ChaCha20-Poly1305).
//   - SessionStore, which serialises SessionState into msl_data.json on
//     top of any key-value store and decides when a MasterToken is due for
//     renewal.
//
// All methods are concurrency-safe via internal locking.
package store

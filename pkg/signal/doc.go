// Package signal exposes a Go API over an audited native cryptographic
// engine for the Signal protocol: pairwise sessions, group sender keys, and
// the sealed-sender certificate chain.
//
// Every engine-owned value (keys, records, parsed messages, certificates)
// is a resource with an explicit Destroy. Destroy is idempotent; any
// operation after it fails with ErrDisposed. A finalizer releases resources
// whose owner never destroys them, but explicit disposal is the intended
// path.
//
// Serialized inputs are validated before they reach the engine: lengths,
// key type bytes, the low-order point blocklist, and message framing. See
// the validate package for the exact rules.
//
// Binaries built without the signalffi build tag use a pure-Go fallback
// engine so the API is fully exercisable without cgo. The fallback is a
// real implementation but is not wire-compatible with the native engine;
// EngineAvailable reports which engine a binary carries.
package signal

// Package logging provides a minimal logging facade for the signal wrapper.
//
// The Logger interface wraps a subset of the standard library's log/slog
// functionality. It is intentionally small to allow applications to provide
// custom implementations for testing, redaction, or integration with
// existing logging systems.
//
//	logger := logging.New(nil) // slog.Default()
//	logger.Info(ctx, "session established", "address", addr)
//
// Never log private keys, chain keys, or decrypted plaintext. Use
// logging.Redacted to mark attributes whose value was intentionally
// removed:
//
//	logger.Debug(ctx, "identity generated", logging.Redacted("private_key"))
package logging

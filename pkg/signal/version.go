package signal

import "github.com/openratchet/signal-go/pkg/signal/internal/backend"

var (
	Version   = "v0.0.0-in-progress"
	EngineSHA = "unknown"
)

// WrapperVersion returns the semantic version populated at build time via
// ldflags. In development it defaults to v0.0.0-in-progress.
func WrapperVersion() string {
	return Version
}

// EngineVersion returns the version string reported by the native engine if
// available; otherwise it falls back to the pinned engine commit SHA.
func EngineVersion() string {
	if v := backend.Version(); v != "" {
		return v
	}
	return EngineSHA
}

// EngineAvailable reports whether this binary was built with the native
// engine linked in. When false, the pure-Go fallback engine serves every
// operation; its wire formats are not interoperable with the native
// engine's.
func EngineAvailable() bool {
	return backend.NativeBuilt
}

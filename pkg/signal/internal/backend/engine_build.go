//go:build !signalffi || !cgo

package backend

// NativeBuilt reports at compile time which engine this binary carries.
const NativeBuilt = false

// Version returns the engine's self-reported version. The fallback engine
// has none; callers fall back to the pinned native SHA.
func Version() string { return "" }

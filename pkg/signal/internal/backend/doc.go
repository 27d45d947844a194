// Package backend is the FFI boundary between pkg/signal and the native
// engine. The real bindings live behind the signalffi build tag so that the
// rest of the repository compiles and tests without cgo; default builds get
// a pure-Go fallback engine with the same function surface.
//
// The fallback engine makes no wire-compatibility claim against the native
// library. It exists so the layers above it (handle lifecycle, validation,
// error translation, stores) are real code with real tests on every
// platform.
//
// This package should only be imported by pkg/signal.
package backend

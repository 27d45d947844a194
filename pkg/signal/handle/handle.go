// Package handle owns the lifecycle of native engine resources. Every
// wrapper type in pkg/signal holds exactly one Handle, which owns exactly
// one native pointer and the destructor that releases it.
//
// The same pattern used to be repeated by hand in every wrapper (a pointer
// field, a disposed flag, a finalizer, an idempotent Close). Handle collapses
// that into a single state machine with two states, live and disposed, and
// one guarded accessor.
package handle

import (
	"errors"
	"runtime"
)

// ErrDisposed is returned by Use when the handle has already been disposed.
// It is re-exported by pkg/signal; callers should match with errors.Is.
var ErrDisposed = errors.New("signal: use of disposed resource")

// Handle owns one native pointer of type T and the destructor that frees it.
//
// Memory management: call Dispose explicitly when the resource is no longer
// needed, preferably with defer. A finalizer is registered as a safety net
// for resources whose owner never disposes them; it must never be the
// primary cleanup path.
//
// A Handle has one logical owner. It is not safe for concurrent use.
type Handle[T comparable] struct {
	raw      T
	free     func(T)
	disposed bool
}

// New wraps a freshly received native pointer. Ownership of raw transfers to
// the returned Handle: no other live wrapper may alias it. The destructor
// free is invoked exactly once, either by Dispose or by the finalizer
// backstop.
func New[T comparable](raw T, free func(T)) *Handle[T] {
	h := &Handle[T]{raw: raw, free: free}
	runtime.SetFinalizer(h, (*Handle[T]).backstop)
	return h
}

// Use returns the raw native pointer for the duration of a single native
// call. The caller must not retain it past that call, and must keep the
// Handle reachable across the call (runtime.KeepAlive) so the finalizer
// cannot fire mid-call.
func (h *Handle[T]) Use() (T, error) {
	if h == nil || h.disposed {
		var zero T
		return zero, ErrDisposed
	}
	return h.raw, nil
}

// Disposed reports whether Dispose has run.
func (h *Handle[T]) Disposed() bool {
	return h == nil || h.disposed
}

// Dispose invokes the native destructor and marks the handle disposed. It is
// idempotent: the second and later calls are no-ops.
//
// The finalizer is detached before the destructor runs. The ordering
// matters: a finalizer already queued by the collector must find nothing to
// free, otherwise the explicit path and the backstop could both reach the
// destructor.
func (h *Handle[T]) Dispose() {
	if h == nil || h.disposed {
		return
	}
	runtime.SetFinalizer(h, nil)
	h.destroy()
}

// backstop is the finalizer target. It performs the same destroy-once logic
// the explicit path would have; by the time it runs the wrapper is
// unreachable, so no detach is needed.
func (h *Handle[T]) backstop() {
	if h.disposed {
		return
	}
	h.destroy()
}

func (h *Handle[T]) destroy() {
	if h.free != nil {
		h.free(h.raw)
	}
	h.disposed = true
	var zero T
	h.raw = zero
}

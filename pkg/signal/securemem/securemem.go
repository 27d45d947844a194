// Package securemem provides the byte-level primitives the rest of the
// binding layer uses for secret material: best-effort zeroization,
// constant-time comparison, and a secret-tagged buffer with a destroy-once
// lifecycle.
package securemem

import (
	"crypto/subtle"
	"runtime"
)

// Zeroize overwrites every byte of buf with zero and prevents compiler dead
// store elimination using runtime.KeepAlive.
//
// This follows the pattern recommended in golang/go#33325. It cannot
// guarantee complete sanitization (the garbage collector may have copied the
// backing array), but it is the established practice for sensitive memory in
// Go; the native engine additionally zeroizes its own internal buffers.
// Calling Zeroize on a nil or empty slice is a no-op.
func Zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}

// ConstantTimeEquals reports whether a and b are byte-for-byte identical.
//
// The comparison does not short-circuit on the first differing byte, and the
// number of bytes touched does not depend on whether the lengths match: when
// they differ, a is compared against itself and the result discarded, so the
// timing profile is that of a full-length comparison either way. Any length
// mismatch yields false.
func ConstantTimeEquals(a, b []byte) bool {
	if len(a) != len(b) {
		_ = subtle.ConstantTimeCompare(a, a)
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Buffer holds secret bytes with an explicit destroy-once lifecycle. It is
// used for key material marshaled for an engine call or copied out of one.
//
// Destroy zeroizes the contents and drops the reference. A finalizer is
// registered as a backstop for buffers whose owner never destroys them,
// mirroring the resource handle lifecycle: the finalizer is detached before
// the explicit zeroize runs, so the two paths cannot both execute.
type Buffer struct {
	data      []byte
	destroyed bool
}

// NewBuffer takes ownership of data. The caller must not retain or mutate
// the slice afterwards.
func NewBuffer(data []byte) *Buffer {
	b := &Buffer{data: data}
	runtime.SetFinalizer(b, (*Buffer).backstop)
	return b
}

// Bytes exposes the secret contents. The returned slice aliases the buffer
// and is valid only until Destroy; callers must not hold it past that.
func (b *Buffer) Bytes() ([]byte, error) {
	if b == nil || b.destroyed {
		return nil, ErrDestroyed
	}
	return b.data, nil
}

// Len returns the length of the secret contents, or 0 after Destroy.
func (b *Buffer) Len() int {
	if b == nil || b.destroyed {
		return 0
	}
	return len(b.data)
}

// Destroy zeroizes the contents and releases them. Idempotent.
func (b *Buffer) Destroy() {
	if b == nil || b.destroyed {
		return
	}
	runtime.SetFinalizer(b, nil)
	b.wipe()
}

func (b *Buffer) backstop() {
	if b.destroyed {
		return
	}
	b.wipe()
}

func (b *Buffer) wipe() {
	Zeroize(b.data)
	b.data = nil
	b.destroyed = true
}

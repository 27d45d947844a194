package signal

import (
	"runtime"

	"github.com/openratchet/signal-go/pkg/signal/handle"
	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// PublicKey is a Curve25519 public key owned by the engine.
//
// A PublicKey must be released with Destroy. A finalizer frees the
// underlying resource if the caller never does, but relying on it delays
// reclamation until the collector runs.
type PublicKey struct {
	h *handle.Handle[backend.PublicKey]
}

func newPublicKey(raw backend.PublicKey) *PublicKey {
	return &PublicKey{h: handle.New(raw, backend.PublicKeyFree)}
}

// DeserializePublicKey parses a 33-byte serialized public key. The input is
// validated (length, type byte, low-order blocklist) before it reaches the
// engine.
func DeserializePublicKey(data []byte) (*PublicKey, error) {
	const op = "DeserializePublicKey"
	if err := validate.PublicKey(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.PublicKeyDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPublicKey(raw), nil
}

// Serialize returns the 33-byte encoding: the key type byte followed by the
// 32 key bytes.
func (p *PublicKey) Serialize() ([]byte, error) {
	const op = "PublicKey.Serialize"
	if p == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := p.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.PublicKeySerialize(raw)
	runtime.KeepAlive(p.h)
	return out, wrap(op, err)
}

// Verify reports whether signature is a valid signature by this key over
// message. A well-formed but non-matching signature is (false, nil).
func (p *PublicKey) Verify(message, signature []byte) (bool, error) {
	const op = "PublicKey.Verify"
	if p == nil {
		return false, wrap(op, ErrNullHandle)
	}
	raw, err := p.h.Use()
	if err != nil {
		return false, wrap(op, err)
	}
	ok, err := backend.PublicKeyVerify(raw, message, signature)
	runtime.KeepAlive(p.h)
	return ok, wrap(op, err)
}

// Compare orders two keys by their serialized bytes, returning -1, 0, or 1.
func (p *PublicKey) Compare(other *PublicKey) (int, error) {
	const op = "PublicKey.Compare"
	if p == nil || other == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	a, err := p.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	b, err := other.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	cmp, err := backend.PublicKeyCompare(a, b)
	runtime.KeepAlive(p.h)
	runtime.KeepAlive(other.h)
	return cmp, wrap(op, err)
}

// Equals reports whether both keys serialize to the same bytes.
func (p *PublicKey) Equals(other *PublicKey) (bool, error) {
	cmp, err := p.Compare(other)
	if err != nil {
		return false, err
	}
	return cmp == 0, nil
}

// Clone returns an independent copy with its own lifecycle.
func (p *PublicKey) Clone() (*PublicKey, error) {
	const op = "PublicKey.Clone"
	if p == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := p.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	c, err := backend.PublicKeyClone(raw)
	runtime.KeepAlive(p.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPublicKey(c), nil
}

// Destroy releases the key. Destroy is idempotent; operations after the
// first Destroy fail with ErrDisposed.
func (p *PublicKey) Destroy() {
	if p != nil {
		p.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (p *PublicKey) Disposed() bool {
	return p != nil && p.h.Disposed()
}

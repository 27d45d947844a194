package signal

import (
	"runtime"

	"github.com/openratchet/signal-go/pkg/signal/handle"
	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/securemem"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// PrivateKey is a Curve25519 private key owned by the engine.
//
// A PrivateKey must be released with Destroy, which also wipes the key
// material. A finalizer frees the resource if the caller never does.
type PrivateKey struct {
	h *handle.Handle[backend.PrivateKey]
}

func newPrivateKey(raw backend.PrivateKey) *PrivateKey {
	return &PrivateKey{h: handle.New(raw, backend.PrivateKeyFree)}
}

// GeneratePrivateKey creates a fresh random private key.
func GeneratePrivateKey() (*PrivateKey, error) {
	raw, err := backend.GeneratePrivateKey()
	if err != nil {
		return nil, wrap("GeneratePrivateKey", err)
	}
	return newPrivateKey(raw), nil
}

// DeserializePrivateKey parses a 32-byte serialized private key.
func DeserializePrivateKey(data []byte) (*PrivateKey, error) {
	const op = "DeserializePrivateKey"
	if err := validate.PrivateKey(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.PrivateKeyDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPrivateKey(raw), nil
}

// Serialize returns the raw 32 key bytes in a SecureBuffer the caller owns.
// Destroy the buffer as soon as the bytes are no longer needed.
func (k *PrivateKey) Serialize() (*securemem.Buffer, error) {
	const op = "PrivateKey.Serialize"
	if k == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := k.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.PrivateKeySerialize(raw)
	runtime.KeepAlive(k.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return securemem.NewBuffer(out), nil
}

// PublicKey derives the public half as a new resource.
func (k *PrivateKey) PublicKey() (*PublicKey, error) {
	const op = "PrivateKey.PublicKey"
	if k == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := k.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	pub, err := backend.PrivateKeyGetPublicKey(raw)
	runtime.KeepAlive(k.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPublicKey(pub), nil
}

// Sign produces a 64-byte signature over message.
func (k *PrivateKey) Sign(message []byte) ([]byte, error) {
	const op = "PrivateKey.Sign"
	if k == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := k.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	sig, err := backend.PrivateKeySign(raw, message)
	runtime.KeepAlive(k.h)
	return sig, wrap(op, err)
}

// Agree computes the 32-byte shared secret between this key and peer. The
// caller owns the returned buffer and must destroy it after use.
func (k *PrivateKey) Agree(peer *PublicKey) (*securemem.Buffer, error) {
	const op = "PrivateKey.Agree"
	if k == nil || peer == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := k.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	peerRaw, err := peer.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	shared, err := backend.PrivateKeyAgree(raw, peerRaw)
	runtime.KeepAlive(k.h)
	runtime.KeepAlive(peer.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return securemem.NewBuffer(shared), nil
}

// Destroy releases the key and wipes its material. Destroy is idempotent.
func (k *PrivateKey) Destroy() {
	if k != nil {
		k.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (k *PrivateKey) Disposed() bool {
	return k != nil && k.h.Disposed()
}

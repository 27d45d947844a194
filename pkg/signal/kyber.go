package signal

import (
	"runtime"

	"github.com/openratchet/signal-go/pkg/signal/handle"
	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// KyberPublicKey is a Kyber-1024 encapsulation key owned by the engine.
type KyberPublicKey struct {
	h *handle.Handle[backend.KyberPublicKey]
}

func newKyberPublicKey(raw backend.KyberPublicKey) *KyberPublicKey {
	return &KyberPublicKey{h: handle.New(raw, backend.KyberPublicKeyFree)}
}

// DeserializeKyberPublicKey parses a typed serialized Kyber public key.
func DeserializeKyberPublicKey(data []byte) (*KyberPublicKey, error) {
	const op = "DeserializeKyberPublicKey"
	if err := validate.KyberPublicKey(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.KyberPublicKeyDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newKyberPublicKey(raw), nil
}

// Serialize returns the type byte followed by the encapsulation key bytes.
func (p *KyberPublicKey) Serialize() ([]byte, error) {
	const op = "KyberPublicKey.Serialize"
	if p == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := p.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.KyberPublicKeySerialize(raw)
	runtime.KeepAlive(p.h)
	return out, wrap(op, err)
}

// Destroy releases the key. Idempotent.
func (p *KyberPublicKey) Destroy() {
	if p != nil {
		p.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (p *KyberPublicKey) Disposed() bool {
	return p != nil && p.h.Disposed()
}

// KyberKeyPair is a Kyber-1024 key pair owned by the engine. The private
// half never leaves the engine; it is consumed by pre-key records.
type KyberKeyPair struct {
	h *handle.Handle[backend.KyberKeyPair]
}

func newKyberKeyPair(raw backend.KyberKeyPair) *KyberKeyPair {
	return &KyberKeyPair{h: handle.New(raw, backend.KyberKeyPairFree)}
}

// GenerateKyberKeyPair creates a fresh Kyber-1024 key pair.
func GenerateKyberKeyPair() (*KyberKeyPair, error) {
	raw, err := backend.KyberKeyPairGenerate()
	if err != nil {
		return nil, wrap("GenerateKyberKeyPair", err)
	}
	return newKyberKeyPair(raw), nil
}

// PublicKey extracts the public half as its own resource.
func (kp *KyberKeyPair) PublicKey() (*KyberPublicKey, error) {
	const op = "KyberKeyPair.PublicKey"
	if kp == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := kp.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	pub, err := backend.KyberKeyPairGetPublicKey(raw)
	runtime.KeepAlive(kp.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newKyberPublicKey(pub), nil
}

// Destroy releases the pair. Idempotent.
func (kp *KyberKeyPair) Destroy() {
	if kp != nil {
		kp.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (kp *KyberKeyPair) Disposed() bool {
	return kp != nil && kp.h.Disposed()
}

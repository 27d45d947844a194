package signal

import "sync/atomic"

// IdentityKeyPair bundles a long-term identity's private and public halves.
//
// The pair owns both keys: Destroy disposes each half exactly once, and the
// pair reports disposed as soon as either path has run. The halves must not
// be destroyed individually while the pair owns them.
type IdentityKeyPair struct {
	privateKey *PrivateKey
	publicKey  *PublicKey
	disposed   atomic.Bool
}

// GenerateIdentityKeyPair creates a fresh identity key pair.
func GenerateIdentityKeyPair() (*IdentityKeyPair, error) {
	const op = "GenerateIdentityKeyPair"
	priv, err := GeneratePrivateKey()
	if err != nil {
		return nil, wrap(op, err)
	}
	pub, err := priv.PublicKey()
	if err != nil {
		priv.Destroy()
		return nil, wrap(op, err)
	}
	return &IdentityKeyPair{privateKey: priv, publicKey: pub}, nil
}

// NewIdentityKeyPair assumes ownership of both halves. The caller must not
// destroy them afterwards.
func NewIdentityKeyPair(priv *PrivateKey, pub *PublicKey) (*IdentityKeyPair, error) {
	const op = "NewIdentityKeyPair"
	if priv == nil || pub == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	return &IdentityKeyPair{privateKey: priv, publicKey: pub}, nil
}

// PrivateKey returns the private half, still owned by the pair.
func (kp *IdentityKeyPair) PrivateKey() (*PrivateKey, error) {
	const op = "IdentityKeyPair.PrivateKey"
	if kp == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	if kp.disposed.Load() {
		return nil, wrap(op, ErrDisposed)
	}
	return kp.privateKey, nil
}

// PublicKey returns the public half, still owned by the pair.
func (kp *IdentityKeyPair) PublicKey() (*PublicKey, error) {
	const op = "IdentityKeyPair.PublicKey"
	if kp == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	if kp.disposed.Load() {
		return nil, wrap(op, ErrDisposed)
	}
	return kp.publicKey, nil
}

// Destroy disposes both halves. Concurrent or repeated calls dispose each
// half exactly once; once any call has started, accessors report the pair
// disposed.
func (kp *IdentityKeyPair) Destroy() {
	if kp == nil || !kp.disposed.CompareAndSwap(false, true) {
		return
	}
	kp.privateKey.Destroy()
	kp.publicKey.Destroy()
}

// Disposed reports whether Destroy has been called.
func (kp *IdentityKeyPair) Disposed() bool {
	return kp != nil && kp.disposed.Load()
}

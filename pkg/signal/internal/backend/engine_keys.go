//go:build !signalffi || !cgo

package backend

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"

	"filippo.io/edwards25519"
	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber1024"
	"golang.org/x/crypto/curve25519"
)

// Fallback engine key material. One 32-byte seed serves both roles the
// protocol needs from an identity: Ed25519 signing and X25519 agreement,
// bridged through the Edwards-to-Montgomery map. Public keys are stored in
// their Edwards encoding and serialized with the DJB type byte.

const (
	keyTypeDJB       = 0x05
	keyTypeKyber1024 = 0x08
)

type publicKeyObj struct {
	ed [32]byte
}

type privateKeyObj struct {
	seed [32]byte
}

type kyberPublicKeyObj struct {
	pk kem.PublicKey
}

type kyberKeyPairObj struct {
	pk kem.PublicKey
	sk kem.PrivateKey
}

// Handle aliases. These are what pkg/signal's resource handles own; the cgo
// build aliases the corresponding C pointer types instead.
type (
	PublicKey      = *publicKeyObj
	PrivateKey     = *privateKeyObj
	KyberPublicKey = *kyberPublicKeyObj
	KyberKeyPair   = *kyberKeyPairObj
)

func kyberScheme() kem.Scheme { return kyber1024.Scheme() }

// GeneratePrivateKey creates a fresh identity-grade private key.
func GeneratePrivateKey() (PrivateKey, error) {
	k := &privateKeyObj{}
	if _, err := rand.Read(k.seed[:]); err != nil {
		return nil, engineErr(CodeInternalError, "entropy: %v", err)
	}
	return k, nil
}

// PrivateKeyDeserialize wraps a raw 32-byte private key.
func PrivateKeyDeserialize(data []byte) (PrivateKey, error) {
	if len(data) != 32 {
		return nil, engineErr(CodeInvalidKey, "private key must be 32 bytes, got %d", len(data))
	}
	k := &privateKeyObj{}
	copy(k.seed[:], data)
	return k, nil
}

// PrivateKeySerialize returns the raw 32 key bytes. The caller owns the
// returned slice and is responsible for zeroizing it.
func PrivateKeySerialize(k PrivateKey) ([]byte, error) {
	if k == nil {
		return nil, engineErr(CodeNullParameter, "nil private key")
	}
	return bytes.Clone(k.seed[:]), nil
}

// PrivateKeyGetPublicKey derives the public half.
func PrivateKeyGetPublicKey(k PrivateKey) (PublicKey, error) {
	if k == nil {
		return nil, engineErr(CodeNullParameter, "nil private key")
	}
	pub := ed25519.NewKeyFromSeed(k.seed[:]).Public().(ed25519.PublicKey)
	p := &publicKeyObj{}
	copy(p.ed[:], pub)
	return p, nil
}

// PrivateKeySign produces a 64-byte signature over message.
func PrivateKeySign(k PrivateKey, message []byte) ([]byte, error) {
	if k == nil {
		return nil, engineErr(CodeNullParameter, "nil private key")
	}
	return ed25519.Sign(ed25519.NewKeyFromSeed(k.seed[:]), message), nil
}

// PrivateKeyAgree computes the 32-byte X25519 shared secret between k and
// peer, bridging the peer's Edwards encoding to its Montgomery u-coordinate.
func PrivateKeyAgree(k PrivateKey, peer PublicKey) ([]byte, error) {
	if k == nil || peer == nil {
		return nil, engineErr(CodeNullParameter, "nil key in agreement")
	}
	point, err := new(edwards25519.Point).SetBytes(peer.ed[:])
	if err != nil {
		return nil, engineErr(CodeInvalidKey, "peer key is not a valid point")
	}
	scalar := montgomeryScalar(k.seed)
	defer wipe(scalar)
	shared, err := curve25519.X25519(scalar, point.BytesMontgomery())
	if err != nil {
		return nil, engineErr(CodeInvalidKey, "agreement produced a degenerate secret")
	}
	return shared, nil
}

// PrivateKeyFree releases the key, wiping the seed first.
func PrivateKeyFree(k PrivateKey) {
	if k != nil {
		wipe(k.seed[:])
	}
}

// montgomeryScalar derives the clamped X25519 scalar from an Ed25519 seed,
// matching the scalar ed25519 itself uses, so signing and agreement share
// one identity.
func montgomeryScalar(seed [32]byte) []byte {
	h := sha512.Sum512(seed[:])
	s := bytes.Clone(h[:32])
	s[0] &= 248
	s[31] &= 127
	s[31] |= 64
	wipe(h[:])
	return s
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// PublicKeyDeserialize parses a DJB-typed serialized public key. Structural
// validation (length, type byte, low-order blocklist) happens above this
// layer; the checks here only guard the engine's own invariants.
func PublicKeyDeserialize(data []byte) (PublicKey, error) {
	if len(data) != 33 || data[0] != keyTypeDJB {
		return nil, engineErr(CodeInvalidKey, "bad public key encoding")
	}
	p := &publicKeyObj{}
	copy(p.ed[:], data[1:])
	if _, err := new(edwards25519.Point).SetBytes(p.ed[:]); err != nil {
		return nil, engineErr(CodeInvalidKey, "public key is not a valid point")
	}
	return p, nil
}

// PublicKeySerialize returns the type byte plus the 32 key bytes.
func PublicKeySerialize(p PublicKey) ([]byte, error) {
	if p == nil {
		return nil, engineErr(CodeNullParameter, "nil public key")
	}
	out := make([]byte, 33)
	out[0] = keyTypeDJB
	copy(out[1:], p.ed[:])
	return out, nil
}

// PublicKeyVerify checks a PrivateKeySign signature. A well-formed but
// non-matching signature is (false, nil); errors are reserved for malformed
// inputs.
func PublicKeyVerify(p PublicKey, message, signature []byte) (bool, error) {
	if p == nil {
		return false, engineErr(CodeNullParameter, "nil public key")
	}
	if len(signature) != ed25519.SignatureSize {
		return false, engineErr(CodeInvalidSignature, "signature must be %d bytes, got %d",
			ed25519.SignatureSize, len(signature))
	}
	return ed25519.Verify(ed25519.PublicKey(p.ed[:]), message, signature), nil
}

// PublicKeyCompare orders two keys by their serialized bytes.
func PublicKeyCompare(a, b PublicKey) (int, error) {
	if a == nil || b == nil {
		return 0, engineErr(CodeNullParameter, "nil public key in comparison")
	}
	return bytes.Compare(a.ed[:], b.ed[:]), nil
}

// PublicKeyClone returns an independent copy with its own lifecycle.
func PublicKeyClone(p PublicKey) (PublicKey, error) {
	if p == nil {
		return nil, engineErr(CodeNullParameter, "nil public key")
	}
	c := &publicKeyObj{ed: p.ed}
	return c, nil
}

// PublicKeyFree releases the key.
func PublicKeyFree(p PublicKey) {
	if p != nil {
		wipe(p.ed[:])
	}
}

// KyberKeyPairGenerate creates a fresh Kyber-1024 key pair.
func KyberKeyPairGenerate() (KyberKeyPair, error) {
	pk, sk, err := kyberScheme().GenerateKeyPair()
	if err != nil {
		return nil, engineErr(CodeInternalError, "kyber keygen: %v", err)
	}
	return &kyberKeyPairObj{pk: pk, sk: sk}, nil
}

// KyberKeyPairGetPublicKey extracts the public half as its own resource.
func KyberKeyPairGetPublicKey(kp KyberKeyPair) (KyberPublicKey, error) {
	if kp == nil {
		return nil, engineErr(CodeNullParameter, "nil kyber key pair")
	}
	return &kyberPublicKeyObj{pk: kp.pk}, nil
}

// KyberKeyPairFree releases the pair.
func KyberKeyPairFree(kp KyberKeyPair) {
	if kp != nil {
		kp.pk, kp.sk = nil, nil
	}
}

// KyberPublicKeySerialize returns the type byte plus the encapsulation key.
func KyberPublicKeySerialize(p KyberPublicKey) ([]byte, error) {
	if p == nil {
		return nil, engineErr(CodeNullParameter, "nil kyber public key")
	}
	raw, err := p.pk.MarshalBinary()
	if err != nil {
		return nil, engineErr(CodeInternalError, "kyber public key marshal: %v", err)
	}
	return append([]byte{keyTypeKyber1024}, raw...), nil
}

// KyberPublicKeyDeserialize parses a typed serialized Kyber public key.
func KyberPublicKeyDeserialize(data []byte) (KyberPublicKey, error) {
	if len(data) != kyberScheme().PublicKeySize()+1 || data[0] != keyTypeKyber1024 {
		return nil, engineErr(CodeInvalidKey, "bad kyber public key encoding")
	}
	pk, err := kyberScheme().UnmarshalBinaryPublicKey(data[1:])
	if err != nil {
		return nil, engineErr(CodeInvalidKey, "kyber public key unmarshal: %v", err)
	}
	return &kyberPublicKeyObj{pk: pk}, nil
}

// KyberPublicKeyFree releases the key.
func KyberPublicKeyFree(p KyberPublicKey) {
	if p != nil {
		p.pk = nil
	}
}

package signal

import (
	"context"

	"github.com/google/uuid"
)

// Direction distinguishes the trust decision for outbound and inbound
// traffic. Stores may apply different policies per direction.
type Direction int

const (
	DirectionSending Direction = iota
	DirectionReceiving
)

// SessionStore persists pairwise session records.
//
// Loaded records are independent resources: the caller owns them and must
// destroy them. LoadSession returns (nil, nil) when no session exists for
// the address.
type SessionStore interface {
	LoadSession(ctx context.Context, address ProtocolAddress) (*SessionRecord, error)
	StoreSession(ctx context.Context, address ProtocolAddress, record *SessionRecord) error
}

// IdentityKeyStore persists the local identity and the remote identities
// this client has seen.
type IdentityKeyStore interface {
	// GetIdentityKeyPair returns the local identity. The store retains
	// ownership of the pair.
	GetIdentityKeyPair(ctx context.Context) (*IdentityKeyPair, error)

	// GetLocalRegistrationID returns the local registration id.
	GetLocalRegistrationID(ctx context.Context) (uint32, error)

	// SaveIdentity records identity as the current key for address and
	// reports whether it replaced a different previously stored key.
	SaveIdentity(ctx context.Context, address ProtocolAddress, identity *PublicKey) (bool, error)

	// IsTrustedIdentity reports whether identity may be used for address in
	// the given direction. A first-seen identity is trusted.
	IsTrustedIdentity(ctx context.Context, address ProtocolAddress, identity *PublicKey, direction Direction) (bool, error)

	// GetIdentity returns the stored identity for address, or (nil, nil)
	// when none is stored. The caller owns the returned key.
	GetIdentity(ctx context.Context, address ProtocolAddress) (*PublicKey, error)
}

// PreKeyStore persists one-time pre-key records, keyed by id.
type PreKeyStore interface {
	// LoadPreKey returns the record for id. A missing id is an error.
	LoadPreKey(ctx context.Context, id uint32) (*PreKeyRecord, error)
	StorePreKey(ctx context.Context, id uint32, record *PreKeyRecord) error
	// RemovePreKey deletes the record for id after it has been consumed.
	RemovePreKey(ctx context.Context, id uint32) error
}

// SignedPreKeyStore persists signed pre-key records, keyed by id.
type SignedPreKeyStore interface {
	LoadSignedPreKey(ctx context.Context, id uint32) (*SignedPreKeyRecord, error)
	StoreSignedPreKey(ctx context.Context, id uint32, record *SignedPreKeyRecord) error
}

// KyberPreKeyStore persists Kyber pre-key records, keyed by id. Used
// records are marked rather than removed, so delayed messages can still be
// decrypted.
type KyberPreKeyStore interface {
	LoadKyberPreKey(ctx context.Context, id uint32) (*KyberPreKeyRecord, error)
	StoreKyberPreKey(ctx context.Context, id uint32, record *KyberPreKeyRecord) error
	MarkKyberPreKeyUsed(ctx context.Context, id uint32) error
}

// SenderKeyStore persists group sender-key records, keyed by the sending
// device and the group's distribution id. LoadSenderKey returns (nil, nil)
// when no record exists.
type SenderKeyStore interface {
	LoadSenderKey(ctx context.Context, sender ProtocolAddress, distributionID uuid.UUID) (*SenderKeyRecord, error)
	StoreSenderKey(ctx context.Context, sender ProtocolAddress, distributionID uuid.UUID, record *SenderKeyRecord) error
}

// ProtocolStore aggregates every store a session cipher needs.
type ProtocolStore interface {
	SessionStore
	IdentityKeyStore
	PreKeyStore
	SignedPreKeyStore
	KyberPreKeyStore
	SenderKeyStore
}

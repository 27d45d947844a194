package signal

import (
	"context"
	"runtime"

	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
)

// PreKeyBundle is the public key material one party publishes so others can
// establish sessions with it offline. Optional fields are nil when the
// bundle carries no one-time or Kyber pre-key.
//
// The bundle borrows its key handles; the caller keeps ownership.
type PreKeyBundle struct {
	RegistrationID        uint32
	DeviceID              uint32
	PreKeyID              *uint32
	PreKey                *PublicKey // optional
	SignedPreKeyID        uint32
	SignedPreKey          *PublicKey
	SignedPreKeySignature []byte
	KyberPreKeyID         *uint32
	KyberPreKey           *KyberPublicKey // optional
	KyberPreKeySignature  []byte
	IdentityKey           *PublicKey
}

// ProcessPreKeyBundle verifies the bundle's signatures against its identity
// key, checks the identity against the store's trust policy, establishes
// the initiator half of a session with remote, and persists it.
//
// The signed pre-key signature is always verified; the Kyber pre-key
// signature is verified when a Kyber pre-key is present. A bundle whose
// signatures do not verify establishes nothing.
func ProcessPreKeyBundle(ctx context.Context, bundle *PreKeyBundle, remote ProtocolAddress,
	sessionStore SessionStore, identityStore IdentityKeyStore) error {
	const op = "ProcessPreKeyBundle"
	if bundle == nil || bundle.IdentityKey == nil || bundle.SignedPreKey == nil {
		return wrap(op, ErrNullHandle)
	}

	trusted, err := identityStore.IsTrustedIdentity(ctx, remote, bundle.IdentityKey, DirectionSending)
	if err != nil {
		return wrap(op, err)
	}
	if !trusted {
		return wrap(op, ErrUntrustedIdentity)
	}

	signedSerialized, err := bundle.SignedPreKey.Serialize()
	if err != nil {
		return wrap(op, err)
	}
	ok, err := bundle.IdentityKey.Verify(signedSerialized, bundle.SignedPreKeySignature)
	if err != nil {
		return wrap(op, err)
	}
	if !ok {
		return errorf(op, KindCrypto, "signed pre-key signature verification failed")
	}

	if bundle.KyberPreKey != nil {
		kyberSerialized, err := bundle.KyberPreKey.Serialize()
		if err != nil {
			return wrap(op, err)
		}
		ok, err := bundle.IdentityKey.Verify(kyberSerialized, bundle.KyberPreKeySignature)
		if err != nil {
			return wrap(op, err)
		}
		if !ok {
			return errorf(op, KindCrypto, "kyber pre-key signature verification failed")
		}
	}

	identity, err := identityStore.GetIdentityKeyPair(ctx)
	if err != nil {
		return wrap(op, err)
	}
	ourPriv, err := identity.PrivateKey()
	if err != nil {
		return wrap(op, err)
	}
	registrationID, err := identityStore.GetLocalRegistrationID(ctx)
	if err != nil {
		return wrap(op, err)
	}

	params := &backend.InitiateParams{
		OurRegistrationID:   registrationID,
		PreKeyID:            bundle.PreKeyID,
		SignedPreKeyID:      bundle.SignedPreKeyID,
		KyberPreKeyID:       bundle.KyberPreKeyID,
		TheirRegistrationID: bundle.RegistrationID,
	}
	if params.OurIdentity, err = ourPriv.h.Use(); err != nil {
		return wrap(op, err)
	}
	if params.TheirIdentity, err = bundle.IdentityKey.h.Use(); err != nil {
		return wrap(op, err)
	}
	if params.TheirSignedPreKey, err = bundle.SignedPreKey.h.Use(); err != nil {
		return wrap(op, err)
	}
	if bundle.PreKey != nil {
		if params.TheirOneTimePreKey, err = bundle.PreKey.h.Use(); err != nil {
			return wrap(op, err)
		}
	}
	if bundle.KyberPreKey != nil {
		if params.TheirKyberPreKey, err = bundle.KyberPreKey.h.Use(); err != nil {
			return wrap(op, err)
		}
	}

	session, err := backend.SessionInitiate(params)
	runtime.KeepAlive(ourPriv.h)
	runtime.KeepAlive(bundle.IdentityKey.h)
	runtime.KeepAlive(bundle.SignedPreKey.h)
	if err != nil {
		return wrap(op, err)
	}
	record := newSessionRecord(session)
	defer record.Destroy()

	if _, err := identityStore.SaveIdentity(ctx, remote, bundle.IdentityKey); err != nil {
		return wrap(op, err)
	}
	return wrap(op, sessionStore.StoreSession(ctx, remote, record))
}

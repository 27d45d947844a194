package signal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testParty is one side of a conversation: an identity, a store, and the
// published pre-key material other parties use to reach it.
type testParty struct {
	address ProtocolAddress
	store   *InMemoryStore

	preKeyID       uint32
	signedPreKeyID uint32
	kyberPreKeyID  uint32
}

func newTestParty(t *testing.T, name string, registrationID uint32) *testParty {
	t.Helper()
	identity, err := GenerateIdentityKeyPair()
	require.NoError(t, err)
	store, err := NewInMemoryStore(identity, registrationID)
	require.NoError(t, err)
	address, err := NewProtocolAddress(name, 1)
	require.NoError(t, err)
	return &testParty{address: address, store: store}
}

// publishPreKeys provisions one of each pre-key kind and returns the bundle
// another party would fetch from a server.
func (p *testParty) publishPreKeys(t *testing.T, ctx context.Context) *PreKeyBundle {
	t.Helper()
	identity, err := p.store.GetIdentityKeyPair(ctx)
	require.NoError(t, err)
	identityPriv, err := identity.PrivateKey()
	require.NoError(t, err)
	identityPub, err := identity.PublicKey()
	require.NoError(t, err)

	now := uint64(time.Now().UnixMilli())

	p.preKeyID = 1001
	preKeyPriv, err := GeneratePrivateKey()
	require.NoError(t, err)
	t.Cleanup(preKeyPriv.Destroy)
	preKeyPub, err := preKeyPriv.PublicKey()
	require.NoError(t, err)
	t.Cleanup(preKeyPub.Destroy)
	preKeyRecord, err := NewPreKeyRecord(p.preKeyID, preKeyPub, preKeyPriv)
	require.NoError(t, err)
	t.Cleanup(preKeyRecord.Destroy)
	require.NoError(t, p.store.StorePreKey(ctx, p.preKeyID, preKeyRecord))

	p.signedPreKeyID = 2001
	signedPriv, err := GeneratePrivateKey()
	require.NoError(t, err)
	t.Cleanup(signedPriv.Destroy)
	signedPub, err := signedPriv.PublicKey()
	require.NoError(t, err)
	t.Cleanup(signedPub.Destroy)
	signedSerialized, err := signedPub.Serialize()
	require.NoError(t, err)
	signedSignature, err := identityPriv.Sign(signedSerialized)
	require.NoError(t, err)
	signedRecord, err := NewSignedPreKeyRecord(p.signedPreKeyID, now, signedPub, signedPriv, signedSignature)
	require.NoError(t, err)
	t.Cleanup(signedRecord.Destroy)
	require.NoError(t, p.store.StoreSignedPreKey(ctx, p.signedPreKeyID, signedRecord))

	p.kyberPreKeyID = 3001
	kyberPair, err := GenerateKyberKeyPair()
	require.NoError(t, err)
	t.Cleanup(kyberPair.Destroy)
	kyberPub, err := kyberPair.PublicKey()
	require.NoError(t, err)
	t.Cleanup(kyberPub.Destroy)
	kyberSerialized, err := kyberPub.Serialize()
	require.NoError(t, err)
	kyberSignature, err := identityPriv.Sign(kyberSerialized)
	require.NoError(t, err)
	kyberRecord, err := NewKyberPreKeyRecord(p.kyberPreKeyID, now, kyberPair, kyberSignature)
	require.NoError(t, err)
	t.Cleanup(kyberRecord.Destroy)
	require.NoError(t, p.store.StoreKyberPreKey(ctx, p.kyberPreKeyID, kyberRecord))

	registrationID, err := p.store.GetLocalRegistrationID(ctx)
	require.NoError(t, err)

	preKeyID := p.preKeyID
	kyberPreKeyID := p.kyberPreKeyID
	return &PreKeyBundle{
		RegistrationID:        registrationID,
		DeviceID:              p.address.DeviceID(),
		PreKeyID:              &preKeyID,
		PreKey:                preKeyPub,
		SignedPreKeyID:        p.signedPreKeyID,
		SignedPreKey:          signedPub,
		SignedPreKeySignature: signedSignature,
		KyberPreKeyID:         &kyberPreKeyID,
		KyberPreKey:           kyberPub,
		KyberPreKeySignature:  kyberSignature,
		IdentityKey:           identityPub,
	}
}

func TestSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)
	bob := newTestParty(t, "bob", 20)

	bundle := bob.publishPreKeys(t, ctx)
	require.NoError(t, ProcessPreKeyBundle(ctx, bundle, bob.address, alice.store, alice.store))

	aliceCipher := NewSessionCipher(alice.store, bob.address, nil)
	bobCipher := NewSessionCipher(bob.store, alice.address, nil)

	// Until Bob replies, Alice keeps sending pre-key messages.
	first, msgType, err := aliceCipher.Encrypt(ctx, []byte("hello bob"))
	require.NoError(t, err)
	require.Equal(t, MessageTypePreKey, msgType)

	second, msgType, err := aliceCipher.Encrypt(ctx, []byte("are you there?"))
	require.NoError(t, err)
	require.Equal(t, MessageTypePreKey, msgType)

	plaintext, err := bobCipher.DecryptRaw(ctx, first)
	require.NoError(t, err)
	require.Equal(t, []byte("hello bob"), plaintext)

	plaintext, err = bobCipher.DecryptRaw(ctx, second)
	require.NoError(t, err)
	require.Equal(t, []byte("are you there?"), plaintext)

	// The consumed one-time pre-key is gone; the Kyber pre-key is marked.
	_, err = bob.store.LoadPreKey(ctx, bob.preKeyID)
	require.Error(t, err)
	require.True(t, bob.store.KyberPreKeyUsed(bob.kyberPreKeyID))

	// Bob replies with a whisper message.
	reply, msgType, err := bobCipher.Encrypt(ctx, []byte("here"))
	require.NoError(t, err)
	require.Equal(t, MessageTypeWhisper, msgType)

	plaintext, err = aliceCipher.DecryptRaw(ctx, reply)
	require.NoError(t, err)
	require.Equal(t, []byte("here"), plaintext)

	// Once confirmed, Alice's messages drop the pre-key framing.
	third, msgType, err := aliceCipher.Encrypt(ctx, []byte("good"))
	require.NoError(t, err)
	require.Equal(t, MessageTypeWhisper, msgType)

	plaintext, err = bobCipher.DecryptRaw(ctx, third)
	require.NoError(t, err)
	require.Equal(t, []byte("good"), plaintext)
}

func TestSessionWithoutOptionalPreKeys(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)
	bob := newTestParty(t, "bob", 20)

	bundle := bob.publishPreKeys(t, ctx)
	bundle.PreKeyID = nil
	bundle.PreKey = nil
	bundle.KyberPreKeyID = nil
	bundle.KyberPreKey = nil
	bundle.KyberPreKeySignature = nil
	require.NoError(t, ProcessPreKeyBundle(ctx, bundle, bob.address, alice.store, alice.store))

	aliceCipher := NewSessionCipher(alice.store, bob.address, nil)
	bobCipher := NewSessionCipher(bob.store, alice.address, nil)

	ciphertext, msgType, err := aliceCipher.Encrypt(ctx, []byte("minimal bundle"))
	require.NoError(t, err)
	require.Equal(t, MessageTypePreKey, msgType)

	plaintext, err := bobCipher.DecryptRaw(ctx, ciphertext)
	require.NoError(t, err)
	require.Equal(t, []byte("minimal bundle"), plaintext)
}

func TestProcessPreKeyBundleRejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)
	bob := newTestParty(t, "bob", 20)

	bundle := bob.publishPreKeys(t, ctx)
	bundle.SignedPreKeySignature[0] ^= 0x01

	err := ProcessPreKeyBundle(ctx, bundle, bob.address, alice.store, alice.store)
	require.Error(t, err)
	require.Equal(t, KindCrypto, kindOf(t, err))

	// No session was established.
	record, err := alice.store.LoadSession(ctx, bob.address)
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestEncryptWithoutSession(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)
	bob := newTestParty(t, "bob", 20)

	cipher := NewSessionCipher(alice.store, bob.address, nil)
	_, _, err := cipher.Encrypt(ctx, []byte("x"))
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDuplicateMessageRejected(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)
	bob := newTestParty(t, "bob", 20)

	bundle := bob.publishPreKeys(t, ctx)
	require.NoError(t, ProcessPreKeyBundle(ctx, bundle, bob.address, alice.store, alice.store))

	aliceCipher := NewSessionCipher(alice.store, bob.address, nil)
	bobCipher := NewSessionCipher(bob.store, alice.address, nil)

	ciphertext, _, err := aliceCipher.Encrypt(ctx, []byte("once"))
	require.NoError(t, err)

	_, err = bobCipher.DecryptRaw(ctx, ciphertext)
	require.NoError(t, err)

	// Replaying the same ciphertext must fail.
	_, err = bobCipher.DecryptRaw(ctx, ciphertext)
	require.Error(t, err)
}

func TestTamperedCiphertextRejected(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)
	bob := newTestParty(t, "bob", 20)

	bundle := bob.publishPreKeys(t, ctx)
	require.NoError(t, ProcessPreKeyBundle(ctx, bundle, bob.address, alice.store, alice.store))

	aliceCipher := NewSessionCipher(alice.store, bob.address, nil)
	bobCipher := NewSessionCipher(bob.store, alice.address, nil)

	ciphertext, _, err := aliceCipher.Encrypt(ctx, []byte("integrity"))
	require.NoError(t, err)

	ciphertext[len(ciphertext)-1] ^= 0x01
	_, err = bobCipher.DecryptRaw(ctx, ciphertext)
	require.Error(t, err)
}

func TestSessionRecordRoundTripAndClone(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)
	bob := newTestParty(t, "bob", 20)

	bundle := bob.publishPreKeys(t, ctx)
	require.NoError(t, ProcessPreKeyBundle(ctx, bundle, bob.address, alice.store, alice.store))

	record, err := alice.store.LoadSession(ctx, bob.address)
	require.NoError(t, err)
	require.NotNil(t, record)
	defer record.Destroy()

	version, err := record.Version()
	require.NoError(t, err)
	require.Equal(t, uint32(3), version)

	registrationID, err := record.RemoteRegistrationID()
	require.NoError(t, err)
	require.Equal(t, uint32(20), registrationID)

	pending, err := record.HasPendingPreKey()
	require.NoError(t, err)
	require.True(t, pending)

	remoteIdentity, err := record.RemoteIdentityKey()
	require.NoError(t, err)
	defer remoteIdentity.Destroy()
	equal, err := remoteIdentity.Equals(bundle.IdentityKey)
	require.NoError(t, err)
	require.True(t, equal)

	data, err := record.Serialize()
	require.NoError(t, err)
	restored, err := DeserializeSessionRecord(data)
	require.NoError(t, err)
	defer restored.Destroy()

	again, err := restored.Serialize()
	require.NoError(t, err)
	require.Equal(t, data, again)

	// A clone survives destruction of its source.
	clone, err := record.Clone()
	require.NoError(t, err)
	defer clone.Destroy()
	record.Destroy()
	_, err = record.Serialize()
	require.ErrorIs(t, err, ErrDisposed)
	cloneData, err := clone.Serialize()
	require.NoError(t, err)
	require.Equal(t, data, cloneData)
}

func TestUntrustedIdentityRejected(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)
	bob := newTestParty(t, "bob", 20)

	// Alice already trusts a different identity for Bob's address.
	other, err := GenerateIdentityKeyPair()
	require.NoError(t, err)
	defer other.Destroy()
	otherPub, err := other.PublicKey()
	require.NoError(t, err)
	_, err = alice.store.SaveIdentity(ctx, bob.address, otherPub)
	require.NoError(t, err)

	bundle := bob.publishPreKeys(t, ctx)
	err = ProcessPreKeyBundle(ctx, bundle, bob.address, alice.store, alice.store)
	require.ErrorIs(t, err, ErrUntrustedIdentity)
}

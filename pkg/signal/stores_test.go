package signal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProtocolAddress(t *testing.T) {
	addr, err := NewProtocolAddress("alice", 2)
	require.NoError(t, err)
	require.Equal(t, "alice", addr.Name())
	require.Equal(t, uint32(2), addr.DeviceID())
	require.Equal(t, "alice.2", addr.String())

	_, err = NewProtocolAddress("", 1)
	require.Error(t, err)
	require.Equal(t, KindInvalidArgument, kindOf(t, err))
}

func TestInMemoryStoreIdentity(t *testing.T) {
	ctx := context.Background()
	party := newTestParty(t, "local", 5)
	remote, err := NewProtocolAddress("remote", 1)
	require.NoError(t, err)

	registrationID, err := party.store.GetLocalRegistrationID(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(5), registrationID)

	// Unknown identity: trusted on first use, nothing stored yet.
	first := mustGenerateKey(t)
	firstPub, err := first.PublicKey()
	require.NoError(t, err)
	defer firstPub.Destroy()

	trusted, err := party.store.IsTrustedIdentity(ctx, remote, firstPub, DirectionSending)
	require.NoError(t, err)
	require.True(t, trusted)

	got, err := party.store.GetIdentity(ctx, remote)
	require.NoError(t, err)
	require.Nil(t, got)

	// First save is not a replacement.
	replaced, err := party.store.SaveIdentity(ctx, remote, firstPub)
	require.NoError(t, err)
	require.False(t, replaced)

	// Saving the same key again is not a replacement either.
	replaced, err = party.store.SaveIdentity(ctx, remote, firstPub)
	require.NoError(t, err)
	require.False(t, replaced)

	got, err = party.store.GetIdentity(ctx, remote)
	require.NoError(t, err)
	require.NotNil(t, got)
	defer got.Destroy()
	equal, err := got.Equals(firstPub)
	require.NoError(t, err)
	require.True(t, equal)

	// A different key is untrusted until explicitly saved.
	second := mustGenerateKey(t)
	secondPub, err := second.PublicKey()
	require.NoError(t, err)
	defer secondPub.Destroy()

	trusted, err = party.store.IsTrustedIdentity(ctx, remote, secondPub, DirectionReceiving)
	require.NoError(t, err)
	require.False(t, trusted)

	replaced, err = party.store.SaveIdentity(ctx, remote, secondPub)
	require.NoError(t, err)
	require.True(t, replaced)

	trusted, err = party.store.IsTrustedIdentity(ctx, remote, secondPub, DirectionReceiving)
	require.NoError(t, err)
	require.True(t, trusted)
}

func TestInMemoryStorePreKeys(t *testing.T) {
	ctx := context.Background()
	party := newTestParty(t, "local", 5)

	_, err := party.store.LoadPreKey(ctx, 99)
	require.Error(t, err)

	priv := mustGenerateKey(t)
	pub, err := priv.PublicKey()
	require.NoError(t, err)
	defer pub.Destroy()
	record, err := NewPreKeyRecord(99, pub, priv)
	require.NoError(t, err)
	defer record.Destroy()

	require.NoError(t, party.store.StorePreKey(ctx, 99, record))

	// Loads return independent resources.
	loadedA, err := party.store.LoadPreKey(ctx, 99)
	require.NoError(t, err)
	loadedB, err := party.store.LoadPreKey(ctx, 99)
	require.NoError(t, err)
	defer loadedB.Destroy()

	loadedA.Destroy()
	_, err = loadedB.ID()
	require.NoError(t, err)

	require.NoError(t, party.store.RemovePreKey(ctx, 99))
	_, err = party.store.LoadPreKey(ctx, 99)
	require.Error(t, err)
}

func TestInMemoryStoreSessionsAbsent(t *testing.T) {
	ctx := context.Background()
	party := newTestParty(t, "local", 5)
	remote, err := NewProtocolAddress("remote", 1)
	require.NoError(t, err)

	// Absent sessions are (nil, nil), not an error.
	record, err := party.store.LoadSession(ctx, remote)
	require.NoError(t, err)
	require.Nil(t, record)
}

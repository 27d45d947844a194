package signal

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGroupMessagingEndToEnd(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)
	bob := newTestParty(t, "bob", 20)
	carol := newTestParty(t, "carol", 30)

	distributionID := uuid.New()

	// Alice announces her sender chain and every member installs it.
	distribution, err := NewSenderKeyDistribution(ctx, alice.address, distributionID, alice.store)
	require.NoError(t, err)
	defer distribution.Destroy()

	wire, err := distribution.Serialize()
	require.NoError(t, err)

	for _, member := range []*testParty{bob, carol} {
		received, err := DeserializeSenderKeyDistributionMessage(wire)
		require.NoError(t, err)
		defer received.Destroy()

		gotID, err := received.DistributionID()
		require.NoError(t, err)
		require.Equal(t, distributionID, gotID)

		require.NoError(t, ProcessSenderKeyDistributionMessage(ctx, alice.address, received, member.store))
	}

	aliceGroup := NewGroupCipher(alice.store, alice.address, distributionID, nil)
	bobGroup := NewGroupCipher(bob.store, alice.address, distributionID, nil)
	carolGroup := NewGroupCipher(carol.store, alice.address, distributionID, nil)

	for i, msg := range [][]byte{[]byte("hello group"), []byte("second message"), []byte("third")} {
		ciphertext, err := aliceGroup.Encrypt(ctx, msg)
		require.NoError(t, err, "message %d", i)

		got, err := bobGroup.Decrypt(ctx, ciphertext)
		require.NoError(t, err, "message %d", i)
		require.Equal(t, msg, got)

		got, err = carolGroup.Decrypt(ctx, ciphertext)
		require.NoError(t, err, "message %d", i)
		require.Equal(t, msg, got)
	}
}

func TestGroupCipherRequiresDistribution(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)
	bob := newTestParty(t, "bob", 20)

	// Bob never processed Alice's distribution message.
	bobGroup := NewGroupCipher(bob.store, alice.address, uuid.New(), nil)
	_, err := bobGroup.Decrypt(ctx, make([]byte, 128))
	require.Error(t, err)
}

func TestGroupMessageTamperRejected(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)
	bob := newTestParty(t, "bob", 20)

	distributionID := uuid.New()
	distribution, err := NewSenderKeyDistribution(ctx, alice.address, distributionID, alice.store)
	require.NoError(t, err)
	defer distribution.Destroy()
	require.NoError(t, ProcessSenderKeyDistributionMessage(ctx, alice.address, distribution, bob.store))

	aliceGroup := NewGroupCipher(alice.store, alice.address, distributionID, nil)
	bobGroup := NewGroupCipher(bob.store, alice.address, distributionID, nil)

	ciphertext, err := aliceGroup.Encrypt(ctx, []byte("authentic"))
	require.NoError(t, err)

	// Flip a payload bit; the signature check must fail.
	tampered := append([]byte(nil), ciphertext...)
	tampered[30] ^= 0x01
	_, err = bobGroup.Decrypt(ctx, tampered)
	require.Error(t, err)

	// The untampered original still decrypts.
	got, err := bobGroup.Decrypt(ctx, ciphertext)
	require.NoError(t, err)
	require.Equal(t, []byte("authentic"), got)
}

func TestSenderKeyRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)

	distributionID := uuid.New()
	distribution, err := NewSenderKeyDistribution(ctx, alice.address, distributionID, alice.store)
	require.NoError(t, err)
	defer distribution.Destroy()

	record, err := alice.store.LoadSenderKey(ctx, alice.address, distributionID)
	require.NoError(t, err)
	require.NotNil(t, record)
	defer record.Destroy()

	data, err := record.Serialize()
	require.NoError(t, err)
	restored, err := DeserializeSenderKeyRecord(data)
	require.NoError(t, err)
	defer restored.Destroy()

	again, err := restored.Serialize()
	require.NoError(t, err)
	require.Equal(t, data, again)

	record.Destroy()
	_, err = record.Serialize()
	require.ErrorIs(t, err, ErrDisposed)
}

func TestSenderKeyMessageParsing(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)

	distributionID := uuid.New()
	distribution, err := NewSenderKeyDistribution(ctx, alice.address, distributionID, alice.store)
	require.NoError(t, err)
	defer distribution.Destroy()

	aliceGroup := NewGroupCipher(alice.store, alice.address, distributionID, nil)
	first, err := aliceGroup.Encrypt(ctx, []byte("a"))
	require.NoError(t, err)
	second, err := aliceGroup.Encrypt(ctx, []byte("b"))
	require.NoError(t, err)

	message, err := DeserializeSenderKeyMessage(second)
	require.NoError(t, err)
	defer message.Destroy()

	gotID, err := message.DistributionID()
	require.NoError(t, err)
	require.Equal(t, distributionID, gotID)

	iteration, err := message.Iteration()
	require.NoError(t, err)
	require.Equal(t, uint32(1), iteration)

	wire, err := message.Serialize()
	require.NoError(t, err)
	require.Equal(t, second, wire)

	firstParsed, err := DeserializeSenderKeyMessage(first)
	require.NoError(t, err)
	defer firstParsed.Destroy()
	iteration, err = firstParsed.Iteration()
	require.NoError(t, err)
	require.Equal(t, uint32(0), iteration)

	message.Destroy()
	_, err = message.DistributionID()
	require.ErrorIs(t, err, ErrDisposed)

	_, err = DeserializeSenderKeyMessage([]byte{0x01})
	require.Error(t, err)
	require.Equal(t, KindSerialization, kindOf(t, err))
}

func TestDistributionMessageGetters(t *testing.T) {
	ctx := context.Background()
	alice := newTestParty(t, "alice", 10)

	distributionID := uuid.New()
	distribution, err := NewSenderKeyDistribution(ctx, alice.address, distributionID, alice.store)
	require.NoError(t, err)
	defer distribution.Destroy()

	gotID, err := distribution.DistributionID()
	require.NoError(t, err)
	require.Equal(t, distributionID, gotID)

	iteration, err := distribution.Iteration()
	require.NoError(t, err)
	require.Equal(t, uint32(0), iteration)

	_, err = distribution.ChainID()
	require.NoError(t, err)

	distribution.Destroy()
	_, err = distribution.DistributionID()
	require.ErrorIs(t, err, ErrDisposed)
}

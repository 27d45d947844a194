package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPreKeyRecordRoundTrip(t *testing.T) {
	priv := mustGenerateKey(t)
	pub, err := priv.PublicKey()
	require.NoError(t, err)
	defer pub.Destroy()

	record, err := NewPreKeyRecord(7, pub, priv)
	require.NoError(t, err)
	defer record.Destroy()

	id, err := record.ID()
	require.NoError(t, err)
	require.Equal(t, uint32(7), id)

	data, err := record.Serialize()
	require.NoError(t, err)

	restored, err := DeserializePreKeyRecord(data)
	require.NoError(t, err)
	defer restored.Destroy()

	restoredID, err := restored.ID()
	require.NoError(t, err)
	require.Equal(t, uint32(7), restoredID)

	restoredPub, err := restored.PublicKey()
	require.NoError(t, err)
	defer restoredPub.Destroy()
	equal, err := restoredPub.Equals(pub)
	require.NoError(t, err)
	require.True(t, equal)
}

func TestSignedPreKeyRecordRoundTrip(t *testing.T) {
	identity := mustGenerateKey(t)
	priv := mustGenerateKey(t)
	pub, err := priv.PublicKey()
	require.NoError(t, err)
	defer pub.Destroy()

	serialized, err := pub.Serialize()
	require.NoError(t, err)
	signature, err := identity.Sign(serialized)
	require.NoError(t, err)

	now := uint64(time.Now().UnixMilli())
	record, err := NewSignedPreKeyRecord(11, now, pub, priv, signature)
	require.NoError(t, err)
	defer record.Destroy()

	data, err := record.Serialize()
	require.NoError(t, err)
	restored, err := DeserializeSignedPreKeyRecord(data)
	require.NoError(t, err)
	defer restored.Destroy()

	id, err := restored.ID()
	require.NoError(t, err)
	require.Equal(t, uint32(11), id)
	ts, err := restored.Timestamp()
	require.NoError(t, err)
	require.Equal(t, now, ts)
	sig, err := restored.Signature()
	require.NoError(t, err)
	require.Equal(t, signature, sig)

	// The restored signature still verifies against the identity key.
	identityPub, err := identity.PublicKey()
	require.NoError(t, err)
	defer identityPub.Destroy()
	ok, err := identityPub.Verify(serialized, sig)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestKyberPreKeyRecordRoundTrip(t *testing.T) {
	identity := mustGenerateKey(t)
	pair, err := GenerateKyberKeyPair()
	require.NoError(t, err)
	defer pair.Destroy()

	pub, err := pair.PublicKey()
	require.NoError(t, err)
	defer pub.Destroy()
	serialized, err := pub.Serialize()
	require.NoError(t, err)
	signature, err := identity.Sign(serialized)
	require.NoError(t, err)

	now := uint64(time.Now().UnixMilli())
	record, err := NewKyberPreKeyRecord(3, now, pair, signature)
	require.NoError(t, err)
	defer record.Destroy()

	data, err := record.Serialize()
	require.NoError(t, err)
	restored, err := DeserializeKyberPreKeyRecord(data)
	require.NoError(t, err)
	defer restored.Destroy()

	id, err := restored.ID()
	require.NoError(t, err)
	require.Equal(t, uint32(3), id)

	restoredPub, err := restored.PublicKey()
	require.NoError(t, err)
	defer restoredPub.Destroy()
	restoredSerialized, err := restoredPub.Serialize()
	require.NoError(t, err)
	require.Equal(t, serialized, restoredSerialized)
}

func TestRecordDisposal(t *testing.T) {
	priv := mustGenerateKey(t)
	pub, err := priv.PublicKey()
	require.NoError(t, err)
	defer pub.Destroy()

	record, err := NewPreKeyRecord(1, pub, priv)
	require.NoError(t, err)

	record.Destroy()
	record.Destroy()
	require.True(t, record.Disposed())

	_, err = record.ID()
	require.ErrorIs(t, err, ErrDisposed)
	_, err = record.Serialize()
	require.ErrorIs(t, err, ErrDisposed)
	_, err = record.PrivateKey()
	require.ErrorIs(t, err, ErrDisposed)
}

func TestDeserializeRecordRejectsGarbage(t *testing.T) {
	_, err := DeserializePreKeyRecord([]byte{0x01, 0x02})
	require.Error(t, err)
	require.Equal(t, KindSerialization, kindOf(t, err))

	_, err = DeserializeSignedPreKeyRecord(make([]byte, 4))
	require.Error(t, err)
	require.Equal(t, KindSerialization, kindOf(t, err))

	_, err = DeserializeKyberPreKeyRecord(make([]byte, 8))
	require.Error(t, err)
	require.Equal(t, KindSerialization, kindOf(t, err))
}

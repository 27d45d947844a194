package signal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustGenerateKey(t *testing.T) *PrivateKey {
	t.Helper()
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)
	t.Cleanup(priv.Destroy)
	return priv
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	priv := mustGenerateKey(t)

	buf, err := priv.Serialize()
	require.NoError(t, err)
	defer buf.Destroy()
	raw, err := buf.Bytes()
	require.NoError(t, err)
	require.Len(t, raw, 32)

	restored, err := DeserializePrivateKey(raw)
	require.NoError(t, err)
	defer restored.Destroy()

	pub1, err := priv.PublicKey()
	require.NoError(t, err)
	defer pub1.Destroy()
	pub2, err := restored.PublicKey()
	require.NoError(t, err)
	defer pub2.Destroy()

	equal, err := pub1.Equals(pub2)
	require.NoError(t, err)
	require.True(t, equal)
}

func TestPublicKeyRoundTrip(t *testing.T) {
	priv := mustGenerateKey(t)
	pub, err := priv.PublicKey()
	require.NoError(t, err)
	defer pub.Destroy()

	data, err := pub.Serialize()
	require.NoError(t, err)
	require.Len(t, data, 33)
	require.Equal(t, byte(0x05), data[0])

	restored, err := DeserializePublicKey(data)
	require.NoError(t, err)
	defer restored.Destroy()

	again, err := restored.Serialize()
	require.NoError(t, err)
	require.Equal(t, data, again)
}

func TestSignVerify(t *testing.T) {
	priv := mustGenerateKey(t)
	pub, err := priv.PublicKey()
	require.NoError(t, err)
	defer pub.Destroy()

	message := []byte("the quick brown fox")
	sig, err := priv.Sign(message)
	require.NoError(t, err)
	require.Len(t, sig, 64)

	ok, err := pub.Verify(message, sig)
	require.NoError(t, err)
	require.True(t, ok)

	// A single flipped bit must fail verification, without error.
	sig[10] ^= 0x01
	ok, err = pub.Verify(message, sig)
	require.NoError(t, err)
	require.False(t, ok)
	sig[10] ^= 0x01

	ok, err = pub.Verify([]byte("a different message"), sig)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAgreeSharedSecretMatches(t *testing.T) {
	alice := mustGenerateKey(t)
	bob := mustGenerateKey(t)

	alicePub, err := alice.PublicKey()
	require.NoError(t, err)
	defer alicePub.Destroy()
	bobPub, err := bob.PublicKey()
	require.NoError(t, err)
	defer bobPub.Destroy()

	ab, err := alice.Agree(bobPub)
	require.NoError(t, err)
	defer ab.Destroy()
	ba, err := bob.Agree(alicePub)
	require.NoError(t, err)
	defer ba.Destroy()

	abBytes, err := ab.Bytes()
	require.NoError(t, err)
	baBytes, err := ba.Bytes()
	require.NoError(t, err)
	require.Equal(t, abBytes, baBytes)
	require.Len(t, abBytes, 32)
}

func TestKeyDisposal(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)
	pub, err := priv.PublicKey()
	require.NoError(t, err)

	priv.Destroy()
	priv.Destroy() // idempotent
	require.True(t, priv.Disposed())

	_, err = priv.Sign([]byte("x"))
	require.ErrorIs(t, err, ErrDisposed)
	_, err = priv.Serialize()
	require.ErrorIs(t, err, ErrDisposed)

	pub.Destroy()
	require.True(t, pub.Disposed())
	_, err = pub.Serialize()
	require.ErrorIs(t, err, ErrDisposed)

	var nilKey *PrivateKey
	nilKey.Destroy() // must not panic
	_, err = nilKey.Sign([]byte("x"))
	require.ErrorIs(t, err, ErrNullHandle)
}

func TestIdentityKeyPairDisposesBothHalvesOnce(t *testing.T) {
	pair, err := GenerateIdentityKeyPair()
	require.NoError(t, err)

	priv, err := pair.PrivateKey()
	require.NoError(t, err)
	pub, err := pair.PublicKey()
	require.NoError(t, err)
	require.False(t, priv.Disposed())
	require.False(t, pub.Disposed())

	pair.Destroy()
	pair.Destroy() // idempotent
	require.True(t, pair.Disposed())
	require.True(t, priv.Disposed())
	require.True(t, pub.Disposed())

	_, err = pair.PrivateKey()
	require.ErrorIs(t, err, ErrDisposed)
	_, err = pair.PublicKey()
	require.ErrorIs(t, err, ErrDisposed)
}

func TestKyberKeyPairRoundTrip(t *testing.T) {
	pair, err := GenerateKyberKeyPair()
	require.NoError(t, err)
	defer pair.Destroy()

	pub, err := pair.PublicKey()
	require.NoError(t, err)
	defer pub.Destroy()

	data, err := pub.Serialize()
	require.NoError(t, err)
	require.Equal(t, byte(0x08), data[0])

	restored, err := DeserializeKyberPublicKey(data)
	require.NoError(t, err)
	defer restored.Destroy()

	again, err := restored.Serialize()
	require.NoError(t, err)
	require.Equal(t, data, again)

	pair.Destroy()
	_, err = pair.PublicKey()
	require.ErrorIs(t, err, ErrDisposed)
}

func TestDeserializeRejectsLowOrderPoints(t *testing.T) {
	// The all-zero point with a valid type byte.
	data := make([]byte, 33)
	data[0] = 0x05
	_, err := DeserializePublicKey(data)
	require.Error(t, err)
	require.Equal(t, KindSerialization, kindOf(t, err))

	// Order-one point.
	data[1] = 0x01
	_, err = DeserializePublicKey(data)
	require.Error(t, err)
	require.Equal(t, KindSerialization, kindOf(t, err))
}

//go:build !signalffi || !cgo

package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSenderKeyRecordSerializeDeterministic(t *testing.T) {
	record, err := SenderKeyRecordNew()
	require.NoError(t, err)
	defer SenderKeyRecordFree(record)

	// Several chains in one record, so encoding order matters.
	ids := [][16]byte{
		{0xff, 0x01}, {0x00, 0x02}, {0x7f, 0x03}, {0x10, 0x04},
	}
	for _, id := range ids {
		_, err := SenderKeyCreateDistribution(record, id)
		require.NoError(t, err)
	}

	first, err := SenderKeyRecordSerialize(record)
	require.NoError(t, err)
	for i := 0; i < 64; i++ {
		again, err := SenderKeyRecordSerialize(record)
		require.NoError(t, err)
		require.Equal(t, first, again, "iteration %d", i)
	}
}

func TestSenderKeyRecordMultiChainRoundTrip(t *testing.T) {
	record, err := SenderKeyRecordNew()
	require.NoError(t, err)
	defer SenderKeyRecordFree(record)

	sending := [16]byte{0xaa, 0x01}
	_, err = SenderKeyCreateDistribution(record, sending)
	require.NoError(t, err)

	// A received chain alongside the sending one.
	other, err := SenderKeyRecordNew()
	require.NoError(t, err)
	defer SenderKeyRecordFree(other)
	received := [16]byte{0x05, 0x02}
	wire, err := SenderKeyCreateDistribution(other, received)
	require.NoError(t, err)
	dist, err := SenderKeyDistributionMessageDeserialize(wire)
	require.NoError(t, err)
	defer SenderKeyDistributionMessageFree(dist)
	require.NoError(t, SenderKeyProcessDistribution(record, dist))

	data, err := SenderKeyRecordSerialize(record)
	require.NoError(t, err)
	restored, err := SenderKeyRecordDeserialize(data)
	require.NoError(t, err)
	defer SenderKeyRecordFree(restored)

	again, err := SenderKeyRecordSerialize(restored)
	require.NoError(t, err)
	require.Equal(t, data, again)

	// Both chains survive: the restored record can still send on its own
	// chain and decrypt on the received one.
	ciphertext, err := SenderKeyEncrypt(other, received, []byte("cross-chain"))
	require.NoError(t, err)
	plaintext, err := SenderKeyDecrypt(restored, received, ciphertext)
	require.NoError(t, err)
	require.Equal(t, []byte("cross-chain"), plaintext)

	_, err = SenderKeyEncrypt(restored, sending, []byte("still sending"))
	require.NoError(t, err)
}

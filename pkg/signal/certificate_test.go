package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type certChain struct {
	trustRoot    *PrivateKey
	trustRootPub *PublicKey
	serverKey    *PrivateKey
	server       *ServerCertificate
	senderKey    *PrivateKey
	sender       *SenderCertificate
	expiration   uint64
}

func issueCertChain(t *testing.T, senderE164 string) *certChain {
	t.Helper()
	c := &certChain{
		trustRoot: mustGenerateKey(t),
		serverKey: mustGenerateKey(t),
		senderKey: mustGenerateKey(t),
	}
	var err error
	c.trustRootPub, err = c.trustRoot.PublicKey()
	require.NoError(t, err)
	t.Cleanup(c.trustRootPub.Destroy)

	serverPub, err := c.serverKey.PublicKey()
	require.NoError(t, err)
	t.Cleanup(serverPub.Destroy)
	c.server, err = NewServerCertificate(42, serverPub, c.trustRoot)
	require.NoError(t, err)
	t.Cleanup(c.server.Destroy)

	senderPub, err := c.senderKey.PublicKey()
	require.NoError(t, err)
	t.Cleanup(senderPub.Destroy)
	c.expiration = uint64(time.Now().Add(24*time.Hour).UnixMilli())
	c.sender, err = NewSenderCertificate("9d0652a3-dcc3-4d11-975f-74d61598733f", senderE164,
		1, senderPub, c.expiration, c.server, c.serverKey)
	require.NoError(t, err)
	t.Cleanup(c.sender.Destroy)
	return c
}

func TestServerCertificateRoundTrip(t *testing.T) {
	c := issueCertChain(t, "")

	keyID, err := c.server.KeyID()
	require.NoError(t, err)
	require.Equal(t, uint32(42), keyID)

	data, err := c.server.Serialize()
	require.NoError(t, err)
	restored, err := DeserializeServerCertificate(data)
	require.NoError(t, err)
	defer restored.Destroy()

	restoredID, err := restored.KeyID()
	require.NoError(t, err)
	require.Equal(t, uint32(42), restoredID)

	key, err := restored.Key()
	require.NoError(t, err)
	defer key.Destroy()
	serverPub, err := c.serverKey.PublicKey()
	require.NoError(t, err)
	defer serverPub.Destroy()
	equal, err := key.Equals(serverPub)
	require.NoError(t, err)
	require.True(t, equal)
}

func TestSenderCertificateValidate(t *testing.T) {
	c := issueCertChain(t, "+14155550101")

	now := uint64(time.Now().UnixMilli())
	ok, err := c.sender.Validate(c.trustRootPub, now)
	require.NoError(t, err)
	require.True(t, ok)

	// Expired at validation time.
	ok, err = c.sender.Validate(c.trustRootPub, c.expiration+1)
	require.NoError(t, err)
	require.False(t, ok)

	// A different trust root never signed the server certificate.
	wrongRoot := mustGenerateKey(t)
	wrongRootPub, err := wrongRoot.PublicKey()
	require.NoError(t, err)
	defer wrongRootPub.Destroy()
	ok, err = c.sender.Validate(wrongRootPub, now)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSenderCertificateRoundTripAndGetters(t *testing.T) {
	c := issueCertChain(t, "+14155550101")

	data, err := c.sender.Serialize()
	require.NoError(t, err)
	restored, err := DeserializeSenderCertificate(data)
	require.NoError(t, err)
	defer restored.Destroy()

	senderUUID, err := restored.SenderUUID()
	require.NoError(t, err)
	require.Equal(t, "9d0652a3-dcc3-4d11-975f-74d61598733f", senderUUID)

	e164, err := restored.SenderE164()
	require.NoError(t, err)
	require.Equal(t, "+14155550101", e164)

	deviceID, err := restored.DeviceID()
	require.NoError(t, err)
	require.Equal(t, uint32(1), deviceID)

	expiration, err := restored.Expiration()
	require.NoError(t, err)
	require.Equal(t, c.expiration, expiration)

	// The chain still validates after a round trip.
	ok, err := restored.Validate(c.trustRootPub, uint64(time.Now().UnixMilli()))
	require.NoError(t, err)
	require.True(t, ok)

	signer, err := restored.ServerCertificate()
	require.NoError(t, err)
	defer signer.Destroy()
	signerID, err := signer.KeyID()
	require.NoError(t, err)
	require.Equal(t, uint32(42), signerID)
}

func TestSenderCertificateEmptyE164(t *testing.T) {
	c := issueCertChain(t, "")

	data, err := c.sender.Serialize()
	require.NoError(t, err)
	restored, err := DeserializeSenderCertificate(data)
	require.NoError(t, err)
	defer restored.Destroy()

	e164, err := restored.SenderE164()
	require.NoError(t, err)
	require.Empty(t, e164)
}

func TestCertificateDisposal(t *testing.T) {
	c := issueCertChain(t, "")

	c.sender.Destroy()
	c.sender.Destroy()
	require.True(t, c.sender.Disposed())
	_, err := c.sender.SenderUUID()
	require.ErrorIs(t, err, ErrDisposed)
	_, err = c.sender.Validate(c.trustRootPub, 0)
	require.ErrorIs(t, err, ErrDisposed)

	c.server.Destroy()
	require.True(t, c.server.Disposed())
	_, err = c.server.Serialize()
	require.ErrorIs(t, err, ErrDisposed)

	var nilCert *SenderCertificate
	nilCert.Destroy()
	_, err = nilCert.Serialize()
	require.ErrorIs(t, err, ErrNullHandle)
}

package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var ve *Error
	require.True(t, errors.As(err, &ve), "expected *validate.Error, got %v", err)
	return ve.Reason
}

func validPublicKey() []byte {
	key := make([]byte, PublicKeyLen)
	key[0] = KeyTypeDJB
	// Base point u=9: a perfectly ordinary point not in the blocklist.
	key[1] = 0x09
	return key
}

func TestPublicKeyAccepts(t *testing.T) {
	require.NoError(t, PublicKey(validPublicKey()))
}

func TestPublicKeyWrongLength(t *testing.T) {
	for _, n := range []int{0, 1, 32, 34, 64} {
		err := PublicKey(make([]byte, n))
		require.Equal(t, ReasonWrongLength, reasonOf(t, err), "length %d", n)
	}
	require.Equal(t, ReasonWrongLength, reasonOf(t, PublicKey(nil)))
}

func TestPublicKeyBadTypeByte(t *testing.T) {
	key := validPublicKey()
	key[0] = 0x04
	require.Equal(t, ReasonBadKeyType, reasonOf(t, PublicKey(key)))
}

func TestPublicKeyRejectsEachBlocklistedPoint(t *testing.T) {
	points := LowOrderPoints()
	require.Len(t, points, 6)
	for i, p := range points {
		key := append([]byte{KeyTypeDJB}, p...)
		err := PublicKey(key)
		require.Equal(t, ReasonLowOrderPoint, reasonOf(t, err), "blocklist entry %d", i)
	}
}

func TestPublicKeyAllZeroPoint(t *testing.T) {
	key := make([]byte, PublicKeyLen)
	key[0] = KeyTypeDJB
	require.Equal(t, ReasonLowOrderPoint, reasonOf(t, PublicKey(key)))
}

func TestPublicKeyOrderOnePoint(t *testing.T) {
	key := make([]byte, PublicKeyLen)
	key[0] = KeyTypeDJB
	key[1] = 0x01
	require.Equal(t, ReasonLowOrderPoint, reasonOf(t, PublicKey(key)))
}

func TestPublicKeyNearMissOfBlocklist(t *testing.T) {
	// Flipping one bit of a blocklisted point must make it pass the
	// blocklist (the list matches byte-for-byte only).
	key := make([]byte, PublicKeyLen)
	key[0] = KeyTypeDJB
	key[32] = 0x40 // all-zero point with a high bit set
	require.NoError(t, PublicKey(key))
}

func TestPrivateKey(t *testing.T) {
	require.NoError(t, PrivateKey(make([]byte, PrivateKeyLen)))
	require.Equal(t, ReasonWrongLength, reasonOf(t, PrivateKey(make([]byte, 31))))
	require.Equal(t, ReasonWrongLength, reasonOf(t, PrivateKey(nil)))
}

func TestKyberPublicKey(t *testing.T) {
	key := make([]byte, KyberPublicKeyLen)
	key[0] = KeyTypeKyber1024
	require.NoError(t, KyberPublicKey(key))

	require.Equal(t, ReasonWrongLength, reasonOf(t, KyberPublicKey(key[:100])))

	key[0] = KeyTypeDJB
	require.Equal(t, ReasonBadKeyType, reasonOf(t, KyberPublicKey(key)))
}

func TestRecordFloors(t *testing.T) {
	cases := []struct {
		name string
		fn   func([]byte) error
		min  int
	}{
		{"session", SessionRecord, SessionRecordMinLen},
		{"prekey", PreKeyRecord, PreKeyRecordMinLen},
		{"signed prekey", SignedPreKeyRecord, SignedPreKeyRecordMinLen},
		{"kyber prekey", KyberPreKeyRecord, KyberPreKeyRecordMinLen},
		{"sender key", SenderKeyRecord, SenderKeyRecordMinLen},
		{"server cert", ServerCertificate, ServerCertificateMinLen},
		{"sender cert", SenderCertificate, SenderCertificateMinLen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, ReasonTooShort, reasonOf(t, tc.fn(nil)))
			require.Equal(t, ReasonTooShort, reasonOf(t, tc.fn(make([]byte, tc.min-1))))

			ok := make([]byte, tc.min)
			ok[0] = 0x0a
			require.NoError(t, tc.fn(ok))

			bad := make([]byte, tc.min)
			bad[0] = 0xff
			require.Equal(t, ReasonBadLeadingTag, reasonOf(t, tc.fn(bad)))
		})
	}
}

func TestMessageVersionSniff(t *testing.T) {
	cases := []struct {
		name string
		fn   func([]byte) error
		min  int
	}{
		{"signal message", SignalMessage, SignalMessageMinLen},
		{"prekey message", PreKeySignalMessage, PreKeySignalMessageMinLen},
		{"sender key message", SenderKeyMessage, SenderKeyMessageMinLen},
		{"distribution message", SenderKeyDistributionMessage, SenderKeyDistributionMessageMinLen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, ReasonTooShort, reasonOf(t, tc.fn(nil)))
			require.Equal(t, ReasonTooShort, reasonOf(t, tc.fn(make([]byte, tc.min-1))))

			for _, ver := range []byte{0x33, 0x43} {
				ok := make([]byte, tc.min)
				ok[0] = ver
				require.NoError(t, tc.fn(ok), "version byte 0x%02x", ver)
			}
			for _, ver := range []byte{0x00, 0x23, 0x53, 0xff} {
				bad := make([]byte, tc.min)
				bad[0] = ver
				require.Equal(t, ReasonBadVersion, reasonOf(t, tc.fn(bad)),
					"version byte 0x%02x", ver)
			}
		})
	}
}

func TestErrorMessageNamesCause(t *testing.T) {
	err := PublicKey(nil)
	require.Contains(t, err.Error(), "wrong length")
	require.Contains(t, err.Error(), "public key")
}

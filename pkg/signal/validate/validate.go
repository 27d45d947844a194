// Package validate decides, from bytes alone, whether handing a buffer to
// the native engine's deserializers is safe. Native code crashes on
// malformed input are unrecoverable from Go, so every deserialize path in
// pkg/signal runs these checks first.
//
// The checks are deliberately cheap: exact lengths and type bytes for
// fixed-size keys, a low-order-point blocklist for agreement keys, and a
// minimum-length floor plus leading-byte sniff for variable-length records
// and messages. This is not grammar validation; it is the subset that can
// run on every call and still rejects truncated, empty, and adversarial
// input. All functions are pure, allocate no engine resources, and are safe
// on arbitrary input including nil.
package validate

// Wire constants shared with the engine's serialized forms.
const (
	// KeyTypeDJB is the leading type byte of a serialized Curve25519
	// public key.
	KeyTypeDJB = 0x05

	// KeyTypeKyber1024 is the leading type byte of a serialized Kyber-1024
	// public key.
	KeyTypeKyber1024 = 0x08

	// PublicKeyLen is the serialized Curve25519 public key length:
	// type byte + 32 key bytes.
	PublicKeyLen = 33

	// PrivateKeyLen is the raw Curve25519 private key length.
	PrivateKeyLen = 32

	// KyberPublicKeyLen is the serialized Kyber-1024 public key length:
	// type byte + 1568 key bytes.
	KyberPublicKeyLen = 1569
)

// Minimum lengths for variable-length types, sized to the smallest legal
// encoding of each.
const (
	SessionRecordMinLen      = 8
	PreKeyRecordMinLen       = 8
	SignedPreKeyRecordMinLen = 16
	KyberPreKeyRecordMinLen  = 32
	SenderKeyRecordMinLen    = 8
	ServerCertificateMinLen  = 16
	SenderCertificateMinLen  = 16

	SignalMessageMinLen                = 13
	PreKeySignalMessageMinLen          = 90
	SenderKeyMessageMinLen             = 25
	SenderKeyDistributionMessageMinLen = 90
)

// lowOrderPoints is the fixed blocklist of Curve25519 points with order 1,
// 2, 4, or 8, including the non-canonical encodings of the same values.
// Accepting any of them as a Diffie-Hellman input would confine the shared
// secret to a small predictable subgroup.
//
// This is intentionally the same hand-maintained list the reference engine
// uses, not a general on-curve or order check: it catches the known attack
// points, and widening it would change acceptance behavior relative to the
// engine.
var lowOrderPoints = [6][32]byte{
	// Neutral element.
	{0x00},
	// Order 1.
	{0x01},
	// Order 8.
	{0xe0, 0xeb, 0x7a, 0x7c, 0x3b, 0x41, 0xb8, 0xae, 0x16, 0x56, 0xe3,
		0xfa, 0xf1, 0x9f, 0xc4, 0x6a, 0xda, 0x09, 0x8d, 0xeb, 0x9c, 0x32,
		0xb1, 0xfd, 0x86, 0x62, 0x05, 0x16, 0x5f, 0x49, 0xb8, 0x00},
	// Order 8.
	{0x5f, 0x9c, 0x95, 0xbc, 0xa3, 0x50, 0x8c, 0x24, 0xb1, 0xd0, 0xb1,
		0x55, 0x9c, 0x83, 0xef, 0x5b, 0x04, 0x44, 0x5c, 0xc4, 0x58, 0x1c,
		0x8e, 0x86, 0xd8, 0x22, 0x4e, 0xdd, 0xd0, 0x9f, 0x11, 0x57},
	// p-1, order 2.
	{0xec, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f},
	// p, the non-canonical encoding of the neutral element.
	{0xed, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f},
}

// LowOrderPoints returns a copy of the blocklist, primarily for tests that
// need to exercise each entry individually.
func LowOrderPoints() [][]byte {
	out := make([][]byte, len(lowOrderPoints))
	for i := range lowOrderPoints {
		p := lowOrderPoints[i]
		out[i] = p[:]
	}
	return out
}

// isLowOrderPoint does a byte-for-byte match against the blocklist. Plain
// equality is fine here: the input is a public value.
func isLowOrderPoint(key []byte) bool {
	if len(key) != 32 {
		return false
	}
	for i := range lowOrderPoints {
		match := true
		for j := 0; j < 32; j++ {
			if key[j] != lowOrderPoints[i][j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// PublicKey checks a serialized Curve25519 public key: exact length, DJB
// type byte, and absence from the low-order-point blocklist.
func PublicKey(data []byte) error {
	if len(data) != PublicKeyLen {
		return wrongLength("public key", PublicKeyLen, len(data))
	}
	if data[0] != KeyTypeDJB {
		return badKeyType("public key", KeyTypeDJB, data[0])
	}
	if isLowOrderPoint(data[1:]) {
		return &Error{Type: "public key", Reason: ReasonLowOrderPoint,
			Detail: "point is in the low-order blocklist"}
	}
	return nil
}

// PrivateKey checks a raw Curve25519 private key.
func PrivateKey(data []byte) error {
	if len(data) != PrivateKeyLen {
		return wrongLength("private key", PrivateKeyLen, len(data))
	}
	return nil
}

// KyberPublicKey checks a serialized Kyber-1024 public key.
func KyberPublicKey(data []byte) error {
	if len(data) != KyberPublicKeyLen {
		return wrongLength("Kyber public key", KyberPublicKeyLen, len(data))
	}
	if data[0] != KeyTypeKyber1024 {
		return badKeyType("Kyber public key", KeyTypeKyber1024, data[0])
	}
	return nil
}

// record applies the floor-then-tag sniff shared by all record types. The
// serialized forms are protobuf messages, so the first byte must be a
// plausible first-field tag.
func record(typeName string, min int, data []byte) error {
	if len(data) < min {
		return tooShort(typeName, min, len(data))
	}
	switch data[0] {
	case 0x08, 0x0a, 0x12:
		return nil
	}
	return &Error{Type: typeName, Reason: ReasonBadLeadingTag,
		Detail: "leading byte is not a known record tag"}
}

// message applies the floor-then-version sniff shared by all protocol
// message types. The high nibble of the first byte carries the protocol
// version, which is 3 or 4 for every format the engine emits.
func message(typeName string, min int, data []byte) error {
	if len(data) < min {
		return tooShort(typeName, min, len(data))
	}
	if v := data[0] >> 4; v != 3 && v != 4 {
		return &Error{Type: typeName, Reason: ReasonBadVersion,
			Detail: "unknown protocol version nibble"}
	}
	return nil
}

// SessionRecord checks a serialized session record.
func SessionRecord(data []byte) error {
	return record("session record", SessionRecordMinLen, data)
}

// PreKeyRecord checks a serialized one-time pre-key record.
func PreKeyRecord(data []byte) error {
	return record("pre-key record", PreKeyRecordMinLen, data)
}

// SignedPreKeyRecord checks a serialized signed pre-key record.
func SignedPreKeyRecord(data []byte) error {
	return record("signed pre-key record", SignedPreKeyRecordMinLen, data)
}

// KyberPreKeyRecord checks a serialized Kyber pre-key record.
func KyberPreKeyRecord(data []byte) error {
	return record("Kyber pre-key record", KyberPreKeyRecordMinLen, data)
}

// SenderKeyRecord checks a serialized sender-key record.
func SenderKeyRecord(data []byte) error {
	return record("sender-key record", SenderKeyRecordMinLen, data)
}

// ServerCertificate checks a serialized server certificate.
func ServerCertificate(data []byte) error {
	return record("server certificate", ServerCertificateMinLen, data)
}

// SenderCertificate checks a serialized sender certificate.
func SenderCertificate(data []byte) error {
	return record("sender certificate", SenderCertificateMinLen, data)
}

// SignalMessage checks a serialized whisper message.
func SignalMessage(data []byte) error {
	return message("signal message", SignalMessageMinLen, data)
}

// PreKeySignalMessage checks a serialized pre-key message.
func PreKeySignalMessage(data []byte) error {
	return message("pre-key signal message", PreKeySignalMessageMinLen, data)
}

// SenderKeyMessage checks a serialized sender-key message.
func SenderKeyMessage(data []byte) error {
	return message("sender-key message", SenderKeyMessageMinLen, data)
}

// SenderKeyDistributionMessage checks a serialized sender-key distribution
// message.
func SenderKeyDistributionMessage(data []byte) error {
	return message("sender-key distribution message",
		SenderKeyDistributionMessageMinLen, data)
}

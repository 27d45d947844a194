//go:build !signalffi || !cgo

package backend

import (
	"bytes"
	"encoding/binary"
)

// Parsed message handles. Parsing is header-only: payload authenticity is
// established by the session decrypt, not here.

type signalMessageObj struct {
	version uint8
	counter uint32
	raw     []byte
}

type preKeySignalMessageObj struct {
	version         uint8
	registrationID  uint32
	preKeyID        *uint32
	signedPreKeyID  uint32
	kyberPreKeyID   *uint32
	kyberCiphertext []byte
	baseKey         []byte // serialized, 33 bytes
	identityKey     []byte // serialized, 33 bytes
	inner           []byte // embedded whisper message
	raw             []byte
}

type (
	SignalMessage       = *signalMessageObj
	PreKeySignalMessage = *preKeySignalMessageObj
)

// SignalMessageDeserialize parses a whisper message header.
func SignalMessageDeserialize(data []byte) (SignalMessage, error) {
	if len(data) < whisperOverhead || data[0] != versionByte {
		return nil, engineErr(CodeInvalidMessage, "malformed whisper message")
	}
	return &signalMessageObj{
		version: data[0] >> 4,
		counter: binary.BigEndian.Uint32(data[1:5]),
		raw:     bytes.Clone(data),
	}, nil
}

func SignalMessageGetVersion(m SignalMessage) (uint8, error) {
	if m == nil {
		return 0, engineErr(CodeNullParameter, "nil message")
	}
	return m.version, nil
}

func SignalMessageGetCounter(m SignalMessage) (uint32, error) {
	if m == nil {
		return 0, engineErr(CodeNullParameter, "nil message")
	}
	return m.counter, nil
}

func SignalMessageSerialize(m SignalMessage) ([]byte, error) {
	if m == nil {
		return nil, engineErr(CodeNullParameter, "nil message")
	}
	return bytes.Clone(m.raw), nil
}

func SignalMessageFree(m SignalMessage) {
	if m != nil {
		m.raw = nil
	}
}

// PreKeySignalMessageDeserialize parses the bootstrapping header and splits
// off the embedded whisper message.
func PreKeySignalMessageDeserialize(data []byte) (PreKeySignalMessage, error) {
	m := &preKeySignalMessageObj{raw: bytes.Clone(data)}
	buf := m.raw

	// Fixed prefix: version, registration id, flags.
	if len(buf) < 6 || buf[0] != versionByte {
		return nil, engineErr(CodeInvalidMessage, "malformed pre-key message")
	}
	m.version = buf[0] >> 4
	m.registrationID = binary.BigEndian.Uint32(buf[1:5])
	flags := buf[5]
	pos := 6

	take := func(n int) ([]byte, bool) {
		if len(buf)-pos < n {
			return nil, false
		}
		out := buf[pos : pos+n]
		pos += n
		return out, true
	}

	if flags&prekeyFlagOneTime != 0 {
		b, ok := take(4)
		if !ok {
			return nil, engineErr(CodeInvalidMessage, "truncated pre-key id")
		}
		id := binary.BigEndian.Uint32(b)
		m.preKeyID = &id
	}
	b, ok := take(4)
	if !ok {
		return nil, engineErr(CodeInvalidMessage, "truncated signed pre-key id")
	}
	m.signedPreKeyID = binary.BigEndian.Uint32(b)

	if flags&prekeyFlagKyber != 0 {
		b, ok := take(6)
		if !ok {
			return nil, engineErr(CodeInvalidMessage, "truncated kyber pre-key header")
		}
		id := binary.BigEndian.Uint32(b[:4])
		m.kyberPreKeyID = &id
		ctLen := int(binary.BigEndian.Uint16(b[4:]))
		if m.kyberCiphertext, ok = take(ctLen); !ok {
			return nil, engineErr(CodeInvalidMessage, "truncated kyber ciphertext")
		}
	}

	if m.baseKey, ok = take(33); !ok || m.baseKey[0] != keyTypeDJB {
		return nil, engineErr(CodeInvalidMessage, "malformed base key")
	}
	if m.identityKey, ok = take(33); !ok || m.identityKey[0] != keyTypeDJB {
		return nil, engineErr(CodeInvalidMessage, "malformed identity key")
	}
	m.inner = buf[pos:]
	if len(m.inner) < whisperOverhead {
		return nil, engineErr(CodeInvalidMessage, "truncated embedded message")
	}
	return m, nil
}

func PreKeySignalMessageGetVersion(m PreKeySignalMessage) (uint8, error) {
	if m == nil {
		return 0, engineErr(CodeNullParameter, "nil message")
	}
	return m.version, nil
}

func PreKeySignalMessageGetRegistrationID(m PreKeySignalMessage) (uint32, error) {
	if m == nil {
		return 0, engineErr(CodeNullParameter, "nil message")
	}
	return m.registrationID, nil
}

// PreKeySignalMessageGetPreKeyID returns nil when the message used no
// one-time pre-key.
func PreKeySignalMessageGetPreKeyID(m PreKeySignalMessage) (*uint32, error) {
	if m == nil {
		return nil, engineErr(CodeNullParameter, "nil message")
	}
	return cloneID(m.preKeyID), nil
}

func PreKeySignalMessageGetSignedPreKeyID(m PreKeySignalMessage) (uint32, error) {
	if m == nil {
		return 0, engineErr(CodeNullParameter, "nil message")
	}
	return m.signedPreKeyID, nil
}

// PreKeySignalMessageGetKyberPreKeyID returns nil when the message used no
// Kyber pre-key.
func PreKeySignalMessageGetKyberPreKeyID(m PreKeySignalMessage) (*uint32, error) {
	if m == nil {
		return nil, engineErr(CodeNullParameter, "nil message")
	}
	return cloneID(m.kyberPreKeyID), nil
}

func PreKeySignalMessageGetKyberCiphertext(m PreKeySignalMessage) ([]byte, error) {
	if m == nil {
		return nil, engineErr(CodeNullParameter, "nil message")
	}
	return bytes.Clone(m.kyberCiphertext), nil
}

// PreKeySignalMessageGetBaseKey returns the initiator's ephemeral base key.
func PreKeySignalMessageGetBaseKey(m PreKeySignalMessage) (PublicKey, error) {
	if m == nil {
		return nil, engineErr(CodeNullParameter, "nil message")
	}
	return PublicKeyDeserialize(m.baseKey)
}

// PreKeySignalMessageGetIdentityKey returns the initiator's identity key.
func PreKeySignalMessageGetIdentityKey(m PreKeySignalMessage) (PublicKey, error) {
	if m == nil {
		return nil, engineErr(CodeNullParameter, "nil message")
	}
	return PublicKeyDeserialize(m.identityKey)
}

// PreKeySignalMessageGetEmbedded returns the whisper message carried inside.
func PreKeySignalMessageGetEmbedded(m PreKeySignalMessage) ([]byte, error) {
	if m == nil {
		return nil, engineErr(CodeNullParameter, "nil message")
	}
	return bytes.Clone(m.inner), nil
}

func PreKeySignalMessageSerialize(m PreKeySignalMessage) ([]byte, error) {
	if m == nil {
		return nil, engineErr(CodeNullParameter, "nil message")
	}
	return bytes.Clone(m.raw), nil
}

func PreKeySignalMessageFree(m PreKeySignalMessage) {
	if m != nil {
		m.raw, m.inner = nil, nil
	}
}

package signal

import (
	"runtime"

	"github.com/openratchet/signal-go/pkg/signal/handle"
	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// MessageType distinguishes the ciphertext framings a cipher can emit.
type MessageType int

const (
	// MessageTypeWhisper is a message within an established session.
	MessageTypeWhisper MessageType = backend.MessageTypeWhisper
	// MessageTypePreKey is a session-establishing message carrying the
	// initiator's pre-key material alongside the first payload.
	MessageTypePreKey MessageType = backend.MessageTypePreKey
	// MessageTypeSenderKey is a group message.
	MessageTypeSenderKey MessageType = backend.MessageTypeSenderKey
)

// SignalMessage is a parsed whisper message.
type SignalMessage struct {
	h *handle.Handle[backend.SignalMessage]
}

// DeserializeSignalMessage parses a whisper message.
func DeserializeSignalMessage(data []byte) (*SignalMessage, error) {
	const op = "DeserializeSignalMessage"
	if err := validate.SignalMessage(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.SignalMessageDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &SignalMessage{h: handle.New(raw, backend.SignalMessageFree)}, nil
}

// Version returns the message's protocol version.
func (m *SignalMessage) Version() (uint8, error) {
	const op = "SignalMessage.Version"
	if m == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	v, err := backend.SignalMessageGetVersion(raw)
	runtime.KeepAlive(m.h)
	return v, wrap(op, err)
}

// Counter returns the message's chain counter.
func (m *SignalMessage) Counter() (uint32, error) {
	const op = "SignalMessage.Counter"
	if m == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	c, err := backend.SignalMessageGetCounter(raw)
	runtime.KeepAlive(m.h)
	return c, wrap(op, err)
}

// Serialize returns the wire bytes.
func (m *SignalMessage) Serialize() ([]byte, error) {
	const op = "SignalMessage.Serialize"
	if m == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.SignalMessageSerialize(raw)
	runtime.KeepAlive(m.h)
	return out, wrap(op, err)
}

// Destroy releases the message. Idempotent.
func (m *SignalMessage) Destroy() {
	if m != nil {
		m.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (m *SignalMessage) Disposed() bool {
	return m != nil && m.h.Disposed()
}

// PreKeySignalMessage is a parsed session-establishing message.
type PreKeySignalMessage struct {
	h *handle.Handle[backend.PreKeySignalMessage]
}

// DeserializePreKeySignalMessage parses a pre-key message.
func DeserializePreKeySignalMessage(data []byte) (*PreKeySignalMessage, error) {
	const op = "DeserializePreKeySignalMessage"
	if err := validate.PreKeySignalMessage(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.PreKeySignalMessageDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &PreKeySignalMessage{h: handle.New(raw, backend.PreKeySignalMessageFree)}, nil
}

// Version returns the message's protocol version.
func (m *PreKeySignalMessage) Version() (uint8, error) {
	const op = "PreKeySignalMessage.Version"
	if m == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	v, err := backend.PreKeySignalMessageGetVersion(raw)
	runtime.KeepAlive(m.h)
	return v, wrap(op, err)
}

// RegistrationID returns the sender's registration id.
func (m *PreKeySignalMessage) RegistrationID() (uint32, error) {
	const op = "PreKeySignalMessage.RegistrationID"
	if m == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	id, err := backend.PreKeySignalMessageGetRegistrationID(raw)
	runtime.KeepAlive(m.h)
	return id, wrap(op, err)
}

// PreKeyID returns the one-time pre-key id the sender consumed, or nil when
// none was used.
func (m *PreKeySignalMessage) PreKeyID() (*uint32, error) {
	const op = "PreKeySignalMessage.PreKeyID"
	if m == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	id, err := backend.PreKeySignalMessageGetPreKeyID(raw)
	runtime.KeepAlive(m.h)
	return id, wrap(op, err)
}

// SignedPreKeyID returns the signed pre-key id the sender used.
func (m *PreKeySignalMessage) SignedPreKeyID() (uint32, error) {
	const op = "PreKeySignalMessage.SignedPreKeyID"
	if m == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	id, err := backend.PreKeySignalMessageGetSignedPreKeyID(raw)
	runtime.KeepAlive(m.h)
	return id, wrap(op, err)
}

// KyberPreKeyID returns the Kyber pre-key id the sender used, or nil when
// none was used.
func (m *PreKeySignalMessage) KyberPreKeyID() (*uint32, error) {
	const op = "PreKeySignalMessage.KyberPreKeyID"
	if m == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	id, err := backend.PreKeySignalMessageGetKyberPreKeyID(raw)
	runtime.KeepAlive(m.h)
	return id, wrap(op, err)
}

// BaseKey returns the sender's ephemeral base key as a new resource.
func (m *PreKeySignalMessage) BaseKey() (*PublicKey, error) {
	const op = "PreKeySignalMessage.BaseKey"
	if m == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	pub, err := backend.PreKeySignalMessageGetBaseKey(raw)
	runtime.KeepAlive(m.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPublicKey(pub), nil
}

// IdentityKey returns the sender's identity key as a new resource.
func (m *PreKeySignalMessage) IdentityKey() (*PublicKey, error) {
	const op = "PreKeySignalMessage.IdentityKey"
	if m == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	pub, err := backend.PreKeySignalMessageGetIdentityKey(raw)
	runtime.KeepAlive(m.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPublicKey(pub), nil
}

// Serialize returns the wire bytes.
func (m *PreKeySignalMessage) Serialize() ([]byte, error) {
	const op = "PreKeySignalMessage.Serialize"
	if m == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.PreKeySignalMessageSerialize(raw)
	runtime.KeepAlive(m.h)
	return out, wrap(op, err)
}

// Destroy releases the message. Idempotent.
func (m *PreKeySignalMessage) Destroy() {
	if m != nil {
		m.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (m *PreKeySignalMessage) Disposed() bool {
	return m != nil && m.h.Disposed()
}

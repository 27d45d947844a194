package signal

import (
	"context"
	"runtime"

	"github.com/google/uuid"

	"github.com/openratchet/signal-go/pkg/signal/handle"
	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/logging"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// SenderKeyRecord is the persisted group-messaging state for one sending
// device: the chains it sends on and the chains it has learned from
// distribution messages.
type SenderKeyRecord struct {
	h *handle.Handle[backend.SenderKeyRecord]
}

func newSenderKeyRecord(raw backend.SenderKeyRecord) *SenderKeyRecord {
	return &SenderKeyRecord{h: handle.New(raw, backend.SenderKeyRecordFree)}
}

// NewSenderKeyRecord returns an empty record.
func NewSenderKeyRecord() (*SenderKeyRecord, error) {
	raw, err := backend.SenderKeyRecordNew()
	if err != nil {
		return nil, wrap("NewSenderKeyRecord", err)
	}
	return newSenderKeyRecord(raw), nil
}

// DeserializeSenderKeyRecord parses a serialized record.
func DeserializeSenderKeyRecord(data []byte) (*SenderKeyRecord, error) {
	const op = "DeserializeSenderKeyRecord"
	if err := validate.SenderKeyRecord(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.SenderKeyRecordDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newSenderKeyRecord(raw), nil
}

// Serialize encodes the record for storage.
func (r *SenderKeyRecord) Serialize() ([]byte, error) {
	const op = "SenderKeyRecord.Serialize"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.SenderKeyRecordSerialize(raw)
	runtime.KeepAlive(r.h)
	return out, wrap(op, err)
}

// Destroy releases the record and wipes its chain keys. Idempotent.
func (r *SenderKeyRecord) Destroy() {
	if r != nil {
		r.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (r *SenderKeyRecord) Disposed() bool {
	return r != nil && r.h.Disposed()
}

// SenderKeyDistributionMessage announces a sending chain so group members
// can decrypt the sender's messages.
type SenderKeyDistributionMessage struct {
	h *handle.Handle[backend.SenderKeyDistributionMessage]
}

// DeserializeSenderKeyDistributionMessage parses a distribution message.
func DeserializeSenderKeyDistributionMessage(data []byte) (*SenderKeyDistributionMessage, error) {
	const op = "DeserializeSenderKeyDistributionMessage"
	if err := validate.SenderKeyDistributionMessage(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.SenderKeyDistributionMessageDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &SenderKeyDistributionMessage{h: handle.New(raw, backend.SenderKeyDistributionMessageFree)}, nil
}

// DistributionID returns the group distribution id the message announces.
func (m *SenderKeyDistributionMessage) DistributionID() (uuid.UUID, error) {
	const op = "SenderKeyDistributionMessage.DistributionID"
	if m == nil {
		return uuid.Nil, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return uuid.Nil, wrap(op, err)
	}
	id, err := backend.SenderKeyDistributionMessageGetDistributionID(raw)
	runtime.KeepAlive(m.h)
	return uuid.UUID(id), wrap(op, err)
}

// ChainID returns the announced chain id.
func (m *SenderKeyDistributionMessage) ChainID() (uint32, error) {
	const op = "SenderKeyDistributionMessage.ChainID"
	if m == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	id, err := backend.SenderKeyDistributionMessageGetChainID(raw)
	runtime.KeepAlive(m.h)
	return id, wrap(op, err)
}

// Iteration returns the chain position the announcement starts from.
func (m *SenderKeyDistributionMessage) Iteration() (uint32, error) {
	const op = "SenderKeyDistributionMessage.Iteration"
	if m == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	it, err := backend.SenderKeyDistributionMessageGetIteration(raw)
	runtime.KeepAlive(m.h)
	return it, wrap(op, err)
}

// Serialize returns the wire bytes.
func (m *SenderKeyDistributionMessage) Serialize() ([]byte, error) {
	const op = "SenderKeyDistributionMessage.Serialize"
	if m == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.SenderKeyDistributionMessageSerialize(raw)
	runtime.KeepAlive(m.h)
	return out, wrap(op, err)
}

// Destroy releases the message. Idempotent.
func (m *SenderKeyDistributionMessage) Destroy() {
	if m != nil {
		m.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (m *SenderKeyDistributionMessage) Disposed() bool {
	return m != nil && m.h.Disposed()
}

// SenderKeyMessage is a parsed group message header. Decryption goes
// through GroupCipher; this type exists so callers can route messages by
// distribution id without holding chain state.
type SenderKeyMessage struct {
	h *handle.Handle[backend.SenderKeyMessage]
}

// DeserializeSenderKeyMessage parses a group message.
func DeserializeSenderKeyMessage(data []byte) (*SenderKeyMessage, error) {
	const op = "DeserializeSenderKeyMessage"
	if err := validate.SenderKeyMessage(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.SenderKeyMessageDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &SenderKeyMessage{h: handle.New(raw, backend.SenderKeyMessageFree)}, nil
}

// DistributionID returns the group distribution id the message belongs to.
func (m *SenderKeyMessage) DistributionID() (uuid.UUID, error) {
	const op = "SenderKeyMessage.DistributionID"
	if m == nil {
		return uuid.Nil, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return uuid.Nil, wrap(op, err)
	}
	id, err := backend.SenderKeyMessageGetDistributionID(raw)
	runtime.KeepAlive(m.h)
	return uuid.UUID(id), wrap(op, err)
}

// ChainID returns the sending chain id.
func (m *SenderKeyMessage) ChainID() (uint32, error) {
	const op = "SenderKeyMessage.ChainID"
	if m == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	id, err := backend.SenderKeyMessageGetChainID(raw)
	runtime.KeepAlive(m.h)
	return id, wrap(op, err)
}

// Iteration returns the chain position of the message.
func (m *SenderKeyMessage) Iteration() (uint32, error) {
	const op = "SenderKeyMessage.Iteration"
	if m == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	it, err := backend.SenderKeyMessageGetIteration(raw)
	runtime.KeepAlive(m.h)
	return it, wrap(op, err)
}

// Serialize returns the wire bytes.
func (m *SenderKeyMessage) Serialize() ([]byte, error) {
	const op = "SenderKeyMessage.Serialize"
	if m == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := m.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.SenderKeyMessageSerialize(raw)
	runtime.KeepAlive(m.h)
	return out, wrap(op, err)
}

// Destroy releases the message. Idempotent.
func (m *SenderKeyMessage) Destroy() {
	if m != nil {
		m.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (m *SenderKeyMessage) Disposed() bool {
	return m != nil && m.h.Disposed()
}

// NewSenderKeyDistribution ensures sender owns a sending chain for
// distributionID, persists it, and returns the distribution message to fan
// out to the group.
func NewSenderKeyDistribution(ctx context.Context, sender ProtocolAddress, distributionID uuid.UUID,
	store SenderKeyStore) (*SenderKeyDistributionMessage, error) {
	const op = "NewSenderKeyDistribution"
	record, err := store.LoadSenderKey(ctx, sender, distributionID)
	if err != nil {
		return nil, wrap(op, err)
	}
	if record == nil {
		if record, err = NewSenderKeyRecord(); err != nil {
			return nil, wrap(op, err)
		}
	}
	defer record.Destroy()

	raw, err := record.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	wire, err := backend.SenderKeyCreateDistribution(raw, [16]byte(distributionID))
	runtime.KeepAlive(record.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	if err := store.StoreSenderKey(ctx, sender, distributionID, record); err != nil {
		return nil, wrap(op, err)
	}
	return DeserializeSenderKeyDistributionMessage(wire)
}

// ProcessSenderKeyDistributionMessage installs the chain announced by
// message into sender's record.
func ProcessSenderKeyDistributionMessage(ctx context.Context, sender ProtocolAddress,
	message *SenderKeyDistributionMessage, store SenderKeyStore) error {
	const op = "ProcessSenderKeyDistributionMessage"
	if message == nil {
		return wrap(op, ErrNullHandle)
	}
	distributionID, err := message.DistributionID()
	if err != nil {
		return wrap(op, err)
	}

	record, err := store.LoadSenderKey(ctx, sender, distributionID)
	if err != nil {
		return wrap(op, err)
	}
	if record == nil {
		if record, err = NewSenderKeyRecord(); err != nil {
			return wrap(op, err)
		}
	}
	defer record.Destroy()

	rawRecord, err := record.h.Use()
	if err != nil {
		return wrap(op, err)
	}
	rawMessage, err := message.h.Use()
	if err != nil {
		return wrap(op, err)
	}
	err = backend.SenderKeyProcessDistribution(rawRecord, rawMessage)
	runtime.KeepAlive(record.h)
	runtime.KeepAlive(message.h)
	if err != nil {
		return wrap(op, err)
	}
	return wrap(op, store.StoreSenderKey(ctx, sender, distributionID, record))
}

// GroupCipher encrypts and decrypts group messages for one sending device
// and one distribution id, persisting chain state through the store on
// every call.
type GroupCipher struct {
	sender         ProtocolAddress
	distributionID uuid.UUID
	store          SenderKeyStore
	log            logging.Logger
}

// NewGroupCipher builds a cipher for sender's chain in the group
// identified by distributionID. A nil logger binds to slog.Default().
func NewGroupCipher(store SenderKeyStore, sender ProtocolAddress, distributionID uuid.UUID, log logging.Logger) *GroupCipher {
	if log == nil {
		log = logging.New(nil)
	}
	return &GroupCipher{
		sender:         sender,
		distributionID: distributionID,
		store:          store,
		log:            log.With("sender", sender.String(), "distribution_id", distributionID.String()),
	}
}

// Encrypt encrypts plaintext under the local sending chain.
func (g *GroupCipher) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	const op = "GroupCipher.Encrypt"
	record, err := g.store.LoadSenderKey(ctx, g.sender, g.distributionID)
	if err != nil {
		return nil, wrap(op, err)
	}
	if record == nil {
		return nil, wrap(op, ErrSessionNotFound)
	}
	defer record.Destroy()

	raw, err := record.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	ciphertext, err := backend.SenderKeyEncrypt(raw, [16]byte(g.distributionID), plaintext)
	runtime.KeepAlive(record.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	if err := g.store.StoreSenderKey(ctx, g.sender, g.distributionID, record); err != nil {
		return nil, wrap(op, err)
	}
	return ciphertext, nil
}

// Decrypt authenticates and decrypts a group message from the sender.
func (g *GroupCipher) Decrypt(ctx context.Context, data []byte) ([]byte, error) {
	const op = "GroupCipher.Decrypt"
	if err := validate.SenderKeyMessage(data); err != nil {
		return nil, wrap(op, err)
	}
	record, err := g.store.LoadSenderKey(ctx, g.sender, g.distributionID)
	if err != nil {
		return nil, wrap(op, err)
	}
	if record == nil {
		return nil, wrap(op, ErrSessionNotFound)
	}
	defer record.Destroy()

	raw, err := record.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	plaintext, err := backend.SenderKeyDecrypt(raw, [16]byte(g.distributionID), data)
	runtime.KeepAlive(record.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	if err := g.store.StoreSenderKey(ctx, g.sender, g.distributionID, record); err != nil {
		return nil, wrap(op, err)
	}
	return plaintext, nil
}

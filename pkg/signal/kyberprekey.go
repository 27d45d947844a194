package signal

import (
	"runtime"

	"github.com/openratchet/signal-go/pkg/signal/handle"
	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// KyberPreKeyRecord is a stored Kyber pre-key: an id, a timestamp, the key
// pair, and the identity key's signature over the public half.
type KyberPreKeyRecord struct {
	h *handle.Handle[backend.KyberPreKeyRecord]
}

func newKyberPreKeyRecord(raw backend.KyberPreKeyRecord) *KyberPreKeyRecord {
	return &KyberPreKeyRecord{h: handle.New(raw, backend.KyberPreKeyRecordFree)}
}

// NewKyberPreKeyRecord builds a record from a Kyber key pair. timestamp is
// epoch milliseconds; signature must be the identity key's signature over
// the serialized public key.
func NewKyberPreKeyRecord(id uint32, timestamp uint64, pair *KyberKeyPair, signature []byte) (*KyberPreKeyRecord, error) {
	const op = "NewKyberPreKeyRecord"
	if pair == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	rawPair, err := pair.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.KyberPreKeyRecordNew(id, timestamp, rawPair, signature)
	runtime.KeepAlive(pair.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newKyberPreKeyRecord(raw), nil
}

// DeserializeKyberPreKeyRecord parses a serialized record.
func DeserializeKyberPreKeyRecord(data []byte) (*KyberPreKeyRecord, error) {
	const op = "DeserializeKyberPreKeyRecord"
	if err := validate.KyberPreKeyRecord(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.KyberPreKeyRecordDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newKyberPreKeyRecord(raw), nil
}

// ID returns the record's Kyber pre-key id.
func (r *KyberPreKeyRecord) ID() (uint32, error) {
	const op = "KyberPreKeyRecord.ID"
	if r == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	id, err := backend.KyberPreKeyRecordGetID(raw)
	runtime.KeepAlive(r.h)
	return id, wrap(op, err)
}

// Timestamp returns the creation time in epoch milliseconds.
func (r *KyberPreKeyRecord) Timestamp() (uint64, error) {
	const op = "KyberPreKeyRecord.Timestamp"
	if r == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	ts, err := backend.KyberPreKeyRecordGetTimestamp(raw)
	runtime.KeepAlive(r.h)
	return ts, wrap(op, err)
}

// PublicKey returns the record's Kyber public key as a new resource.
func (r *KyberPreKeyRecord) PublicKey() (*KyberPublicKey, error) {
	const op = "KyberPreKeyRecord.PublicKey"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	pub, err := backend.KyberPreKeyRecordGetPublicKey(raw)
	runtime.KeepAlive(r.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newKyberPublicKey(pub), nil
}

// Signature returns the identity signature over the public key.
func (r *KyberPreKeyRecord) Signature() ([]byte, error) {
	const op = "KyberPreKeyRecord.Signature"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	sig, err := backend.KyberPreKeyRecordGetSignature(raw)
	runtime.KeepAlive(r.h)
	return sig, wrap(op, err)
}

// Serialize encodes the record for storage.
func (r *KyberPreKeyRecord) Serialize() ([]byte, error) {
	const op = "KyberPreKeyRecord.Serialize"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.KyberPreKeyRecordSerialize(raw)
	runtime.KeepAlive(r.h)
	return out, wrap(op, err)
}

// Destroy releases the record. Idempotent.
func (r *KyberPreKeyRecord) Destroy() {
	if r != nil {
		r.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (r *KyberPreKeyRecord) Disposed() bool {
	return r != nil && r.h.Disposed()
}

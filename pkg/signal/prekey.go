package signal

import (
	"runtime"

	"github.com/openratchet/signal-go/pkg/signal/handle"
	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// PreKeyRecord is a stored one-time pre-key: an id plus the key pair.
type PreKeyRecord struct {
	h *handle.Handle[backend.PreKeyRecord]
}

func newPreKeyRecord(raw backend.PreKeyRecord) *PreKeyRecord {
	return &PreKeyRecord{h: handle.New(raw, backend.PreKeyRecordFree)}
}

// NewPreKeyRecord builds a record from an id and both key halves. The keys
// are copied into the record; the caller keeps ownership of its handles.
func NewPreKeyRecord(id uint32, pub *PublicKey, priv *PrivateKey) (*PreKeyRecord, error) {
	const op = "NewPreKeyRecord"
	if pub == nil || priv == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	rawPub, err := pub.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	rawPriv, err := priv.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.PreKeyRecordNew(id, rawPub, rawPriv)
	runtime.KeepAlive(pub.h)
	runtime.KeepAlive(priv.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPreKeyRecord(raw), nil
}

// DeserializePreKeyRecord parses a serialized record.
func DeserializePreKeyRecord(data []byte) (*PreKeyRecord, error) {
	const op = "DeserializePreKeyRecord"
	if err := validate.PreKeyRecord(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.PreKeyRecordDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPreKeyRecord(raw), nil
}

// ID returns the record's pre-key id.
func (r *PreKeyRecord) ID() (uint32, error) {
	const op = "PreKeyRecord.ID"
	if r == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	id, err := backend.PreKeyRecordGetID(raw)
	runtime.KeepAlive(r.h)
	return id, wrap(op, err)
}

// PublicKey returns the record's public key as a new resource.
func (r *PreKeyRecord) PublicKey() (*PublicKey, error) {
	const op = "PreKeyRecord.PublicKey"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	pub, err := backend.PreKeyRecordGetPublicKey(raw)
	runtime.KeepAlive(r.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPublicKey(pub), nil
}

// PrivateKey returns the record's private key as a new resource the caller
// must destroy.
func (r *PreKeyRecord) PrivateKey() (*PrivateKey, error) {
	const op = "PreKeyRecord.PrivateKey"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	priv, err := backend.PreKeyRecordGetPrivateKey(raw)
	runtime.KeepAlive(r.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPrivateKey(priv), nil
}

// Serialize encodes the record for storage.
func (r *PreKeyRecord) Serialize() ([]byte, error) {
	const op = "PreKeyRecord.Serialize"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.PreKeyRecordSerialize(raw)
	runtime.KeepAlive(r.h)
	return out, wrap(op, err)
}

// Destroy releases the record. Idempotent.
func (r *PreKeyRecord) Destroy() {
	if r != nil {
		r.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (r *PreKeyRecord) Disposed() bool {
	return r != nil && r.h.Disposed()
}

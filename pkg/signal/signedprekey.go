package signal

import (
	"runtime"

	"github.com/openratchet/signal-go/pkg/signal/handle"
	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// SignedPreKeyRecord is a stored signed pre-key: an id, a timestamp, the
// key pair, and the identity key's signature over the public half.
type SignedPreKeyRecord struct {
	h *handle.Handle[backend.SignedPreKeyRecord]
}

func newSignedPreKeyRecord(raw backend.SignedPreKeyRecord) *SignedPreKeyRecord {
	return &SignedPreKeyRecord{h: handle.New(raw, backend.SignedPreKeyRecordFree)}
}

// NewSignedPreKeyRecord builds a record. timestamp is epoch milliseconds;
// signature must be the identity key's signature over the serialized public
// key.
func NewSignedPreKeyRecord(id uint32, timestamp uint64, pub *PublicKey, priv *PrivateKey, signature []byte) (*SignedPreKeyRecord, error) {
	const op = "NewSignedPreKeyRecord"
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
	raw, err := backend.SignedPreKeyRecordNew(id, timestamp, rawPub, rawPriv, signature)
	runtime.KeepAlive(pub.h)
	runtime.KeepAlive(priv.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newSignedPreKeyRecord(raw), nil
}

// DeserializeSignedPreKeyRecord parses a serialized record.
func DeserializeSignedPreKeyRecord(data []byte) (*SignedPreKeyRecord, error) {
	const op = "DeserializeSignedPreKeyRecord"
	if err := validate.SignedPreKeyRecord(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.SignedPreKeyRecordDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newSignedPreKeyRecord(raw), nil
}

// ID returns the record's signed pre-key id.
func (r *SignedPreKeyRecord) ID() (uint32, error) {
	const op = "SignedPreKeyRecord.ID"
	if r == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	id, err := backend.SignedPreKeyRecordGetID(raw)
	runtime.KeepAlive(r.h)
	return id, wrap(op, err)
}

// Timestamp returns the creation time in epoch milliseconds.
func (r *SignedPreKeyRecord) Timestamp() (uint64, error) {
	const op = "SignedPreKeyRecord.Timestamp"
	if r == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	ts, err := backend.SignedPreKeyRecordGetTimestamp(raw)
	runtime.KeepAlive(r.h)
	return ts, wrap(op, err)
}

// PublicKey returns the record's public key as a new resource.
func (r *SignedPreKeyRecord) PublicKey() (*PublicKey, error) {
	const op = "SignedPreKeyRecord.PublicKey"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	pub, err := backend.SignedPreKeyRecordGetPublicKey(raw)
	runtime.KeepAlive(r.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPublicKey(pub), nil
}

// PrivateKey returns the record's private key as a new resource the caller
// must destroy.
func (r *SignedPreKeyRecord) PrivateKey() (*PrivateKey, error) {
	const op = "SignedPreKeyRecord.PrivateKey"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	priv, err := backend.SignedPreKeyRecordGetPrivateKey(raw)
	runtime.KeepAlive(r.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPrivateKey(priv), nil
}

// Signature returns the identity signature over the public key.
func (r *SignedPreKeyRecord) Signature() ([]byte, error) {
	const op = "SignedPreKeyRecord.Signature"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	sig, err := backend.SignedPreKeyRecordGetSignature(raw)
	runtime.KeepAlive(r.h)
	return sig, wrap(op, err)
}

// Serialize encodes the record for storage.
func (r *SignedPreKeyRecord) Serialize() ([]byte, error) {
	const op = "SignedPreKeyRecord.Serialize"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.SignedPreKeyRecordSerialize(raw)
	runtime.KeepAlive(r.h)
	return out, wrap(op, err)
}

// Destroy releases the record. Idempotent.
func (r *SignedPreKeyRecord) Destroy() {
	if r != nil {
		r.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (r *SignedPreKeyRecord) Disposed() bool {
	return r != nil && r.h.Disposed()
}

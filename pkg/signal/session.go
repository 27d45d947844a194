package signal

import (
	"runtime"

	"github.com/openratchet/signal-go/pkg/signal/handle"
	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// SessionRecord is the persisted state of one pairwise session.
//
// Records loaded from a store and records held by a cipher are independent
// resources: Clone before sharing.
type SessionRecord struct {
	h *handle.Handle[backend.Session]
}

func newSessionRecord(raw backend.Session) *SessionRecord {
	return &SessionRecord{h: handle.New(raw, backend.SessionRecordFree)}
}

// DeserializeSessionRecord parses a serialized session record.
func DeserializeSessionRecord(data []byte) (*SessionRecord, error) {
	const op = "DeserializeSessionRecord"
	if err := validate.SessionRecord(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.SessionRecordDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newSessionRecord(raw), nil
}

// Serialize encodes the record for storage.
func (r *SessionRecord) Serialize() ([]byte, error) {
	const op = "SessionRecord.Serialize"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.SessionRecordSerialize(raw)
	runtime.KeepAlive(r.h)
	return out, wrap(op, err)
}

// Clone returns an independent copy with its own lifecycle.
func (r *SessionRecord) Clone() (*SessionRecord, error) {
	const op = "SessionRecord.Clone"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	c, err := backend.SessionRecordClone(raw)
	runtime.KeepAlive(r.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newSessionRecord(c), nil
}

// Version returns the session's protocol version.
func (r *SessionRecord) Version() (uint32, error) {
	const op = "SessionRecord.Version"
	if r == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	v, err := backend.SessionRecordGetVersion(raw)
	runtime.KeepAlive(r.h)
	return v, wrap(op, err)
}

// RemoteRegistrationID returns the peer's registration id.
func (r *SessionRecord) RemoteRegistrationID() (uint32, error) {
	const op = "SessionRecord.RemoteRegistrationID"
	if r == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	id, err := backend.SessionRecordGetRemoteRegistrationID(raw)
	runtime.KeepAlive(r.h)
	return id, wrap(op, err)
}

// RemoteIdentityKey returns the peer's identity key as a new resource.
func (r *SessionRecord) RemoteIdentityKey() (*PublicKey, error) {
	const op = "SessionRecord.RemoteIdentityKey"
	if r == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	pub, err := backend.SessionRecordGetRemoteIdentityKey(raw)
	runtime.KeepAlive(r.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPublicKey(pub), nil
}

// HasPendingPreKey reports whether the session is still in its pre-key
// bootstrapping phase, before the first inbound message confirmed it.
func (r *SessionRecord) HasPendingPreKey() (bool, error) {
	const op = "SessionRecord.HasPendingPreKey"
	if r == nil {
		return false, wrap(op, ErrNullHandle)
	}
	raw, err := r.h.Use()
	if err != nil {
		return false, wrap(op, err)
	}
	pending, err := backend.SessionRecordHasPendingPreKey(raw)
	runtime.KeepAlive(r.h)
	return pending, wrap(op, err)
}

// Destroy releases the record and wipes its chain keys. Idempotent.
func (r *SessionRecord) Destroy() {
	if r != nil {
		r.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (r *SessionRecord) Disposed() bool {
	return r != nil && r.h.Disposed()
}

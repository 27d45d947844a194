//go:build !signalffi || !cgo

package backend

// Session record persistence and the parsed message handles.

func SessionRecordSerialize(s Session) ([]byte, error) {
	if s == nil {
		return nil, engineErr(CodeNullParameter, "nil session")
	}
	b := appendVarintField(nil, 1, uint64(s.version))
	b = appendBytesField(b, 2, s.localIdentity[:])
	b = appendBytesField(b, 3, s.remoteIdentity[:])
	b = appendBytesField(b, 4, s.rootKey[:])
	b = appendBytesField(b, 5, s.send.key[:])
	b = appendVarintField(b, 6, uint64(s.send.counter))
	b = appendBytesField(b, 7, s.recv.key[:])
	b = appendVarintField(b, 8, uint64(s.recv.counter))
	b = appendVarintField(b, 9, uint64(s.localRegistrationID))
	b = appendVarintField(b, 10, uint64(s.remoteRegistrationID))
	if s.pending != nil {
		b = appendBytesField(b, 11, s.pending.encode())
	}
	return b, nil
}

func (p *pendingPreKeyState) encode() []byte {
	b := appendVarintField(nil, 1, uint64(p.signedPreKeyID))
	b = appendBytesField(b, 2, p.baseKey[:])
	if p.preKeyID != nil {
		b = appendVarintField(b, 3, uint64(*p.preKeyID))
	}
	if p.kyberPreKeyID != nil {
		b = appendVarintField(b, 4, uint64(*p.kyberPreKeyID))
		b = appendBytesField(b, 5, p.kyberCiphertext)
	}
	return b
}

func decodePending(data []byte) (*pendingPreKeyState, error) {
	p := &pendingPreKeyState{}
	fr := newFieldReader(data)
	var sawBase bool
	for !fr.done() {
		switch fr.next() {
		case 1:
			p.signedPreKeyID = uint32(fr.varint())
		case 2:
			sawBase = copyExact(p.baseKey[:], fr.bytes())
		case 3:
			id := uint32(fr.varint())
			p.preKeyID = &id
		case 4:
			id := uint32(fr.varint())
			p.kyberPreKeyID = &id
		case 5:
			p.kyberCiphertext = append([]byte(nil), fr.bytes()...)
		default:
			fr.skip()
		}
	}
	if fr.malformed() || !sawBase {
		return nil, engineErr(CodeProtobufError, "malformed pending pre-key state")
	}
	return p, nil
}

func SessionRecordDeserialize(data []byte) (Session, error) {
	s := &sessionObj{}
	fr := newFieldReader(data)
	var sawRoot bool
	for !fr.done() {
		switch fr.next() {
		case 1:
			s.version = uint32(fr.varint())
		case 2:
			copyExact(s.localIdentity[:], fr.bytes())
		case 3:
			copyExact(s.remoteIdentity[:], fr.bytes())
		case 4:
			sawRoot = copyExact(s.rootKey[:], fr.bytes())
		case 5:
			copyExact(s.send.key[:], fr.bytes())
		case 6:
			s.send.counter = uint32(fr.varint())
		case 7:
			copyExact(s.recv.key[:], fr.bytes())
		case 8:
			s.recv.counter = uint32(fr.varint())
		case 9:
			s.localRegistrationID = uint32(fr.varint())
		case 10:
			s.remoteRegistrationID = uint32(fr.varint())
		case 11:
			pending, err := decodePending(fr.bytes())
			if err != nil {
				return nil, err
			}
			s.pending = pending
		default:
			fr.skip()
		}
	}
	if fr.malformed() || !sawRoot || s.version != MessageVersion {
		return nil, engineErr(CodeProtobufError, "malformed session record")
	}
	return s, nil
}

// SessionRecordClone returns an independent copy with its own lifecycle.
func SessionRecordClone(s Session) (Session, error) {
	if s == nil {
		return nil, engineErr(CodeNullParameter, "nil session")
	}
	c := *s
	if s.pending != nil {
		p := *s.pending
		p.preKeyID = cloneID(s.pending.preKeyID)
		p.kyberPreKeyID = cloneID(s.pending.kyberPreKeyID)
		p.kyberCiphertext = append([]byte(nil), s.pending.kyberCiphertext...)
		c.pending = &p
	}
	return &c, nil
}

func SessionRecordGetVersion(s Session) (uint32, error) {
	if s == nil {
		return 0, engineErr(CodeNullParameter, "nil session")
	}
	return s.version, nil
}

func SessionRecordGetRemoteRegistrationID(s Session) (uint32, error) {
	if s == nil {
		return 0, engineErr(CodeNullParameter, "nil session")
	}
	return s.remoteRegistrationID, nil
}

// SessionRecordGetRemoteIdentityKey returns the remote identity as a fresh
// public key resource.
func SessionRecordGetRemoteIdentityKey(s Session) (PublicKey, error) {
	if s == nil {
		return nil, engineErr(CodeNullParameter, "nil session")
	}
	return &publicKeyObj{ed: s.remoteIdentity}, nil
}

// SessionRecordHasPendingPreKey reports whether the session is still in its
// pre-key bootstrapping phase.
func SessionRecordHasPendingPreKey(s Session) (bool, error) {
	if s == nil {
		return false, engineErr(CodeNullParameter, "nil session")
	}
	return s.pending != nil, nil
}

func SessionRecordFree(s Session) {
	if s != nil {
		wipe(s.rootKey[:])
		wipe(s.send.key[:])
		wipe(s.recv.key[:])
	}
}

//go:build !signalffi || !cgo

package backend

// Pre-key record storage formats. Records are protobuf-framed (see
// proto.go); field numbers are part of the fallback engine's persistent
// format and must not be renumbered.

type preKeyRecordObj struct {
	id   uint32
	pub  *publicKeyObj
	priv *privateKeyObj
}

type signedPreKeyRecordObj struct {
	id        uint32
	timestamp uint64
	pub       *publicKeyObj
	priv      *privateKeyObj
	signature []byte
}

type kyberPreKeyRecordObj struct {
	id        uint32
	timestamp uint64
	pair      *kyberKeyPairObj
	signature []byte
}

type (
	PreKeyRecord       = *preKeyRecordObj
	SignedPreKeyRecord = *signedPreKeyRecordObj
	KyberPreKeyRecord  = *kyberPreKeyRecordObj
)

// PreKeyRecordNew builds a record from an id and a key pair. The record
// copies the key material; the caller's handles remain independently owned.
func PreKeyRecordNew(id uint32, pub PublicKey, priv PrivateKey) (PreKeyRecord, error) {
	if pub == nil || priv == nil {
		return nil, engineErr(CodeNullParameter, "nil key in pre-key record")
	}
	return &preKeyRecordObj{
		id:   id,
		pub:  &publicKeyObj{ed: pub.ed},
		priv: &privateKeyObj{seed: priv.seed},
	}, nil
}

func PreKeyRecordGetID(r PreKeyRecord) (uint32, error) {
	if r == nil {
		return 0, engineErr(CodeNullParameter, "nil pre-key record")
	}
	return r.id, nil
}

func PreKeyRecordGetPublicKey(r PreKeyRecord) (PublicKey, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil pre-key record")
	}
	return &publicKeyObj{ed: r.pub.ed}, nil
}

func PreKeyRecordGetPrivateKey(r PreKeyRecord) (PrivateKey, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil pre-key record")
	}
	return &privateKeyObj{seed: r.priv.seed}, nil
}

func PreKeyRecordSerialize(r PreKeyRecord) ([]byte, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil pre-key record")
	}
	b := appendVarintField(nil, 1, uint64(r.id))
	b = appendBytesField(b, 2, r.pub.ed[:])
	b = appendBytesField(b, 3, r.priv.seed[:])
	return b, nil
}

func PreKeyRecordDeserialize(data []byte) (PreKeyRecord, error) {
	r := &preKeyRecordObj{pub: &publicKeyObj{}, priv: &privateKeyObj{}}
	fr := newFieldReader(data)
	var sawPub, sawPriv bool
	for !fr.done() {
		switch fr.next() {
		case 1:
			r.id = uint32(fr.varint())
		case 2:
			sawPub = copyExact(r.pub.ed[:], fr.bytes())
		case 3:
			sawPriv = copyExact(r.priv.seed[:], fr.bytes())
		default:
			fr.skip()
		}
	}
	if fr.malformed() || !sawPub || !sawPriv {
		return nil, engineErr(CodeProtobufError, "malformed pre-key record")
	}
	return r, nil
}

func PreKeyRecordFree(r PreKeyRecord) {
	if r != nil {
		wipe(r.priv.seed[:])
	}
}

// SignedPreKeyRecordNew builds a record; signature is the identity
// signature over the serialized public key.
func SignedPreKeyRecordNew(id uint32, timestamp uint64, pub PublicKey, priv PrivateKey, signature []byte) (SignedPreKeyRecord, error) {
	if pub == nil || priv == nil {
		return nil, engineErr(CodeNullParameter, "nil key in signed pre-key record")
	}
	if len(signature) == 0 {
		return nil, engineErr(CodeInvalidArgument, "empty signed pre-key signature")
	}
	return &signedPreKeyRecordObj{
		id:        id,
		timestamp: timestamp,
		pub:       &publicKeyObj{ed: pub.ed},
		priv:      &privateKeyObj{seed: priv.seed},
		signature: append([]byte(nil), signature...),
	}, nil
}

func SignedPreKeyRecordGetID(r SignedPreKeyRecord) (uint32, error) {
	if r == nil {
		return 0, engineErr(CodeNullParameter, "nil signed pre-key record")
	}
	return r.id, nil
}

func SignedPreKeyRecordGetTimestamp(r SignedPreKeyRecord) (uint64, error) {
	if r == nil {
		return 0, engineErr(CodeNullParameter, "nil signed pre-key record")
	}
	return r.timestamp, nil
}

func SignedPreKeyRecordGetPublicKey(r SignedPreKeyRecord) (PublicKey, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil signed pre-key record")
	}
	return &publicKeyObj{ed: r.pub.ed}, nil
}

func SignedPreKeyRecordGetPrivateKey(r SignedPreKeyRecord) (PrivateKey, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil signed pre-key record")
	}
	return &privateKeyObj{seed: r.priv.seed}, nil
}

func SignedPreKeyRecordGetSignature(r SignedPreKeyRecord) ([]byte, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil signed pre-key record")
	}
	return append([]byte(nil), r.signature...), nil
}

func SignedPreKeyRecordSerialize(r SignedPreKeyRecord) ([]byte, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil signed pre-key record")
	}
	b := appendVarintField(nil, 1, uint64(r.id))
	b = appendVarintField(b, 2, r.timestamp)
	b = appendBytesField(b, 3, r.pub.ed[:])
	b = appendBytesField(b, 4, r.priv.seed[:])
	b = appendBytesField(b, 5, r.signature)
	return b, nil
}

func SignedPreKeyRecordDeserialize(data []byte) (SignedPreKeyRecord, error) {
	r := &signedPreKeyRecordObj{pub: &publicKeyObj{}, priv: &privateKeyObj{}}
	fr := newFieldReader(data)
	var sawPub, sawPriv bool
	for !fr.done() {
		switch fr.next() {
		case 1:
			r.id = uint32(fr.varint())
		case 2:
			r.timestamp = fr.varint()
		case 3:
			sawPub = copyExact(r.pub.ed[:], fr.bytes())
		case 4:
			sawPriv = copyExact(r.priv.seed[:], fr.bytes())
		case 5:
			r.signature = append([]byte(nil), fr.bytes()...)
		default:
			fr.skip()
		}
	}
	if fr.malformed() || !sawPub || !sawPriv || len(r.signature) == 0 {
		return nil, engineErr(CodeProtobufError, "malformed signed pre-key record")
	}
	return r, nil
}

func SignedPreKeyRecordFree(r SignedPreKeyRecord) {
	if r != nil {
		wipe(r.priv.seed[:])
	}
}

// KyberPreKeyRecordNew builds a record from a generated pair and the
// identity signature over the serialized Kyber public key.
func KyberPreKeyRecordNew(id uint32, timestamp uint64, pair KyberKeyPair, signature []byte) (KyberPreKeyRecord, error) {
	if pair == nil {
		return nil, engineErr(CodeNullParameter, "nil kyber key pair")
	}
	if len(signature) == 0 {
		return nil, engineErr(CodeInvalidArgument, "empty kyber pre-key signature")
	}
	return &kyberPreKeyRecordObj{
		id:        id,
		timestamp: timestamp,
		pair:      &kyberKeyPairObj{pk: pair.pk, sk: pair.sk},
		signature: append([]byte(nil), signature...),
	}, nil
}

func KyberPreKeyRecordGetID(r KyberPreKeyRecord) (uint32, error) {
	if r == nil {
		return 0, engineErr(CodeNullParameter, "nil kyber pre-key record")
	}
	return r.id, nil
}

func KyberPreKeyRecordGetTimestamp(r KyberPreKeyRecord) (uint64, error) {
	if r == nil {
		return 0, engineErr(CodeNullParameter, "nil kyber pre-key record")
	}
	return r.timestamp, nil
}

func KyberPreKeyRecordGetPublicKey(r KyberPreKeyRecord) (KyberPublicKey, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil kyber pre-key record")
	}
	return &kyberPublicKeyObj{pk: r.pair.pk}, nil
}

func KyberPreKeyRecordGetKeyPair(r KyberPreKeyRecord) (KyberKeyPair, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil kyber pre-key record")
	}
	return &kyberKeyPairObj{pk: r.pair.pk, sk: r.pair.sk}, nil
}

func KyberPreKeyRecordGetSignature(r KyberPreKeyRecord) ([]byte, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil kyber pre-key record")
	}
	return append([]byte(nil), r.signature...), nil
}

func KyberPreKeyRecordSerialize(r KyberPreKeyRecord) ([]byte, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil kyber pre-key record")
	}
	pk, err := r.pair.pk.MarshalBinary()
	if err != nil {
		return nil, engineErr(CodeInternalError, "kyber public key marshal: %v", err)
	}
	sk, err := r.pair.sk.MarshalBinary()
	if err != nil {
		return nil, engineErr(CodeInternalError, "kyber secret key marshal: %v", err)
	}
	defer wipe(sk)
	b := appendVarintField(nil, 1, uint64(r.id))
	b = appendVarintField(b, 2, r.timestamp)
	b = appendBytesField(b, 3, pk)
	b = appendBytesField(b, 4, sk)
	b = appendBytesField(b, 5, r.signature)
	return b, nil
}

func KyberPreKeyRecordDeserialize(data []byte) (KyberPreKeyRecord, error) {
	r := &kyberPreKeyRecordObj{pair: &kyberKeyPairObj{}}
	fr := newFieldReader(data)
	for !fr.done() {
		switch fr.next() {
		case 1:
			r.id = uint32(fr.varint())
		case 2:
			r.timestamp = fr.varint()
		case 3:
			pk, err := kyberScheme().UnmarshalBinaryPublicKey(fr.bytes())
			if err != nil {
				return nil, engineErr(CodeInvalidKey, "kyber public key unmarshal: %v", err)
			}
			r.pair.pk = pk
		case 4:
			sk, err := kyberScheme().UnmarshalBinaryPrivateKey(fr.bytes())
			if err != nil {
				return nil, engineErr(CodeInvalidKey, "kyber secret key unmarshal: %v", err)
			}
			r.pair.sk = sk
		case 5:
			r.signature = append([]byte(nil), fr.bytes()...)
		default:
			fr.skip()
		}
	}
	if fr.malformed() || r.pair.pk == nil || r.pair.sk == nil || len(r.signature) == 0 {
		return nil, engineErr(CodeProtobufError, "malformed kyber pre-key record")
	}
	return r, nil
}

func KyberPreKeyRecordFree(r KyberPreKeyRecord) {
	if r != nil {
		r.pair.pk, r.pair.sk = nil, nil
	}
}

// copyExact copies src into dst only when the lengths match exactly and
// reports whether it did.
func copyExact(dst, src []byte) bool {
	if len(src) != len(dst) {
		return false
	}
	copy(dst, src)
	return true
}

//go:build !signalffi || !cgo

package backend

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"slices"
)

// Group messaging: one sender chain per (distribution id), fanned out with
// a distribution message and advanced by counter like the session chains.
// Sender-key messages are signed so group members can authenticate the
// sender without pairwise sessions.

type senderChain struct {
	chainID     uint32
	iteration   uint32
	chainKey    [32]byte
	signingPub  [32]byte
	signingPriv *privateKeyObj // nil for chains learned from a distribution message
}

type senderKeyRecordObj struct {
	// chains is keyed by the 16-byte distribution id.
	chains map[[16]byte]*senderChain
}

type senderKeyDistributionMessageObj struct {
	distributionID [16]byte
	chainID        uint32
	iteration      uint32
	chainKey       [32]byte
	signingKey     []byte // serialized public key, 33 bytes
	raw            []byte
}

type senderKeyMessageObj struct {
	distributionID [16]byte
	chainID        uint32
	iteration      uint32
	raw            []byte
}

type (
	SenderKeyRecord              = *senderKeyRecordObj
	SenderKeyDistributionMessage = *senderKeyDistributionMessageObj
	SenderKeyMessage             = *senderKeyMessageObj
)

// senderKeyMessage framing: version byte, distribution id, chain id,
// iteration, GCM payload, trailing Ed25519 signature.
const senderKeyOverhead = 1 + 16 + 4 + 4 + 16 + ed25519.SignatureSize

// SenderKeyRecordNew returns an empty record with no chains.
func SenderKeyRecordNew() (SenderKeyRecord, error) {
	return &senderKeyRecordObj{chains: make(map[[16]byte]*senderChain)}, nil
}

// SenderKeyCreateDistribution ensures the record owns a sending chain for
// distributionID and returns the serialized distribution message that lets
// group members install it.
func SenderKeyCreateDistribution(r SenderKeyRecord, distributionID [16]byte) ([]byte, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil sender-key record")
	}
	chain, ok := r.chains[distributionID]
	if !ok || chain.signingPriv == nil {
		chainID, err := randomID()
		if err != nil {
			return nil, err
		}
		signing, err := GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		signingPub, err := PrivateKeyGetPublicKey(signing)
		if err != nil {
			return nil, err
		}
		chain = &senderChain{chainID: chainID, signingPriv: signing, signingPub: signingPub.ed}
		if _, err := rand.Read(chain.chainKey[:]); err != nil {
			return nil, engineErr(CodeInternalError, "entropy: %v", err)
		}
		r.chains[distributionID] = chain
	}

	out := make([]byte, 0, 90)
	out = append(out, versionByte)
	out = append(out, distributionID[:]...)
	out = binary.BigEndian.AppendUint32(out, chain.chainID)
	out = binary.BigEndian.AppendUint32(out, chain.iteration)
	out = append(out, chain.chainKey[:]...)
	out = append(out, keyTypeDJB)
	out = append(out, chain.signingPub[:]...)
	return out, nil
}

// SenderKeyDistributionMessageDeserialize parses a distribution message.
func SenderKeyDistributionMessageDeserialize(data []byte) (SenderKeyDistributionMessage, error) {
	if len(data) != 90 || data[0] != versionByte || data[57] != keyTypeDJB {
		return nil, engineErr(CodeInvalidMessage, "malformed sender-key distribution message")
	}
	m := &senderKeyDistributionMessageObj{raw: bytes.Clone(data)}
	copy(m.distributionID[:], m.raw[1:17])
	m.chainID = binary.BigEndian.Uint32(m.raw[17:21])
	m.iteration = binary.BigEndian.Uint32(m.raw[21:25])
	copy(m.chainKey[:], m.raw[25:57])
	m.signingKey = m.raw[57:90]
	return m, nil
}

func SenderKeyDistributionMessageGetDistributionID(m SenderKeyDistributionMessage) ([16]byte, error) {
	if m == nil {
		return [16]byte{}, engineErr(CodeNullParameter, "nil distribution message")
	}
	return m.distributionID, nil
}

func SenderKeyDistributionMessageGetChainID(m SenderKeyDistributionMessage) (uint32, error) {
	if m == nil {
		return 0, engineErr(CodeNullParameter, "nil distribution message")
	}
	return m.chainID, nil
}

func SenderKeyDistributionMessageGetIteration(m SenderKeyDistributionMessage) (uint32, error) {
	if m == nil {
		return 0, engineErr(CodeNullParameter, "nil distribution message")
	}
	return m.iteration, nil
}

func SenderKeyDistributionMessageSerialize(m SenderKeyDistributionMessage) ([]byte, error) {
	if m == nil {
		return nil, engineErr(CodeNullParameter, "nil distribution message")
	}
	return bytes.Clone(m.raw), nil
}

func SenderKeyDistributionMessageFree(m SenderKeyDistributionMessage) {
	if m != nil {
		m.raw = nil
	}
}

// SenderKeyMessageDeserialize parses a group message header. Authenticity
// is established by SenderKeyDecrypt, not here.
func SenderKeyMessageDeserialize(data []byte) (SenderKeyMessage, error) {
	if len(data) < senderKeyOverhead || data[0] != versionByte {
		return nil, engineErr(CodeInvalidMessage, "malformed sender-key message")
	}
	m := &senderKeyMessageObj{raw: bytes.Clone(data)}
	copy(m.distributionID[:], m.raw[1:17])
	m.chainID = binary.BigEndian.Uint32(m.raw[17:21])
	m.iteration = binary.BigEndian.Uint32(m.raw[21:25])
	return m, nil
}

func SenderKeyMessageGetDistributionID(m SenderKeyMessage) ([16]byte, error) {
	if m == nil {
		return [16]byte{}, engineErr(CodeNullParameter, "nil sender-key message")
	}
	return m.distributionID, nil
}

func SenderKeyMessageGetChainID(m SenderKeyMessage) (uint32, error) {
	if m == nil {
		return 0, engineErr(CodeNullParameter, "nil sender-key message")
	}
	return m.chainID, nil
}

func SenderKeyMessageGetIteration(m SenderKeyMessage) (uint32, error) {
	if m == nil {
		return 0, engineErr(CodeNullParameter, "nil sender-key message")
	}
	return m.iteration, nil
}

func SenderKeyMessageSerialize(m SenderKeyMessage) ([]byte, error) {
	if m == nil {
		return nil, engineErr(CodeNullParameter, "nil sender-key message")
	}
	return bytes.Clone(m.raw), nil
}

func SenderKeyMessageFree(m SenderKeyMessage) {
	if m != nil {
		m.raw = nil
	}
}

// SenderKeyProcessDistribution installs the chain announced by a
// distribution message into the record.
func SenderKeyProcessDistribution(r SenderKeyRecord, m SenderKeyDistributionMessage) error {
	if r == nil || m == nil {
		return engineErr(CodeNullParameter, "nil record or distribution message")
	}
	chain := &senderChain{
		chainID:   m.chainID,
		iteration: m.iteration,
		chainKey:  m.chainKey,
	}
	copy(chain.signingPub[:], m.signingKey[1:])
	r.chains[m.distributionID] = chain
	return nil
}

// SenderKeyEncrypt encrypts a group message under the record's sending
// chain for distributionID and signs the result.
func SenderKeyEncrypt(r SenderKeyRecord, distributionID [16]byte, plaintext []byte) ([]byte, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil sender-key record")
	}
	chain, ok := r.chains[distributionID]
	if !ok || chain.signingPriv == nil {
		return nil, engineErr(CodeSessionNotFound, "no sending chain for distribution")
	}

	key, nonce := messageKey(&chain.chainKey, chain.iteration)
	defer wipe(key[:])

	header := make([]byte, 0, 25)
	header = append(header, versionByte)
	header = append(header, distributionID[:]...)
	header = binary.BigEndian.AppendUint32(header, chain.chainID)
	header = binary.BigEndian.AppendUint32(header, chain.iteration)

	body := gcmFor(&key).Seal(header, nonce[:], plaintext, chain.signingPub[:])
	sig, err := PrivateKeySign(chain.signingPriv, body)
	if err != nil {
		return nil, err
	}
	chain.iteration++
	return append(body, sig...), nil
}

// SenderKeyDecrypt authenticates and decrypts a group message using the
// chain previously installed from the sender's distribution message.
func SenderKeyDecrypt(r SenderKeyRecord, distributionID [16]byte, data []byte) ([]byte, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil sender-key record")
	}
	if len(data) < senderKeyOverhead || data[0] != versionByte {
		return nil, engineErr(CodeInvalidMessage, "malformed sender-key message")
	}
	chain, ok := r.chains[distributionID]
	if !ok {
		return nil, engineErr(CodeSessionNotFound, "no chain for distribution")
	}

	sigStart := len(data) - ed25519.SignatureSize
	body, sig := data[:sigStart], data[sigStart:]
	if !ed25519.Verify(ed25519.PublicKey(chain.signingPub[:]), body, sig) {
		return nil, engineErr(CodeInvalidSignature, "sender-key signature verification failed")
	}

	if subtle.ConstantTimeCompare(body[1:17], distributionID[:]) != 1 {
		return nil, engineErr(CodeInvalidMessage, "distribution id mismatch")
	}
	iteration := binary.BigEndian.Uint32(body[21:25])

	key, nonce := messageKey(&chain.chainKey, iteration)
	defer wipe(key[:])
	plaintext, err := gcmFor(&key).Open(nil, nonce[:], body[25:], chain.signingPub[:])
	if err != nil {
		return nil, engineErr(CodeInvalidMessage, "sender-key message authentication failed")
	}
	return plaintext, nil
}

// SenderKeyRecordSerialize persists every chain, including the signing
// private key for chains this record sends on. Chains are emitted in
// distribution-id order so the same record always serializes to the same
// bytes.
func SenderKeyRecordSerialize(r SenderKeyRecord) ([]byte, error) {
	if r == nil {
		return nil, engineErr(CodeNullParameter, "nil sender-key record")
	}
	ids := make([][16]byte, 0, len(r.chains))
	for dist := range r.chains {
		ids = append(ids, dist)
	}
	slices.SortFunc(ids, func(a, b [16]byte) int { return bytes.Compare(a[:], b[:]) })

	var b []byte
	for _, dist := range ids {
		chain := r.chains[dist]
		c := appendBytesField(nil, 1, dist[:])
		c = appendVarintField(c, 2, uint64(chain.chainID))
		c = appendVarintField(c, 3, uint64(chain.iteration))
		c = appendBytesField(c, 4, chain.chainKey[:])
		c = appendBytesField(c, 5, chain.signingPub[:])
		if chain.signingPriv != nil {
			c = appendBytesField(c, 6, chain.signingPriv.seed[:])
		}
		b = appendBytesField(b, 1, c)
	}
	if len(b) == 0 {
		// An empty record still needs a stable non-empty encoding.
		b = appendVarintField(nil, 2, 0)
	}
	return b, nil
}

func SenderKeyRecordDeserialize(data []byte) (SenderKeyRecord, error) {
	r := &senderKeyRecordObj{chains: make(map[[16]byte]*senderChain)}
	fr := newFieldReader(data)
	for !fr.done() {
		switch fr.next() {
		case 1:
			if err := r.decodeChain(fr.bytes()); err != nil {
				return nil, err
			}
		default:
			fr.skip()
		}
	}
	if fr.malformed() {
		return nil, engineErr(CodeProtobufError, "malformed sender-key record")
	}
	return r, nil
}

func (r *senderKeyRecordObj) decodeChain(data []byte) error {
	chain := &senderChain{}
	var dist [16]byte
	fr := newFieldReader(data)
	var sawDist, sawKey bool
	for !fr.done() {
		switch fr.next() {
		case 1:
			sawDist = copyExact(dist[:], fr.bytes())
		case 2:
			chain.chainID = uint32(fr.varint())
		case 3:
			chain.iteration = uint32(fr.varint())
		case 4:
			sawKey = copyExact(chain.chainKey[:], fr.bytes())
		case 5:
			copyExact(chain.signingPub[:], fr.bytes())
		case 6:
			priv := &privateKeyObj{}
			if copyExact(priv.seed[:], fr.bytes()) {
				chain.signingPriv = priv
			}
		default:
			fr.skip()
		}
	}
	if fr.malformed() || !sawDist || !sawKey {
		return engineErr(CodeProtobufError, "malformed sender chain")
	}
	r.chains[dist] = chain
	return nil
}

func SenderKeyRecordFree(r SenderKeyRecord) {
	if r == nil {
		return
	}
	for _, chain := range r.chains {
		wipe(chain.chainKey[:])
		if chain.signingPriv != nil {
			wipe(chain.signingPriv.seed[:])
		}
	}
	r.chains = nil
}

//go:build !signalffi || !cgo

package backend

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Fallback session engine: an X3DH-shaped agreement (with optional one-time
// and Kyber pre-keys) feeding two direction-bound symmetric chains, with
// per-message keys derived by counter and AES-256-GCM for the payload. The
// native engine runs the full double ratchet; this keeps the same external
// contract (message framing, counters, pre-key bootstrapping) with a
// deliberately smaller state machine.

const (
	versionByte = MessageVersion<<4 | MessageVersion

	// whisperOverhead is the framing around a GCM payload: version byte,
	// 4-byte counter, 16-byte tag.
	whisperOverhead = 1 + 4 + 16

	prekeyFlagOneTime = 0x01
	prekeyFlagKyber   = 0x02
)

type chainState struct {
	key     [32]byte
	counter uint32
}

type pendingPreKeyState struct {
	preKeyID        *uint32
	signedPreKeyID  uint32
	kyberPreKeyID   *uint32
	baseKey         [32]byte
	kyberCiphertext []byte
}

type sessionObj struct {
	version             uint32
	localIdentity       [32]byte
	remoteIdentity      [32]byte
	rootKey             [32]byte
	send                chainState
	recv                chainState
	localRegistrationID uint32
	remoteRegistrationID uint32
	pending             *pendingPreKeyState
}

// Session is the handle alias for an established (or bootstrapping) session.
type Session = *sessionObj

// InitiateParams carries everything the initiator side needs to establish a
// session from a pre-key bundle. Optional fields are nil when the bundle
// did not include the corresponding pre-key.
type InitiateParams struct {
	OurIdentity         PrivateKey
	OurRegistrationID   uint32
	TheirIdentity       PublicKey
	TheirSignedPreKey   PublicKey
	TheirOneTimePreKey  PublicKey      // optional
	TheirKyberPreKey    KyberPublicKey // optional
	PreKeyID            *uint32
	SignedPreKeyID      uint32
	KyberPreKeyID       *uint32
	TheirRegistrationID uint32
}

// RespondParams carries the responder-side private material matching the
// ids announced in an incoming pre-key message.
type RespondParams struct {
	OurIdentity         PrivateKey
	OurRegistrationID   uint32
	OurSignedPreKey     PrivateKey
	OurOneTimePreKey    PrivateKey   // nil when the message used none
	OurKyberPreKey      KyberKeyPair // nil when the message used none
	TheirIdentity       PublicKey
	TheirBaseKey        PublicKey
	KyberCiphertext     []byte
	TheirRegistrationID uint32
}

// SessionInitiate performs the initiator half of the agreement and returns
// a session ready to emit pre-key messages.
func SessionInitiate(p *InitiateParams) (Session, error) {
	if p == nil || p.OurIdentity == nil || p.TheirIdentity == nil || p.TheirSignedPreKey == nil {
		return nil, engineErr(CodeNullParameter, "missing required key for session initiation")
	}

	base, err := GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	defer PrivateKeyFree(base)
	basePub, err := PrivateKeyGetPublicKey(base)
	if err != nil {
		return nil, err
	}

	dh1, err := PrivateKeyAgree(p.OurIdentity, p.TheirSignedPreKey)
	if err != nil {
		return nil, err
	}
	defer wipe(dh1)
	dh2, err := PrivateKeyAgree(base, p.TheirIdentity)
	if err != nil {
		return nil, err
	}
	defer wipe(dh2)
	dh3, err := PrivateKeyAgree(base, p.TheirSignedPreKey)
	if err != nil {
		return nil, err
	}
	defer wipe(dh3)

	master := make([]byte, 0, 32*6)
	master = append(master, discontinuity()...)
	master = append(master, dh1...)
	master = append(master, dh2...)
	master = append(master, dh3...)
	if p.TheirOneTimePreKey != nil {
		dh4, err := PrivateKeyAgree(base, p.TheirOneTimePreKey)
		if err != nil {
			return nil, err
		}
		master = append(master, dh4...)
		wipe(dh4)
	}

	var kyberCiphertext []byte
	if p.TheirKyberPreKey != nil {
		ct, ss, err := kyberScheme().Encapsulate(p.TheirKyberPreKey.pk)
		if err != nil {
			return nil, engineErr(CodeInternalError, "kyber encapsulation: %v", err)
		}
		master = append(master, ss...)
		wipe(ss)
		kyberCiphertext = ct
	}
	defer wipe(master)

	s := &sessionObj{
		version:              MessageVersion,
		localRegistrationID:  p.OurRegistrationID,
		remoteRegistrationID: p.TheirRegistrationID,
	}
	ourPub, err := PrivateKeyGetPublicKey(p.OurIdentity)
	if err != nil {
		return nil, err
	}
	s.localIdentity = ourPub.ed
	s.remoteIdentity = p.TheirIdentity.ed
	deriveSession(master, &s.rootKey, &s.send.key, &s.recv.key)

	s.pending = &pendingPreKeyState{
		preKeyID:        cloneID(p.PreKeyID),
		signedPreKeyID:  p.SignedPreKeyID,
		kyberPreKeyID:   cloneID(p.KyberPreKeyID),
		baseKey:         basePub.ed,
		kyberCiphertext: kyberCiphertext,
	}
	return s, nil
}

// SessionRespond performs the responder half, mirroring SessionInitiate's
// derivation with the chain directions swapped.
func SessionRespond(p *RespondParams) (Session, error) {
	if p == nil || p.OurIdentity == nil || p.OurSignedPreKey == nil ||
		p.TheirIdentity == nil || p.TheirBaseKey == nil {
		return nil, engineErr(CodeNullParameter, "missing required key for session response")
	}

	dh1, err := PrivateKeyAgree(p.OurSignedPreKey, p.TheirIdentity)
	if err != nil {
		return nil, err
	}
	defer wipe(dh1)
	dh2, err := PrivateKeyAgree(p.OurIdentity, p.TheirBaseKey)
	if err != nil {
		return nil, err
	}
	defer wipe(dh2)
	dh3, err := PrivateKeyAgree(p.OurSignedPreKey, p.TheirBaseKey)
	if err != nil {
		return nil, err
	}
	defer wipe(dh3)

	master := make([]byte, 0, 32*6)
	master = append(master, discontinuity()...)
	master = append(master, dh1...)
	master = append(master, dh2...)
	master = append(master, dh3...)
	if p.OurOneTimePreKey != nil {
		dh4, err := PrivateKeyAgree(p.OurOneTimePreKey, p.TheirBaseKey)
		if err != nil {
			return nil, err
		}
		master = append(master, dh4...)
		wipe(dh4)
	}
	if p.OurKyberPreKey != nil {
		if len(p.KyberCiphertext) == 0 {
			return nil, engineErr(CodeInvalidMessage, "missing kyber ciphertext")
		}
		ss, err := kyberScheme().Decapsulate(p.OurKyberPreKey.sk, p.KyberCiphertext)
		if err != nil {
			return nil, engineErr(CodeInvalidMessage, "kyber decapsulation: %v", err)
		}
		master = append(master, ss...)
		wipe(ss)
	}
	defer wipe(master)

	s := &sessionObj{
		version:              MessageVersion,
		localRegistrationID:  p.OurRegistrationID,
		remoteRegistrationID: p.TheirRegistrationID,
	}
	ourPub, err := PrivateKeyGetPublicKey(p.OurIdentity)
	if err != nil {
		return nil, err
	}
	s.localIdentity = ourPub.ed
	s.remoteIdentity = p.TheirIdentity.ed
	// Mirrored: the responder's receive chain is the initiator's send chain.
	deriveSession(master, &s.rootKey, &s.recv.key, &s.send.key)
	return s, nil
}

// discontinuity is the fixed 32-byte 0xFF prefix that domain-separates the
// master secret input from any valid agreement output.
func discontinuity() []byte {
	d := make([]byte, 32)
	for i := range d {
		d[i] = 0xFF
	}
	return d
}

func deriveSession(master []byte, root, chainA, chainB *[32]byte) {
	okm := make([]byte, 96)
	kdf := hkdf.New(sha256.New, master, nil, []byte("signal-go session v3"))
	if _, err := io.ReadFull(kdf, okm); err != nil {
		panic("hkdf: " + err.Error()) // cannot fail for 96 bytes
	}
	copy(root[:], okm[0:32])
	copy(chainA[:], okm[32:64])
	copy(chainB[:], okm[64:96])
	wipe(okm)
}

// messageKey derives the per-message cipher key and nonce for one counter
// value on one chain.
func messageKey(chain *[32]byte, counter uint32) (key [32]byte, nonce [12]byte) {
	mac := hmac.New(sha256.New, chain[:])
	var hdr [5]byte
	hdr[0] = 0x01
	binary.BigEndian.PutUint32(hdr[1:], counter)
	mac.Write(hdr[:])
	mk := mac.Sum(nil)

	okm := make([]byte, 44)
	kdf := hkdf.New(sha256.New, mk, nil, []byte("signal-go message"))
	if _, err := io.ReadFull(kdf, okm); err != nil {
		panic("hkdf: " + err.Error())
	}
	copy(key[:], okm[:32])
	copy(nonce[:], okm[32:])
	wipe(okm)
	wipe(mk)
	return key, nonce
}

func gcmFor(key *[32]byte) cipher.AEAD {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic("aes: " + err.Error()) // key size is fixed
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		panic("gcm: " + err.Error())
	}
	return aead
}

// SessionEncrypt encrypts plaintext under the session's send chain. The
// returned message is a pre-key message while the session still awaits its
// first inbound reply, and a whisper message afterwards.
//
// The counter is per-session, monotone, and not safe for concurrent use:
// a session has one logical owner.
func SessionEncrypt(s Session, plaintext []byte) ([]byte, int, error) {
	if s == nil {
		return nil, 0, engineErr(CodeNullParameter, "nil session")
	}

	counter := s.send.counter
	key, nonce := messageKey(&s.send.key, counter)
	defer wipe(key[:])

	header := make([]byte, 5)
	header[0] = versionByte
	binary.BigEndian.PutUint32(header[1:], counter)

	aad := make([]byte, 0, 64)
	aad = append(aad, s.localIdentity[:]...)
	aad = append(aad, s.remoteIdentity[:]...)

	msg := gcmFor(&key).Seal(header, nonce[:], plaintext, aad)
	s.send.counter = counter + 1

	if s.pending == nil {
		return msg, MessageTypeWhisper, nil
	}
	return s.wrapPreKeyMessage(msg), MessageTypePreKey, nil
}

func (s *sessionObj) wrapPreKeyMessage(inner []byte) []byte {
	p := s.pending
	out := make([]byte, 0, 90+len(p.kyberCiphertext)+len(inner))
	out = append(out, versionByte)
	out = binary.BigEndian.AppendUint32(out, s.localRegistrationID)

	var flags byte
	if p.preKeyID != nil {
		flags |= prekeyFlagOneTime
	}
	if p.kyberPreKeyID != nil {
		flags |= prekeyFlagKyber
	}
	out = append(out, flags)
	if p.preKeyID != nil {
		out = binary.BigEndian.AppendUint32(out, *p.preKeyID)
	}
	out = binary.BigEndian.AppendUint32(out, p.signedPreKeyID)
	if p.kyberPreKeyID != nil {
		out = binary.BigEndian.AppendUint32(out, *p.kyberPreKeyID)
		out = binary.BigEndian.AppendUint16(out, uint16(len(p.kyberCiphertext)))
		out = append(out, p.kyberCiphertext...)
	}
	out = append(out, keyTypeDJB)
	out = append(out, p.baseKey[:]...)
	out = append(out, keyTypeDJB)
	out = append(out, s.localIdentity[:]...)
	return append(out, inner...)
}

// SessionDecryptMessage decrypts a whisper message under the receive chain.
// A successful decrypt confirms the session: any pending pre-key
// bootstrapping state is discarded.
func SessionDecryptMessage(s Session, data []byte) ([]byte, error) {
	if s == nil {
		return nil, engineErr(CodeNullParameter, "nil session")
	}
	if len(data) < whisperOverhead || data[0] != versionByte {
		return nil, engineErr(CodeInvalidMessage, "malformed whisper message")
	}
	counter := binary.BigEndian.Uint32(data[1:5])
	if counter < s.recv.counter {
		return nil, engineErr(CodeDuplicatedMessage, "message counter %d already consumed", counter)
	}

	key, nonce := messageKey(&s.recv.key, counter)
	defer wipe(key[:])

	aad := make([]byte, 0, 64)
	aad = append(aad, s.remoteIdentity[:]...)
	aad = append(aad, s.localIdentity[:]...)

	plaintext, err := gcmFor(&key).Open(nil, nonce[:], data[5:], aad)
	if err != nil {
		return nil, engineErr(CodeInvalidMessage, "message authentication failed")
	}
	s.recv.counter = counter + 1
	s.pending = nil
	return plaintext, nil
}

// randomID returns a random 31-bit identifier, used where the protocol
// needs fresh chain or key ids.
func randomID() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, engineErr(CodeInternalError, "entropy: %v", err)
	}
	return binary.BigEndian.Uint32(b[:]) &^ (1 << 31), nil
}

func cloneID(id *uint32) *uint32 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

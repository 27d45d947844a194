//go:build signalffi && cgo

package backend

// NativeBuilt reports at compile time which engine this binary carries.
const NativeBuilt = true

// Version returns the engine's self-reported version. The C API exposes
// none, so the linked library is identified by its soname.
func Version() string { return "signal_ffi" }

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

// The operations below need the store-callback vtables
// (SignalSessionStore and friends) bridged into Go. That bridge is not
// wired yet, so the native build stages them behind ErrNotBuilt; the
// fallback engine implements them fully. The cgo callback shims for
// signal_process_prekey_bundle and the group cipher entry points will
// replace this staging once they land.

func SessionInitiate(p *InitiateParams) (Session, error) {
	return nil, ErrNotBuilt
}

func SessionRespond(p *RespondParams) (Session, error) {
	return nil, ErrNotBuilt
}

func SessionEncrypt(s Session, plaintext []byte) ([]byte, int, error) {
	return nil, 0, ErrNotBuilt
}

func SessionDecryptMessage(s Session, data []byte) ([]byte, error) {
	return nil, ErrNotBuilt
}

func SenderKeyRecordNew() (SenderKeyRecord, error) {
	return nil, ErrNotBuilt
}

func SenderKeyCreateDistribution(r SenderKeyRecord, distributionID [16]byte) ([]byte, error) {
	return nil, ErrNotBuilt
}

func SenderKeyProcessDistribution(r SenderKeyRecord, m SenderKeyDistributionMessage) error {
	return ErrNotBuilt
}

func SenderKeyEncrypt(r SenderKeyRecord, distributionID [16]byte, plaintext []byte) ([]byte, error) {
	return nil, ErrNotBuilt
}

func SenderKeyDecrypt(r SenderKeyRecord, distributionID [16]byte, data []byte) ([]byte, error) {
	return nil, ErrNotBuilt
}

func PreKeySignalMessageGetKyberPreKeyID(m PreKeySignalMessage) (*uint32, error) {
	return nil, ErrNotBuilt
}

func PreKeySignalMessageGetKyberCiphertext(m PreKeySignalMessage) ([]byte, error) {
	return nil, ErrNotBuilt
}

func PreKeySignalMessageGetEmbedded(m PreKeySignalMessage) ([]byte, error) {
	return nil, ErrNotBuilt
}

//go:build signalffi && cgo

package backend

// Bindings to the native engine through signal_ffi.h. Build with
// -tags signalffi and the library on the linker path.
//
// Conventions, fixed by the C API: every function returns a
// *SignalFfiError (null on success) and writes results through out
// parameters; pointers cross the boundary inside SignalConstPointerX /
// SignalMutPointerX wrapper structs; inputs are borrowed buffers valid for
// the call only; outputs are owned buffers the Go side copies and then
// frees exactly once.

/*
#cgo LDFLAGS: -lsignal_ffi -ldl -lm
#include <stdlib.h>
#include "signal_ffi.h"
*/
import "C"

import (
	"unsafe"
)

// Handle aliases for the native build.
type (
	PublicKey                    = *C.SignalPublicKey
	PrivateKey                   = *C.SignalPrivateKey
	KyberPublicKey               = *C.SignalKyberPublicKey
	KyberKeyPair                 = *C.SignalKyberKeyPair
	PreKeyRecord                 = *C.SignalPreKeyRecord
	SignedPreKeyRecord           = *C.SignalSignedPreKeyRecord
	KyberPreKeyRecord            = *C.SignalKyberPreKeyRecord
	Session                      = *C.SignalSessionRecord
	SenderKeyRecord              = *C.SignalSenderKeyRecord
	SignalMessage                = *C.SignalMessage
	PreKeySignalMessage          = *C.SignalPreKeySignalMessage
	SenderKeyDistributionMessage = *C.SignalSenderKeyDistributionMessage
	SenderKeyMessage             = *C.SignalSenderKeyMessage
	ServerCertificate            = *C.SignalServerCertificate
	SenderCertificate            = *C.SignalSenderCertificate
)

// drainError extracts the code and message from a native error object,
// frees it, and returns a Go-owned NativeError. The native object must not
// be touched again: extract, free, then report.
func drainError(cerr *C.SignalFfiError) error {
	if cerr == nil {
		return nil
	}
	code := int32(C.signal_error_get_type(cerr))
	var msg string
	var cmsg *C.char
	if C.signal_error_get_message(cerr, &cmsg) == nil && cmsg != nil {
		msg = C.GoString(cmsg)
		C.signal_free_string(cmsg)
	}
	C.signal_error_free(cerr)
	return &NativeError{Code: code, Message: msg}
}

// borrow wraps a Go slice for a single synchronous native call. The
// caller must keep the slice alive across the call.
func borrow(data []byte) C.SignalBorrowedBuffer {
	var buf C.SignalBorrowedBuffer
	buf.length = C.size_t(len(data))
	if len(data) > 0 {
		buf.base = (*C.uchar)(unsafe.Pointer(&data[0]))
	}
	return buf
}

// copyAndFreeOwned copies a native-owned buffer into Go memory, zeroes the
// native copy, and frees it exactly once.
func copyAndFreeOwned(buf C.SignalOwnedBuffer) []byte {
	if buf.base == nil || buf.length == 0 {
		return nil
	}
	out := C.GoBytes(unsafe.Pointer(buf.base), C.int(buf.length))
	C.memset(unsafe.Pointer(buf.base), 0, buf.length)
	C.signal_free_buffer(buf.base, buf.length)
	return out
}

// noPreKeyID is the sentinel the C API uses for absent optional key ids.
const noPreKeyID = 0xFFFFFFFF

func optionalID(v C.uint32_t) *uint32 {
	if uint32(v) == noPreKeyID {
		return nil
	}
	id := uint32(v)
	return &id
}

func GeneratePrivateKey() (PrivateKey, error) {
	var out C.SignalMutPointerPrivateKey
	if err := drainError(C.signal_privatekey_generate(&out)); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PrivateKeyDeserialize(data []byte) (PrivateKey, error) {
	var out C.SignalMutPointerPrivateKey
	if err := drainError(C.signal_privatekey_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PrivateKeySerialize(k PrivateKey) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_privatekey_serialize(&buf, C.SignalConstPointerPrivateKey{raw: k})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func PrivateKeyGetPublicKey(k PrivateKey) (PublicKey, error) {
	var out C.SignalMutPointerPublicKey
	if err := drainError(C.signal_privatekey_get_public_key(&out, C.SignalConstPointerPrivateKey{raw: k})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PrivateKeySign(k PrivateKey, message []byte) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_privatekey_sign(&buf, C.SignalConstPointerPrivateKey{raw: k}, borrow(message))); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func PrivateKeyAgree(k PrivateKey, peer PublicKey) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	err := drainError(C.signal_privatekey_agree(&buf,
		C.SignalConstPointerPrivateKey{raw: k}, C.SignalConstPointerPublicKey{raw: peer}))
	if err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func PrivateKeyFree(k PrivateKey) {
	if k != nil {
		C.signal_privatekey_destroy(C.SignalMutPointerPrivateKey{raw: k})
	}
}

func PublicKeyDeserialize(data []byte) (PublicKey, error) {
	var out C.SignalMutPointerPublicKey
	if err := drainError(C.signal_publickey_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PublicKeySerialize(p PublicKey) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_publickey_serialize(&buf, C.SignalConstPointerPublicKey{raw: p})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func PublicKeyVerify(p PublicKey, message, signature []byte) (bool, error) {
	var ok C.bool
	err := drainError(C.signal_publickey_verify(&ok,
		C.SignalConstPointerPublicKey{raw: p}, borrow(message), borrow(signature)))
	if err != nil {
		return false, err
	}
	return bool(ok), nil
}

func PublicKeyCompare(a, b PublicKey) (int, error) {
	var out C.int32_t
	err := drainError(C.signal_publickey_compare(&out,
		C.SignalConstPointerPublicKey{raw: a}, C.SignalConstPointerPublicKey{raw: b}))
	if err != nil {
		return 0, err
	}
	return int(out), nil
}

func PublicKeyClone(p PublicKey) (PublicKey, error) {
	var out C.SignalMutPointerPublicKey
	if err := drainError(C.signal_publickey_clone(&out, C.SignalConstPointerPublicKey{raw: p})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PublicKeyFree(p PublicKey) {
	if p != nil {
		C.signal_publickey_destroy(C.SignalMutPointerPublicKey{raw: p})
	}
}

func KyberKeyPairGenerate() (KyberKeyPair, error) {
	var out C.SignalMutPointerKyberKeyPair
	if err := drainError(C.signal_kyber_key_pair_generate(&out)); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func KyberKeyPairGetPublicKey(kp KyberKeyPair) (KyberPublicKey, error) {
	var out C.SignalMutPointerKyberPublicKey
	if err := drainError(C.signal_kyber_key_pair_get_public_key(&out, C.SignalConstPointerKyberKeyPair{raw: kp})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func KyberKeyPairFree(kp KyberKeyPair) {
	if kp != nil {
		C.signal_kyber_key_pair_destroy(C.SignalMutPointerKyberKeyPair{raw: kp})
	}
}

func KyberPublicKeySerialize(p KyberPublicKey) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_kyber_public_key_serialize(&buf, C.SignalConstPointerKyberPublicKey{raw: p})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func KyberPublicKeyDeserialize(data []byte) (KyberPublicKey, error) {
	var out C.SignalMutPointerKyberPublicKey
	if err := drainError(C.signal_kyber_public_key_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func KyberPublicKeyFree(p KyberPublicKey) {
	if p != nil {
		C.signal_kyber_public_key_destroy(C.SignalMutPointerKyberPublicKey{raw: p})
	}
}

func PreKeyRecordNew(id uint32, pub PublicKey, priv PrivateKey) (PreKeyRecord, error) {
	var out C.SignalMutPointerPreKeyRecord
	err := drainError(C.signal_pre_key_record_new(&out, C.uint32_t(id),
		C.SignalConstPointerPublicKey{raw: pub}, C.SignalConstPointerPrivateKey{raw: priv}))
	if err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PreKeyRecordGetID(r PreKeyRecord) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_pre_key_record_get_id(&out, C.SignalConstPointerPreKeyRecord{raw: r})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func PreKeyRecordGetPublicKey(r PreKeyRecord) (PublicKey, error) {
	var out C.SignalMutPointerPublicKey
	if err := drainError(C.signal_pre_key_record_get_public_key(&out, C.SignalConstPointerPreKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PreKeyRecordGetPrivateKey(r PreKeyRecord) (PrivateKey, error) {
	var out C.SignalMutPointerPrivateKey
	if err := drainError(C.signal_pre_key_record_get_private_key(&out, C.SignalConstPointerPreKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PreKeyRecordSerialize(r PreKeyRecord) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_pre_key_record_serialize(&buf, C.SignalConstPointerPreKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func PreKeyRecordDeserialize(data []byte) (PreKeyRecord, error) {
	var out C.SignalMutPointerPreKeyRecord
	if err := drainError(C.signal_pre_key_record_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PreKeyRecordFree(r PreKeyRecord) {
	if r != nil {
		C.signal_pre_key_record_destroy(C.SignalMutPointerPreKeyRecord{raw: r})
	}
}

func SignedPreKeyRecordNew(id uint32, timestamp uint64, pub PublicKey, priv PrivateKey, signature []byte) (SignedPreKeyRecord, error) {
	var out C.SignalMutPointerSignedPreKeyRecord
	err := drainError(C.signal_signed_pre_key_record_new(&out, C.uint32_t(id), C.uint64_t(timestamp),
		C.SignalConstPointerPublicKey{raw: pub}, C.SignalConstPointerPrivateKey{raw: priv}, borrow(signature)))
	if err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SignedPreKeyRecordGetID(r SignedPreKeyRecord) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_signed_pre_key_record_get_id(&out, C.SignalConstPointerSignedPreKeyRecord{raw: r})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func SignedPreKeyRecordGetTimestamp(r SignedPreKeyRecord) (uint64, error) {
	var out C.uint64_t
	if err := drainError(C.signal_signed_pre_key_record_get_timestamp(&out, C.SignalConstPointerSignedPreKeyRecord{raw: r})); err != nil {
		return 0, err
	}
	return uint64(out), nil
}

func SignedPreKeyRecordGetPublicKey(r SignedPreKeyRecord) (PublicKey, error) {
	var out C.SignalMutPointerPublicKey
	if err := drainError(C.signal_signed_pre_key_record_get_public_key(&out, C.SignalConstPointerSignedPreKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SignedPreKeyRecordGetPrivateKey(r SignedPreKeyRecord) (PrivateKey, error) {
	var out C.SignalMutPointerPrivateKey
	if err := drainError(C.signal_signed_pre_key_record_get_private_key(&out, C.SignalConstPointerSignedPreKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SignedPreKeyRecordGetSignature(r SignedPreKeyRecord) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_signed_pre_key_record_get_signature(&buf, C.SignalConstPointerSignedPreKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func SignedPreKeyRecordSerialize(r SignedPreKeyRecord) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_signed_pre_key_record_serialize(&buf, C.SignalConstPointerSignedPreKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func SignedPreKeyRecordDeserialize(data []byte) (SignedPreKeyRecord, error) {
	var out C.SignalMutPointerSignedPreKeyRecord
	if err := drainError(C.signal_signed_pre_key_record_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SignedPreKeyRecordFree(r SignedPreKeyRecord) {
	if r != nil {
		C.signal_signed_pre_key_record_destroy(C.SignalMutPointerSignedPreKeyRecord{raw: r})
	}
}

func KyberPreKeyRecordNew(id uint32, timestamp uint64, pair KyberKeyPair, signature []byte) (KyberPreKeyRecord, error) {
	var out C.SignalMutPointerKyberPreKeyRecord
	err := drainError(C.signal_kyber_pre_key_record_new(&out, C.uint32_t(id), C.uint64_t(timestamp),
		C.SignalConstPointerKyberKeyPair{raw: pair}, borrow(signature)))
	if err != nil {
		return nil, err
	}
	return out.raw, nil
}

func KyberPreKeyRecordGetID(r KyberPreKeyRecord) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_kyber_pre_key_record_get_id(&out, C.SignalConstPointerKyberPreKeyRecord{raw: r})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func KyberPreKeyRecordGetTimestamp(r KyberPreKeyRecord) (uint64, error) {
	var out C.uint64_t
	if err := drainError(C.signal_kyber_pre_key_record_get_timestamp(&out, C.SignalConstPointerKyberPreKeyRecord{raw: r})); err != nil {
		return 0, err
	}
	return uint64(out), nil
}

func KyberPreKeyRecordGetPublicKey(r KyberPreKeyRecord) (KyberPublicKey, error) {
	var out C.SignalMutPointerKyberPublicKey
	if err := drainError(C.signal_kyber_pre_key_record_get_public_key(&out, C.SignalConstPointerKyberPreKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func KyberPreKeyRecordGetKeyPair(r KyberPreKeyRecord) (KyberKeyPair, error) {
	var out C.SignalMutPointerKyberKeyPair
	if err := drainError(C.signal_kyber_pre_key_record_get_key_pair(&out, C.SignalConstPointerKyberPreKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func KyberPreKeyRecordGetSignature(r KyberPreKeyRecord) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_kyber_pre_key_record_get_signature(&buf, C.SignalConstPointerKyberPreKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func KyberPreKeyRecordSerialize(r KyberPreKeyRecord) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_kyber_pre_key_record_serialize(&buf, C.SignalConstPointerKyberPreKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func KyberPreKeyRecordDeserialize(data []byte) (KyberPreKeyRecord, error) {
	var out C.SignalMutPointerKyberPreKeyRecord
	if err := drainError(C.signal_kyber_pre_key_record_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func KyberPreKeyRecordFree(r KyberPreKeyRecord) {
	if r != nil {
		C.signal_kyber_pre_key_record_destroy(C.SignalMutPointerKyberPreKeyRecord{raw: r})
	}
}

func SessionRecordSerialize(s Session) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_session_record_serialize(&buf, C.SignalConstPointerSessionRecord{raw: s})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func SessionRecordDeserialize(data []byte) (Session, error) {
	var out C.SignalMutPointerSessionRecord
	if err := drainError(C.signal_session_record_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SessionRecordClone(s Session) (Session, error) {
	var out C.SignalMutPointerSessionRecord
	if err := drainError(C.signal_session_record_clone(&out, C.SignalConstPointerSessionRecord{raw: s})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SessionRecordGetVersion(s Session) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_session_record_get_session_version(&out, C.SignalConstPointerSessionRecord{raw: s})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func SessionRecordGetRemoteRegistrationID(s Session) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_session_record_get_remote_registration_id(&out, C.SignalConstPointerSessionRecord{raw: s})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func SessionRecordGetRemoteIdentityKey(s Session) (PublicKey, error) {
	var out C.SignalMutPointerPublicKey
	if err := drainError(C.signal_session_record_get_remote_identity_key(&out, C.SignalConstPointerSessionRecord{raw: s})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SessionRecordHasPendingPreKey(s Session) (bool, error) {
	var out C.bool
	if err := drainError(C.signal_session_record_has_pending_pre_key(&out, C.SignalConstPointerSessionRecord{raw: s})); err != nil {
		return false, err
	}
	return bool(out), nil
}

func SessionRecordFree(s Session) {
	if s != nil {
		C.signal_session_record_destroy(C.SignalMutPointerSessionRecord{raw: s})
	}
}

func SignalMessageDeserialize(data []byte) (SignalMessage, error) {
	var out C.SignalMutPointerMessage
	if err := drainError(C.signal_message_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SignalMessageGetVersion(m SignalMessage) (uint8, error) {
	var out C.uint32_t
	if err := drainError(C.signal_message_get_message_version(&out, C.SignalConstPointerMessage{raw: m})); err != nil {
		return 0, err
	}
	return uint8(out), nil
}

func SignalMessageGetCounter(m SignalMessage) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_message_get_counter(&out, C.SignalConstPointerMessage{raw: m})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func SignalMessageSerialize(m SignalMessage) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_message_get_serialized(&buf, C.SignalConstPointerMessage{raw: m})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func SignalMessageFree(m SignalMessage) {
	if m != nil {
		C.signal_message_destroy(C.SignalMutPointerMessage{raw: m})
	}
}

func PreKeySignalMessageDeserialize(data []byte) (PreKeySignalMessage, error) {
	var out C.SignalMutPointerPreKeySignalMessage
	if err := drainError(C.signal_pre_key_signal_message_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PreKeySignalMessageGetVersion(m PreKeySignalMessage) (uint8, error) {
	var out C.uint32_t
	if err := drainError(C.signal_pre_key_signal_message_get_version(&out, C.SignalConstPointerPreKeySignalMessage{raw: m})); err != nil {
		return 0, err
	}
	return uint8(out), nil
}

func PreKeySignalMessageGetRegistrationID(m PreKeySignalMessage) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_pre_key_signal_message_get_registration_id(&out, C.SignalConstPointerPreKeySignalMessage{raw: m})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func PreKeySignalMessageGetPreKeyID(m PreKeySignalMessage) (*uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_pre_key_signal_message_get_pre_key_id(&out, C.SignalConstPointerPreKeySignalMessage{raw: m})); err != nil {
		return nil, err
	}
	return optionalID(out), nil
}

func PreKeySignalMessageGetSignedPreKeyID(m PreKeySignalMessage) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_pre_key_signal_message_get_signed_pre_key_id(&out, C.SignalConstPointerPreKeySignalMessage{raw: m})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func PreKeySignalMessageGetBaseKey(m PreKeySignalMessage) (PublicKey, error) {
	var out C.SignalMutPointerPublicKey
	if err := drainError(C.signal_pre_key_signal_message_get_base_key(&out, C.SignalConstPointerPreKeySignalMessage{raw: m})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PreKeySignalMessageGetIdentityKey(m PreKeySignalMessage) (PublicKey, error) {
	var out C.SignalMutPointerPublicKey
	if err := drainError(C.signal_pre_key_signal_message_get_identity_key(&out, C.SignalConstPointerPreKeySignalMessage{raw: m})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func PreKeySignalMessageSerialize(m PreKeySignalMessage) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_pre_key_signal_message_serialize(&buf, C.SignalConstPointerPreKeySignalMessage{raw: m})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func PreKeySignalMessageFree(m PreKeySignalMessage) {
	if m != nil {
		C.signal_pre_key_signal_message_destroy(C.SignalMutPointerPreKeySignalMessage{raw: m})
	}
}

func SenderKeyRecordSerialize(r SenderKeyRecord) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_sender_key_record_serialize(&buf, C.SignalConstPointerSenderKeyRecord{raw: r})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func SenderKeyRecordDeserialize(data []byte) (SenderKeyRecord, error) {
	var out C.SignalMutPointerSenderKeyRecord
	if err := drainError(C.signal_sender_key_record_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SenderKeyRecordFree(r SenderKeyRecord) {
	if r != nil {
		C.signal_sender_key_record_destroy(C.SignalMutPointerSenderKeyRecord{raw: r})
	}
}

func SenderKeyDistributionMessageDeserialize(data []byte) (SenderKeyDistributionMessage, error) {
	var out C.SignalMutPointerSenderKeyDistributionMessage
	if err := drainError(C.signal_sender_key_distribution_message_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SenderKeyDistributionMessageGetDistributionID(m SenderKeyDistributionMessage) ([16]byte, error) {
	var out [16]byte
	err := drainError(C.signal_sender_key_distribution_message_get_distribution_id(
		(*C.uchar)(unsafe.Pointer(&out[0])), C.SignalConstPointerSenderKeyDistributionMessage{raw: m}))
	if err != nil {
		return [16]byte{}, err
	}
	return out, nil
}

func SenderKeyDistributionMessageGetChainID(m SenderKeyDistributionMessage) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_sender_key_distribution_message_get_chain_id(&out, C.SignalConstPointerSenderKeyDistributionMessage{raw: m})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func SenderKeyDistributionMessageGetIteration(m SenderKeyDistributionMessage) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_sender_key_distribution_message_get_iteration(&out, C.SignalConstPointerSenderKeyDistributionMessage{raw: m})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func SenderKeyDistributionMessageSerialize(m SenderKeyDistributionMessage) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_sender_key_distribution_message_serialize(&buf, C.SignalConstPointerSenderKeyDistributionMessage{raw: m})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func SenderKeyDistributionMessageFree(m SenderKeyDistributionMessage) {
	if m != nil {
		C.signal_sender_key_distribution_message_destroy(C.SignalMutPointerSenderKeyDistributionMessage{raw: m})
	}
}

func SenderKeyMessageDeserialize(data []byte) (SenderKeyMessage, error) {
	var out C.SignalMutPointerSenderKeyMessage
	if err := drainError(C.signal_sender_key_message_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SenderKeyMessageGetDistributionID(m SenderKeyMessage) ([16]byte, error) {
	var out [16]byte
	err := drainError(C.signal_sender_key_message_get_distribution_id(
		(*C.uchar)(unsafe.Pointer(&out[0])), C.SignalConstPointerSenderKeyMessage{raw: m}))
	if err != nil {
		return [16]byte{}, err
	}
	return out, nil
}

func SenderKeyMessageGetChainID(m SenderKeyMessage) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_sender_key_message_get_chain_id(&out, C.SignalConstPointerSenderKeyMessage{raw: m})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func SenderKeyMessageGetIteration(m SenderKeyMessage) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_sender_key_message_get_iteration(&out, C.SignalConstPointerSenderKeyMessage{raw: m})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func SenderKeyMessageSerialize(m SenderKeyMessage) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_sender_key_message_get_serialized(&buf, C.SignalConstPointerSenderKeyMessage{raw: m})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func SenderKeyMessageFree(m SenderKeyMessage) {
	if m != nil {
		C.signal_sender_key_message_destroy(C.SignalMutPointerSenderKeyMessage{raw: m})
	}
}

func ServerCertificateNew(keyID uint32, key PublicKey, trustRoot PrivateKey) (ServerCertificate, error) {
	var out C.SignalMutPointerServerCertificate
	err := drainError(C.signal_server_certificate_new(&out, C.uint32_t(keyID),
		C.SignalConstPointerPublicKey{raw: key}, C.SignalConstPointerPrivateKey{raw: trustRoot}))
	if err != nil {
		return nil, err
	}
	return out.raw, nil
}

func ServerCertificateSerialize(c ServerCertificate) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_server_certificate_get_serialized(&buf, C.SignalConstPointerServerCertificate{raw: c})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func ServerCertificateDeserialize(data []byte) (ServerCertificate, error) {
	var out C.SignalMutPointerServerCertificate
	if err := drainError(C.signal_server_certificate_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func ServerCertificateGetKeyID(c ServerCertificate) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_server_certificate_get_key_id(&out, C.SignalConstPointerServerCertificate{raw: c})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func ServerCertificateGetKey(c ServerCertificate) (PublicKey, error) {
	var out C.SignalMutPointerPublicKey
	if err := drainError(C.signal_server_certificate_get_key(&out, C.SignalConstPointerServerCertificate{raw: c})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func ServerCertificateGetCertificate(c ServerCertificate) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_server_certificate_get_certificate(&buf, C.SignalConstPointerServerCertificate{raw: c})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func ServerCertificateGetSignature(c ServerCertificate) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_server_certificate_get_signature(&buf, C.SignalConstPointerServerCertificate{raw: c})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func ServerCertificateFree(c ServerCertificate) {
	if c != nil {
		C.signal_server_certificate_destroy(C.SignalMutPointerServerCertificate{raw: c})
	}
}

func SenderCertificateNew(senderUUID, senderE164 string, deviceID uint32, key PublicKey,
	expiration uint64, signer ServerCertificate, signerKey PrivateKey) (SenderCertificate, error) {
	cUUID := C.CString(senderUUID)
	defer C.free(unsafe.Pointer(cUUID))
	var cE164 *C.char
	if senderE164 != "" {
		cE164 = C.CString(senderE164)
		defer C.free(unsafe.Pointer(cE164))
	}
	var out C.SignalMutPointerSenderCertificate
	err := drainError(C.signal_sender_certificate_new(&out, cUUID, cE164, C.uint32_t(deviceID),
		C.SignalConstPointerPublicKey{raw: key}, C.uint64_t(expiration),
		C.SignalConstPointerServerCertificate{raw: signer}, C.SignalConstPointerPrivateKey{raw: signerKey}))
	if err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SenderCertificateSerialize(c SenderCertificate) ([]byte, error) {
	var buf C.SignalOwnedBuffer
	if err := drainError(C.signal_sender_certificate_get_serialized(&buf, C.SignalConstPointerSenderCertificate{raw: c})); err != nil {
		return nil, err
	}
	return copyAndFreeOwned(buf), nil
}

func SenderCertificateDeserialize(data []byte) (SenderCertificate, error) {
	var out C.SignalMutPointerSenderCertificate
	if err := drainError(C.signal_sender_certificate_deserialize(&out, borrow(data))); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SenderCertificateGetSenderUUID(c SenderCertificate) (string, error) {
	var out *C.char
	if err := drainError(C.signal_sender_certificate_get_sender_uuid(&out, C.SignalConstPointerSenderCertificate{raw: c})); err != nil {
		return "", err
	}
	s := C.GoString(out)
	C.signal_free_string(out)
	return s, nil
}

func SenderCertificateGetSenderE164(c SenderCertificate) (string, error) {
	var out *C.char
	if err := drainError(C.signal_sender_certificate_get_sender_e164(&out, C.SignalConstPointerSenderCertificate{raw: c})); err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	s := C.GoString(out)
	C.signal_free_string(out)
	return s, nil
}

func SenderCertificateGetDeviceID(c SenderCertificate) (uint32, error) {
	var out C.uint32_t
	if err := drainError(C.signal_sender_certificate_get_device_id(&out, C.SignalConstPointerSenderCertificate{raw: c})); err != nil {
		return 0, err
	}
	return uint32(out), nil
}

func SenderCertificateGetExpiration(c SenderCertificate) (uint64, error) {
	var out C.uint64_t
	if err := drainError(C.signal_sender_certificate_get_expiration(&out, C.SignalConstPointerSenderCertificate{raw: c})); err != nil {
		return 0, err
	}
	return uint64(out), nil
}

func SenderCertificateGetKey(c SenderCertificate) (PublicKey, error) {
	var out C.SignalMutPointerPublicKey
	if err := drainError(C.signal_sender_certificate_get_key(&out, C.SignalConstPointerSenderCertificate{raw: c})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SenderCertificateGetServerCertificate(c SenderCertificate) (ServerCertificate, error) {
	var out C.SignalMutPointerServerCertificate
	if err := drainError(C.signal_sender_certificate_get_server_certificate(&out, C.SignalConstPointerSenderCertificate{raw: c})); err != nil {
		return nil, err
	}
	return out.raw, nil
}

func SenderCertificateValidate(c SenderCertificate, trustRoot PublicKey, validationTime uint64) (bool, error) {
	var out C.bool
	err := drainError(C.signal_sender_certificate_validate(&out,
		C.SignalConstPointerSenderCertificate{raw: c}, C.SignalConstPointerPublicKey{raw: trustRoot},
		C.uint64_t(validationTime)))
	if err != nil {
		return false, err
	}
	return bool(out), nil
}

func SenderCertificateFree(c SenderCertificate) {
	if c != nil {
		C.signal_sender_certificate_destroy(C.SignalMutPointerSenderCertificate{raw: c})
	}
}

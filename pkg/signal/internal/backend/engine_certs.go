//go:build !signalffi || !cgo

package backend

import "bytes"

// Sealed-sender certificate chain: a trust root signs a server
// certificate, the server key signs sender certificates. Both are stored
// as {certificate-bytes, signature} pairs so validation re-verifies the
// exact signed bytes.

type serverCertificateObj struct {
	keyID     uint32
	key       []byte // serialized public key, 33 bytes
	certData  []byte // the signed bytes
	signature []byte
}

type senderCertificateObj struct {
	senderUUID string
	senderE164 string // optional, empty when absent
	deviceID   uint32
	expiration uint64 // epoch milliseconds
	key        []byte // serialized sender identity key
	signer     *serverCertificateObj
	certData   []byte
	signature  []byte
}

type (
	ServerCertificate = *serverCertificateObj
	SenderCertificate = *senderCertificateObj
)

// ServerCertificateNew issues a server certificate signed by the trust
// root.
func ServerCertificateNew(keyID uint32, key PublicKey, trustRoot PrivateKey) (ServerCertificate, error) {
	if key == nil || trustRoot == nil {
		return nil, engineErr(CodeNullParameter, "nil key in server certificate")
	}
	serialized, err := PublicKeySerialize(key)
	if err != nil {
		return nil, err
	}
	certData := appendVarintField(nil, 1, uint64(keyID))
	certData = appendBytesField(certData, 2, serialized)
	signature, err := PrivateKeySign(trustRoot, certData)
	if err != nil {
		return nil, err
	}
	return &serverCertificateObj{keyID: keyID, key: serialized, certData: certData, signature: signature}, nil
}

func ServerCertificateSerialize(c ServerCertificate) ([]byte, error) {
	if c == nil {
		return nil, engineErr(CodeNullParameter, "nil server certificate")
	}
	b := appendBytesField(nil, 1, c.certData)
	b = appendBytesField(b, 2, c.signature)
	return b, nil
}

func ServerCertificateDeserialize(data []byte) (ServerCertificate, error) {
	var certData, signature []byte
	fr := newFieldReader(data)
	for !fr.done() {
		switch fr.next() {
		case 1:
			certData = bytes.Clone(fr.bytes())
		case 2:
			signature = bytes.Clone(fr.bytes())
		default:
			fr.skip()
		}
	}
	if fr.malformed() || len(certData) == 0 || len(signature) == 0 {
		return nil, engineErr(CodeProtobufError, "malformed server certificate")
	}

	c := &serverCertificateObj{certData: certData, signature: signature}
	inner := newFieldReader(certData)
	for !inner.done() {
		switch inner.next() {
		case 1:
			c.keyID = uint32(inner.varint())
		case 2:
			c.key = bytes.Clone(inner.bytes())
		default:
			inner.skip()
		}
	}
	if inner.malformed() || len(c.key) != 33 {
		return nil, engineErr(CodeProtobufError, "malformed server certificate body")
	}
	return c, nil
}

func ServerCertificateGetKeyID(c ServerCertificate) (uint32, error) {
	if c == nil {
		return 0, engineErr(CodeNullParameter, "nil server certificate")
	}
	return c.keyID, nil
}

func ServerCertificateGetKey(c ServerCertificate) (PublicKey, error) {
	if c == nil {
		return nil, engineErr(CodeNullParameter, "nil server certificate")
	}
	return PublicKeyDeserialize(c.key)
}

func ServerCertificateGetCertificate(c ServerCertificate) ([]byte, error) {
	if c == nil {
		return nil, engineErr(CodeNullParameter, "nil server certificate")
	}
	return bytes.Clone(c.certData), nil
}

func ServerCertificateGetSignature(c ServerCertificate) ([]byte, error) {
	if c == nil {
		return nil, engineErr(CodeNullParameter, "nil server certificate")
	}
	return bytes.Clone(c.signature), nil
}

func ServerCertificateFree(c ServerCertificate) {
	if c != nil {
		c.certData, c.signature, c.key = nil, nil, nil
	}
}

// SenderCertificateNew issues a sender certificate signed by the server
// key, embedding the full server certificate for offline validation.
func SenderCertificateNew(senderUUID, senderE164 string, deviceID uint32, key PublicKey,
	expiration uint64, signer ServerCertificate, signerKey PrivateKey) (SenderCertificate, error) {
	if key == nil || signer == nil || signerKey == nil {
		return nil, engineErr(CodeNullParameter, "nil input to sender certificate")
	}
	if senderUUID == "" {
		return nil, engineErr(CodeInvalidArgument, "empty sender uuid")
	}
	serializedKey, err := PublicKeySerialize(key)
	if err != nil {
		return nil, err
	}
	serializedSigner, err := ServerCertificateSerialize(signer)
	if err != nil {
		return nil, err
	}

	certData := appendBytesField(nil, 1, []byte(senderUUID))
	if senderE164 != "" {
		certData = appendBytesField(certData, 2, []byte(senderE164))
	}
	certData = appendVarintField(certData, 3, uint64(deviceID))
	certData = appendVarintField(certData, 4, expiration)
	certData = appendBytesField(certData, 5, serializedKey)
	certData = appendBytesField(certData, 6, serializedSigner)

	signature, err := PrivateKeySign(signerKey, certData)
	if err != nil {
		return nil, err
	}
	return &senderCertificateObj{
		senderUUID: senderUUID,
		senderE164: senderE164,
		deviceID:   deviceID,
		expiration: expiration,
		key:        serializedKey,
		signer:     signer,
		certData:   certData,
		signature:  signature,
	}, nil
}

func SenderCertificateSerialize(c SenderCertificate) ([]byte, error) {
	if c == nil {
		return nil, engineErr(CodeNullParameter, "nil sender certificate")
	}
	b := appendBytesField(nil, 1, c.certData)
	b = appendBytesField(b, 2, c.signature)
	return b, nil
}

func SenderCertificateDeserialize(data []byte) (SenderCertificate, error) {
	var certData, signature []byte
	fr := newFieldReader(data)
	for !fr.done() {
		switch fr.next() {
		case 1:
			certData = bytes.Clone(fr.bytes())
		case 2:
			signature = bytes.Clone(fr.bytes())
		default:
			fr.skip()
		}
	}
	if fr.malformed() || len(certData) == 0 || len(signature) == 0 {
		return nil, engineErr(CodeProtobufError, "malformed sender certificate")
	}

	c := &senderCertificateObj{certData: certData, signature: signature}
	inner := newFieldReader(certData)
	for !inner.done() {
		switch inner.next() {
		case 1:
			c.senderUUID = string(inner.bytes())
		case 2:
			c.senderE164 = string(inner.bytes())
		case 3:
			c.deviceID = uint32(inner.varint())
		case 4:
			c.expiration = inner.varint()
		case 5:
			c.key = bytes.Clone(inner.bytes())
		case 6:
			signer, err := ServerCertificateDeserialize(inner.bytes())
			if err != nil {
				return nil, err
			}
			c.signer = signer
		default:
			inner.skip()
		}
	}
	if inner.malformed() || c.senderUUID == "" || len(c.key) != 33 || c.signer == nil {
		return nil, engineErr(CodeProtobufError, "malformed sender certificate body")
	}
	return c, nil
}

func SenderCertificateGetSenderUUID(c SenderCertificate) (string, error) {
	if c == nil {
		return "", engineErr(CodeNullParameter, "nil sender certificate")
	}
	return c.senderUUID, nil
}

// SenderCertificateGetSenderE164 returns the phone number, or empty when
// the certificate carries none.
func SenderCertificateGetSenderE164(c SenderCertificate) (string, error) {
	if c == nil {
		return "", engineErr(CodeNullParameter, "nil sender certificate")
	}
	return c.senderE164, nil
}

func SenderCertificateGetDeviceID(c SenderCertificate) (uint32, error) {
	if c == nil {
		return 0, engineErr(CodeNullParameter, "nil sender certificate")
	}
	return c.deviceID, nil
}

func SenderCertificateGetExpiration(c SenderCertificate) (uint64, error) {
	if c == nil {
		return 0, engineErr(CodeNullParameter, "nil sender certificate")
	}
	return c.expiration, nil
}

func SenderCertificateGetKey(c SenderCertificate) (PublicKey, error) {
	if c == nil {
		return nil, engineErr(CodeNullParameter, "nil sender certificate")
	}
	return PublicKeyDeserialize(c.key)
}

func SenderCertificateGetServerCertificate(c SenderCertificate) (ServerCertificate, error) {
	if c == nil || c.signer == nil {
		return nil, engineErr(CodeNullParameter, "nil sender certificate")
	}
	// Independent copy: the caller's handle must not share lifecycle with
	// this certificate's embedded signer.
	return &serverCertificateObj{
		keyID:     c.signer.keyID,
		key:       bytes.Clone(c.signer.key),
		certData:  bytes.Clone(c.signer.certData),
		signature: bytes.Clone(c.signer.signature),
	}, nil
}

// SenderCertificateValidate checks the full chain: trust root over the
// server certificate, server key over the sender certificate, and the
// expiration against validationTime (epoch milliseconds).
func SenderCertificateValidate(c SenderCertificate, trustRoot PublicKey, validationTime uint64) (bool, error) {
	if c == nil || trustRoot == nil {
		return false, engineErr(CodeNullParameter, "nil certificate or trust root")
	}
	ok, err := PublicKeyVerify(trustRoot, c.signer.certData, c.signer.signature)
	if err != nil || !ok {
		return false, err
	}
	serverKey, err := PublicKeyDeserialize(c.signer.key)
	if err != nil {
		return false, err
	}
	ok, err = PublicKeyVerify(serverKey, c.certData, c.signature)
	if err != nil || !ok {
		return false, err
	}
	return validationTime < c.expiration, nil
}

func SenderCertificateFree(c SenderCertificate) {
	if c != nil {
		c.certData, c.signature, c.key = nil, nil, nil
		c.signer = nil
	}
}

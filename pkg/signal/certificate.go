package signal

import (
	"runtime"

	"github.com/openratchet/signal-go/pkg/signal/handle"
	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// ServerCertificate binds a server signing key to a key id, signed by the
// deployment's trust root. It is the middle link of the sealed-sender
// certificate chain.
type ServerCertificate struct {
	h *handle.Handle[backend.ServerCertificate]
}

func newServerCertificate(raw backend.ServerCertificate) *ServerCertificate {
	return &ServerCertificate{h: handle.New(raw, backend.ServerCertificateFree)}
}

// NewServerCertificate issues a certificate for key, signed by trustRoot.
func NewServerCertificate(keyID uint32, key *PublicKey, trustRoot *PrivateKey) (*ServerCertificate, error) {
	const op = "NewServerCertificate"
	if key == nil || trustRoot == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	rawKey, err := key.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	rawRoot, err := trustRoot.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.ServerCertificateNew(keyID, rawKey, rawRoot)
	runtime.KeepAlive(key.h)
	runtime.KeepAlive(trustRoot.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newServerCertificate(raw), nil
}

// DeserializeServerCertificate parses a serialized certificate.
func DeserializeServerCertificate(data []byte) (*ServerCertificate, error) {
	const op = "DeserializeServerCertificate"
	if err := validate.ServerCertificate(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.ServerCertificateDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newServerCertificate(raw), nil
}

// KeyID returns the server key id.
func (c *ServerCertificate) KeyID() (uint32, error) {
	const op = "ServerCertificate.KeyID"
	if c == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := c.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	id, err := backend.ServerCertificateGetKeyID(raw)
	runtime.KeepAlive(c.h)
	return id, wrap(op, err)
}

// Key returns the certified server key as a new resource.
func (c *ServerCertificate) Key() (*PublicKey, error) {
	const op = "ServerCertificate.Key"
	if c == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := c.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	key, err := backend.ServerCertificateGetKey(raw)
	runtime.KeepAlive(c.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPublicKey(key), nil
}

// Serialize encodes the certificate with its signature.
func (c *ServerCertificate) Serialize() ([]byte, error) {
	const op = "ServerCertificate.Serialize"
	if c == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := c.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.ServerCertificateSerialize(raw)
	runtime.KeepAlive(c.h)
	return out, wrap(op, err)
}

// Destroy releases the certificate. Idempotent.
func (c *ServerCertificate) Destroy() {
	if c != nil {
		c.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (c *ServerCertificate) Disposed() bool {
	return c != nil && c.h.Disposed()
}

// SenderCertificate attests that a sender (uuid, optional E.164, device)
// held an identity key until an expiration time, signed by a certified
// server key. It is what a sealed-sender recipient validates.
type SenderCertificate struct {
	h *handle.Handle[backend.SenderCertificate]
}

func newSenderCertificate(raw backend.SenderCertificate) *SenderCertificate {
	return &SenderCertificate{h: handle.New(raw, backend.SenderCertificateFree)}
}

// NewSenderCertificate issues a certificate for a sender's identity key.
// senderE164 may be empty; expiration is epoch milliseconds. signerKey must
// be the private half of signer's certified key.
func NewSenderCertificate(senderUUID, senderE164 string, deviceID uint32, key *PublicKey,
	expiration uint64, signer *ServerCertificate, signerKey *PrivateKey) (*SenderCertificate, error) {
	const op = "NewSenderCertificate"
	if key == nil || signer == nil || signerKey == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	rawKey, err := key.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	rawSigner, err := signer.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	rawSignerKey, err := signerKey.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.SenderCertificateNew(senderUUID, senderE164, deviceID, rawKey, expiration, rawSigner, rawSignerKey)
	runtime.KeepAlive(key.h)
	runtime.KeepAlive(signer.h)
	runtime.KeepAlive(signerKey.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newSenderCertificate(raw), nil
}

// DeserializeSenderCertificate parses a serialized certificate.
func DeserializeSenderCertificate(data []byte) (*SenderCertificate, error) {
	const op = "DeserializeSenderCertificate"
	if err := validate.SenderCertificate(data); err != nil {
		return nil, wrap(op, err)
	}
	raw, err := backend.SenderCertificateDeserialize(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newSenderCertificate(raw), nil
}

// SenderUUID returns the sender's service identifier.
func (c *SenderCertificate) SenderUUID() (string, error) {
	const op = "SenderCertificate.SenderUUID"
	if c == nil {
		return "", wrap(op, ErrNullHandle)
	}
	raw, err := c.h.Use()
	if err != nil {
		return "", wrap(op, err)
	}
	u, err := backend.SenderCertificateGetSenderUUID(raw)
	runtime.KeepAlive(c.h)
	return u, wrap(op, err)
}

// SenderE164 returns the sender's phone number, or empty when the
// certificate carries none.
func (c *SenderCertificate) SenderE164() (string, error) {
	const op = "SenderCertificate.SenderE164"
	if c == nil {
		return "", wrap(op, ErrNullHandle)
	}
	raw, err := c.h.Use()
	if err != nil {
		return "", wrap(op, err)
	}
	e164, err := backend.SenderCertificateGetSenderE164(raw)
	runtime.KeepAlive(c.h)
	return e164, wrap(op, err)
}

// DeviceID returns the sender's device id.
func (c *SenderCertificate) DeviceID() (uint32, error) {
	const op = "SenderCertificate.DeviceID"
	if c == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := c.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	id, err := backend.SenderCertificateGetDeviceID(raw)
	runtime.KeepAlive(c.h)
	return id, wrap(op, err)
}

// Expiration returns the expiry in epoch milliseconds.
func (c *SenderCertificate) Expiration() (uint64, error) {
	const op = "SenderCertificate.Expiration"
	if c == nil {
		return 0, wrap(op, ErrNullHandle)
	}
	raw, err := c.h.Use()
	if err != nil {
		return 0, wrap(op, err)
	}
	exp, err := backend.SenderCertificateGetExpiration(raw)
	runtime.KeepAlive(c.h)
	return exp, wrap(op, err)
}

// Key returns the sender's certified identity key as a new resource.
func (c *SenderCertificate) Key() (*PublicKey, error) {
	const op = "SenderCertificate.Key"
	if c == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := c.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	key, err := backend.SenderCertificateGetKey(raw)
	runtime.KeepAlive(c.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newPublicKey(key), nil
}

// ServerCertificate returns the embedded signer certificate as an
// independent resource.
func (c *SenderCertificate) ServerCertificate() (*ServerCertificate, error) {
	const op = "SenderCertificate.ServerCertificate"
	if c == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := c.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	signer, err := backend.SenderCertificateGetServerCertificate(raw)
	runtime.KeepAlive(c.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return newServerCertificate(signer), nil
}

// Validate checks the full chain at validationTime (epoch milliseconds):
// the trust root must have signed the server certificate, the server key
// must have signed this certificate, and the certificate must not have
// expired. A broken chain yields (false, nil).
func (c *SenderCertificate) Validate(trustRoot *PublicKey, validationTime uint64) (bool, error) {
	const op = "SenderCertificate.Validate"
	if c == nil || trustRoot == nil {
		return false, wrap(op, ErrNullHandle)
	}
	raw, err := c.h.Use()
	if err != nil {
		return false, wrap(op, err)
	}
	rawRoot, err := trustRoot.h.Use()
	if err != nil {
		return false, wrap(op, err)
	}
	ok, err := backend.SenderCertificateValidate(raw, rawRoot, validationTime)
	runtime.KeepAlive(c.h)
	runtime.KeepAlive(trustRoot.h)
	return ok, wrap(op, err)
}

// Serialize encodes the certificate with its signature.
func (c *SenderCertificate) Serialize() ([]byte, error) {
	const op = "SenderCertificate.Serialize"
	if c == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	raw, err := c.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := backend.SenderCertificateSerialize(raw)
	runtime.KeepAlive(c.h)
	return out, wrap(op, err)
}

// Destroy releases the certificate. Idempotent.
func (c *SenderCertificate) Destroy() {
	if c != nil {
		c.h.Dispose()
	}
}

// Disposed reports whether Destroy has been called.
func (c *SenderCertificate) Disposed() bool {
	return c != nil && c.h.Disposed()
}

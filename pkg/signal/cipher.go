package signal

import (
	"context"
	"errors"
	"runtime"

	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/logging"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// SessionCipher encrypts and decrypts messages for one remote address,
// loading and persisting session state through the stores on every call.
//
// A cipher serializes no access itself: a remote address has one logical
// owner at a time.
type SessionCipher struct {
	remote ProtocolAddress
	store  ProtocolStore
	log    logging.Logger
}

// NewSessionCipher builds a cipher for remote over store. A nil logger
// binds to slog.Default().
func NewSessionCipher(store ProtocolStore, remote ProtocolAddress, log logging.Logger) *SessionCipher {
	if log == nil {
		log = logging.New(nil)
	}
	return &SessionCipher{remote: remote, store: store, log: log.With("remote", remote.String())}
}

// Encrypt encrypts plaintext for the remote address. The message type is
// MessageTypePreKey until the first inbound message confirms the session,
// and MessageTypeWhisper afterwards.
func (c *SessionCipher) Encrypt(ctx context.Context, plaintext []byte) ([]byte, MessageType, error) {
	const op = "SessionCipher.Encrypt"
	record, err := c.store.LoadSession(ctx, c.remote)
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	if record == nil {
		return nil, 0, wrap(op, ErrSessionNotFound)
	}
	defer record.Destroy()

	raw, err := record.h.Use()
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	ciphertext, msgType, err := backend.SessionEncrypt(raw, plaintext)
	runtime.KeepAlive(record.h)
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	if err := c.store.StoreSession(ctx, c.remote, record); err != nil {
		return nil, 0, wrap(op, err)
	}
	c.log.Debug(ctx, "message encrypted", "type", msgType, logging.Redacted("plaintext"))
	return ciphertext, MessageType(msgType), nil
}

// Decrypt decrypts a whisper message from the remote address.
func (c *SessionCipher) Decrypt(ctx context.Context, message *SignalMessage) ([]byte, error) {
	const op = "SessionCipher.Decrypt"
	if message == nil {
		return nil, wrap(op, ErrNullHandle)
	}
	data, err := message.Serialize()
	if err != nil {
		return nil, wrap(op, err)
	}

	record, err := c.store.LoadSession(ctx, c.remote)
	if err != nil {
		return nil, wrap(op, err)
	}
	if record == nil {
		return nil, wrap(op, ErrSessionNotFound)
	}
	defer record.Destroy()

	remoteIdentity, err := record.RemoteIdentityKey()
	if err != nil {
		return nil, wrap(op, err)
	}
	defer remoteIdentity.Destroy()
	trusted, err := c.store.IsTrustedIdentity(ctx, c.remote, remoteIdentity, DirectionReceiving)
	if err != nil {
		return nil, wrap(op, err)
	}
	if !trusted {
		return nil, wrap(op, ErrUntrustedIdentity)
	}

	raw, err := record.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	plaintext, err := backend.SessionDecryptMessage(raw, data)
	runtime.KeepAlive(record.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	if err := c.store.StoreSession(ctx, c.remote, record); err != nil {
		return nil, wrap(op, err)
	}
	return plaintext, nil
}

// DecryptPreKeyMessage handles a session-establishing message: it loads
// the pre-key records the sender consumed, establishes the responder half
// of the session, decrypts the embedded payload, and persists the result.
// A consumed one-time pre-key is removed from its store; a consumed Kyber
// pre-key is marked used.
func (c *SessionCipher) DecryptPreKeyMessage(ctx context.Context, message *PreKeySignalMessage) ([]byte, error) {
	const op = "SessionCipher.DecryptPreKeyMessage"
	if message == nil {
		return nil, wrap(op, ErrNullHandle)
	}

	senderIdentity, err := message.IdentityKey()
	if err != nil {
		return nil, wrap(op, err)
	}
	defer senderIdentity.Destroy()
	trusted, err := c.store.IsTrustedIdentity(ctx, c.remote, senderIdentity, DirectionReceiving)
	if err != nil {
		return nil, wrap(op, err)
	}
	if !trusted {
		return nil, wrap(op, ErrUntrustedIdentity)
	}

	rawMessage, err := message.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	embedded, err := backend.PreKeySignalMessageGetEmbedded(rawMessage)
	runtime.KeepAlive(message.h)
	if err != nil {
		return nil, wrap(op, err)
	}

	// The sender keeps sending pre-key messages until it sees a reply, so
	// this message may target a session we already hold. Try it before
	// consuming any pre-keys; a duplicate stays a duplicate, and any other
	// failure means the sender re-initiated with a fresh base key.
	existing, err := c.store.LoadSession(ctx, c.remote)
	if err != nil {
		return nil, wrap(op, err)
	}
	if existing != nil {
		defer existing.Destroy()
		rawExisting, err := existing.h.Use()
		if err != nil {
			return nil, wrap(op, err)
		}
		plaintext, derr := backend.SessionDecryptMessage(rawExisting, embedded)
		runtime.KeepAlive(existing.h)
		if derr == nil {
			if err := c.store.StoreSession(ctx, c.remote, existing); err != nil {
				return nil, wrap(op, err)
			}
			return plaintext, nil
		}
		var ne *backend.NativeError
		if errors.As(derr, &ne) && ne.Code == backend.CodeDuplicatedMessage {
			return nil, wrap(op, derr)
		}
	}

	baseKey, err := message.BaseKey()
	if err != nil {
		return nil, wrap(op, err)
	}
	defer baseKey.Destroy()

	identity, err := c.store.GetIdentityKeyPair(ctx)
	if err != nil {
		return nil, wrap(op, err)
	}
	ourPriv, err := identity.PrivateKey()
	if err != nil {
		return nil, wrap(op, err)
	}
	registrationID, err := c.store.GetLocalRegistrationID(ctx)
	if err != nil {
		return nil, wrap(op, err)
	}

	signedPreKeyID, err := message.SignedPreKeyID()
	if err != nil {
		return nil, wrap(op, err)
	}
	signedRecord, err := c.store.LoadSignedPreKey(ctx, signedPreKeyID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer signedRecord.Destroy()
	signedPriv, err := signedRecord.PrivateKey()
	if err != nil {
		return nil, wrap(op, err)
	}
	defer signedPriv.Destroy()

	preKeyID, err := message.PreKeyID()
	if err != nil {
		return nil, wrap(op, err)
	}
	var oneTimePriv *PrivateKey
	if preKeyID != nil {
		preKeyRecord, err := c.store.LoadPreKey(ctx, *preKeyID)
		if err != nil {
			return nil, wrap(op, err)
		}
		defer preKeyRecord.Destroy()
		if oneTimePriv, err = preKeyRecord.PrivateKey(); err != nil {
			return nil, wrap(op, err)
		}
		defer oneTimePriv.Destroy()
	}

	kyberPreKeyID, err := message.KyberPreKeyID()
	if err != nil {
		return nil, wrap(op, err)
	}

	params := &backend.RespondParams{
		OurRegistrationID: registrationID,
	}
	if kyberPreKeyID != nil {
		if params.KyberCiphertext, err = backend.PreKeySignalMessageGetKyberCiphertext(rawMessage); err != nil {
			return nil, wrap(op, err)
		}
		kyberRecord, err := c.store.LoadKyberPreKey(ctx, *kyberPreKeyID)
		if err != nil {
			return nil, wrap(op, err)
		}
		defer kyberRecord.Destroy()
		rawKyberRecord, err := kyberRecord.h.Use()
		if err != nil {
			return nil, wrap(op, err)
		}
		if params.OurKyberPreKey, err = backend.KyberPreKeyRecordGetKeyPair(rawKyberRecord); err != nil {
			return nil, wrap(op, err)
		}
		runtime.KeepAlive(kyberRecord.h)
	}
	if params.OurIdentity, err = ourPriv.h.Use(); err != nil {
		return nil, wrap(op, err)
	}
	if params.OurSignedPreKey, err = signedPriv.h.Use(); err != nil {
		return nil, wrap(op, err)
	}
	if oneTimePriv != nil {
		if params.OurOneTimePreKey, err = oneTimePriv.h.Use(); err != nil {
			return nil, wrap(op, err)
		}
	}
	if params.TheirIdentity, err = senderIdentity.h.Use(); err != nil {
		return nil, wrap(op, err)
	}
	if params.TheirBaseKey, err = baseKey.h.Use(); err != nil {
		return nil, wrap(op, err)
	}
	if params.TheirRegistrationID, err = message.RegistrationID(); err != nil {
		return nil, wrap(op, err)
	}

	session, err := backend.SessionRespond(params)
	runtime.KeepAlive(ourPriv.h)
	runtime.KeepAlive(signedPriv.h)
	runtime.KeepAlive(senderIdentity.h)
	runtime.KeepAlive(baseKey.h)
	if err != nil {
		return nil, wrap(op, err)
	}
	record := newSessionRecord(session)
	defer record.Destroy()

	runtime.KeepAlive(message.h)
	rawSession, err := record.h.Use()
	if err != nil {
		return nil, wrap(op, err)
	}
	plaintext, err := backend.SessionDecryptMessage(rawSession, embedded)
	runtime.KeepAlive(record.h)
	if err != nil {
		return nil, wrap(op, err)
	}

	if _, err := c.store.SaveIdentity(ctx, c.remote, senderIdentity); err != nil {
		return nil, wrap(op, err)
	}
	if err := c.store.StoreSession(ctx, c.remote, record); err != nil {
		return nil, wrap(op, err)
	}
	if preKeyID != nil {
		if err := c.store.RemovePreKey(ctx, *preKeyID); err != nil {
			return nil, wrap(op, err)
		}
	}
	if kyberPreKeyID != nil {
		if err := c.store.MarkKyberPreKeyUsed(ctx, *kyberPreKeyID); err != nil {
			return nil, wrap(op, err)
		}
	}
	c.log.Info(ctx, "session established from pre-key message",
		"one_time_pre_key", preKeyID != nil, "kyber_pre_key", kyberPreKeyID != nil)
	return plaintext, nil
}

// DecryptRaw sniffs the framing of data and routes it to Decrypt or
// DecryptPreKeyMessage.
func (c *SessionCipher) DecryptRaw(ctx context.Context, data []byte) ([]byte, error) {
	const op = "SessionCipher.DecryptRaw"
	if err := validate.PreKeySignalMessage(data); err == nil {
		if m, err := DeserializePreKeySignalMessage(data); err == nil {
			defer m.Destroy()
			return c.DecryptPreKeyMessage(ctx, m)
		}
	}
	m, err := DeserializeSignalMessage(data)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer m.Destroy()
	return c.Decrypt(ctx, m)
}

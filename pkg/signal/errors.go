package signal

import (
	"errors"
	"fmt"

	"github.com/openratchet/signal-go/pkg/signal/handle"
	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

// Kind classifies a failure into the wrapper's error taxonomy. Every error
// returned by this package carries exactly one Kind.
type Kind int

const (
	// KindUnknown is the zero Kind; no error returned by this package uses
	// it.
	KindUnknown Kind = iota

	// KindInvalidArgument indicates a caller-supplied value failed
	// validation before reaching the engine.
	KindInvalidArgument

	// KindNullPointer indicates a nil receiver or nil required argument.
	KindNullPointer

	// KindSerialization indicates malformed serialized input: wrong length,
	// bad type byte, blocklisted point, or an undecodable record.
	KindSerialization

	// KindCrypto indicates a cryptographic failure: bad signature, failed
	// message authentication, untrusted identity.
	KindCrypto

	// KindDisposed indicates use of a resource after disposal.
	KindDisposed

	// KindUnsupported indicates the operation is not available in this
	// build.
	KindUnsupported

	// KindNative carries an engine error code that maps to no more specific
	// Kind.
	KindNative
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindNullPointer:
		return "null pointer"
	case KindSerialization:
		return "serialization"
	case KindCrypto:
		return "crypto"
	case KindDisposed:
		return "disposed"
	case KindUnsupported:
		return "unsupported"
	case KindNative:
		return "native"
	}
	return "unknown"
}

var (
	// ErrDisposed indicates the resource was already disposed. It matches
	// every KindDisposed error via errors.Is.
	ErrDisposed = handle.ErrDisposed

	// ErrNullHandle indicates a nil wrapper receiver.
	ErrNullHandle = errors.New("signal: nil handle")

	// ErrNotBuilt indicates the operation requires the native engine and
	// this binary was built without it.
	ErrNotBuilt = backend.ErrNotBuilt

	// ErrUntrustedIdentity indicates the remote identity key does not match
	// the trusted identity on record.
	ErrUntrustedIdentity = errors.New("signal: untrusted identity")

	// ErrSessionNotFound indicates no session exists for the address.
	ErrSessionNotFound = errors.New("signal: no session for address")
)

// Error wraps an underlying error with the failing operation and its
// taxonomy classification. Code is the engine's error code when the failure
// originated in the engine, and zero otherwise.
type Error struct {
	Kind Kind
	Code int32
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("signal.%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrap classifies err into the taxonomy and attaches op. A nil err returns
// nil so call sites can wrap unconditionally.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		return err
	}

	e := &Error{Op: op, Err: err}
	switch {
	case errors.Is(err, handle.ErrDisposed):
		e.Kind = KindDisposed
	case errors.Is(err, ErrNullHandle):
		e.Kind = KindNullPointer
	case errors.Is(err, backend.ErrNotBuilt):
		e.Kind = KindUnsupported
	case errors.Is(err, ErrUntrustedIdentity):
		e.Kind = KindCrypto
	case errors.Is(err, ErrSessionNotFound):
		e.Kind = KindInvalidArgument
	default:
		var ve *validate.Error
		var ne *backend.NativeError
		switch {
		case errors.As(err, &ve):
			e.Kind = KindSerialization
		case errors.As(err, &ne):
			e.Kind = nativeKind(ne.Code)
			e.Code = ne.Code
		default:
			e.Kind = KindNative
		}
	}
	return e
}

// nativeKind folds engine error codes into the taxonomy.
func nativeKind(code int32) Kind {
	switch code {
	case backend.CodeNullParameter:
		return KindNullPointer
	case backend.CodeInvalidArgument, backend.CodeInvalidType,
		backend.CodeInvalidUTF8String, backend.CodeInvalidKeyID:
		return KindInvalidArgument
	case backend.CodeProtobufError, backend.CodeInvalidMessage,
		backend.CodeInvalidKey:
		return KindSerialization
	case backend.CodeInvalidSignature, backend.CodeUntrustedIdentity:
		return KindCrypto
	}
	return KindNative
}

// errorf creates a classified Error directly, for failures detected by the
// wrapper itself.
func errorf(op string, kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

package backend

import (
	"errors"
	"fmt"
)

// Error codes shared with the native engine's error enum. The fallback
// engine reports the same codes so the taxonomy mapping above this package
// is identical in both builds.
const (
	CodeUnknownError      = 1
	CodeInvalidState      = 2
	CodeInternalError     = 3
	CodeNullParameter     = 4
	CodeInvalidArgument   = 5
	CodeInvalidType       = 6
	CodeInvalidUTF8String = 7
	CodeProtobufError     = 10
	CodeInvalidMessage    = 30
	CodeInvalidKey        = 40
	CodeInvalidSignature  = 41
	CodeUntrustedIdentity = 60
	CodeInvalidKeyID      = 70
	CodeSessionNotFound   = 80
	CodeDuplicatedMessage = 90
)

// Ciphertext message types, as carried on the wire.
const (
	MessageTypeWhisper   = 2
	MessageTypePreKey    = 3
	MessageTypeSenderKey = 7
)

// MessageVersion is the protocol version emitted in the high nibble of
// every message's leading byte.
const MessageVersion = 3

// ErrNotBuilt reports that the native bindings were not linked into the
// current binary. Operations that require the native engine (and have no
// fallback implementation) return it.
var ErrNotBuilt = errors.New("signal/internal/backend: native bindings not built")

// NativeError carries an engine failure across the boundary. For the cgo
// build the code and message are drained from the native error object,
// which is freed before this value is constructed; the value owns no native
// memory.
type NativeError struct {
	Code    int32
	Message string
}

func (e *NativeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("engine error %d", e.Code)
	}
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

func engineErr(code int32, format string, args ...any) error {
	return &NativeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

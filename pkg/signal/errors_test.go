package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openratchet/signal-go/pkg/signal/internal/backend"
	"github.com/openratchet/signal-go/pkg/signal/validate"
)

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var e *Error
	require.ErrorAs(t, err, &e)
	return e.Kind
}

func TestWrapClassifiesSentinels(t *testing.T) {
	require.Equal(t, KindDisposed, kindOf(t, wrap("Op", ErrDisposed)))
	require.Equal(t, KindNullPointer, kindOf(t, wrap("Op", ErrNullHandle)))
	require.Equal(t, KindUnsupported, kindOf(t, wrap("Op", ErrNotBuilt)))
	require.Equal(t, KindCrypto, kindOf(t, wrap("Op", ErrUntrustedIdentity)))
	require.Equal(t, KindInvalidArgument, kindOf(t, wrap("Op", ErrSessionNotFound)))
}

func TestWrapClassifiesValidationErrors(t *testing.T) {
	err := wrap("DeserializePublicKey", validate.PublicKey([]byte{0x01}))
	require.Equal(t, KindSerialization, kindOf(t, err))

	// The validator error stays reachable through the wrapper.
	var ve *validate.Error
	require.ErrorAs(t, err, &ve)
}

func TestWrapClassifiesNativeCodes(t *testing.T) {
	cases := []struct {
		code int32
		kind Kind
	}{
		{backend.CodeNullParameter, KindNullPointer},
		{backend.CodeInvalidArgument, KindInvalidArgument},
		{backend.CodeInvalidKeyID, KindInvalidArgument},
		{backend.CodeInvalidKey, KindSerialization},
		{backend.CodeInvalidMessage, KindSerialization},
		{backend.CodeProtobufError, KindSerialization},
		{backend.CodeInvalidSignature, KindCrypto},
		{backend.CodeUntrustedIdentity, KindCrypto},
		{backend.CodeInternalError, KindNative},
		{backend.CodeSessionNotFound, KindNative},
	}
	for _, tc := range cases {
		err := wrap("Op", &backend.NativeError{Code: tc.code, Message: "x"})
		require.Equal(t, tc.kind, kindOf(t, err), "code %d", tc.code)

		var e *Error
		require.ErrorAs(t, err, &e)
		require.Equal(t, tc.code, e.Code)
	}
}

func TestWrapNilAndIdempotence(t *testing.T) {
	require.NoError(t, wrap("Op", nil))

	inner := wrap("Inner", ErrDisposed)
	outer := wrap("Outer", inner)
	require.Same(t, inner, outer)

	var e *Error
	require.ErrorAs(t, outer, &e)
	require.Equal(t, "Inner", e.Op)
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	err := wrap("PublicKey.Serialize", ErrDisposed)
	require.Contains(t, err.Error(), "signal.PublicKey.Serialize")
	require.Contains(t, err.Error(), "disposed")
	require.True(t, errors.Is(err, ErrDisposed))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "serialization", KindSerialization.String())
	require.Equal(t, "unknown", KindUnknown.String())
}

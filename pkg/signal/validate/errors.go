package validate

import "fmt"

// Reason names the specific rule a buffer violated. Callers and tests assert
// on the cause, never just on "invalid".
type Reason int

const (
	// ReasonWrongLength: a fixed-size type had a different length.
	ReasonWrongLength Reason = iota + 1
	// ReasonBadKeyType: the leading type byte did not match the expected
	// discriminator.
	ReasonBadKeyType
	// ReasonLowOrderPoint: the key matched the low-order-point blocklist.
	ReasonLowOrderPoint
	// ReasonTooShort: a variable-length type was below its minimum legal
	// encoding size.
	ReasonTooShort
	// ReasonBadLeadingTag: a record did not start with a known field tag.
	ReasonBadLeadingTag
	// ReasonBadVersion: a protocol message carried an unknown version
	// nibble.
	ReasonBadVersion
)

func (r Reason) String() string {
	switch r {
	case ReasonWrongLength:
		return "wrong length"
	case ReasonBadKeyType:
		return "bad key type"
	case ReasonLowOrderPoint:
		return "low-order point"
	case ReasonTooShort:
		return "too short"
	case ReasonBadLeadingTag:
		return "bad leading tag"
	case ReasonBadVersion:
		return "bad version"
	default:
		return "unknown"
	}
}

// Error reports why a buffer was rejected before reaching the engine.
type Error struct {
	Type   string // logical type being validated, e.g. "public key"
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validate %s: %s: %s", e.Type, e.Reason, e.Detail)
}

func wrongLength(typeName string, want, got int) *Error {
	return &Error{Type: typeName, Reason: ReasonWrongLength,
		Detail: fmt.Sprintf("want %d bytes, got %d", want, got)}
}

func badKeyType(typeName string, want, got byte) *Error {
	return &Error{Type: typeName, Reason: ReasonBadKeyType,
		Detail: fmt.Sprintf("want type byte 0x%02x, got 0x%02x", want, got)}
}

func tooShort(typeName string, min, got int) *Error {
	return &Error{Type: typeName, Reason: ReasonTooShort,
		Detail: fmt.Sprintf("minimum %d bytes, got %d", min, got)}
}

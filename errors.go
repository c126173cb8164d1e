package parcel

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrIO indicates the sink or source failed to open, read, write or close.
	ErrIO = errors.New("i/o failure")

	// ErrMalformedEnvelope indicates the decoded document is not a single-field envelope.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrUnresolvableType indicates a type tag names no registered type.
	ErrUnresolvableType = errors.New("unresolvable type")

	// ErrTypeMismatch indicates decoded data is incompatible with the target type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrEncoding indicates a value contains a shape the backend cannot represent.
	ErrEncoding = errors.New("encoding failed")

	// ErrDecoding indicates the input is not valid for the configured wire format.
	ErrDecoding = errors.New("decoding failed")

	// ErrInvariant indicates an absent value was supplied where one is required.
	ErrInvariant = errors.New("invariant violation")

	// ErrMissingResolver indicates a field is marked for external resolution
	// but no resolver was configured.
	ErrMissingResolver = errors.New("missing external value resolver")

	// ErrResolve indicates the configured resolver failed to supply a value.
	ErrResolve = errors.New("resolve failed")

	// ErrDuplicateType indicates conflicting type registrations.
	ErrDuplicateType = errors.New("duplicate type registration")

	// ErrInvalidTag indicates a struct tag has an invalid format or value.
	ErrInvalidTag = errors.New("invalid tag")
)

// ConfigError represents a serializer configuration error.
// It wraps a sentinel error with the type and field that triggered it.
type ConfigError struct {
	Err   error  // Underlying sentinel error (ErrMissingResolver, ErrDuplicateType, ...)
	Type  string // Type identifier involved
	Field string // Field name that triggered the error
}

func (e *ConfigError) Error() string {
	if e.Field != "" && e.Type != "" {
		return fmt.Sprintf("%s for type %q (field %s)", e.Err.Error(), e.Type, e.Field)
	}
	if e.Type != "" {
		return fmt.Sprintf("%s for type %q", e.Err.Error(), e.Type)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s (field %s)", e.Err.Error(), e.Field)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// PathError represents a failure while walking a value tree.
// Path locates the failing node, e.g. "obj.items[1].radius".
type PathError struct {
	Err   error  // Underlying sentinel error (ErrTypeMismatch, ErrEncoding, ...)
	Path  string // Location in the value tree
	Type  string // Go type being encoded or decoded
	Cause error  // Original error, if any
}

func (e *PathError) Error() string {
	msg := e.Err.Error()
	if e.Path != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Path)
	}
	if e.Type != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Type)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// CodecError represents a marshal/unmarshal error from the backend.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrEncoding, ErrDecoding)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// StreamError represents a sink or source failure. It always unwraps to ErrIO.
type StreamError struct {
	Op    string // open, read, write, flush, close
	Cause error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", ErrIO.Error(), e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrIO.Error(), e.Op)
}

func (e *StreamError) Unwrap() error {
	return ErrIO
}

func newConfigError(sentinel error, typ, field string) error {
	return &ConfigError{
		Err:   sentinel,
		Type:  typ,
		Field: field,
	}
}

func newPathError(sentinel error, path, typ string, cause error) error {
	return &PathError{
		Err:   sentinel,
		Path:  path,
		Type:  typ,
		Cause: cause,
	}
}

func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}

func newStreamError(op string, cause error) error {
	return &StreamError{
		Op:    op,
		Cause: errors.WithStack(cause),
	}
}

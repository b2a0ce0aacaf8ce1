// Package codec implements the primitive and composite wire-type packers
// shared by the PPL and ERCI protocols: fixed-width integers and floats in
// both byte orders, IPv4 addresses, MAC addresses, length-prefixed strings,
// fixed/variable arrays, a quad-aligned TLV length, and closed enums backed
// by an integer codec.
//
// Every codec exposes four operations, named after the source protocol
// description this package is ported from: Default (a safe zero value),
// Validate (normalize or reject, never attempt to pack), Pack (exact-width
// bytes) and Unpack (bytes consumed, decoded value).
package codec

import "fmt"

// Codec is the uniform interface every wire-type packer implements.
type Codec interface {
	// Default returns the zero value for this type.
	Default() any
	// Validate normalizes v, or reports ok=false if v is not acceptable.
	// Validate never packs; it only decides whether Pack would succeed.
	Validate(v any) (normalized any, ok bool)
	// Pack encodes an already-validated value to its exact wire width.
	Pack(v any) ([]byte, error)
	// Unpack decodes a value from the front of data, returning the number
	// of bytes consumed.
	Unpack(data []byte) (consumed int, value any, err error)
}

// SerializeError reports a failure to pack a value: an invalid value for a
// codec, or a value that would exceed a hard size limit.
type SerializeError struct {
	Msg string
}

func (e *SerializeError) Error() string { return e.Msg }

func serializeErrorf(format string, args ...any) error {
	return &SerializeError{Msg: fmt.Sprintf(format, args...)}
}

// DeserializeError reports a malformed incoming frame: truncated data,
// an unknown enum value, or trailing/superfluous bytes.
type DeserializeError struct {
	Msg string
}

func (e *DeserializeError) Error() string { return e.Msg }

func deserializeErrorf(format string, args ...any) error {
	return &DeserializeError{Msg: fmt.Sprintf(format, args...)}
}

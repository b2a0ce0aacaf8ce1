// Package wire implements the typed packet schema and frame format shared
// by the PPL and ERCI subprotocols: a PacketType describes a named,
// ordered set of codec-backed fields; a SubProtocol groups PacketTypes
// under sequential command bytes; a Registry binds subprotocol ids to
// versions for framing.
package wire

import (
	"fmt"

	"rbridge/codec"
)

// Field is one named, codec-typed member of a PacketType, packed and
// unpacked in declaration order.
type Field struct {
	Name  string
	Codec codec.Codec
}

// PacketType is the runtime counterpart of create_packet_type in the
// source protocol: rather than generating a Python class at import time,
// fields are held in an explicit, inspectable value.
type PacketType struct {
	Name   string
	Fields []Field
}

// NewPacketType declares a packet body as an ordered list of fields.
func NewPacketType(name string, fields ...Field) *PacketType {
	return &PacketType{Name: name, Fields: fields}
}

func (pt *PacketType) field(name string) (Field, bool) {
	for _, f := range pt.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Message is a decoded packet body: a bag of validated field values bound
// to the PacketType that produced it.
type Message struct {
	Type   *PacketType
	Values map[string]any
}

// New builds a Message for pt, validating every value supplied in values
// and filling any field left unset with its codec default -- mirroring
// BaseMessageClass.__init__ in the source protocol. Supplying a field name
// that pt does not declare is an error.
func (pt *PacketType) New(values map[string]any) (*Message, error) {
	m := &Message{Type: pt, Values: make(map[string]any, len(pt.Fields))}
	remaining := make(map[string]any, len(values))
	for k, v := range values {
		remaining[k] = v
	}
	for _, f := range pt.Fields {
		if v, ok := remaining[f.Name]; ok {
			nv, valid := f.Codec.Validate(v)
			if !valid {
				return nil, fmt.Errorf("wire: invalid value %v for field %q of %s", v, f.Name, pt.Name)
			}
			m.Values[f.Name] = nv
			delete(remaining, f.Name)
		} else {
			m.Values[f.Name] = f.Codec.Default()
		}
	}
	if len(remaining) > 0 {
		return nil, fmt.Errorf("wire: superfluous fields for %s: %v", pt.Name, keysOf(remaining))
	}
	return m, nil
}

// Default returns a Message with every field set to its codec default.
func (pt *PacketType) Default() *Message {
	m, err := pt.New(nil)
	if err != nil {
		panic(err) // unreachable: no values supplied, nothing to reject
	}
	return m
}

// Get returns the named field's value.
func (m *Message) Get(name string) (any, bool) {
	v, ok := m.Values[name]
	return v, ok
}

// Set validates and assigns a single field, matching BaseMessage.set.
func (m *Message) Set(name string, v any) error {
	f, ok := m.Type.field(name)
	if !ok {
		return fmt.Errorf("wire: %s has no field %q", m.Type.Name, name)
	}
	nv, valid := f.Codec.Validate(v)
	if !valid {
		return fmt.Errorf("wire: invalid value %v for field %q of %s", v, name, m.Type.Name)
	}
	m.Values[name] = nv
	return nil
}

// Pack serializes m's fields in declaration order. m.Type must equal pt.
func (pt *PacketType) Pack(m *Message) ([]byte, error) {
	if m.Type != pt {
		return nil, fmt.Errorf("wire: message type %s does not match packet type %s", m.Type.Name, pt.Name)
	}
	var out []byte
	for _, f := range pt.Fields {
		v, ok := m.Values[f.Name]
		if !ok {
			return nil, fmt.Errorf("wire: missing field %q packing %s", f.Name, pt.Name)
		}
		b, err := f.Codec.Pack(v)
		if err != nil {
			return nil, fmt.Errorf("wire: packing field %q of %s: %w", f.Name, pt.Name, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// Unpack decodes exactly pt's fields from the front of data, returning the
// number of bytes consumed. Trailing bytes are left for the caller (a
// SubProtocol checks for superfluous bytes at the frame level).
func (pt *PacketType) Unpack(data []byte) (int, *Message, error) {
	m := &Message{Type: pt, Values: make(map[string]any, len(pt.Fields))}
	total := 0
	rest := data
	for _, f := range pt.Fields {
		n, v, err := f.Codec.Unpack(rest)
		if err != nil {
			return 0, nil, fmt.Errorf("wire: unpacking field %q of %s: %w", f.Name, pt.Name, err)
		}
		m.Values[f.Name] = v
		rest = rest[n:]
		total += n
	}
	return total, m, nil
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

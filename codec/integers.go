package codec

import "encoding/binary"

// IntCodec is a Codec for a fixed-width integer that can additionally be
// folded to/from an int64, which is what EnumCodec needs to validate
// against a set of allowed values regardless of the backing width.
type IntCodec interface {
	Codec
	ToInt64(v any) (int64, bool)
	FromInt64(i int64) any
}

type intKind int

const (
	kindU8 intKind = iota
	kindI8
	kindU16
	kindI16
	kindU32
	kindI32
	kindU64
	kindI64
)

type intCodec struct {
	kind  intKind
	order binary.ByteOrder
}

func (c *intCodec) size() int {
	switch c.kind {
	case kindU8, kindI8:
		return 1
	case kindU16, kindI16:
		return 2
	case kindU32, kindI32:
		return 4
	case kindU64, kindI64:
		return 8
	default:
		return 0
	}
}

func (c *intCodec) Default() any {
	switch c.kind {
	case kindU8:
		return uint8(0)
	case kindI8:
		return int8(0)
	case kindU16:
		return uint16(0)
	case kindI16:
		return int16(0)
	case kindU32:
		return uint32(0)
	case kindI32:
		return int32(0)
	case kindU64:
		return uint64(0)
	case kindI64:
		return int64(0)
	}
	return nil
}

// ToInt64 widens any accepted Go numeric type (including this codec's own
// native type) to an int64 for enum membership checks.
func (c *intCodec) ToInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case uint8:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case int16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	}
	return 0, false
}

func (c *intCodec) FromInt64(i int64) any {
	switch c.kind {
	case kindU8:
		return uint8(i)
	case kindI8:
		return int8(i)
	case kindU16:
		return uint16(i)
	case kindI16:
		return int16(i)
	case kindU32:
		return uint32(i)
	case kindI32:
		return int32(i)
	case kindU64:
		return uint64(i)
	case kindI64:
		return int64(i)
	}
	return nil
}

func (c *intCodec) Validate(v any) (any, bool) {
	i, ok := c.ToInt64(v)
	if !ok {
		return nil, false
	}
	if !c.inRange(i) {
		return nil, false
	}
	return c.FromInt64(i), true
}

func (c *intCodec) inRange(i int64) bool {
	switch c.kind {
	case kindU8:
		return i >= 0 && i <= 0xFF
	case kindI8:
		return i >= -0x80 && i <= 0x7F
	case kindU16:
		return i >= 0 && i <= 0xFFFF
	case kindI16:
		return i >= -0x8000 && i <= 0x7FFF
	case kindU32:
		return i >= 0 && i <= 0xFFFFFFFF
	case kindI32:
		return i >= -0x80000000 && i <= 0x7FFFFFFF
	case kindU64, kindI64:
		return true
	}
	return false
}

func (c *intCodec) Pack(v any) ([]byte, error) {
	nv, ok := c.Validate(v)
	if !ok {
		return nil, serializeErrorf("invalid value %v for integer codec", v)
	}
	buf := make([]byte, c.size())
	i, _ := c.ToInt64(nv)
	switch c.size() {
	case 1:
		buf[0] = byte(i)
	case 2:
		c.order.PutUint16(buf, uint16(i))
	case 4:
		c.order.PutUint32(buf, uint32(i))
	case 8:
		c.order.PutUint64(buf, uint64(i))
	}
	return buf, nil
}

func (c *intCodec) Unpack(data []byte) (int, any, error) {
	n := c.size()
	if len(data) < n {
		return 0, nil, deserializeErrorf("not enough bytes for integer codec: need %d, have %d", n, len(data))
	}
	var u uint64
	switch n {
	case 1:
		u = uint64(data[0])
	case 2:
		u = uint64(c.order.Uint16(data[:2]))
	case 4:
		u = uint64(c.order.Uint32(data[:4]))
	case 8:
		u = c.order.Uint64(data[:8])
	}
	switch c.kind {
	case kindU8:
		return n, uint8(u), nil
	case kindI8:
		return n, int8(int64(int8(u))), nil
	case kindU16:
		return n, uint16(u), nil
	case kindI16:
		return n, int16(int64(int16(u))), nil
	case kindU32:
		return n, uint32(u), nil
	case kindI32:
		return n, int32(int64(int32(u))), nil
	case kindU64:
		return n, uint64(u), nil
	case kindI64:
		return n, int64(u), nil
	}
	return 0, nil, deserializeErrorf("unreachable integer kind")
}

// Big-endian (network byte order) integer codecs.
var (
	U8  IntCodec = &intCodec{kind: kindU8, order: binary.BigEndian}
	I8  IntCodec = &intCodec{kind: kindI8, order: binary.BigEndian}
	U16 IntCodec = &intCodec{kind: kindU16, order: binary.BigEndian}
	I16 IntCodec = &intCodec{kind: kindI16, order: binary.BigEndian}
	U32 IntCodec = &intCodec{kind: kindU32, order: binary.BigEndian}
	I32 IntCodec = &intCodec{kind: kindI32, order: binary.BigEndian}
	U64 IntCodec = &intCodec{kind: kindU64, order: binary.BigEndian}
	I64 IntCodec = &intCodec{kind: kindI64, order: binary.BigEndian}
)

// Little-endian integer codecs.
var (
	U8LE  IntCodec = &intCodec{kind: kindU8, order: binary.LittleEndian}
	I8LE  IntCodec = &intCodec{kind: kindI8, order: binary.LittleEndian}
	U16LE IntCodec = &intCodec{kind: kindU16, order: binary.LittleEndian}
	I16LE IntCodec = &intCodec{kind: kindI16, order: binary.LittleEndian}
	U32LE IntCodec = &intCodec{kind: kindU32, order: binary.LittleEndian}
	I32LE IntCodec = &intCodec{kind: kindI32, order: binary.LittleEndian}
	U64LE IntCodec = &intCodec{kind: kindU64, order: binary.LittleEndian}
	I64LE IntCodec = &intCodec{kind: kindI64, order: binary.LittleEndian}
)

package codec

import (
	"encoding/binary"
	"math"
)

type floatKind int

const (
	kindFloat32 floatKind = iota
	kindFloat64
)

type floatCodec struct {
	kind  floatKind
	order binary.ByteOrder
}

func (c *floatCodec) size() int {
	if c.kind == kindFloat32 {
		return 4
	}
	return 8
}

func (c *floatCodec) Default() any {
	if c.kind == kindFloat32 {
		return float32(0)
	}
	return float64(0)
}

func (c *floatCodec) Validate(v any) (any, bool) {
	switch x := v.(type) {
	case float32:
		if c.kind == kindFloat32 {
			return x, true
		}
		return float64(x), c.kind == kindFloat64
	case float64:
		if c.kind == kindFloat64 {
			return x, true
		}
		return float32(x), c.kind == kindFloat32
	case int:
		return c.Validate(float64(x))
	}
	return nil, false
}

func (c *floatCodec) Pack(v any) ([]byte, error) {
	nv, ok := c.Validate(v)
	if !ok {
		return nil, serializeErrorf("invalid value %v for float codec", v)
	}
	buf := make([]byte, c.size())
	if c.kind == kindFloat32 {
		c.order.PutUint32(buf, math.Float32bits(nv.(float32)))
	} else {
		c.order.PutUint64(buf, math.Float64bits(nv.(float64)))
	}
	return buf, nil
}

func (c *floatCodec) Unpack(data []byte) (int, any, error) {
	n := c.size()
	if len(data) < n {
		return 0, nil, deserializeErrorf("not enough bytes for float codec: need %d, have %d", n, len(data))
	}
	if c.kind == kindFloat32 {
		return n, math.Float32frombits(c.order.Uint32(data[:4])), nil
	}
	return n, math.Float64frombits(c.order.Uint64(data[:8])), nil
}

// Float/Double codecs, big-endian (network byte order) and little-endian.
var (
	Float32BE Codec = &floatCodec{kind: kindFloat32, order: binary.BigEndian}
	Float64BE Codec = &floatCodec{kind: kindFloat64, order: binary.BigEndian}
	Float32LE Codec = &floatCodec{kind: kindFloat32, order: binary.LittleEndian}
	Float64LE Codec = &floatCodec{kind: kindFloat64, order: binary.LittleEndian}
)

package codec

import (
	"encoding/binary"
	"net"
)

// ipv4Codec encodes a 4-byte IPv4 address as an unsigned 32-bit integer.
// Both PPL's host-config fields (big-endian) and one measurement status
// struct (little-endian) use this codec, only the byte order differs.
type ipv4Codec struct {
	order binary.ByteOrder
}

func (c *ipv4Codec) Default() any { return net.IPv4zero.To4() }

func (c *ipv4Codec) Validate(v any) (any, bool) {
	switch x := v.(type) {
	case net.IP:
		ip4 := x.To4()
		if ip4 == nil {
			return nil, false
		}
		return ip4, true
	case string:
		ip := net.ParseIP(x)
		if ip == nil {
			return nil, false
		}
		return c.Validate(ip)
	case [4]byte:
		return net.IPv4(x[0], x[1], x[2], x[3]).To4(), true
	}
	return nil, false
}

func (c *ipv4Codec) Pack(v any) ([]byte, error) {
	nv, ok := c.Validate(v)
	if !ok {
		return nil, serializeErrorf("invalid value %v for ipv4 codec", v)
	}
	ip4 := nv.(net.IP)
	u := binary.BigEndian.Uint32(ip4)
	buf := make([]byte, 4)
	c.order.PutUint32(buf, u)
	return buf, nil
}

func (c *ipv4Codec) Unpack(data []byte) (int, any, error) {
	if len(data) < 4 {
		return 0, nil, deserializeErrorf("not enough bytes for ipv4 codec: need 4, have %d", len(data))
	}
	u := c.order.Uint32(data[:4])
	be := make([]byte, 4)
	binary.BigEndian.PutUint32(be, u)
	return 4, net.IP(be), nil
}

// IPv4 codecs. IPv4BE is used throughout the host-config packets; IPv4LE
// backs exactly one measurement status struct per the protocol description.
var (
	IPv4BE Codec = &ipv4Codec{order: binary.BigEndian}
	IPv4LE Codec = &ipv4Codec{order: binary.LittleEndian}
)

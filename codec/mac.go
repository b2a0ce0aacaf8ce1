package codec

import "net"

// macCodec packs a 6-byte hardware address, big-endian, with no length
// prefix (the wire length is fixed by the codec itself).
type macCodec struct{}

func (macCodec) Default() any { return net.HardwareAddr{0, 0, 0, 0, 0, 0} }

func (macCodec) Validate(v any) (any, bool) {
	switch x := v.(type) {
	case net.HardwareAddr:
		if len(x) != 6 {
			return nil, false
		}
		return x, true
	case string:
		hw, err := net.ParseMAC(x)
		if err != nil || len(hw) != 6 {
			return nil, false
		}
		return hw, true
	case [6]byte:
		return net.HardwareAddr(x[:]), true
	}
	return nil, false
}

func (c macCodec) Pack(v any) ([]byte, error) {
	nv, ok := c.Validate(v)
	if !ok {
		return nil, serializeErrorf("invalid value %v for mac codec", v)
	}
	hw := nv.(net.HardwareAddr)
	out := make([]byte, 6)
	copy(out, hw)
	return out, nil
}

func (macCodec) Unpack(data []byte) (int, any, error) {
	if len(data) < 6 {
		return 0, nil, deserializeErrorf("not enough bytes for mac codec: need 6, have %d", len(data))
	}
	hw := make(net.HardwareAddr, 6)
	copy(hw, data[:6])
	return 6, hw, nil
}

// MAC packs a 6-byte MAC address, big-endian.
var MAC Codec = macCodec{}

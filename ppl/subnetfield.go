package ppl

import (
	"encoding/binary"
	"fmt"
	"math"

	"rbridge/codec"
)

// SubnetEntry is one entry of a MAC config's subnet table (subnetAddress,
// channel, txPower), matching the pd.SubnetEntry constructed in
// createPacketDataMacConfig's subnet loop.
type SubnetEntry struct {
	SubnetAddress uint8
	Channel       uint8
	TxPower       float32
}

// subnetEntryCodec packs a SubnetEntry as a flat 6-byte record: one byte
// each for SubnetAddress/Channel, then a big-endian float32 for TxPower.
type subnetEntryCodec struct{}

func (subnetEntryCodec) Default() any { return SubnetEntry{} }

func (subnetEntryCodec) Validate(v any) (any, bool) {
	s, ok := v.(SubnetEntry)
	return s, ok
}

func (subnetEntryCodec) Pack(v any) ([]byte, error) {
	s, ok := v.(SubnetEntry)
	if !ok {
		return nil, fmt.Errorf("ppl: %v is not a ppl.SubnetEntry", v)
	}
	buf := make([]byte, 6)
	buf[0] = s.SubnetAddress
	buf[1] = s.Channel
	binary.BigEndian.PutUint32(buf[2:], math.Float32bits(s.TxPower))
	return buf, nil
}

func (subnetEntryCodec) Unpack(data []byte) (int, any, error) {
	if len(data) < 6 {
		return 0, nil, fmt.Errorf("ppl: not enough bytes for subnet entry: need 6, have %d", len(data))
	}
	s := SubnetEntry{
		SubnetAddress: data[0],
		Channel:       data[1],
		TxPower:       math.Float32frombits(binary.BigEndian.Uint32(data[2:6])),
	}
	return 6, s, nil
}

// SubnetEntryCodec is the field codec for one subnet table row, used by
// MAC config's Subnets array.
var SubnetEntryCodec codec.Codec = subnetEntryCodec{}
